package domain

// ResourceRef is a resource recommended inside a mentorship response.
type ResourceRef struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Author    string `json:"author,omitempty"`
	Relevance string `json:"relevance"`
}

// MentorResponse is the structured answer produced by the mentor chain.
type MentorResponse struct {
	Response                    string        `json:"response"`
	Frameworks                  []string      `json:"frameworks"`
	Methodologies               []string      `json:"methodologies"`
	ExcellenceImpact            string        `json:"excellence_impact"`
	Actions                     []string      `json:"actions"`
	DeeperQuestions             []string      `json:"deeper_questions"`
	Resources                   []ResourceRef `json:"resources"`
	ThinkingElevation           string        `json:"thinking_elevation"`
	InterdisciplinaryConnection []string      `json:"interdisciplinary_connections"`
	ResponseTimeMs              float64       `json:"response_time"`
	Error                       string        `json:"error,omitempty"`
}

// MentorshipSession is one persisted query/response exchange.
type MentorshipSession struct {
	ID                 SessionID                         `json:"session_id"`
	StudentID          StudentID                         `json:"student_id"`
	Query              string                            `json:"query"`
	Sophistication     Sophistication                    `json:"query_sophistication"`
	GapAnalysis        string                            `json:"excellence_gap_analysis"`
	Response           MentorResponse                    `json:"scholar_response"`
	QualityScore       float64                           `json:"session_quality_score"`
	ProbabilityUpdates map[Distinction]ProbabilityUpdate `json:"probability_updates"`
	ResponseTimeMs     int                               `json:"response_time_ms"`
	CreatedAt          Timestamp                         `json:"created_at"`
}
