package mentorship

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/prima-scholar/internal/app/agentflow"
	"github.com/PabloGalante/prima-scholar/internal/app/tools"
	"github.com/PabloGalante/prima-scholar/internal/domain"
	"github.com/PabloGalante/prima-scholar/internal/observability"
)

const (
	recentSessions     = 5
	contextDocuments   = 5
	fieldSampleChunks  = 10
	defaultHistory     = 10
	previewLength      = 200
	milestoneThreshold = 50.0
	slowResponseMs     = 3000
	fallbackResponseMs = 150
)

var qualityMultiplier = map[domain.Sophistication]float64{
	domain.SophisticationBasic:        1.0,
	domain.SophisticationIntermediate: 1.2,
	domain.SophisticationAdvanced:     1.5,
	domain.SophisticationScholar:      2.0,
}

var engagementImpact = map[domain.Sophistication]float64{
	domain.SophisticationBasic:        0.5,
	domain.SophisticationIntermediate: 1.0,
	domain.SophisticationAdvanced:     2.0,
	domain.SophisticationScholar:      3.5,
}

// Predictor supplies the current distinction probabilities.
type Predictor interface {
	PredictAll(ctx context.Context, id domain.StudentID) ([]*domain.Prediction, error)
}

// ContextSearcher finds document passages relevant to a query.
type ContextSearcher interface {
	RelevantContext(ctx context.Context, id domain.StudentID, query string, limit int) []string
}

// Runner runs the agent chain and returns the mentor's raw reply.
type Runner interface {
	Run(ctx context.Context, brief agentflow.Brief) (string, error)
}

type Deps struct {
	Profiles  domain.ProfileStore
	Sessions  domain.MentorshipStore
	Documents domain.DocumentStore
	Search    ContextSearcher
	Predictor Predictor
	Flow      Runner
	Milestone tools.Tool
}

type Service struct {
	profiles  domain.ProfileStore
	sessions  domain.MentorshipStore
	documents domain.DocumentStore
	search    ContextSearcher
	predictor Predictor
	flow      Runner
	milestone tools.Tool
	now       func() time.Time
}

// NewService wires the mentorship flow. Search, Predictor and Milestone are
// optional.
func NewService(d Deps) *Service {
	return &Service{
		profiles:  d.Profiles,
		sessions:  d.Sessions,
		documents: d.Documents,
		search:    d.Search,
		predictor: d.Predictor,
		flow:      d.Flow,
		milestone: d.Milestone,
		now:       time.Now,
	}
}

type Request struct {
	StudentID        domain.StudentID `json:"student_id"`
	Query            string           `json:"query"`
	ContextDocuments []string         `json:"context_documents,omitempty"`
}

type Result struct {
	SessionID          domain.SessionID                                `json:"session_id"`
	Sophistication     domain.Sophistication                           `json:"query_sophistication"`
	GapAnalysis        string                                          `json:"excellence_gap_analysis"`
	ScholarResponse    string                                          `json:"scholar_response"`
	Frameworks         []string                                        `json:"theoretical_frameworks"`
	Methodologies      []string                                        `json:"advanced_methodologies"`
	ExcellenceImpact   string                                          `json:"excellence_impact"`
	Actions            []string                                        `json:"scholarly_actions"`
	DeeperQuestions    []string                                        `json:"deeper_questions"`
	Resources          []domain.ResourceRef                            `json:"resource_recommendations"`
	ThinkingElevation  string                                          `json:"thinking_elevation"`
	Interdisciplinary  []string                                        `json:"interdisciplinary_connections"`
	QualityScore       float64                                         `json:"session_quality_score"`
	ProbabilityUpdates map[domain.Distinction]domain.ProbabilityUpdate `json:"probability_updates"`
	ResponseTimeMs     float64                                         `json:"response_time"`
	GeneratedAt        time.Time                                       `json:"generated_at"`
}

// Ask runs one mentorship exchange: assess the query, build the student
// brief, run the agent chain, score the session, move the predictions and
// persist the session.
func (s *Service) Ask(ctx context.Context, req Request) (*Result, error) {
	query := strings.TrimSpace(req.Query)
	if req.StudentID == "" || query == "" {
		return nil, fmt.Errorf("%w: student_id and query are required", domain.ErrInvalidInput)
	}

	log := observability.LoggerFromContext(ctx).With("student_id", req.StudentID)

	profile, err := s.profiles.GetProfile(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}

	soph := AssessSophistication(query)
	brief := agentflow.Brief{
		StudentID:         req.StudentID,
		Query:             query,
		ExcellenceScore:   profile.ExcellenceScore,
		TargetDistinction: profile.TargetDistinction,
		Sophistication:    soph,
		AcademicField:     s.field(ctx, req.StudentID),
		EngagementPattern: s.engagement(ctx, req.StudentID),
		GapAnalysis:       GapAnalysis(profile, soph),
		ContextDocuments:  req.ContextDocuments,
	}
	if brief.TargetDistinction == "" {
		brief.TargetDistinction = domain.DeanList
	}
	if len(brief.ContextDocuments) == 0 && s.search != nil {
		brief.ContextDocuments = s.search.RelevantContext(ctx, req.StudentID, query, contextDocuments)
	}

	resp := s.respond(ctx, brief)
	quality := SessionQuality(resp, soph)
	updates := s.updatePredictions(ctx, req.StudentID, soph, quality)

	now := s.now().UTC()
	session := &domain.MentorshipSession{
		ID:                 domain.SessionID(uuid.NewString()),
		StudentID:          req.StudentID,
		Query:              query,
		Sophistication:     soph,
		GapAnalysis:        brief.GapAnalysis,
		Response:           resp,
		QualityScore:       quality,
		ProbabilityUpdates: updates,
		ResponseTimeMs:     int(resp.ResponseTimeMs),
		CreatedAt:          now,
	}
	if err := s.sessions.AppendSession(ctx, session); err != nil {
		log.Error("failed to store mentorship session", "error", err)
		return nil, err
	}

	s.notifyMilestones(ctx, session)

	log.Info("mentorship session stored",
		"session_id", session.ID,
		"sophistication", soph,
		"quality", quality)

	return &Result{
		SessionID:          session.ID,
		Sophistication:     soph,
		GapAnalysis:        brief.GapAnalysis,
		ScholarResponse:    resp.Response,
		Frameworks:         resp.Frameworks,
		Methodologies:      resp.Methodologies,
		ExcellenceImpact:   resp.ExcellenceImpact,
		Actions:            resp.Actions,
		DeeperQuestions:    resp.DeeperQuestions,
		Resources:          resp.Resources,
		ThinkingElevation:  resp.ThinkingElevation,
		Interdisciplinary:  resp.InterdisciplinaryConnection,
		QualityScore:       quality,
		ProbabilityUpdates: updates,
		ResponseTimeMs:     resp.ResponseTimeMs,
		GeneratedAt:        now,
	}, nil
}

// respond runs the agent chain and parses its JSON reply, falling back to a
// generic scholarly response.
func (s *Service) respond(ctx context.Context, brief agentflow.Brief) domain.MentorResponse {
	log := observability.LoggerFromContext(ctx)
	start := s.now()

	if s.flow == nil {
		return FallbackResponse("", brief.Query, "no mentor configured")
	}

	raw, err := s.flow.Run(ctx, brief)
	if err != nil {
		log.Warn("mentor chain failed, using fallback response", "error", err)
		return FallbackResponse("", brief.Query, err.Error())
	}

	resp, ok := ParseResponse(raw)
	if !ok {
		log.Warn("mentor reply was not JSON, using fallback response")
		resp = FallbackResponse(raw, brief.Query, "")
	}
	resp.ResponseTimeMs = float64(s.now().Sub(start).Microseconds()) / 1000
	return resp
}

// ParseResponse decodes the outermost JSON object of raw.
func ParseResponse(raw string) (domain.MentorResponse, bool) {
	var resp domain.MentorResponse

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return resp, false
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &resp); err != nil {
		return resp, false
	}
	if strings.TrimSpace(resp.Response) == "" {
		return resp, false
	}
	return resp, true
}

// FallbackResponse is served when the model is unavailable or its reply
// cannot be parsed. A non-empty content is kept as the response text.
func FallbackResponse(content, query, errMsg string) domain.MentorResponse {
	if content == "" {
		content = fmt.Sprintf("I understand you're asking about %s. Let me provide a comprehensive academic "+
			"perspective on this important topic...", query)
	}
	return domain.MentorResponse{
		Response:         content,
		Frameworks:       []string{"Academic Excellence Framework", "Critical Thinking Model"},
		Methodologies:    []string{"Systematic Analysis", "Comparative Study"},
		ExcellenceImpact: "This inquiry demonstrates advanced scholarly thinking",
		Actions:          []string{"Deep dive into primary sources", "Connect with field experts", "Develop original analysis"},
		DeeperQuestions: []string{
			fmt.Sprintf("What are the broader implications of %s?", query),
			"How does this connect to emerging research trends?",
			"What interdisciplinary perspectives could enhance understanding?",
		},
		Resources: []domain.ResourceRef{
			{Type: "journal", Title: "Leading Academic Journal", Relevance: "Core research in this field"},
			{Type: "book", Title: "Foundational Text", Author: "Expert Scholar", Relevance: "Essential theoretical grounding"},
		},
		ThinkingElevation:           "This response elevates thinking by connecting theoretical frameworks with practical applications",
		InterdisciplinaryConnection: []string{"Philosophy", "Research Methods", "Contemporary Theory"},
		ResponseTimeMs:              fallbackResponseMs,
		Error:                       errMsg,
	}
}

// SessionQuality scores a session in [1,5].
func SessionQuality(resp domain.MentorResponse, soph domain.Sophistication) float64 {
	mult, ok := qualityMultiplier[soph]
	if !ok {
		mult = 1.0
	}
	score := 3.0 * mult

	if n := len(resp.Response); n > 800 {
		score += 0.5
	} else if n > 500 {
		score += 0.3
	}
	score += math.Min(0.4, float64(len(resp.Frameworks))*0.1)
	score += math.Min(0.3, float64(len(resp.Methodologies))*0.1)

	if resp.ResponseTimeMs > slowResponseMs {
		score -= 0.2
	}
	return round(math.Min(5, math.Max(1, score)), 2)
}

// ApplyEngagement moves every prediction towards 100 by the engagement
// impact, with diminishing returns near the top.
func ApplyEngagement(preds []*domain.Prediction, soph domain.Sophistication, quality float64) map[domain.Distinction]domain.ProbabilityUpdate {
	impact, ok := engagementImpact[soph]
	if !ok {
		impact = 1.0
	}
	increase := impact * quality / 4.0

	out := make(map[domain.Distinction]domain.ProbabilityUpdate, len(preds))
	for _, p := range preds {
		cur := p.Probability
		inc := math.Min(increase, (100-cur)*0.1)
		updated := math.Min(100, cur+inc)
		out[p.Distinction] = domain.ProbabilityUpdate{
			Previous: cur,
			Updated:  round(updated, 2),
			Increase: round(updated-cur, 2),
		}
	}
	return out
}

func (s *Service) updatePredictions(ctx context.Context, id domain.StudentID, soph domain.Sophistication, quality float64) map[domain.Distinction]domain.ProbabilityUpdate {
	if s.predictor == nil {
		return map[domain.Distinction]domain.ProbabilityUpdate{}
	}
	preds, err := s.predictor.PredictAll(ctx, id)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("prediction update failed", "error", err)
		return map[domain.Distinction]domain.ProbabilityUpdate{}
	}
	return ApplyEngagement(preds, soph, quality)
}

// notifyMilestones invokes the milestone tool for every distinction whose
// probability crossed the threshold in this session.
func (s *Service) notifyMilestones(ctx context.Context, session *domain.MentorshipSession) {
	if s.milestone == nil {
		return
	}
	for _, req := range domain.Requirements {
		u, ok := session.ProbabilityUpdates[req.Distinction]
		if !ok || u.Previous >= milestoneThreshold || u.Updated < milestoneThreshold {
			continue
		}
		tctx := tools.ToolContext{
			StudentID: string(session.StudentID),
			SessionID: string(session.ID),
			RequestID: observability.RequestIDFromContext(ctx),
		}
		input := map[string]any{
			"distinction": string(req.Distinction),
			"previous":    u.Previous,
			"updated":     u.Updated,
		}
		if _, err := s.milestone.Call(ctx, tctx, input); err != nil {
			observability.LoggerFromContext(ctx).Warn("milestone notification failed", "error", err)
		}
	}
}

func (s *Service) field(ctx context.Context, id domain.StudentID) string {
	if s.documents == nil {
		return DefaultField
	}
	chunks, err := s.documents.ListChunks(ctx, id, fieldSampleChunks)
	if err != nil {
		return "interdisciplinary"
	}
	return InferField(chunks)
}

func (s *Service) engagement(ctx context.Context, id domain.StudentID) string {
	recent, err := s.sessions.ListSessions(ctx, id, recentSessions)
	if err != nil {
		return "unknown"
	}
	return EngagementPattern(recent)
}

type HistoryItem struct {
	SessionID       domain.SessionID      `json:"session_id"`
	Query           string                `json:"query"`
	Sophistication  domain.Sophistication `json:"sophistication"`
	QualityScore    float64               `json:"quality_score"`
	CreatedAt       time.Time             `json:"created_at"`
	ResponsePreview string                `json:"response_preview"`
	FrameworksUsed  []string              `json:"frameworks_used"`
}

// History returns the newest sessions first with a preview of each response.
func (s *Service) History(ctx context.Context, id domain.StudentID, limit int) ([]HistoryItem, error) {
	if limit <= 0 {
		limit = defaultHistory
	}
	sessions, err := s.sessions.ListSessions(ctx, id, limit)
	if err != nil {
		return nil, err
	}

	out := make([]HistoryItem, 0, len(sessions))
	for _, ss := range sessions {
		item := HistoryItem{
			SessionID:      ss.ID,
			Query:          ss.Query,
			Sophistication: ss.Sophistication,
			QualityScore:   ss.QualityScore,
			CreatedAt:      ss.CreatedAt,
			FrameworksUsed: ss.Response.Frameworks,
		}
		if r := []rune(ss.Response.Response); len(r) > 0 {
			item.ResponsePreview = string(r[:min(len(r), previewLength)]) + "..."
		}
		if item.FrameworksUsed == nil {
			item.FrameworksUsed = []string{}
		}
		out = append(out, item)
	}
	return out, nil
}

type Analytics struct {
	TotalSessions      int     `json:"total_sessions"`
	AverageQuality     float64 `json:"average_quality"`
	PeakQuality        float64 `json:"peak_quality"`
	ScholarPercentage  float64 `json:"scholar_percentage"`
	AdvancedPercentage float64 `json:"advanced_percentage"`
	ExcellenceRate     float64 `json:"excellence_rate"`
	EngagementPattern  string  `json:"engagement_pattern"`
}

// Analytics aggregates every session of a student.
func (s *Service) Analytics(ctx context.Context, id domain.StudentID) (*Analytics, error) {
	sessions, err := s.sessions.ListSessions(ctx, id, 0)
	if err != nil {
		return nil, err
	}

	a := &Analytics{
		TotalSessions:     len(sessions),
		EngagementPattern: EngagementPattern(sessions[:min(len(sessions), recentSessions)]),
	}
	if len(sessions) == 0 {
		return a, nil
	}

	var total float64
	scholar, advanced, high := 0, 0, 0
	for _, ss := range sessions {
		total += ss.QualityScore
		a.PeakQuality = math.Max(a.PeakQuality, ss.QualityScore)
		switch ss.Sophistication {
		case domain.SophisticationScholar:
			scholar++
		case domain.SophisticationAdvanced:
			advanced++
		}
		if ss.QualityScore > 4.0 {
			high++
		}
	}

	n := float64(len(sessions))
	a.AverageQuality = round(total/n, 2)
	a.ScholarPercentage = round(float64(scholar)/n*100, 1)
	a.AdvancedPercentage = round(float64(advanced)/n*100, 1)
	a.ExcellenceRate = round(float64(high)/n*100, 1)
	return a, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
