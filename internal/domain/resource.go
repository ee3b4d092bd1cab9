package domain

// Resource is an entry of the curated elite resource catalog.
type Resource struct {
	Title               string                  `json:"title" yaml:"title"`
	Type                string                  `json:"resource_type" yaml:"type"`
	ExcellenceLevel     ExcellenceTier          `json:"excellence_level" yaml:"excellence_level"`
	Description         string                  `json:"description" yaml:"description"`
	URL                 string                  `json:"url" yaml:"url"`
	AccessRequirements  string                  `json:"access_requirements" yaml:"access_requirements"`
	ImpactOnDistinction map[Distinction]float64 `json:"impact_on_distinctions" yaml:"impact_on_distinctions"`
	TargetLevel         AcademicLevel           `json:"target_academic_level" yaml:"target_academic_level"`
}

// ToolLog records one invocation of an external tool.
type ToolLog struct {
	ID              string         `json:"id"`
	StudentID       StudentID      `json:"student_id"`
	ToolName        string         `json:"tool_name"`
	Action          string         `json:"action"`
	Payload         map[string]any `json:"payload"`
	Response        map[string]any `json:"response"`
	Success         bool           `json:"success"`
	ExecutionTimeMs int64          `json:"execution_time_ms"`
	CreatedAt       Timestamp      `json:"created_at"`
}
