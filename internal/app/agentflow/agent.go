package agentflow

import (
	"context"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

// Brief is the student context every agent of the chain sees.
type Brief struct {
	StudentID         domain.StudentID
	Query             string
	ExcellenceScore   float64
	TargetDistinction domain.Distinction
	Sophistication    domain.Sophistication
	AcademicField     string
	EngagementPattern string
	GapAnalysis       string
	ContextDocuments  []string

	// Framing is filled in by the framer agent.
	Framing string
}

type AgentInput struct {
	Message string
	Brief   Brief
}

type AgentOutput struct {
	Reply string
	Brief Brief
}

// Agent is one step of the mentorship chain.
type Agent interface {
	Name() string
	Run(ctx context.Context, in AgentInput) (AgentOutput, error)
}
