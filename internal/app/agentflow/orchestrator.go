package agentflow

import (
	"context"
	"fmt"
	"time"

	"github.com/PabloGalante/prima-scholar/internal/domain"
	"github.com/PabloGalante/prima-scholar/internal/observability"
)

// Orchestrator is responsible for running multiple agents in sequence.
type Orchestrator struct {
	agents []Agent
}

// NewDefaultOrchestrator constructs a flow with Framer -> Mentor.
func NewDefaultOrchestrator(llm domain.LLMClient) *Orchestrator {
	return NewOrchestrator(
		NewFramerAgent(llm),
		NewMentorAgent(llm),
	)
}

func NewOrchestrator(agents ...Agent) *Orchestrator {
	return &Orchestrator{agents: agents}
}

// Run executes the chain of agents sequentially and returns the reply of
// the last one.
func (o *Orchestrator) Run(ctx context.Context, brief Brief) (string, error) {
	if len(o.agents) == 0 {
		return "", fmt.Errorf("no agents configured in orchestrator")
	}

	log := observability.LoggerFromContext(ctx).With("student_id", brief.StudentID)
	log.Info("orchestrator started", "agents_count", len(o.agents))

	in := AgentInput{
		Message: brief.Query,
		Brief:   brief,
	}

	var (
		out AgentOutput
		err error
	)

	for _, ag := range o.agents {
		start := time.Now()
		log.Debug("agent run start", "agent", ag.Name())

		out, err = ag.Run(ctx, in)
		if err != nil {
			log.Error("agent failed",
				"agent", ag.Name(),
				"error", err)
			return "", fmt.Errorf("agent %s failed: %w", ag.Name(), err)
		}

		log.Debug("agent run end", "agent", ag.Name(), "elapsed_ms", time.Since(start).Milliseconds())

		// each agent sees the query and the brief as enriched so far
		in.Brief = out.Brief
	}

	log.Info("orchestrator end")
	return out.Reply, nil
}
