package agentflow

import (
	"context"
	"fmt"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

// FramerAgent restates the student's question at scholar level and names the
// traditions it belongs to, so the mentor answers the deeper question.
type FramerAgent struct {
	llm domain.LLMClient
}

func NewFramerAgent(llm domain.LLMClient) *FramerAgent {
	return &FramerAgent{llm: llm}
}

func (a *FramerAgent) Name() string {
	return "framer"
}

func (a *FramerAgent) Run(ctx context.Context, in AgentInput) (AgentOutput, error) {
	prompt := domain.Prompt{
		System: "You are Prima Scholar's Framer agent. You never answer the question. " +
			"You restate it as a precise scholarly problem in 2-4 sentences, name the discipline it belongs to " +
			"and the 2-3 theoretical frameworks or scholarly traditions most relevant to it.",
		User: fmt.Sprintf(
			"Academic field: %s\nQuery sophistication: %s\n\nStudent query: %s",
			in.Brief.AcademicField, in.Brief.Sophistication, in.Message,
		),
		Temperature: 0.3,
		MaxTokens:   400,
	}

	reply, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		return AgentOutput{}, err
	}

	brief := in.Brief
	brief.Framing = reply
	return AgentOutput{
		Reply: in.Message,
		Brief: brief,
	}, nil
}
