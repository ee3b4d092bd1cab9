package agentflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloGalante/prima-scholar/internal/domain"
	"github.com/PabloGalante/prima-scholar/internal/observability"
)

const mentorSystemPrompt = `You are an elite academic mentor with expertise equivalent to the best research universities.
You mentor an ambitious student who seeks academic excellence and distinction. This is not basic
tutoring: elevate the student's thinking to scholar level while addressing the query.

Your answer must:
1. Address the query at the highest appropriate academic level.
2. Connect it to 2-3 major theoretical frameworks or scholarly traditions.
3. Suggest advanced methodologies and analytical approaches.
4. Explain how mastering this concept elevates the student's academic profile.
5. Recommend specific scholarly actions and elite resources.
6. Pose 2-3 deeper questions that push thinking beyond the original query.
7. Explain how the answer elevates their thinking beyond basic understanding.

Answer with a single JSON object of this shape:
{
  "response": "scholar-level mentorship response (750-1000 words)",
  "frameworks": ["Framework 1", "Framework 2", "Framework 3"],
  "methodologies": ["Method 1", "Method 2"],
  "excellence_impact": "how this elevates academic standing",
  "actions": ["Action 1", "Action 2", "Action 3"],
  "deeper_questions": ["Question 1", "Question 2", "Question 3"],
  "resources": [
    {"type": "journal", "title": "Journal", "relevance": "why it matters"},
    {"type": "book", "title": "Book", "author": "Author", "relevance": "academic value"}
  ],
  "thinking_elevation": "how the answer goes beyond the basic level",
  "interdisciplinary_connections": ["Connection to another field"]
}

Keep the tone of an inspiring, world-class mentor who recognizes the student's potential.`

// MentorAgent produces the structured mentorship answer as JSON text.
type MentorAgent struct {
	llm domain.LLMClient
}

func NewMentorAgent(llm domain.LLMClient) *MentorAgent {
	return &MentorAgent{llm: llm}
}

func (a *MentorAgent) Name() string {
	return "mentor"
}

func (a *MentorAgent) Run(ctx context.Context, in AgentInput) (AgentOutput, error) {
	log := observability.LoggerFromContext(ctx).With("agent", a.Name())

	reply, err := a.llm.Generate(ctx, domain.Prompt{
		System:      mentorSystemPrompt,
		User:        mentorUserPrompt(in.Message, in.Brief),
		JSON:        true,
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		log.Error("mentor agent error", "error", err)
		return AgentOutput{}, err
	}

	return AgentOutput{
		Reply: reply,
		Brief: in.Brief,
	}, nil
}

func mentorUserPrompt(query string, b Brief) string {
	var sb strings.Builder

	sb.WriteString("STUDENT EXCELLENCE PROFILE:\n")
	fmt.Fprintf(&sb, "- Current Excellence Score: %.1f/100\n", b.ExcellenceScore)
	fmt.Fprintf(&sb, "- Target Academic Distinction: %s\n", b.TargetDistinction)
	fmt.Fprintf(&sb, "- Query Sophistication Level: %s\n", b.Sophistication)
	fmt.Fprintf(&sb, "- Academic Field: %s\n", b.AcademicField)
	fmt.Fprintf(&sb, "- Engagement Pattern: %s\n\n", b.EngagementPattern)

	sb.WriteString("EXCELLENCE GAP ANALYSIS:\n")
	sb.WriteString(strings.TrimSpace(b.GapAnalysis))
	sb.WriteString("\n\n")

	if b.Framing != "" {
		sb.WriteString("SCHOLARLY FRAMING OF THE QUESTION:\n")
		sb.WriteString(strings.TrimSpace(b.Framing))
		sb.WriteString("\n\n")
	}

	sb.WriteString("ACADEMIC CONTEXT FROM STUDENT'S DOCUMENTS:\n")
	if len(b.ContextDocuments) == 0 {
		sb.WriteString("No specific context available")
	} else {
		sb.WriteString(strings.Join(b.ContextDocuments, "\n"))
	}
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "STUDENT QUERY: %q", query)
	return sb.String()
}
