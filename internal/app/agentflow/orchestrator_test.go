package agentflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

type recordingLLM struct {
	prompts []domain.Prompt
	replies []string
	err     error
}

func (r *recordingLLM) Generate(_ context.Context, p domain.Prompt) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.prompts = append(r.prompts, p)
	reply := r.replies[0]
	r.replies = r.replies[1:]
	return reply, nil
}

func TestDefaultOrchestratorPassesFramingToMentor(t *testing.T) {
	llm := &recordingLLM{replies: []string{"A question about thermodynamic equilibrium.", `{"response":"ok"}`}}
	o := NewDefaultOrchestrator(llm)

	out, err := o.Run(context.Background(), Brief{
		StudentID:         "stu-1",
		Query:             "Why does entropy increase?",
		TargetDistinction: domain.DeanList,
		AcademicField:     "STEM",
		GapAnalysis:       "Excellence Gap Analysis:\n- Score Gap: 5.0 points",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"response":"ok"}`, out)

	require.Len(t, llm.prompts, 2)
	framer, mentor := llm.prompts[0], llm.prompts[1]
	assert.False(t, framer.JSON)
	assert.Contains(t, framer.User, "Student query: Why does entropy increase?")

	assert.True(t, mentor.JSON)
	assert.Contains(t, mentor.User, "SCHOLARLY FRAMING OF THE QUESTION:\nA question about thermodynamic equilibrium.")
	assert.Contains(t, mentor.User, "No specific context available")
	assert.True(t, strings.HasSuffix(mentor.User, `STUDENT QUERY: "Why does entropy increase?"`))
}

func TestOrchestratorStopsOnAgentError(t *testing.T) {
	o := NewDefaultOrchestrator(&recordingLLM{err: errors.New("quota")})

	_, err := o.Run(context.Background(), Brief{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent framer failed")
}

func TestOrchestratorWithoutAgents(t *testing.T) {
	_, err := NewOrchestrator().Run(context.Background(), Brief{})
	assert.Error(t, err)
}

func TestMentorPromptIncludesContext(t *testing.T) {
	p := mentorUserPrompt("q", Brief{ExcellenceScore: 72.34, ContextDocuments: []string{"[A]: one", "[B]: two"}})
	assert.Contains(t, p, "- Current Excellence Score: 72.3/100")
	assert.Contains(t, p, "[A]: one\n[B]: two")
	assert.NotContains(t, p, "SCHOLARLY FRAMING")
}
