package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

func TestMockLLMPlainText(t *testing.T) {
	out, err := NewMockLLM().Generate(context.Background(), domain.Prompt{
		User: "First sentence. Second one! Third?",
	})
	require.NoError(t, err)
	assert.Equal(t, "First sentence. Second one!", out)
}

func TestMockLLMJSON(t *testing.T) {
	out, err := NewMockLLM().Generate(context.Background(), domain.Prompt{
		User: "Profile...\nStudent query: \"What is entropy?\"",
		JSON: true,
	})
	require.NoError(t, err)

	var resp domain.MentorResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Contains(t, resp.Response, `"What is entropy?"`)
	assert.Len(t, resp.Frameworks, 3)
	assert.Len(t, resp.DeeperQuestions, 3)
	assert.Greater(t, len(resp.Response), 500)
}

func TestQueryLine(t *testing.T) {
	assert.Equal(t, "last line", queryLine("first\nlast line\n"))
	assert.Equal(t, "why", queryLine("Query: why\ntrailing"))
}

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(32)
	ctx := context.Background()

	a, err := e.Embed(ctx, "Neural networks and deep learning")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "neural networks, and deep learning!")
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.Equal(t, a, b)
	assert.Equal(t, 32, e.Dimensions())
	assert.Equal(t, 256, NewHashEmbedder(0).Dimensions())
}

func TestGenerateConfig(t *testing.T) {
	cfg := generateConfig(domain.Prompt{System: "sys", JSON: true})
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	assert.Equal(t, float32(0.7), *cfg.Temperature)
	assert.Equal(t, int32(2000), cfg.MaxOutputTokens)
	require.NotNil(t, cfg.SystemInstruction)

	plain := generateConfig(domain.Prompt{Temperature: 0.2, MaxTokens: 100})
	assert.Empty(t, plain.ResponseMIMEType)
	assert.Nil(t, plain.SystemInstruction)
	assert.Equal(t, float32(0.2), *plain.Temperature)
}
