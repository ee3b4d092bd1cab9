package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

// DefaultEmbeddingDimensions is the vector size requested from the embedding
// model.
const DefaultEmbeddingDimensions = 768

// Options selects the Gemini backend. An API key wins over a GCP project.
type Options struct {
	APIKey         string
	Project        string
	Location       string
	Model          string
	EmbeddingModel string
}

type GenAIClient struct {
	client    *genai.Client
	modelName string
}

// NewClient creates the genai client shared by generation and embeddings.
func NewClient(ctx context.Context, opts Options) (*genai.Client, error) {
	cfg := &genai.ClientConfig{}
	switch {
	case opts.APIKey != "":
		cfg.APIKey = opts.APIKey
		cfg.Backend = genai.BackendGeminiAPI
	case opts.Project != "":
		cfg.Project = opts.Project
		cfg.Location = opts.Location
		cfg.Backend = genai.BackendVertexAI
	default:
		return nil, fmt.Errorf("an API key or a GCP project is required")
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return client, nil
}

func NewGenAIClient(client *genai.Client, model string) *GenAIClient {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GenAIClient{client: client, modelName: model}
}

// Generate implements domain.LLMClient using Gemini.
func (g *GenAIClient) Generate(ctx context.Context, p domain.Prompt) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(p.User, genai.RoleUser)}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, generateConfig(p))
	if err != nil {
		return "", fmt.Errorf("genai generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("genai returned empty text")
	}
	return text, nil
}

type GenAIEmbedder struct {
	client *genai.Client
	model  string
	dims   int32
}

func NewGenAIEmbedder(client *genai.Client, model string) *GenAIEmbedder {
	if model == "" {
		model = "gemini-embedding-001"
	}
	return &GenAIEmbedder{client: client, model: model, dims: DefaultEmbeddingDimensions}
}

// Embed implements domain.Embedder.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	dims := e.dims

	res, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType:             "RETRIEVAL_DOCUMENT",
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("genai embed content: %w", err)
	}
	if len(res.Embeddings) == 0 {
		return nil, fmt.Errorf("genai returned no embeddings")
	}
	return res.Embeddings[0].Values, nil
}

func (e *GenAIEmbedder) Dimensions() int { return int(e.dims) }
