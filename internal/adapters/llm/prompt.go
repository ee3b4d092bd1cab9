package llm

import (
	"google.golang.org/genai"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

const (
	defaultTemperature = float32(0.7)
	defaultTopP        = float32(0.9)
	defaultMaxTokens   = int32(2000)
)

// generateConfig maps a domain prompt onto the Gemini request options.
func generateConfig(p domain.Prompt) *genai.GenerateContentConfig {
	temp := p.Temperature
	if temp <= 0 {
		temp = defaultTemperature
	}
	topP := defaultTopP

	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: maxTokens,
	}
	if p.System != "" {
		// the system instruction is sent with the user role
		cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}
	if p.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}
