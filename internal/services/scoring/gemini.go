package scoring

import (
	"context"
	"net/http"

	"google.golang.org/genai"

	"selene/internal/adapters/config"
	"selene/pkg/errors"
)

// Compile-time check
var _ Generator = (*GeminiGenerator)(nil)

// GeminiGenerator implements Generator using the Gemini API
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini-backed generator
func NewGeminiGenerator(ctx context.Context, cfg config.GeminiConfig) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}

	return &GeminiGenerator{
		client: client,
		model:  cfg.Model,
	}, nil
}

// Generate sends the prompt and returns the response text
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", errors.Wrap(err, "gemini generate content")
	}

	text := resp.Text()
	if text == "" {
		return "", errors.Wrap(errors.ErrUpstream, "empty gemini response")
	}

	return text, nil
}
