package provider

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"example.com/fittrack/internal/generation"
)

// GeminiConfig configures the Gemini adapter. BaseURL is only set in tests.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Gemini generates text with the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates the genai client.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model}, nil
}

// Generate implements generation.Provider.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &generation.ProviderError{Provider: "gemini", StatusCode: apiErr.Code, Err: err}
		}
		return "", &generation.ProviderError{Provider: "gemini", Err: err}
	}
	text := resp.Text()
	if text == "" {
		return "", &generation.ProviderError{Provider: "gemini", Err: generation.ErrEmptyResponse}
	}
	return text, nil
}
