// Package provider holds the text-generation adapters used by the
// generation fallback chain.
package provider

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"example.com/fittrack/internal/generation"
)

// OpenRouterConfig configures the OpenAI-compatible chat completion adapter.
type OpenRouterConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// OpenRouter calls an OpenAI-compatible chat completions endpoint.
type OpenRouter struct {
	client openai.Client
	model  string
}

// NewOpenRouter builds the adapter. Retries are disabled; the fallback chain
// moves on instead.
func NewOpenRouter(cfg OpenRouterConfig) *OpenRouter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &OpenRouter{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

// Generate implements generation.Provider.
func (p *OpenRouter) Generate(ctx context.Context, prompt string) (string, error) {
	chat, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &generation.ProviderError{Provider: "openrouter", StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", &generation.ProviderError{Provider: "openrouter", Err: err}
	}
	if len(chat.Choices) == 0 {
		return "", &generation.ProviderError{Provider: "openrouter", Err: generation.ErrEmptyResponse}
	}
	return chat.Choices[0].Message.Content, nil
}
