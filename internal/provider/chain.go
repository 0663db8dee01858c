package provider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"example.com/fittrack/internal/generation"
)

// ChainConfig lists the provider settings used to assemble the fallback chain.
type ChainConfig struct {
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string
	GeminiAPIKey      string
	GeminiModel       string
	LocalURL          string
	Timeout           time.Duration
	LocalTimeout      time.Duration
}

// Chain builds the ordered steps: OpenRouter, Gemini, then the local server.
// Providers without credentials or an endpoint are left out.
func Chain(ctx context.Context, cfg ChainConfig, logger *zap.Logger) []generation.Step {
	steps := make([]generation.Step, 0, 3)

	if cfg.OpenRouterAPIKey != "" {
		steps = append(steps, generation.Step{
			Stage: generation.StageProviderA,
			Provider: NewOpenRouter(OpenRouterConfig{
				APIKey:  cfg.OpenRouterAPIKey,
				BaseURL: cfg.OpenRouterBaseURL,
				Model:   cfg.OpenRouterModel,
			}),
			Timeout: cfg.Timeout,
		})
	} else {
		logger.Info("provider A disabled: no OpenRouter API key")
	}

	if cfg.GeminiAPIKey != "" {
		gemini, err := NewGemini(ctx, GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
		if err != nil {
			logger.Warn("provider B disabled", zap.Error(err))
		} else {
			steps = append(steps, generation.Step{Stage: generation.StageProviderB, Provider: gemini, Timeout: cfg.Timeout})
		}
	} else {
		logger.Info("provider B disabled: no Gemini API key")
	}

	if cfg.LocalURL != "" {
		steps = append(steps, generation.Step{
			Stage:    generation.StageLocal,
			Provider: NewLocal(cfg.LocalURL, cfg.LocalTimeout),
			Timeout:  cfg.LocalTimeout,
		})
	}
	return steps
}
