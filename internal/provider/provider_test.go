package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"example.com/fittrack/internal/generation"
)

func TestLocalGenerateReturnsResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body localRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "make a plan", body.Prompt)
		_ = json.NewEncoder(w).Encode(localResponse{Result: "Warm-up: ..."})
	}))
	defer srv.Close()

	text, err := NewLocal(srv.URL, time.Second).Generate(context.Background(), "make a plan")
	require.NoError(t, err)
	require.Equal(t, "Warm-up: ...", text)
}

func TestLocalGenerateTypedFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		code   int
	}{
		{"non 2xx", http.StatusBadGateway, `{"error":"down"}`, http.StatusBadGateway},
		{"malformed", http.StatusOK, `not json`, 0},
		{"empty result", http.StatusOK, `{"result":"  "}`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewLocal(srv.URL, time.Second).Generate(context.Background(), "p")
			var perr *generation.ProviderError
			require.ErrorAs(t, err, &perr)
			require.Equal(t, "local", perr.Provider)
			require.Equal(t, tc.code, perr.StatusCode)
		})
	}
}

func TestLocalGenerateHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := NewLocal(srv.URL, 5*time.Second).Generate(ctx, "p")
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestOpenRouterGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "mistralai/mistral-7b-instruct:free", body.Model)
		require.Len(t, body.Messages, 1)
		require.Equal(t, "user", body.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "mistralai/mistral-7b-instruct:free",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Dish Name: Risotto"}}]
		}`))
	}))
	defer srv.Close()

	p := NewOpenRouter(OpenRouterConfig{APIKey: "test-key", BaseURL: srv.URL, Model: "mistralai/mistral-7b-instruct:free"})
	text, err := p.Generate(context.Background(), "Create a detailed vegetarian recipe")
	require.NoError(t, err)
	require.Equal(t, "Dish Name: Risotto", text)
}

func TestOpenRouterGenerateDoesNotRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	}))
	defer srv.Close()

	p := NewOpenRouter(OpenRouterConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	_, err := p.Generate(context.Background(), "p")

	var perr *generation.ProviderError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, http.StatusServiceUnavailable, perr.StatusCode)
	require.Equal(t, 1, calls)
}

func TestGeminiGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "gemini-test:generateContent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Cooldown: stretch"}]}}]}`))
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "k", Model: "gemini-test", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := g.Generate(context.Background(), "plan")
	require.NoError(t, err)
	require.Equal(t, "Cooldown: stretch", text)
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{})
	require.Error(t, err)
}

func TestChainOmitsUnconfiguredProviders(t *testing.T) {
	steps := Chain(context.Background(), ChainConfig{
		LocalURL:     "http://localhost:9999/generate",
		Timeout:      10 * time.Second,
		LocalTimeout: 5 * time.Second,
	}, zap.NewNop())

	require.Len(t, steps, 1)
	require.Equal(t, generation.StageLocal, steps[0].Stage)
	require.Equal(t, 5*time.Second, steps[0].Timeout)

	steps = Chain(context.Background(), ChainConfig{
		OpenRouterAPIKey:  "k",
		OpenRouterBaseURL: "http://localhost:1",
		OpenRouterModel:   "m",
		Timeout:           10 * time.Second,
	}, zap.NewNop())
	require.Len(t, steps, 1)
	require.Equal(t, generation.StageProviderA, steps[0].Stage)
}
