package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"example.com/fittrack/internal/generation"
)

// Local calls a self-hosted model server that accepts {"prompt": ...} and
// answers {"result": ...}.
type Local struct {
	client *http.Client
	url    string
}

// NewLocal constructs a Local adapter. timeout bounds the whole exchange in
// addition to the caller's context.
func NewLocal(endpoint string, timeout time.Duration) *Local {
	return &Local{
		client: &http.Client{Timeout: timeout},
		url:    strings.TrimRight(endpoint, "/"),
	}
}

type localRequest struct {
	Prompt string `json:"prompt"`
}

type localResponse struct {
	Result string `json:"result"`
}

// Generate implements generation.Provider.
func (l *Local) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(localRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, bytes.NewReader(body))
	if err != nil {
		return "", &generation.ProviderError{Provider: "local", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", &generation.ProviderError{Provider: "local", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &generation.ProviderError{Provider: "local", StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected response: %s", bytes.TrimSpace(data))}
	}

	var payload localResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &generation.ProviderError{Provider: "local", Err: fmt.Errorf("malformed response: %w", err)}
	}
	if strings.TrimSpace(payload.Result) == "" {
		return "", &generation.ProviderError{Provider: "local", Err: generation.ErrEmptyResponse}
	}
	return payload.Result, nil
}
