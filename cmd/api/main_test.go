package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"example.com/fittrack/internal/config"
)

func TestRunRefusesToStartWithoutTokenVerifier(t *testing.T) {
	cfg := config.Config{Env: "production"}
	err := run(cfg, zaptest.NewLogger(t))
	require.ErrorIs(t, err, config.ErrNoTokenVerifier)
}

func TestNewVerifierUsesSharedSecret(t *testing.T) {
	verifier, err := newVerifier(context.Background(), config.AuthConfig{HMACSecret: "s3cret", Issuer: "fittrack.test"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, verifier)

	_, err = newVerifier(context.Background(), config.AuthConfig{}, zaptest.NewLogger(t))
	require.Error(t, err)
}
