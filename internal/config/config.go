// Package config centralises configuration parsing for the fittrack binaries.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration values.
type Config struct {
	Env         string
	HTTPAddress string
	CORSOrigin  string

	PostgresURL        string
	KafkaBrokers       []string
	SchemaRegistryURL  string
	OutboxEnabled      bool
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	ConsumerGroupID    string
	MetricsAddress     string

	Auth      AuthConfig
	Providers ProvidersConfig
	RateLimit RateLimitConfig
}

// AuthConfig selects how bearer tokens are verified. JWKSURL wins over HMACSecret.
type AuthConfig struct {
	JWKSURL    string
	Issuer     string
	Audience   string
	HMACSecret string
}

// ProvidersConfig configures the generation fallback chain.
type ProvidersConfig struct {
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string
	GeminiAPIKey      string
	GeminiModel       string
	LocalURL          string
	Timeout           time.Duration
	LocalTimeout      time.Duration
}

// RateLimitConfig configures the fixed-window request counter. TrustProxy
// keys clients on X-Forwarded-For and must only be set behind a proxy that
// overwrites that header.
type RateLimitConfig struct {
	RedisURL   string
	Requests   int
	Window     time.Duration
	TrustProxy bool
}

// devHMACSecret signs local tokens. It is never applied outside development.
const devHMACSecret = "dev-secret-change-me"

// ErrNoTokenVerifier is returned by Validate when neither a JWKS URL nor a
// shared secret is configured.
var ErrNoTokenVerifier = errors.New("config: AUTH_JWKS_URL or AUTH_HMAC_SECRET must be set")

// Load reads environment variables into Config, applying defaults for local dev.
// A .env file in the working directory is honoured when present.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddress:        getEnv("HTTP_ADDRESS", ":8080"),
		CORSOrigin:         getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:5173"),
		PostgresURL:        getEnv("POSTGRES_URL", ""),
		SchemaRegistryURL:  getEnv("SCHEMA_REGISTRY_URL", "http://schema-registry:8081"),
		OutboxEnabled:      getBoolEnv("OUTBOX_ENABLED", false),
		OutboxPollInterval: getDurationEnv("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:    getIntEnv("OUTBOX_BATCH_SIZE", 25),
		ConsumerGroupID:    getEnv("CONSUMER_GROUP_ID", "fittrack-usage"),
		MetricsAddress:     getEnv("METRICS_ADDRESS", ":9102"),
		Auth: AuthConfig{
			JWKSURL:    getEnv("AUTH_JWKS_URL", ""),
			Issuer:     getEnv("AUTH_ISSUER", "fittrack.local"),
			Audience:   getEnv("AUTH_AUDIENCE", ""),
			HMACSecret: getEnv("AUTH_HMAC_SECRET", ""),
		},
		Providers: ProvidersConfig{
			OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
			OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			OpenRouterModel:   getEnv("OPENROUTER_MODEL", "mistralai/mistral-7b-instruct:free"),
			GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
			GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			LocalURL:          getEnv("LOCAL_LLM_URL", ""),
			Timeout:           getDurationEnv("PROVIDER_TIMEOUT", 10*time.Second),
			LocalTimeout:      getDurationEnv("LOCAL_PROVIDER_TIMEOUT", 5*time.Second),
		},
		RateLimit: RateLimitConfig{
			RedisURL:   getEnv("REDIS_URL", ""),
			Requests:   getIntEnv("RATE_LIMIT_REQUESTS", 100),
			Window:     getDurationEnv("RATE_LIMIT_WINDOW", 15*time.Minute),
			TrustProxy: getBoolEnv("TRUST_PROXY", false),
		},
	}
	if cfg.Auth.HMACSecret == "" && cfg.IsDevelopment() {
		cfg.Auth.HMACSecret = devHMACSecret
	}

	cfg.KafkaBrokers = splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092"))
	return cfg
}

// IsDevelopment reports whether the binary runs with local defaults.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate reports settings the API cannot start without.
func (c Config) Validate() error {
	if c.Auth.JWKSURL == "" && c.Auth.HMACSecret == "" {
		return ErrNoTokenVerifier
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
