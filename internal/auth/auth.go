// Package auth verifies bearer tokens issued by the identity provider and
// exposes the verified claims to handlers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingToken is returned when the Authorization header is absent.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken wraps parsing/validation errors.
var ErrInvalidToken = errors.New("invalid bearer token")

// Claims represents the verified identity extracted from a JWT.
type Claims struct {
	Subject   string
	Name      string
	Email     string
	Picture   string
	Scopes    map[string]struct{}
	ExpiresAt time.Time
}

// HasScope reports whether the claim set includes the provided scope.
func (c *Claims) HasScope(scope string) bool {
	if c == nil {
		return false
	}
	_, ok := c.Scopes[scope]
	return ok
}

// Verifier turns a raw token into verified claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// JWKSConfig configures RS256 verification against a published key set.
type JWKSConfig struct {
	URL      string
	Issuer   string
	Audience string
}

// HMACConfig configures HS256 verification with a shared secret.
type HMACConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

type jwtVerifier struct {
	keyfunc jwt.Keyfunc
	opts    []jwt.ParserOption
}

// NewJWKSVerifier fetches the key set at cfg.URL and keeps it refreshed until
// ctx is cancelled.
func NewJWKSVerifier(ctx context.Context, cfg JWKSConfig) (Verifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("jwks url is required")
	}
	k, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.URL})
	if err != nil {
		return nil, fmt.Errorf("load jwks: %w", err)
	}
	return &jwtVerifier{
		keyfunc: k.Keyfunc,
		opts:    parserOptions(cfg.Issuer, cfg.Audience, jwt.SigningMethodRS256.Name),
	}, nil
}

// NewHMACVerifier verifies HS256 tokens. It backs local development and tests.
func NewHMACVerifier(cfg HMACConfig) (Verifier, error) {
	if cfg.Secret == "" {
		return nil, errors.New("hmac secret is required")
	}
	secret := []byte(cfg.Secret)
	return &jwtVerifier{
		keyfunc: func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		},
		opts: parserOptions(cfg.Issuer, cfg.Audience, jwt.SigningMethodHS256.Name),
	}, nil
}

func parserOptions(issuer, audience, method string) []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{method}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return opts
}

// Verify validates signature, expiry, issuer and audience and returns normalized claims.
func (v *jwtVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	parsed, err := jwt.Parse(token, v.keyfunc, v.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}

	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)
	picture, _ := claims["picture"].(string)

	scopes := normalizeScopes(claims["scope"])
	for s := range normalizeScopes(claims["permissions"]) {
		scopes[s] = struct{}{}
	}

	return &Claims{
		Subject:   subject,
		Name:      name,
		Email:     email,
		Picture:   picture,
		Scopes:    scopes,
		ExpiresAt: exp.Time,
	}, nil
}

func normalizeScopes(value any) map[string]struct{} {
	out := make(map[string]struct{})
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if str, ok := item.(string); ok && str != "" {
				out[str] = struct{}{}
			}
		}
	case []string:
		for _, str := range v {
			if str != "" {
				out[str] = struct{}{}
			}
		}
	case string:
		for _, str := range strings.Fields(v) {
			out[str] = struct{}{}
		}
	}
	return out
}

type contextKey string

const claimsKey contextKey = "fittrack-auth-claims"

// WithClaims stores claims on the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// FromContext retrieves claims stored by WithClaims.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok && claims != nil
}
