package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signHS256(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "auth0|U1",
		"iss":   "fittrack.test",
		"aud":   "fittrack-api",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"name":  "Ada",
		"email": "ada@example.com",
		"scope": "workouts:read workouts:write",
	}
}

func hmacVerifier(t *testing.T) Verifier {
	t.Helper()
	v, err := NewHMACVerifier(HMACConfig{Secret: testSecret, Issuer: "fittrack.test", Audience: "fittrack-api"})
	require.NoError(t, err)
	return v
}

func TestHMACVerifierAcceptsValidToken(t *testing.T) {
	claims, err := hmacVerifier(t).Verify(context.Background(), signHS256(t, validClaims()))
	require.NoError(t, err)
	require.Equal(t, "auth0|U1", claims.Subject)
	require.Equal(t, "Ada", claims.Name)
	require.Equal(t, "ada@example.com", claims.Email)
	require.True(t, claims.HasScope("workouts:write"))
	require.False(t, claims.HasScope("admin"))
}

func TestHMACVerifierRejects(t *testing.T) {
	cases := map[string]func(jwt.MapClaims){
		"expired":        func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Minute).Unix() },
		"no expiry":      func(c jwt.MapClaims) { delete(c, "exp") },
		"wrong issuer":   func(c jwt.MapClaims) { c["iss"] = "someone-else" },
		"wrong audience": func(c jwt.MapClaims) { c["aud"] = "other-api" },
		"no subject":     func(c jwt.MapClaims) { delete(c, "sub") },
	}
	v := hmacVerifier(t)
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			claims := validClaims()
			mutate(claims)
			_, err := v.Verify(context.Background(), signHS256(t, claims))
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestHMACVerifierRejectsForeignSignature(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = hmacVerifier(t).Verify(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims()).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = hmacVerifier(t).Verify(context.Background(), unsigned)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyEmptyToken(t *testing.T) {
	_, err := hmacVerifier(t).Verify(context.Background(), "  ")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestJWKSVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": "key-1",
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v, err := NewJWKSVerifier(ctx, JWKSConfig{URL: srv.URL, Issuer: "fittrack.test", Audience: "fittrack-api"})
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims())
	token.Header["kid"] = "key-1"
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	claims, err := v.Verify(ctx, signed)
	require.NoError(t, err)
	require.Equal(t, "auth0|U1", claims.Subject)

	// An HS256 token must not be accepted by the RS256 verifier.
	_, err = v.Verify(ctx, signHS256(t, validClaims()))
	require.True(t, errors.Is(err, ErrInvalidToken))
}

func TestNewVerifiersRequireConfig(t *testing.T) {
	_, err := NewHMACVerifier(HMACConfig{})
	require.Error(t, err)
	_, err = NewJWKSVerifier(context.Background(), JWKSConfig{})
	require.Error(t, err)
}
