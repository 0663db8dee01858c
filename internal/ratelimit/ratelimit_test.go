package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCounterResetsAfterWindow(t *testing.T) {
	now := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCounter()
	c.now = func() time.Time { return now }

	for i := int64(1); i <= 3; i++ {
		count, resetIn, err := c.Incr(context.Background(), "1.2.3.4", time.Minute)
		require.NoError(t, err)
		require.Equal(t, i, count)
		require.Equal(t, time.Minute, resetIn)
	}

	now = now.Add(30 * time.Second)
	_, resetIn, _ := c.Incr(context.Background(), "1.2.3.4", time.Minute)
	require.Equal(t, 30*time.Second, resetIn)

	now = now.Add(30 * time.Second)
	count, _, _ := c.Incr(context.Background(), "1.2.3.4", time.Minute)
	require.Equal(t, int64(1), count)

	other, _, _ := c.Incr(context.Background(), "5.6.7.8", time.Minute)
	require.Equal(t, int64(1), other)
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	mw := Middleware{Counter: NewMemoryCounter(), Limit: 2, Window: 15 * time.Minute}
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/workouts", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	require.Equal(t, "900", last.Header().Get("Retry-After"))
	require.Equal(t, "0", last.Header().Get("RateLimit-Remaining"))
	require.JSONEq(t, `{"type":"rate_limited","detail":"too many requests, please try again later"}`, last.Body.String())

	// A different client has its own window.
	req := httptest.NewRequest(http.MethodGet, "/api/workouts", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareSkipsAndFailsOpen(t *testing.T) {
	mw := Middleware{
		Counter: failingCounter{},
		Limit:   1,
		Window:  time.Minute,
		Skipper: func(r *http.Request) bool { return r.URL.Path == "/healthz" },
	}
	calls := 0
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))

	for _, path := range []string{"/healthz", "/api/workouts", "/api/workouts"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	require.Equal(t, 3, calls)
}

func TestMiddlewareIgnoresForwardedForByDefault(t *testing.T) {
	counter := NewMemoryCounter()
	mw := Middleware{Counter: counter, Limit: 2, Window: time.Minute}
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rejected := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/workouts", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			rejected++
		}
	}
	require.Equal(t, 48, rejected)
	require.Len(t, counter.windows, 1)
}

func TestMiddlewareHonoursForwardedForBehindTrustedProxy(t *testing.T) {
	mw := Middleware{Counter: NewMemoryCounter(), Limit: 1, Window: time.Minute, TrustForwardedFor: true}
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for _, client := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/workouts", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req.Header.Set("X-Forwarded-For", client+", 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	require.Equal(t, "192.0.2.1", ClientIP(req))
	require.Equal(t, "192.0.2.1", ForwardedClientIP(req))

	req.Header.Set("X-Forwarded-For", " 198.51.100.7 ,192.0.2.1")
	require.Equal(t, "192.0.2.1", ClientIP(req))
	require.Equal(t, "198.51.100.7", ForwardedClientIP(req))
}

type failingCounter struct{}

func (failingCounter) Incr(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("redis down")
}
