package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/fittrack/internal/auth"
	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/logging"
	"example.com/fittrack/internal/observability"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Chain applies middlewares so that the first one listed runs first.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID propagates an incoming X-Request-ID or assigns a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// AccessLog logs each request and counts it by route and status.
func AccessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			route := RouteLabel(r.URL.Path)
			observability.RecordHTTPRequest(route, rec.status)

			log := logging.FromContext(r.Context(), logger).Info
			switch {
			case rec.status >= 500:
				log = logging.FromContext(r.Context(), logger).Error
			case rec.status >= 400:
				log = logging.FromContext(r.Context(), logger).Warn
			}
			log("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", rec.status),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}

// RouteLabel collapses identifiers in path so metric labels stay bounded.
func RouteLabel(path string) string {
	switch {
	case path == "/api/workouts/progress", path == "/api/workouts/recent", path == "/api/exercises/search":
		return path
	case strings.HasPrefix(path, "/api/workouts/"):
		return "/api/workouts/{id}"
	case strings.HasPrefix(path, "/api/aiworkouts/user/"):
		return "/api/aiworkouts/user/{id}"
	case strings.HasPrefix(path, "/api/airecipes/user/"):
		return "/api/airecipes/user/{id}"
	}
	switch path {
	case "/api/workouts", "/api/exercises", "/api/aiworkouts/generate", "/api/airecipes/generate",
		"/api/users/me", "/healthz", "/metrics":
		return path
	}
	return "other"
}

// CORS allows the configured browser origin and answers preflight requests.
func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader+", Retry-After")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TouchUser upserts the profile of every verified caller. Failures are logged
// and never block the request.
func TouchUser(users *domain.UserService, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, ok := auth.FromContext(r.Context()); ok {
				_, err := users.Touch(r.Context(), domain.User{
					Subject:   claims.Subject,
					Name:      claims.Name,
					Email:     claims.Email,
					AvatarURL: claims.Picture,
				})
				if err != nil {
					logging.FromContext(r.Context(), logger).Warn("user touch failed", zap.Error(err))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
