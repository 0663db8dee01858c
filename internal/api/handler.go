// Package api exposes the HTTP handlers for workouts, the exercise catalog,
// user profiles and content generation.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"example.com/fittrack/internal/auth"
	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/generation"
	"example.com/fittrack/internal/logging"
	"example.com/fittrack/internal/validation"
)

const maxBodyBytes = 1 << 20

// Services groups the domain services served over HTTP.
type Services struct {
	Workouts  *domain.WorkoutService
	Catalog   *domain.CatalogService
	Users     *domain.UserService
	Generator *generation.Orchestrator
}

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	workouts  *domain.WorkoutService
	catalog   *domain.CatalogService
	users     *domain.UserService
	generator *generation.Orchestrator
	logger    *zap.Logger
}

// NewHandler builds a Handler.
func NewHandler(svc Services, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		workouts:  svc.Workouts,
		catalog:   svc.Catalog,
		users:     svc.Users,
		generator: svc.Generator,
		logger:    logger,
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/workouts", h.workoutCollection)
	mux.HandleFunc("/api/workouts/", h.workoutSubtree)
	mux.HandleFunc("/api/exercises", h.listExercises)
	mux.HandleFunc("/api/exercises/", h.exerciseSubtree)
	mux.HandleFunc("/api/aiworkouts/generate", h.generateWorkout)
	mux.HandleFunc("/api/aiworkouts/user/", h.workoutHistory)
	mux.HandleFunc("/api/airecipes/generate", h.generateRecipe)
	mux.HandleFunc("/api/airecipes/user/", h.recipeHistory)
	mux.HandleFunc("/api/users/me", h.me)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// subject returns the verified subject or writes a 401.
func subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok || claims.Subject == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing credentials")
		return "", false
	}
	return claims.Subject, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
}

// writeServiceError maps domain errors onto the error envelope. Unexpected
// errors are logged and reported without internal detail.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, verr)
	case errors.Is(err, generation.ErrMissingOwner):
		writeValidationError(w, validation.NewError("userId", "is required"))
	case errors.Is(err, domain.ErrWorkoutNotFound):
		writeError(w, http.StatusNotFound, "not_found", "workout not found")
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not_found", "user not found")
	case errors.Is(err, domain.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", "email already in use")
	default:
		logging.FromContext(r.Context(), h.logger).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

type errorBody struct {
	Type   string            `json:"type"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, errorBody{Type: code, Detail: detail})
}

func writeValidationError(w http.ResponseWriter, verr *validation.Error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Type: "validation_failed", Detail: verr.Error(), Fields: verr.Fields})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
