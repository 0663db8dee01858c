package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"example.com/fittrack/internal/generation"
	"example.com/fittrack/internal/validation"
)

// GenerateWorkoutRequest is the payload for POST /api/aiworkouts/generate.
type GenerateWorkoutRequest struct {
	Level       string `json:"level"`
	Experience  number `json:"experience"`
	WorkoutType string `json:"workoutType"`
}

// GenerateRecipeRequest is the payload for POST /api/airecipes/generate.
// UserID is optional; when present it must name the caller.
type GenerateRecipeRequest struct {
	DietType string `json:"dietType"`
	Country  string `json:"country"`
	UserID   string `json:"userId"`
}

// GenerationView is one stored generation in a history listing.
type GenerationView struct {
	ID         string           `json:"id"`
	Kind       generation.Kind  `json:"kind"`
	Parameters map[string]any   `json:"parameters"`
	Prompt     string           `json:"prompt"`
	Text       string           `json:"text"`
	Source     generation.Stage `json:"source"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// HistoryResponse packages generation history.
type HistoryResponse struct {
	Items []GenerationView `json:"items"`
}

func (h *Handler) generateWorkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	owner, ok := subject(w, r)
	if !ok {
		return
	}
	var req GenerateWorkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.generate(w, r, generation.Request{
		Kind:        generation.KindWorkout,
		Owner:       owner,
		Level:       req.Level,
		Experience:  req.Experience.integer(-1),
		WorkoutType: req.WorkoutType,
	}, "workout", "workoutId")
}

func (h *Handler) generateRecipe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	owner, ok := subject(w, r)
	if !ok {
		return
	}
	var req GenerateRecipeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if id := strings.TrimSpace(req.UserID); id != "" && id != owner {
		h.writeServiceError(w, r, validation.NewError("userId", "must match the authenticated user"))
		return
	}

	h.generate(w, r, generation.Request{
		Kind:     generation.KindRecipe,
		Owner:    owner,
		DietType: req.DietType,
		Country:  req.Country,
	}, "recipe", "recipeId")
}

// generate runs the orchestrator and writes {textKey, source, idKey}. A
// result that could not be stored is still returned, under a 500.
func (h *Handler) generate(w http.ResponseWriter, r *http.Request, req generation.Request, textKey, idKey string) {
	record, err := h.generator.Generate(r.Context(), req)
	if err != nil {
		var perr *generation.PersistenceError
		if errors.As(err, &perr) {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"type":   "persistence_failed",
				"detail": generation.ErrPersistence.Error(),
				textKey:  perr.Record.Text,
				"source": perr.Record.Source,
			})
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		textKey:  record.Text,
		"source": record.Source,
		idKey:    record.ID,
	})
}

func (h *Handler) workoutHistory(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, "/api/aiworkouts/user/", generation.KindWorkout)
}

func (h *Handler) recipeHistory(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, "/api/airecipes/user/", generation.KindRecipe)
}

// history serves the caller's own records. Another user's id is reported as
// not found.
func (h *Handler) history(w http.ResponseWriter, r *http.Request, prefix string, kind generation.Kind) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	owner, ok := subject(w, r)
	if !ok {
		return
	}
	userID := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing user id")
		return
	}
	if userID != owner {
		writeError(w, http.StatusNotFound, "not_found", "history not found")
		return
	}

	records, err := h.generator.History(r.Context(), owner, kind, generation.DefaultHistoryLimit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	resp := HistoryResponse{Items: make([]GenerationView, 0, len(records))}
	for _, rec := range records {
		resp.Items = append(resp.Items, GenerationView{
			ID:         rec.ID,
			Kind:       rec.Kind,
			Parameters: rec.Parameters,
			Prompt:     rec.Prompt,
			Text:       rec.Text,
			Source:     rec.Source,
			CreatedAt:  rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
