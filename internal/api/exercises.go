package api

import (
	"net/http"
	"strconv"
	"strings"

	"example.com/fittrack/internal/domain"
)

// ListExercisesResponse packages catalog results.
type ListExercisesResponse struct {
	Exercises []domain.Exercise `json:"exercises"`
}

func (h *Handler) listExercises(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	exercises, err := h.catalog.List(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListExercisesResponse{Exercises: nonNilExercises(exercises)})
}

func (h *Handler) exerciseSubtree(w http.ResponseWriter, r *http.Request) {
	if strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/exercises/"), "/") != "search" {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	exercises, err := h.catalog.Search(r.Context(), domain.CatalogFilter{
		Name:     q.Get("name"),
		Category: q.Get("category"),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListExercisesResponse{Exercises: nonNilExercises(exercises)})
}

func nonNilExercises(in []domain.Exercise) []domain.Exercise {
	if in == nil {
		return []domain.Exercise{}
	}
	return in
}
