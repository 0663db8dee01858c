package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/fittrack/internal/domain"
)

// number accepts a JSON number or a numeric string. Anything else decodes as
// invalid so that validation reports the field.
type number struct {
	value   float64
	invalid bool
}

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = number{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			*n = number{invalid: true}
			return nil
		}
		*n = number{value: v}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*n = number{invalid: true}
		return nil
	}
	*n = number{value: v}
	return nil
}

func (n number) float(bad float64) float64 {
	if n.invalid {
		return bad
	}
	return n.value
}

// integer returns bad for invalid, fractional or out of range values.
func (n number) integer(bad int) int {
	if n.invalid || n.value != math.Trunc(n.value) || math.Abs(n.value) > math.MaxInt32 {
		return bad
	}
	return int(n.value)
}

// WorkoutRequest is the payload for POST /api/workouts and PUT /api/workouts/{id}.
type WorkoutRequest struct {
	Name      string                 `json:"name"`
	Exercises []ExerciseEntryRequest `json:"exercises"`
	Date      *time.Time             `json:"date"`
}

// ExerciseEntryRequest is one exercise of a WorkoutRequest.
type ExerciseEntryRequest struct {
	Name string       `json:"name"`
	Sets []SetRequest `json:"sets"`
}

// SetRequest is one set of an ExerciseEntryRequest.
type SetRequest struct {
	Weight number `json:"weight"`
	Reps   number `json:"reps"`
	Unit   string `json:"unit"`
}

func (req WorkoutRequest) input() domain.WorkoutInput {
	in := domain.WorkoutInput{Name: req.Name, Date: req.Date}
	if req.Exercises == nil {
		return in
	}
	in.Exercises = make([]domain.ExerciseEntryInput, 0, len(req.Exercises))
	for _, e := range req.Exercises {
		entry := domain.ExerciseEntryInput{Name: e.Name}
		if e.Sets != nil {
			entry.Sets = make([]domain.SetInput, 0, len(e.Sets))
		}
		for _, s := range e.Sets {
			entry.Sets = append(entry.Sets, domain.SetInput{
				Weight: s.Weight.float(0),
				Reps:   s.Reps.integer(0),
				Unit:   strings.ToLower(strings.TrimSpace(s.Unit)),
			})
		}
		in.Exercises = append(in.Exercises, entry)
	}
	return in
}

// WorkoutView is the response shape of a workout.
type WorkoutView struct {
	ID          string                 `json:"id"`
	Owner       string                 `json:"owner"`
	Name        string                 `json:"name"`
	Exercises   []domain.ExerciseEntry `json:"exercises"`
	Date        time.Time              `json:"date"`
	TotalVolume float64                `json:"total_volume"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ListWorkoutsResponse packages list results.
type ListWorkoutsResponse struct {
	Workouts []WorkoutView `json:"workouts"`
}

// ProgressPointView is one entry of the volume time series.
type ProgressPointView struct {
	Date        time.Time `json:"date"`
	TotalVolume float64   `json:"total_volume"`
	WorkoutID   string    `json:"workout_id"`
	Name        string    `json:"name"`
}

// ProgressResponse wraps the progress series.
type ProgressResponse struct {
	Progress []ProgressPointView `json:"progress"`
}

func toWorkoutView(w domain.Workout) WorkoutView {
	exercises := w.Exercises
	if exercises == nil {
		exercises = []domain.ExerciseEntry{}
	}
	return WorkoutView{
		ID:          w.ID,
		Owner:       w.Owner,
		Name:        w.Name,
		Exercises:   exercises,
		Date:        w.Date,
		TotalVolume: math.Round(w.TotalVolume()*1000) / 1000,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func toWorkoutViews(workouts []domain.Workout) []WorkoutView {
	out := make([]WorkoutView, 0, len(workouts))
	for _, w := range workouts {
		out = append(out, toWorkoutView(w))
	}
	return out
}

func (h *Handler) workoutCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createWorkout(w, r)
	case http.MethodGet:
		h.listWorkouts(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) workoutSubtree(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/workouts/"), "/")
	switch id {
	case "":
		writeError(w, http.StatusBadRequest, "invalid_request", "missing workout id")
		return
	case "progress":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.progress(w, r)
		return
	case "recent":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.recentWorkouts(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getWorkout(w, r, id)
	case http.MethodPut:
		h.updateWorkout(w, r, id)
	case http.MethodDelete:
		h.deleteWorkout(w, r, id)
	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) createWorkout(w http.ResponseWriter, r *http.Request) {
	owner, ok := subject(w, r)
	if !ok {
		return
	}
	var req WorkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	workout, err := h.workouts.Create(r.Context(), owner, req.input())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkoutView(*workout))
}

func (h *Handler) listWorkouts(w http.ResponseWriter, r *http.Request) {
	owner, ok := subject(w, r)
	if !ok {
		return
	}
	workouts, err := h.workouts.List(r.Context(), owner)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListWorkoutsResponse{Workouts: toWorkoutViews(workouts)})
}

func (h *Handler) recentWorkouts(w http.ResponseWriter, r *http.Request) {
	owner, ok := subject(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	workouts, err := h.workouts.Recent(r.Context(), owner, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListWorkoutsResponse{Workouts: toWorkoutViews(workouts)})
}

func (h *Handler) getWorkout(w http.ResponseWriter, r *http.Request, id string) {
	owner, ok := subject(w, r)
	if !ok {
		return
	}
	workout, err := h.workouts.Get(r.Context(), owner, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkoutView(*workout))
}

func (h *Handler) updateWorkout(w http.ResponseWriter, r *http.Request, id string) {
	owner, ok := subject(w, r)
	if !ok {
		return
	}
	var req WorkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	workout, err := h.workouts.Update(r.Context(), owner, id, req.input())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkoutView(*workout))
}

func (h *Handler) deleteWorkout(w http.ResponseWriter, r *http.Request, id string) {
	owner, ok := subject(w, r)
	if !ok {
		return
	}
	if err := h.workouts.Delete(r.Context(), owner, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (h *Handler) progress(w http.ResponseWriter, r *http.Request) {
	owner, ok := subject(w, r)
	if !ok {
		return
	}
	points, err := h.workouts.Progress(r.Context(), owner)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	resp := ProgressResponse{Progress: make([]ProgressPointView, 0, len(points))}
	for _, p := range points {
		resp.Progress = append(resp.Progress, ProgressPointView{
			Date:        p.Date,
			TotalVolume: math.Round(p.TotalVolume*1000) / 1000,
			WorkoutID:   p.WorkoutID,
			Name:        p.Name,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
