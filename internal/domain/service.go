// Package domain defines the business logic for workouts, the exercise catalog
// and user profiles.
package domain

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/fittrack/internal/validation"
)

var (
	// ErrWorkoutNotFound is returned when a workout does not exist or is owned by someone else.
	ErrWorkoutNotFound = errors.New("workout not found")

	errVolumeOutOfRange = validation.NewError("exercises", "total volume is too large")
)

const (
	// DefaultRecentLimit is the number of workouts returned by Recent when no limit is given.
	DefaultRecentLimit = 5
	// MaxRecentLimit caps Recent.
	MaxRecentLimit = 20
)

// WorkoutRepository captures persistence operations. Every lookup and
// mutation is keyed by id and owner together; a record owned by another
// subject behaves exactly like a missing one.
type WorkoutRepository interface {
	Create(ctx context.Context, workout Workout) error
	// ListByOwner returns workouts ordered by date descending then id descending.
	// limit <= 0 returns every record.
	ListByOwner(ctx context.Context, owner string, limit int) ([]Workout, error)
	GetOwned(ctx context.Context, owner, id string) (*Workout, error)
	// UpdateOwned replaces name and exercises, and the date when it is set.
	// It returns nil when no record matched.
	UpdateOwned(ctx context.Context, workout Workout) (*Workout, error)
	DeleteOwned(ctx context.Context, owner, id string) (bool, error)
}

// WorkoutService orchestrates workout workflows.
type WorkoutService struct {
	repo      WorkoutRepository
	validator *validation.Validator
	now       func() time.Time
}

// NewWorkoutService constructs a WorkoutService.
func NewWorkoutService(repo WorkoutRepository, validator *validation.Validator) *WorkoutService {
	if validator == nil {
		validator = validation.New()
	}
	return &WorkoutService{
		repo:      repo,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the input and stores a new workout owned by owner.
// Nothing is written when validation fails.
func (s *WorkoutService) Create(ctx context.Context, owner string, input WorkoutInput) (*Workout, error) {
	if owner == "" {
		return nil, validation.NewError("owner", "is required")
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}

	now := s.now()
	workout := Workout{
		ID:        uuid.NewString(),
		Owner:     owner,
		Name:      strings.TrimSpace(input.Name),
		Exercises: input.entries(),
		Date:      workoutDate(input.Date, now),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !workout.VolumeInRange() {
		return nil, errVolumeOutOfRange
	}

	if err := s.repo.Create(ctx, workout); err != nil {
		return nil, err
	}
	return &workout, nil
}

// List returns every workout owned by owner, newest first. The slice is never nil.
func (s *WorkoutService) List(ctx context.Context, owner string) ([]Workout, error) {
	workouts, err := s.repo.ListByOwner(ctx, owner, 0)
	if err != nil {
		return nil, err
	}
	return ownedOnly(workouts, owner), nil
}

// Recent returns the owner's most recent workouts.
func (s *WorkoutService) Recent(ctx context.Context, owner string, limit int) ([]Workout, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	workouts, err := s.repo.ListByOwner(ctx, owner, limit)
	if err != nil {
		return nil, err
	}
	return ownedOnly(workouts, owner), nil
}

// Get fetches a workout by id for its owner.
func (s *WorkoutService) Get(ctx context.Context, owner, id string) (*Workout, error) {
	workout, err := s.repo.GetOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if workout == nil || !Owned(workout.Owner, owner) {
		return nil, ErrWorkoutNotFound
	}
	return workout, nil
}

// Update replaces the name, exercises and date of an owned workout.
func (s *WorkoutService) Update(ctx context.Context, owner, id string, input WorkoutInput) (*Workout, error) {
	if owner == "" {
		return nil, ErrWorkoutNotFound
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}

	replacement := Workout{
		ID:        id,
		Owner:     owner,
		Name:      strings.TrimSpace(input.Name),
		Exercises: input.entries(),
		Date:      workoutDate(input.Date, time.Time{}),
		UpdatedAt: s.now(),
	}
	if !replacement.VolumeInRange() {
		return nil, errVolumeOutOfRange
	}

	updated, err := s.repo.UpdateOwned(ctx, replacement)
	if err != nil {
		return nil, err
	}
	if updated == nil || !Owned(updated.Owner, owner) {
		return nil, ErrWorkoutNotFound
	}
	return updated, nil
}

// Delete removes an owned workout.
func (s *WorkoutService) Delete(ctx context.Context, owner, id string) error {
	if owner == "" {
		return ErrWorkoutNotFound
	}
	deleted, err := s.repo.DeleteOwned(ctx, owner, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrWorkoutNotFound
	}
	return nil
}

// Progress computes the total volume of each owned workout ordered by workout
// date ascending.
func (s *WorkoutService) Progress(ctx context.Context, owner string) ([]ProgressPoint, error) {
	workouts, err := s.List(ctx, owner)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(workouts, func(i, j int) bool {
		if workouts[i].Date.Equal(workouts[j].Date) {
			return workouts[i].ID < workouts[j].ID
		}
		return workouts[i].Date.Before(workouts[j].Date)
	})

	points := make([]ProgressPoint, 0, len(workouts))
	for _, w := range workouts {
		points = append(points, ProgressPoint{
			Date:        w.Date,
			TotalVolume: w.TotalVolume(),
			WorkoutID:   w.ID,
			Name:        w.Name,
		})
	}
	return points, nil
}

func ownedOnly(workouts []Workout, owner string) []Workout {
	out := make([]Workout, 0, len(workouts))
	for _, w := range workouts {
		if Owned(w.Owner, owner) {
			out = append(out, w)
		}
	}
	return out
}

func workoutDate(date *time.Time, fallback time.Time) time.Time {
	if date == nil || date.IsZero() {
		return fallback
	}
	return date.UTC()
}
