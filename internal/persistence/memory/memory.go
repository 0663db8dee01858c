// Package memory provides in-process repositories for local development and
// tests. They honour the same ordering and ownership rules as the Postgres
// repositories.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/generation"
	"example.com/fittrack/internal/observability"
)

// WorkoutRepository stores workouts in memory.
type WorkoutRepository struct {
	mu       sync.RWMutex
	workouts map[string]domain.Workout
}

// NewWorkoutRepository constructs an empty WorkoutRepository.
func NewWorkoutRepository() *WorkoutRepository {
	return &WorkoutRepository{workouts: make(map[string]domain.Workout)}
}

// Create implements domain.WorkoutRepository.
func (r *WorkoutRepository) Create(ctx context.Context, workout domain.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workouts[workout.ID] = cloneWorkout(workout)
	observability.RecordWorkoutPersisted(workout.UpdatedAt)
	return nil
}

// ListByOwner implements domain.WorkoutRepository.
func (r *WorkoutRepository) ListByOwner(ctx context.Context, owner string, limit int) ([]domain.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Workout, 0)
	for _, w := range r.workouts {
		if domain.Owned(w.Owner, owner) {
			out = append(out, cloneWorkout(w))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetOwned implements domain.WorkoutRepository.
func (r *WorkoutRepository) GetOwned(ctx context.Context, owner, id string) (*domain.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.workouts[id]
	if !ok || !domain.Owned(w.Owner, owner) {
		return nil, nil
	}
	clone := cloneWorkout(w)
	return &clone, nil
}

// UpdateOwned implements domain.WorkoutRepository.
func (r *WorkoutRepository) UpdateOwned(ctx context.Context, workout domain.Workout) (*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.workouts[workout.ID]
	if !ok || !domain.Owned(existing.Owner, workout.Owner) {
		return nil, nil
	}
	existing.Name = workout.Name
	existing.Exercises = workout.Exercises
	if !workout.Date.IsZero() {
		existing.Date = workout.Date
	}
	existing.UpdatedAt = workout.UpdatedAt
	r.workouts[workout.ID] = cloneWorkout(existing)
	observability.RecordWorkoutPersisted(existing.UpdatedAt)

	clone := cloneWorkout(existing)
	return &clone, nil
}

// DeleteOwned implements domain.WorkoutRepository.
func (r *WorkoutRepository) DeleteOwned(ctx context.Context, owner, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.workouts[id]
	if !ok || !domain.Owned(existing.Owner, owner) {
		return false, nil
	}
	delete(r.workouts, id)
	return true, nil
}

func cloneWorkout(w domain.Workout) domain.Workout {
	entries := make([]domain.ExerciseEntry, len(w.Exercises))
	for i, e := range w.Exercises {
		entries[i] = domain.ExerciseEntry{Name: e.Name, Sets: append([]domain.Set(nil), e.Sets...)}
	}
	w.Exercises = entries
	return w
}

// CatalogRepository stores the exercise catalog in memory.
type CatalogRepository struct {
	mu        sync.RWMutex
	exercises map[string]domain.Exercise
}

// NewCatalogRepository constructs a repository seeded with the default catalog.
func NewCatalogRepository() *CatalogRepository {
	repo := &CatalogRepository{exercises: make(map[string]domain.Exercise)}
	for _, ex := range domain.DefaultCatalog() {
		_ = repo.UpsertByName(context.Background(), ex)
	}
	return repo
}

// List implements domain.CatalogRepository.
func (r *CatalogRepository) List(ctx context.Context, limit int) ([]domain.Exercise, error) {
	return r.Search(ctx, domain.CatalogFilter{Limit: limit})
}

// Search implements domain.CatalogRepository.
func (r *CatalogRepository) Search(ctx context.Context, filter domain.CatalogFilter) ([]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]domain.Exercise, 0)
	for _, ex := range r.exercises {
		if domain.MatchesFilter(ex, filter) {
			results = append(results, ex)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

// UpsertByName implements domain.CatalogRepository.
func (r *CatalogRepository) UpsertByName(ctx context.Context, exercise domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(exercise.Name))
	if existing, ok := r.exercises[key]; ok {
		exercise.ID = existing.ID
		exercise.SessionCount = existing.SessionCount
		exercise.LastSeenAt = existing.LastSeenAt
	} else if exercise.ID == "" {
		exercise.ID = uuid.NewString()
	}
	if exercise.Instructions == nil {
		exercise.Instructions = []string{}
	}
	r.exercises[key] = exercise
	return nil
}

// RecordUsage implements domain.CatalogRepository.
func (r *CatalogRepository) RecordUsage(ctx context.Context, names []string, seenAt time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := 0
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ex, ok := r.exercises[key]
		if !ok {
			continue
		}
		ex.SessionCount++
		if ex.LastSeenAt == nil || seenAt.After(*ex.LastSeenAt) {
			ts := seenAt
			ex.LastSeenAt = &ts
		}
		r.exercises[key] = ex
		updated++
	}
	return updated, nil
}

// UserRepository stores profiles in memory.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserRepository constructs an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

// Upsert implements domain.UserRepository.
func (r *UserRepository) Upsert(ctx context.Context, user domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.users[user.Subject]; ok {
		existing.LastSeenAt = user.LastSeenAt
		r.users[user.Subject] = existing
		return &existing, nil
	}
	if r.emailTaken(user.Email, user.Subject) {
		return nil, domain.ErrEmailTaken
	}
	r.users[user.Subject] = user
	return &user, nil
}

// Get implements domain.UserRepository.
func (r *UserRepository) Get(ctx context.Context, subject string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[subject]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// UpdateProfile implements domain.UserRepository.
func (r *UserRepository) UpdateProfile(ctx context.Context, subject string, update domain.ProfileUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[subject]
	if !ok {
		return nil, nil
	}
	if update.Email != nil {
		if r.emailTaken(*update.Email, subject) {
			return nil, domain.ErrEmailTaken
		}
		user.Email = *update.Email
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.AvatarURL != nil {
		user.AvatarURL = *update.AvatarURL
	}
	r.users[subject] = user
	return &user, nil
}

func (r *UserRepository) emailTaken(email, subject string) bool {
	if email == "" {
		return false
	}
	for _, u := range r.users {
		if u.Subject != subject && u.Email == email {
			return true
		}
	}
	return false
}

// GenerationStore keeps generated-content records in memory.
type GenerationStore struct {
	mu      sync.RWMutex
	records []generation.Record
}

// NewGenerationStore constructs an empty GenerationStore.
func NewGenerationStore() *GenerationStore {
	return &GenerationStore{}
}

// Save implements generation.Store.
func (s *GenerationStore) Save(ctx context.Context, record generation.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	observability.RecordGenerationPersisted(record.CreatedAt)
	return nil
}

// ListByOwner implements generation.Store.
func (s *GenerationStore) ListByOwner(ctx context.Context, owner string, kind generation.Kind, limit int) ([]generation.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]generation.Record, 0)
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if rec.Kind != kind || !domain.Owned(rec.Owner, owner) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
