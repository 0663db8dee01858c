// Package postgres implements the repositories on top of pgx and records
// domain events in the transactional outbox.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/observability"
	"example.com/fittrack/internal/outbox"
)

// WorkoutRepository provides Postgres-backed persistence for workouts and their outbox events.
type WorkoutRepository struct {
	pool *pgxpool.Pool
}

// NewWorkoutRepository constructs a WorkoutRepository.
func NewWorkoutRepository(pool *pgxpool.Pool) *WorkoutRepository {
	return &WorkoutRepository{pool: pool}
}

const workoutColumns = `workout_id, owner, name, exercises, workout_date, created_at, updated_at`

// Create persists the workout and records workout.recorded inside a single transaction.
func (r *WorkoutRepository) Create(ctx context.Context, workout domain.Workout) (err error) {
	exercises, err := json.Marshal(workout.Exercises)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const insert = `INSERT INTO workouts (` + workoutColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err = tx.Exec(ctx, insert,
		workout.ID,
		workout.Owner,
		workout.Name,
		exercises,
		workout.Date,
		workout.CreatedAt,
		workout.UpdatedAt,
	); err != nil {
		return err
	}

	if err = outbox.Enqueue(ctx, tx, workoutEvent(events.TypeWorkoutRecorded, workout)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordWorkoutPersisted(workout.UpdatedAt)
	return nil
}

// ListByOwner returns the owner's workouts newest first.
func (r *WorkoutRepository) ListByOwner(ctx context.Context, owner string, limit int) ([]domain.Workout, error) {
	query := `SELECT ` + workoutColumns + ` FROM workouts WHERE owner = $1 ORDER BY workout_date DESC, workout_id DESC`
	args := []any{owner}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Workout, 0)
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *w)
	}
	return results, rows.Err()
}

// GetOwned retrieves a workout by id and owner.
func (r *WorkoutRepository) GetOwned(ctx context.Context, owner, id string) (*domain.Workout, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	const query = `SELECT ` + workoutColumns + ` FROM workouts WHERE workout_id = $1 AND owner = $2`

	w, err := scanWorkout(r.pool.QueryRow(ctx, query, id, owner))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return w, err
}

// UpdateOwned replaces an owned workout and records workout.recorded.
func (r *WorkoutRepository) UpdateOwned(ctx context.Context, workout domain.Workout) (updated *domain.Workout, err error) {
	if _, perr := uuid.Parse(workout.ID); perr != nil {
		return nil, nil
	}
	exercises, err := json.Marshal(workout.Exercises)
	if err != nil {
		return nil, err
	}
	var date *time.Time
	if !workout.Date.IsZero() {
		date = &workout.Date
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil || updated == nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const update = `UPDATE workouts
        SET name = $3, exercises = $4, workout_date = COALESCE($5::timestamptz, workout_date), updated_at = $6
        WHERE workout_id = $1 AND owner = $2
        RETURNING ` + workoutColumns

	updated, err = scanWorkout(tx.QueryRow(ctx, update, workout.ID, workout.Owner, workout.Name, exercises, date, workout.UpdatedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err = outbox.Enqueue(ctx, tx, workoutEvent(events.TypeWorkoutUpdated, *updated)); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	observability.RecordWorkoutPersisted(updated.UpdatedAt)
	return updated, nil
}

// DeleteOwned removes an owned workout and records workout.deleted.
func (r *WorkoutRepository) DeleteOwned(ctx context.Context, owner, id string) (deleted bool, err error) {
	if _, perr := uuid.Parse(id); perr != nil {
		return false, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil || !deleted {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `DELETE FROM workouts WHERE workout_id = $1 AND owner = $2`, id, owner)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if err = outbox.Enqueue(ctx, tx, outbox.Event{
		AggregateType: "workout",
		AggregateID:   id,
		EventType:     events.TypeWorkoutDeleted,
		PartitionKey:  owner,
		Payload: events.WorkoutDeleted{
			WorkoutID:  id,
			Owner:      owner,
			OccurredAt: time.Now().UTC(),
			Version:    events.SchemaVersion,
		},
	}); err != nil {
		return false, err
	}
	if err = tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func workoutEvent(eventType string, w domain.Workout) outbox.Event {
	return outbox.Event{
		AggregateType: "workout",
		AggregateID:   w.ID,
		EventType:     eventType,
		PartitionKey:  w.Owner,
		Payload: events.WorkoutRecorded{
			WorkoutID:     w.ID,
			Owner:         w.Owner,
			Name:          w.Name,
			ExerciseNames: w.ExerciseNames(),
			Date:          w.Date,
			TotalVolumeKG: w.TotalVolume(),
			OccurredAt:    w.UpdatedAt,
			Version:       events.SchemaVersion,
		},
	}
}

func scanWorkout(row pgx.Row) (*domain.Workout, error) {
	var (
		w         domain.Workout
		exercises []byte
	)
	if err := row.Scan(&w.ID, &w.Owner, &w.Name, &exercises, &w.Date, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(exercises, &w.Exercises); err != nil {
		return nil, err
	}
	w.Date = w.Date.UTC()
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	return &w, nil
}
