// Package events defines the payloads published through the outbox.
package events

import "time"

// Event types double as outbox event_type values.
const (
	TypeWorkoutRecorded     = "workout.recorded"
	TypeWorkoutUpdated      = "workout.updated"
	TypeWorkoutDeleted      = "workout.deleted"
	TypeGenerationCompleted = "generation.completed"
)

// SchemaVersion is stamped on every payload.
const SchemaVersion = "v1"

// WorkoutRecorded is emitted when a workout is created. The same payload is
// published as workout.updated when an owner edits the workout.
type WorkoutRecorded struct {
	WorkoutID     string    `json:"workout_id"`
	Owner         string    `json:"owner"`
	Name          string    `json:"name"`
	ExerciseNames []string  `json:"exercise_names"`
	Date          time.Time `json:"date"`
	TotalVolumeKG float64   `json:"total_volume_kg"`
	OccurredAt    time.Time `json:"occurred_at"`
	Version       string    `json:"version"`
}

// WorkoutDeleted is emitted when an owner removes a workout.
type WorkoutDeleted struct {
	WorkoutID  string    `json:"workout_id"`
	Owner      string    `json:"owner"`
	OccurredAt time.Time `json:"occurred_at"`
	Version    string    `json:"version"`
}

// GenerationCompleted records which stage of the fallback chain produced a
// generated plan. The generated text itself is not published.
type GenerationCompleted struct {
	RecordID  string    `json:"record_id"`
	Owner     string    `json:"owner"`
	Kind      string    `json:"kind"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	Version   string    `json:"version"`
}
