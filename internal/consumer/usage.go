package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"example.com/fittrack/internal/events"
)

// UsageRecorder bumps catalog counters for exercise names.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, names []string, seenAt time.Time) (int, error)
}

// UsageHandler enriches the exercise catalog from workout.recorded events, so
// each workout counts as one session. Edits arrive as workout.updated and,
// like every other event type, are acknowledged without side effects.
type UsageHandler struct {
	recorder UsageRecorder
	logger   *zap.Logger
}

// NewUsageHandler constructs a UsageHandler.
func NewUsageHandler(recorder UsageRecorder, logger *zap.Logger) *UsageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsageHandler{recorder: recorder, logger: logger}
}

// Handle implements Handler.
func (h *UsageHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != events.TypeWorkoutRecorded {
		return nil
	}

	var evt events.WorkoutRecorded
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("decode %s: %w", msg.EventType, err)
	}

	seenAt := evt.Date
	if seenAt.IsZero() {
		seenAt = msg.Timestamp
	}
	updated, err := h.recorder.RecordUsage(ctx, evt.ExerciseNames, seenAt)
	if err != nil {
		return err
	}
	recordUsage(updated, len(evt.ExerciseNames))
	h.logger.Debug("catalog usage recorded",
		zap.String("workout_id", evt.WorkoutID),
		zap.Int("matched", updated),
		zap.Int("exercises", len(evt.ExerciseNames)),
	)
	return nil
}
