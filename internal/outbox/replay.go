package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReplayResult summarises one Replayer pass.
type ReplayResult struct {
	Requeued    int
	Rescheduled int
	Quarantined int
}

// Replayer moves dead-lettered events back into the outbox and quarantines
// entries that exhausted their retries.
type Replayer struct {
	pool       *pgxpool.Pool
	maxRetries int
	baseDelay  time.Duration
}

// NewReplayer constructs a Replayer with the provided pool and retry configuration.
func NewReplayer(pool *pgxpool.Pool, maxRetries int, baseDelay time.Duration) *Replayer {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if baseDelay <= 0 {
		baseDelay = time.Minute
	}
	return &Replayer{pool: pool, maxRetries: maxRetries, baseDelay: baseDelay}
}

// RunOnce processes up to batchSize due DLQ entries.
func (r *Replayer) RunOnce(ctx context.Context, batchSize int) (ReplayResult, error) {
	const query = `SELECT dlq_id, event_id, event_type, topic, payload, aggregate_type, aggregate_id, schema_subject, partition_key, retry_count
        FROM outbox_dlq
        WHERE quarantined_at IS NULL AND (next_retry_at IS NULL OR next_retry_at <= NOW())
        ORDER BY created_at
        LIMIT $1`

	rows, err := r.pool.Query(ctx, query, batchSize)
	if err != nil {
		return ReplayResult{}, err
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (dlqEntry, error) {
		var e dlqEntry
		err := row.Scan(&e.ID, &e.Message.EventID, &e.Message.EventType, &e.Message.Topic, &e.Message.Payload,
			&e.Message.AggregateType, &e.Message.AggregateID, &e.Message.SchemaSubject, &e.Message.PartitionKey, &e.RetryCount)
		return e, err
	})
	if err != nil {
		return ReplayResult{}, err
	}

	var result ReplayResult
	var errs error
	for _, entry := range entries {
		outcome, handleErr := r.handleEntry(ctx, entry)
		if handleErr != nil {
			errs = errors.Join(errs, handleErr)
			continue
		}
		replayCounter.WithLabelValues(outcome).Inc()
		switch outcome {
		case "requeued":
			result.Requeued++
		case "rescheduled":
			result.Rescheduled++
		case "quarantined":
			result.Quarantined++
		}
	}
	return result, errs
}

func (r *Replayer) handleEntry(ctx context.Context, entry dlqEntry) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if entry.RetryCount >= r.maxRetries {
		if _, err := tx.Exec(ctx, `UPDATE outbox_dlq SET quarantined_at = NOW(), quarantine_reason = $1 WHERE dlq_id = $2`, "retry limit reached", entry.ID); err != nil {
			return "", err
		}
		return "quarantined", tx.Commit(ctx)
	}

	if requeueErr := requeue(ctx, tx, entry.Message); requeueErr != nil {
		// The failed insert aborted the transaction; record the retry in a fresh one.
		_ = tx.Rollback(ctx)
		delay := backoffDelay(r.baseDelay, entry.RetryCount+1)
		if _, err := r.pool.Exec(ctx,
			`UPDATE outbox_dlq
               SET retry_count = retry_count + 1,
                   last_attempt_at = NOW(),
                   next_retry_at = NOW() + $1::interval,
                   reason = $2
             WHERE dlq_id = $3`,
			delay, requeueErr.Error(), entry.ID,
		); err != nil {
			return "", err
		}
		return "rescheduled", nil
	}

	if _, err := tx.Exec(ctx, `DELETE FROM outbox_dlq WHERE dlq_id = $1`, entry.ID); err != nil {
		return "", err
	}
	return "requeued", tx.Commit(ctx)
}

// backoffDelay doubles base for every attempt, capped at one hour.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 12 {
		return time.Hour
	}
	delay := time.Duration(1<<uint(attempt-1)) * base
	if delay > time.Hour {
		delay = time.Hour
	}
	return delay
}

func requeue(ctx context.Context, tx pgx.Tx, msg Message) error {
	if msg.SchemaSubject == "" {
		return fmt.Errorf("missing schema_subject for event %d", msg.EventID)
	}
	if _, ok := Lookup(msg.EventType); !ok {
		return fmt.Errorf("no schema metadata for event_type=%s", msg.EventType)
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := tx.Exec(ctx, stmt,
		msg.AggregateType,
		msg.AggregateID,
		msg.EventType,
		msg.Topic,
		msg.SchemaSubject,
		msg.PartitionKey,
		msg.Payload,
	)
	return err
}

type dlqEntry struct {
	ID         int64
	Message    Message
	RetryCount int
}
