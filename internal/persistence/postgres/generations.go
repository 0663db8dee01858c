package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/generation"
	"example.com/fittrack/internal/observability"
	"example.com/fittrack/internal/outbox"
)

// GenerationStore persists generated recipes and workout plans.
type GenerationStore struct {
	pool *pgxpool.Pool
}

// NewGenerationStore constructs a GenerationStore.
func NewGenerationStore(pool *pgxpool.Pool) *GenerationStore {
	return &GenerationStore{pool: pool}
}

// Save stores the record and records generation.completed in one transaction.
func (s *GenerationStore) Save(ctx context.Context, record generation.Record) (err error) {
	params, err := json.Marshal(record.Parameters)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const insert = `INSERT INTO generations (record_id, owner, kind, parameters, prompt, body, source, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	if _, err = tx.Exec(ctx, insert,
		record.ID,
		record.Owner,
		string(record.Kind),
		params,
		record.Prompt,
		record.Text,
		string(record.Source),
		record.CreatedAt,
	); err != nil {
		return err
	}

	if err = outbox.Enqueue(ctx, tx, outbox.Event{
		AggregateType: "generation",
		AggregateID:   record.ID,
		EventType:     events.TypeGenerationCompleted,
		PartitionKey:  record.Owner,
		Payload: events.GenerationCompleted{
			RecordID:  record.ID,
			Owner:     record.Owner,
			Kind:      string(record.Kind),
			Source:    string(record.Source),
			CreatedAt: record.CreatedAt,
			Version:   events.SchemaVersion,
		},
	}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordGenerationPersisted(record.CreatedAt)
	return nil
}

// ListByOwner returns the owner's records of kind, newest first.
func (s *GenerationStore) ListByOwner(ctx context.Context, owner string, kind generation.Kind, limit int) ([]generation.Record, error) {
	if limit <= 0 {
		limit = generation.DefaultHistoryLimit
	}
	const query = `SELECT record_id, owner, kind, parameters, prompt, body, source, created_at
        FROM generations
        WHERE owner = $1 AND kind = $2
        ORDER BY created_at DESC, record_id DESC
        LIMIT $3`

	rows, err := s.pool.Query(ctx, query, owner, string(kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]generation.Record, 0)
	for rows.Next() {
		var (
			rec            generation.Record
			kindCol, stage string
			params         []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Owner, &kindCol, &params, &rec.Prompt, &rec.Text, &stage, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(params, &rec.Parameters); err != nil {
			return nil, err
		}
		rec.Kind = generation.Kind(kindCol)
		rec.Source = generation.Stage(stage)
		rec.CreatedAt = rec.CreatedAt.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
