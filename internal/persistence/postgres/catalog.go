package postgres

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/fittrack/internal/domain"
)

// CatalogRepository reads and enriches the exercise catalog.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository constructs a CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

const exerciseColumns = `exercise_id, name, category, equipment, description, image, instructions, session_count, last_seen_at`

// List implements domain.CatalogRepository.
func (r *CatalogRepository) List(ctx context.Context, limit int) ([]domain.Exercise, error) {
	return r.Search(ctx, domain.CatalogFilter{Limit: limit})
}

// Search matches name case-insensitively as a substring and category exactly.
func (r *CatalogRepository) Search(ctx context.Context, filter domain.CatalogFilter) ([]domain.Exercise, error) {
	const query = `SELECT ` + exerciseColumns + `
        FROM exercises
        WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
          AND ($2 = '' OR category = $2)
        ORDER BY name
        LIMIT $3`

	limit := filter.Limit
	if limit <= 0 {
		limit = domain.MaxListLimit
	}

	rows, err := r.pool.Query(ctx, query, escapeLike(filter.Name), filter.Category, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Exercise, 0)
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, ex)
	}
	return results, rows.Err()
}

// UpsertByName inserts or refreshes the descriptive fields of an entry.
func (r *CatalogRepository) UpsertByName(ctx context.Context, exercise domain.Exercise) error {
	instructions, err := json.Marshal(nonNil(exercise.Instructions))
	if err != nil {
		return err
	}
	id := exercise.ID
	if id == "" {
		id = uuid.NewString()
	}

	const stmt = `INSERT INTO exercises (exercise_id, name, category, equipment, description, image, instructions)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (LOWER(name)) DO UPDATE
        SET category = EXCLUDED.category,
            equipment = EXCLUDED.equipment,
            description = EXCLUDED.description,
            image = EXCLUDED.image,
            instructions = EXCLUDED.instructions`

	_, err = r.pool.Exec(ctx, stmt,
		id,
		strings.TrimSpace(exercise.Name),
		exercise.Category,
		exercise.Equipment,
		exercise.Description,
		exercise.Image,
		instructions,
	)
	return err
}

// RecordUsage bumps the counters of entries named in names.
func (r *CatalogRepository) RecordUsage(ctx context.Context, names []string, seenAt time.Time) (int, error) {
	lowered := make([]string, 0, len(names))
	for _, n := range names {
		lowered = append(lowered, strings.ToLower(strings.TrimSpace(n)))
	}

	const stmt = `UPDATE exercises
        SET session_count = session_count + 1,
            last_seen_at = GREATEST(COALESCE(last_seen_at, $2), $2)
        WHERE LOWER(name) = ANY($1)`

	tag, err := r.pool.Exec(ctx, stmt, lowered, seenAt)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanExercise(row pgx.Row) (domain.Exercise, error) {
	var (
		ex           domain.Exercise
		instructions []byte
	)
	if err := row.Scan(&ex.ID, &ex.Name, &ex.Category, &ex.Equipment, &ex.Description, &ex.Image, &instructions, &ex.SessionCount, &ex.LastSeenAt); err != nil {
		return domain.Exercise{}, err
	}
	if err := json.Unmarshal(instructions, &ex.Instructions); err != nil {
		return domain.Exercise{}, err
	}
	ex.Instructions = nonNil(ex.Instructions)
	return ex, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
