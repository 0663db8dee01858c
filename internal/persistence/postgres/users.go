package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/fittrack/internal/domain"
)

const uniqueViolation = "23505"

// UserRepository persists profiles keyed by the verified subject.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `subject, name, COALESCE(email, ''), avatar_url, created_at, last_seen_at`

// Upsert creates the profile on first sight and otherwise only refreshes last_seen_at.
func (r *UserRepository) Upsert(ctx context.Context, user domain.User) (*domain.User, error) {
	const stmt = `INSERT INTO users (subject, name, email, avatar_url, created_at, last_seen_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (subject) DO UPDATE SET last_seen_at = EXCLUDED.last_seen_at
        RETURNING ` + userColumns

	out, err := scanUser(r.pool.QueryRow(ctx, stmt,
		user.Subject,
		user.Name,
		nullIfEmpty(user.Email),
		user.AvatarURL,
		user.CreatedAt,
		user.LastSeenAt,
	))
	if err != nil {
		return nil, mapUserError(err)
	}
	return out, nil
}

// Get returns the profile or nil when the subject is unknown.
func (r *UserRepository) Get(ctx context.Context, subject string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE subject = $1`
	out, err := scanUser(r.pool.QueryRow(ctx, query, subject))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return out, err
}

// UpdateProfile applies non-nil fields of update. An empty email is stored as NULL.
func (r *UserRepository) UpdateProfile(ctx context.Context, subject string, update domain.ProfileUpdate) (*domain.User, error) {
	const stmt = `UPDATE users
        SET name = COALESCE($2, name),
            email = CASE WHEN $3::text IS NULL THEN email ELSE NULLIF($3::text, '') END,
            avatar_url = COALESCE($4, avatar_url)
        WHERE subject = $1
        RETURNING ` + userColumns

	out, err := scanUser(r.pool.QueryRow(ctx, stmt, subject, update.Name, update.Email, update.AvatarURL))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapUserError(err)
	}
	return out, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.Subject, &u.Name, &u.Email, &u.AvatarURL, &u.CreatedAt, &u.LastSeenAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func mapUserError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrEmailTaken
	}
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
