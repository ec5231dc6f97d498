package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) Create(ctx context.Context, v *Visit) error {
	const query = `
	INSERT INTO visitor_sessions (id, num_visits, expires_at)
	VALUES ($1, $2, $3)
	RETURNING created_at, last_seen_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.QueryRow(timeoutCtx, query, v.ID, v.NumVisits, v.ExpiresAt).
		Scan(&v.CreatedAt, &v.LastSeenAt)
}

func (r *PostgresRepo) Get(ctx context.Context, id uuid.UUID) (Visit, error) {
	const query = `
	SELECT id, num_visits, created_at, last_seen_at, expires_at
	FROM visitor_sessions
	WHERE id = $1 AND expires_at > now()
	`
	var v Visit
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, id).Scan(
		&v.ID,
		&v.NumVisits,
		&v.CreatedAt,
		&v.LastSeenAt,
		&v.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Visit{}, ErrNotFound
		}
		return Visit{}, err
	}
	return v, nil
}

// Increment is a single UPDATE, so concurrent views of one session never lose a count.
func (r *PostgresRepo) Increment(ctx context.Context, id uuid.UUID, expiresAt time.Time) (int, error) {
	const query = `
	UPDATE visitor_sessions
	SET num_visits = num_visits + 1, last_seen_at = now(), expires_at = $2
	WHERE id = $1 AND expires_at > now()
	RETURNING num_visits
	`
	var n int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, query, id, expiresAt).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return n, nil
}

func (r *PostgresRepo) CleanupExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM visitor_sessions WHERE expires_at <= now()`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
