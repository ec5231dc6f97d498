package user

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"locallibrary/internal/platform/postgres"
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

func translate(err error) error {
	err = postgres.Classify(err)
	switch {
	case errors.Is(err, postgres.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, postgres.ErrUnique):
		return ErrAlreadyExists
	}
	return err
}

func (r *PostgresRepo) Create(ctx context.Context, u *User) error {
	const query = `
	INSERT INTO users (id, email, username, password_hash, permissions)
	VALUES (gen_random_uuid(), $1, $2, $3, $4)
	RETURNING id, created_at, updated_at
	`
	if u.Permissions == nil {
		u.Permissions = []string{}
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, u.Email, u.Username, u.PasswordHash, u.Permissions).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return translate(err)
}

const selectUser = `
	SELECT id::text, email, username, password_hash, permissions, created_at, updated_at
	FROM users
	`

func (r *PostgresRepo) get(ctx context.Context, where string, arg any) (User, error) {
	var u User
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, selectUser+where+" LIMIT 1", arg).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Permissions, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return User{}, translate(err)
	}
	return u, nil
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.get(ctx, "WHERE lower(email) = lower($1)", email)
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (User, error) {
	return r.get(ctx, "WHERE id::text = $1", id)
}

func (r *PostgresRepo) SetPermissions(ctx context.Context, id string, perms []string) error {
	const query = `UPDATE users SET permissions = $2, updated_at = now() WHERE id::text = $1`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, id, perms)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
