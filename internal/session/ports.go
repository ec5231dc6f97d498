package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	// Get returns ErrNotFound for unknown and expired sessions.
	Get(ctx context.Context, id uuid.UUID) (Visit, error)
	// Increment bumps num_visits, pushes expires_at out and returns the new count.
	Increment(ctx context.Context, id uuid.UUID, expiresAt time.Time) (int, error)
	CleanupExpired(ctx context.Context) (int64, error)
}
