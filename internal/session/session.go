// Package session tracks anonymous browser sessions and their visit counter.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// CookieName is the cookie carrying the session id.
const CookieName = "sessionid"

var ErrNotFound = errors.New("session not found")

// Visit is one browser session. NumVisits counts index page views.
type Visit struct {
	ID         uuid.UUID
	NumVisits  int
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
}

func (v Visit) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

type ctxKey struct{}

func ContextWithID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IDFrom returns the session attached by Middleware.
func IDFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok
}
