package httpx

import (
	"context"
	"net/http"

	"locallibrary/internal/access"
)

type contextKey string

const (
	actorKey     contextKey = "actor"
	requestIDKey contextKey = "requestID"
)

// ActorFrom retrieves the acting principal from the request context.
// Requests without a valid token carry the anonymous actor.
func ActorFrom(r *http.Request) access.Actor {
	if v, ok := r.Context().Value(actorKey).(access.Actor); ok {
		return v
	}
	return access.Anonymous()
}

// UserIDFrom retrieves the authenticated user ID from the request context.
func UserIDFrom(r *http.Request) string {
	return ActorFrom(r).UserID
}

// ContextWithActor returns a new context carrying the actor.
func ContextWithActor(ctx context.Context, actor access.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// RequestIDFrom retrieves the request ID from the request context.
func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
