package httpx

import (
	"context"
	"net/http"
	"strings"

	"locallibrary/internal/access"
	"locallibrary/internal/platform/crypto"
)

type userSinkKey struct{}

// withUserSink lets inner middleware report the authenticated user back to the access log.
func withUserSink(ctx context.Context, sink *string) context.Context {
	return context.WithValue(ctx, userSinkKey{}, sink)
}

func reportUser(ctx context.Context, userID string) {
	if sink, ok := ctx.Value(userSinkKey{}).(*string); ok {
		*sink = userID
	}
}

// AuthMiddleware resolves an optional bearer token into an access.Actor.
// A missing token yields the anonymous actor; a malformed or expired token is rejected.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), access.Anonymous())))
				return
			}
			if !strings.HasPrefix(authHeader, "Bearer ") {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization header", nil)
				return
			}

			claims, err := crypto.ParseToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token", nil)
				return
			}

			reportUser(r.Context(), claims.Sub)
			actor := access.NewActor(claims.Sub, claims.Perms)
			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
		})
	}
}
