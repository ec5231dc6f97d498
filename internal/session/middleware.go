package session

import (
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Middleware attaches the visitor's live session and refreshes its cookie.
// New sessions are only opened for requests matching starts, so clients that
// never keep cookies do not leave a row behind per request. A session store
// failure is logged and the request proceeds without a session.
func Middleware(svc *Service, secure bool, starts func(*http.Request) bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var value string
			if c, err := r.Cookie(CookieName); err == nil {
				value = c.Value
			}

			v, err := svc.Lookup(r.Context(), value)
			if errors.Is(err, ErrNotFound) {
				if !starts(r) {
					next.ServeHTTP(w, r)
					return
				}
				v, err = svc.Start(r.Context())
			}
			if err != nil {
				logger.Error("visitor session unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    v.ID.String(),
				Path:     "/",
				MaxAge:   int(svc.TTL().Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			next.ServeHTTP(w, r.WithContext(ContextWithID(r.Context(), v.ID)))
		})
	}
}

// OnPath starts sessions only for requests to exactly path.
func OnPath(path string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		return r.URL.Path == path
	}
}
