package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"locallibrary/internal/config"
	"locallibrary/internal/httpx"
	"locallibrary/internal/session"
)

type registrar interface {
	Register(mux *http.ServeMux)
}

// newHandler mounts the probes outside the middleware chain so they never
// open visitor sessions, and everything else behind it.
func newHandler(cfg *config.Config, logger *zap.Logger, sessions *session.Service, ready func(context.Context) error, routes ...registrar) http.Handler {
	api := http.NewServeMux()
	for _, r := range routes {
		r.Register(api)
	}

	limiter := httpx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustedProxies)
	chained := httpx.Chain(api,
		httpx.RecoveryMiddleware(logger),
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(logger),
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.CORSMiddleware(cfg.CORSAllowedOrigins),
		limiter.Middleware,
		httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes),
		httpx.AuthMiddleware(cfg.JWTSecret),
		session.Middleware(sessions, cfg.IsProduction(), session.OnPath("/v1/"), logger),
	)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	root.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := ready(ctx); err != nil {
			logger.Warn("readiness check failed", zap.Error(err))
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	root.Handle("/", chained)
	return root
}
