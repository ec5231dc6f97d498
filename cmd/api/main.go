package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"locallibrary/internal/auth"
	"locallibrary/internal/catalog"
	"locallibrary/internal/config"
	"locallibrary/internal/home"
	"locallibrary/internal/loan"
	"locallibrary/internal/platform/openlibrary"
	"locallibrary/internal/platform/postgres"
	"locallibrary/internal/session"
	"locallibrary/internal/user"
)

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Open(ctx, cfg.DBDSN, 2*time.Second)
	if err != nil {
		return fmt.Errorf("database %s: %w", config.RedactDSN(cfg.DBDSN), err)
	}
	defer pool.Close()
	logger.Info("database connection OK", zap.String("dsn", config.RedactDSN(cfg.DBDSN)))

	stores := catalog.NewStores(pool, cfg.DBTimeout)
	loans := loan.NewService(loan.NewPostgresRepo(pool, cfg.DBTimeout), logger)
	users := user.NewService(user.NewPostgresRepo(pool, cfg.DBTimeout), logger)
	sessions := session.NewService(session.NewPostgresRepo(pool, cfg.DBTimeout), cfg.SessionTTL, logger)
	if _, err := sessions.CleanupExpired(ctx); err != nil {
		logger.Warn("purging expired visitor sessions failed", zap.Error(err))
	}
	go sessions.Sweep(ctx, cfg.SessionSweepInterval)

	ol := openlibrary.NewClient(openlibrary.Config{
		UserAgent:  cfg.OpenLibraryUserAgent,
		RPS:        cfg.OpenLibraryRPS,
		MaxRetries: cfg.OpenLibraryMaxRetries,
	})

	handler := newHandler(cfg, logger, sessions, pool.Ping,
		catalog.NewHTTPHandler(catalog.Deps{
			Genres:    stores.Genres,
			Languages: stores.Languages,
			Authors:   stores.Authors,
			Books:     stores.Books,
			Copies:    loans,
			Importer:  catalog.NewImporter(ol, stores, logger),
		}, logger),
		loan.NewHTTPHandler(loans, logger),
		home.NewHandler(stores.Books, stores.Authors, stores.Genres, loans, sessions, logger),
		user.NewHTTPHandler(users, logger),
		auth.NewHTTPHandler(auth.NewService(cfg.JWTSecret, cfg.AccessTokenTTL, users, logger), logger),
	)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
