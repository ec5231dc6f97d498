package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	repo   Repository
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewService(repo Repository, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{repo: repo, ttl: ttl, now: time.Now, logger: logger}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Lookup returns the live session named by the cookie value. Unparseable,
// unknown and expired values all yield ErrNotFound.
func (s *Service) Lookup(ctx context.Context, cookie string) (Visit, error) {
	id, err := uuid.Parse(cookie)
	if err != nil {
		return Visit{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Start opens a new session with zero visits.
func (s *Service) Start(ctx context.Context) (Visit, error) {
	v := Visit{ID: uuid.New(), ExpiresAt: s.now().Add(s.ttl)}
	if err := s.repo.Create(ctx, &v); err != nil {
		return Visit{}, err
	}
	return v, nil
}

// RecordVisit counts one index view and returns the count including it.
// The expiry slides forward with each view.
func (s *Service) RecordVisit(ctx context.Context, id uuid.UUID) (int, error) {
	return s.repo.Increment(ctx, id, s.now().Add(s.ttl))
}

func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.CleanupExpired(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("expired visitor sessions purged", zap.Int64("count", n))
	return n, nil
}

// Sweep purges expired sessions every interval until ctx is done.
func (s *Service) Sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CleanupExpired(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("purging expired visitor sessions failed", zap.Error(err))
			}
		}
	}
}
