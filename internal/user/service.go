package user

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"locallibrary/internal/access"
	"locallibrary/internal/platform/crypto"
)

type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Register creates an account with no permissions.
func (s *Service) Register(ctx context.Context, email, username, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrAlreadyExists
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return User{}, err
	}
	u := &User{
		Email:        email,
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
		Permissions:  []string{},
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	s.logger.Info("user registered", zap.String("user_id", u.ID))
	return *u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// Grant adds perms to the account, keeping those it already holds.
func (s *Service) Grant(ctx context.Context, email string, perms ...access.Permission) (User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}

	merged := access.ParsePermissions(u.Permissions)
	for _, p := range perms {
		if !slices.Contains(merged, p) {
			merged = append(merged, p)
		}
	}
	names := access.Strings(merged)
	if err := s.repo.SetPermissions(ctx, u.ID, names); err != nil {
		return User{}, err
	}
	u.Permissions = names
	s.logger.Info("permissions granted", zap.String("user_id", u.ID), zap.Strings("permissions", names))
	return u, nil
}
