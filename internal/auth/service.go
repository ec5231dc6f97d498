// Package auth exchanges credentials for signed access tokens.
package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"locallibrary/internal/access"
	"locallibrary/internal/platform/crypto"
	"locallibrary/internal/user"
)

var ErrUnauthorized = errors.New("unauthorized")

type Users interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type Token struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	Permissions []string `json:"permissions"`
}

type Service struct {
	secret string
	ttl    time.Duration
	users  Users
	logger *zap.Logger
}

func NewService(secret string, ttl time.Duration, users Users, logger *zap.Logger) *Service {
	return &Service{secret: secret, ttl: ttl, users: users, logger: logger}
}

// Login checks the password and issues a token carrying the account's
// permissions. Unknown emails and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return Token{}, err
	}
	if err != nil || !crypto.VerifyPassword(u.PasswordHash, password) {
		s.logger.Warn("login failed", zap.String("email", email))
		return Token{}, ErrUnauthorized
	}

	perms := access.Strings(access.ParsePermissions(u.Permissions))
	token, _, err := crypto.GenerateToken(s.secret, u.ID, perms, s.ttl)
	if err != nil {
		return Token{}, err
	}
	return Token{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.ttl.Seconds()),
		Permissions: perms,
	}, nil
}
