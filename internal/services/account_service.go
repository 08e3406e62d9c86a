// Package services orchestrates the ledger operations: accounts and
// sessions, financial events, and dashboard reads.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradejournal/internal/auth"
	"tradejournal/internal/core"
	applog "tradejournal/internal/log"
	"tradejournal/internal/storage"
)

// AccountService handles registration, credential checks and sessions.
type AccountService struct {
	repo       *storage.Repository
	logger     *applog.Logger
	sessionTTL time.Duration
}

func NewAccountService(repo *storage.Repository, logger *applog.Logger, sessionTTL time.Duration) *AccountService {
	return &AccountService{
		repo:       repo,
		logger:     logger.WithComponent(applog.ComponentAuth),
		sessionTTL: sessionTTL,
	}
}

// SessionTTL returns the configured session lifetime.
func (s *AccountService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Register creates a new user with a zero balance. Existing email or
// username is core.ErrConflict; the checks here run pre-commit, with the
// store's unique constraints as the backstop.
func (s *AccountService) Register(ctx context.Context, reg core.Registration) (core.User, error) {
	if err := reg.Validate(); err != nil {
		return core.User{}, err
	}

	if _, err := s.repo.GetUserByEmail(ctx, reg.Email); err == nil {
		return core.User{}, fmt.Errorf("email: %w", core.ErrConflict)
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, err
	}
	if _, err := s.repo.GetUserByUsername(ctx, reg.Username); err == nil {
		return core.User{}, fmt.Errorf("username: %w", core.ErrConflict)
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, err
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return core.User{}, err
	}

	user, err := s.repo.CreateUser(ctx, reg.Email, reg.Username, hash)
	if err != nil {
		return core.User{}, err
	}

	s.logger.InfoContext(ctx, "Registration completed",
		applog.FieldOperation, applog.OpRegister, applog.FieldUserID, user.ID)
	return user, nil
}

// Authenticate verifies a username/password pair. Wrong username and
// wrong password both return core.ErrNotFound so callers cannot tell
// which part failed.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (core.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return core.User{}, err
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return core.User{}, core.ErrNotFound
	}
	return user, nil
}

// StartSession issues a new session token for the user.
func (s *AccountService) StartSession(ctx context.Context, userID int64) (string, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return "", err
	}
	if err := s.repo.CreateSession(ctx, token, userID, time.Now().Add(s.sessionTTL)); err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "Session started",
		applog.FieldOperation, applog.OpLogin, applog.FieldUserID, userID)
	return token, nil
}

// ResolveSession maps a session token to the authenticated user.
func (s *AccountService) ResolveSession(ctx context.Context, token string) (core.User, error) {
	return s.repo.ValidateSession(ctx, token)
}

// EndSession invalidates a session token.
func (s *AccountService) EndSession(ctx context.Context, token string) error {
	return s.repo.DeleteSession(ctx, token)
}
