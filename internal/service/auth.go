// Package service contains the application service for password login with lockout.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/lockout-auth/internal/errs"
	"github.com/and161185/lockout-auth/internal/lockout"
	"github.com/and161185/lockout-auth/internal/model"
	"github.com/and161185/lockout-auth/internal/repository"
)

// AuthService defines account registration, login and lockout administration.
type AuthService interface {
	// Register creates a new user with a freshly hashed password.
	Register(ctx context.Context, username, password string) (userID string, err error)
	// Login checks the password and updates lockout state atomically per user.
	Login(ctx context.Context, username, password string) (model.User, error)
	// Status reports the current lockout state of a user.
	Status(ctx context.Context, username string) (model.LoginStatus, error)
	// Unlock clears the failure streak and any block.
	Unlock(ctx context.Context, username string) error
}

// Authenticator is the password/lockout decision engine used by the service.
type Authenticator interface {
	Authenticate(user lockout.User, password string) (bool, error)
	IsLoginBlocked(user lockout.User) bool
	CreatePasswordHash(password string) (string, error)
	ClearLockout(user lockout.User)
}

var _ Authenticator = (*lockout.Authenticator)(nil)

// AuthServiceImpl implements AuthService on a UserRepository.
type AuthServiceImpl struct {
	users repository.UserRepository
	auth  Authenticator
	log   *zap.Logger
}

var _ AuthService = (*AuthServiceImpl)(nil)

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, auth Authenticator, log *zap.Logger) *AuthServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{users: users, auth: auth, log: log}
}

// Register creates a new user record.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", fmt.Errorf("%w: empty username/password", errs.ErrInvalidInput)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	hash, err := s.auth.CreatePasswordHash(password)
	if err != nil {
		return "", err
	}

	u := &model.User{
		ID:       uid,
		Username: username,
		PwdHash:  hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return "", err
	}
	s.log.Info("user registered", zap.String("username", username), zap.String("id", uid.String()))
	return uid.String(), nil
}

// Login authenticates under the user's row lock so concurrent attempts
// for one account see each other's bookkeeping.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (model.User, error) {
	if username == "" {
		return model.User{}, errs.ErrUnauthorized
	}

	var (
		ok      bool
		blocked bool
		found   model.User
	)
	err := s.users.WithUserLocked(ctx, username, func(u *model.User) error {
		var aerr error
		ok, aerr = s.auth.Authenticate(u, password)
		if aerr != nil {
			return aerr
		}
		blocked = !ok && s.auth.IsLoginBlocked(u)
		found = *u
		return nil
	})
	switch {
	case errors.Is(err, errs.ErrNotFound):
		// hide existence of the user
		s.log.Info("login failed", zap.String("username", username), zap.String("reason", "unknown user"))
		return model.User{}, errs.ErrUnauthorized
	case err != nil:
		s.log.Error("login error", zap.String("username", username), zap.Error(err))
		return model.User{}, err
	case blocked:
		s.log.Info("login failed", zap.String("username", username), zap.String("reason", "blocked"),
			zap.Int("failed_attempts", found.FailedAttempts))
		return model.User{}, errs.ErrLoginBlocked
	case !ok:
		s.log.Info("login failed", zap.String("username", username), zap.String("reason", "bad credentials"),
			zap.Int("failed_attempts", found.FailedAttempts))
		return model.User{}, errs.ErrUnauthorized
	}
	return found, nil
}

// Status loads a user and summarizes its lockout state.
func (s *AuthServiceImpl) Status(ctx context.Context, username string) (model.LoginStatus, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return model.LoginStatus{}, err
	}
	return model.LoginStatus{
		Username:       u.Username,
		Blocked:        s.auth.IsLoginBlocked(u),
		FailedAttempts: u.FailedAttempts,
		LastFailedAt:   model.UnixOrZero(u.LastFailedAt),
		BlockedUntil:   model.UnixOrZero(u.BlockedUntil),
	}, nil
}

// Unlock resets the user's lockout state.
func (s *AuthServiceImpl) Unlock(ctx context.Context, username string) error {
	err := s.users.WithUserLocked(ctx, username, func(u *model.User) error {
		s.auth.ClearLockout(u)
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("lockout cleared", zap.String("username", username))
	return nil
}
