// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/lockout-auth/internal/model"
)

// UserRepository provides access to users and their lockout state.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, u *model.User) error
	// GetByUsername loads a user by username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// WithUserLocked loads the user under an exclusive lock, runs fn and
	// persists the password hash and lockout fields fn left on the user.
	// Nothing is persisted if fn returns an error.
	WithUserLocked(ctx context.Context, username string, fn func(u *model.User) error) error
}
