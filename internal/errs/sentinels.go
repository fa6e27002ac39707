// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized indicates a wrong password or an unknown user.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrLoginBlocked indicates the account is inside a lockout window.
	ErrLoginBlocked = errors.New("login blocked")

	// ErrInvalidInput indicates empty or malformed request data.
	ErrInvalidInput = errors.New("invalid input")
)
