// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// User represents a stored account together with its lockout bookkeeping.
// Times are unix seconds; 0 means unset.
type User struct {
	ID             uuid.UUID // PK
	Username       string    // unique
	PwdHash        string    // encoded hash (bcrypt or argon2id)
	LastFailedAt   int64     // last failed login attempt
	FailedAttempts int       // failures in the current streak
	BlockedUntil   int64     // login blocked until this time
	CreatedAt      time.Time
}

// PasswordHash returns the stored password hash.
func (u *User) PasswordHash() string { return u.PwdHash }

// SetPasswordHash replaces the stored password hash.
func (u *User) SetPasswordHash(hash string) { u.PwdHash = hash }

// LastFailedLoginAttemptTime returns the time of the last failed attempt.
func (u *User) LastFailedLoginAttemptTime() int64 { return u.LastFailedAt }

// SetLastFailedLoginAttemptTime sets the time of the last failed attempt.
func (u *User) SetLastFailedLoginAttemptTime(t int64) { u.LastFailedAt = t }

// FailedLoginAttempts returns the current failure count.
func (u *User) FailedLoginAttempts() int { return u.FailedAttempts }

// SetFailedLoginAttempts sets the current failure count.
func (u *User) SetFailedLoginAttempts(n int) { u.FailedAttempts = n }

// LoginBlockedUntilTime returns the end of the current block window.
func (u *User) LoginBlockedUntilTime() int64 { return u.BlockedUntil }

// SetLoginBlockedUntilTime sets the end of the block window.
func (u *User) SetLoginBlockedUntilTime(t int64) { u.BlockedUntil = t }

// LoginStatus is a read-only view of an account's lockout state.
type LoginStatus struct {
	Username       string    `json:"username"`
	Blocked        bool      `json:"blocked"`
	FailedAttempts int       `json:"failed_attempts"`
	LastFailedAt   time.Time `json:"last_failed_at"` // zero if unset
	BlockedUntil   time.Time `json:"blocked_until"`  // zero if unset
}

// UnixOrZero converts unix seconds to time, keeping 0 as the zero time.
func UnixOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
