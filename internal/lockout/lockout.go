// Package lockout authenticates passwords against stored hashes and
// temporarily blocks accounts after repeated failed attempts.
//
// The Authenticator keeps no per-user state. Callers must serialize
// Authenticate calls that share one User record (for example with a row lock),
// since the lockout fields are updated with plain read-modify-write.
package lockout

import "github.com/and161185/lockout-auth/internal/crypto"

// User is the account record the Authenticator reads and updates.
// Times are unix seconds; 0 means unset.
type User interface {
	PasswordHash() string
	SetPasswordHash(hash string)

	LastFailedLoginAttemptTime() int64
	SetLastFailedLoginAttemptTime(t int64)

	FailedLoginAttempts() int
	SetFailedLoginAttempts(n int)

	LoginBlockedUntilTime() int64
	SetLoginBlockedUntilTime(t int64)
}

// PasswordHasher creates, verifies and inspects password hashes.
type PasswordHasher interface {
	// Hash returns a new hash or an error; never an empty hash with nil error.
	Hash(password, algorithm string, opts crypto.Options) (string, error)
	// Verify reports whether password matches hash.
	Verify(password, hash string) (bool, error)
	// NeedsRehash reports whether hash was made with another algorithm or options.
	NeedsRehash(hash, algorithm string, opts crypto.Options) bool
}

var _ PasswordHasher = (*crypto.Registry)(nil)
