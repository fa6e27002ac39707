package lockout

import (
	"errors"
	"maps"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/lockout-auth/internal/crypto"
)

// Defaults applied to zero Config fields.
const (
	DefaultAttemptsBeforeLockout = 3
	DefaultLockoutClearTime      = 300 * time.Second
)

// Block window bounds in seconds. The window is drawn uniformly from this
// range so its length gives an attacker no fixed timing reference.
const (
	minBlockSeconds = 2
	maxBlockSeconds = 10
)

// Config holds the Authenticator settings. Zero fields fall back to defaults.
// LockoutClearTime is truncated to whole seconds, with a minimum of one.
// HashAlgorithm and HashOptions are validated only when a hash is created.
type Config struct {
	HashAlgorithm         string
	HashOptions           crypto.Options
	AttemptsBeforeLockout int
	LockoutClearTime      time.Duration
}

// Authenticator verifies passwords and maintains lockout bookkeeping on User records.
// It is immutable after construction and safe for concurrent use.
type Authenticator struct {
	algorithm string
	options   crypto.Options
	attempts  int
	clearSecs int64

	hasher PasswordHasher
	now    func() time.Time
	randN  func(n int64) int64
	log    *zap.Logger
}

// Option customizes an Authenticator.
type Option func(*Authenticator)

// WithHasher replaces the default hashing registry.
func WithHasher(h PasswordHasher) Option {
	return func(a *Authenticator) { a.hasher = h }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// WithLogger sets the logger; nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Authenticator) {
		if l != nil {
			a.log = l
		}
	}
}

// New constructs an Authenticator.
func New(cfg Config, opts ...Option) *Authenticator {
	a := &Authenticator{
		algorithm: cfg.HashAlgorithm,
		options:   maps.Clone(cfg.HashOptions),
		attempts:  cfg.AttemptsBeforeLockout,
		clearSecs: int64(cfg.LockoutClearTime / time.Second),
		hasher:    crypto.Passwords,
		now:       time.Now,
		randN:     rand.Int64N,
		log:       zap.NewNop(),
	}
	if a.algorithm == "" {
		a.algorithm = crypto.DefaultAlgorithm
	}
	if a.options == nil {
		a.options = crypto.Options{}
	}
	if a.attempts <= 0 {
		a.attempts = DefaultAttemptsBeforeLockout
	}
	switch {
	case cfg.LockoutClearTime <= 0:
		a.clearSecs = int64(DefaultLockoutClearTime / time.Second)
	case a.clearSecs == 0:
		// lockout state has second resolution
		a.clearSecs = 1
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Authenticate checks password for user and updates the lockout fields.
//
// A blocked user gets false without any change. On a match the hash is
// upgraded if the configuration changed since it was made, and the lockout
// is cleared. On a mismatch the failure is recorded and, past the threshold,
// the user is blocked for a few random seconds.
//
// The only error is a *crypto.HashingError from rehashing; the user is
// left untouched in that case. A password the configured scheme cannot
// hash (crypto.ErrPasswordTooLong) keeps its existing hash instead.
func (a *Authenticator) Authenticate(user User, password string) (bool, error) {
	now := a.now().Unix()
	if a.blockedAt(user, now) {
		return false, nil
	}

	hash := user.PasswordHash()
	ok, err := a.hasher.Verify(password, hash)
	if err != nil {
		// unreadable hash counts as a wrong password
		a.log.Warn("stored password hash rejected", zap.Error(err))
		ok = false
	}

	if !ok {
		a.recordFailure(user, now)
		return false, nil
	}

	if a.hasher.NeedsRehash(hash, a.algorithm, a.options) {
		newHash, err := a.CreatePasswordHash(password)
		switch {
		case errors.Is(err, crypto.ErrPasswordTooLong):
			a.log.Warn("rehash skipped", zap.String("algorithm", a.algorithm), zap.Error(err))
		case err != nil:
			return false, err
		default:
			user.SetPasswordHash(newHash)
			a.log.Debug("password rehashed", zap.String("algorithm", a.algorithm))
		}
	}

	a.ClearLockout(user)
	return true, nil
}

// IsLoginBlocked reports whether user is inside a block window.
func (a *Authenticator) IsLoginBlocked(user User) bool {
	return a.blockedAt(user, a.now().Unix())
}

// CreatePasswordHash hashes password with the configured algorithm and options.
func (a *Authenticator) CreatePasswordHash(password string) (string, error) {
	h, err := a.hasher.Hash(password, a.algorithm, a.options)
	if err != nil {
		return "", err
	}
	if h == "" {
		return "", &crypto.HashingError{Algorithm: a.algorithm, Err: crypto.ErrHashing}
	}
	return h, nil
}

// ClearLockout resets the failure streak and lifts any block.
func (a *Authenticator) ClearLockout(user User) {
	user.SetLastFailedLoginAttemptTime(0)
	user.SetFailedLoginAttempts(0)
	user.SetLoginBlockedUntilTime(0)
}

func (a *Authenticator) blockedAt(user User, now int64) bool {
	return user.LoginBlockedUntilTime() > now
}

// recordFailure forgives a streak older than the clear window, then counts
// this failure. Order matters: a stale streak restarts at 1.
func (a *Authenticator) recordFailure(user User, now int64) {
	if now-a.clearSecs > user.LastFailedLoginAttemptTime() {
		if user.FailedLoginAttempts() > 0 {
			a.log.Debug("stale failure streak cleared", zap.Int("failed_attempts", user.FailedLoginAttempts()))
		}
		a.ClearLockout(user)
	}

	user.SetLastFailedLoginAttemptTime(now)
	user.SetFailedLoginAttempts(user.FailedLoginAttempts() + 1)

	if user.FailedLoginAttempts() > a.attempts {
		until := now + minBlockSeconds + a.randN(maxBlockSeconds-minBlockSeconds+1)
		user.SetLoginBlockedUntilTime(until)
		a.log.Info("login blocked",
			zap.Int("failed_attempts", user.FailedLoginAttempts()),
			zap.Time("until", time.Unix(until, 0)),
		)
	}
}
