package crypto

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// AlgorithmBcrypt identifies the bcrypt scheme.
	AlgorithmBcrypt = "bcrypt"
	// algorithmBcryptAlias is the identifier other bcrypt implementations use.
	algorithmBcryptAlias = "2y"

	// OptionCost is the bcrypt work factor.
	OptionCost = "cost"

	// BcryptMaxPasswordLen is the longest password bcrypt hashes, in bytes.
	BcryptMaxPasswordLen = 72
)

// Bcrypt hashes passwords with bcrypt. Hashes with $2a$, $2b$ and $2y$
// prefixes are accepted for verification.
//
// Hash rejects passwords over BcryptMaxPasswordLen bytes with
// ErrPasswordTooLong. Verify compares only the first BcryptMaxPasswordLen
// bytes, as other bcrypt implementations truncate when hashing.
type Bcrypt struct{}

// Name implements Scheme.
func (Bcrypt) Name() string { return AlgorithmBcrypt }

// Recognizes implements Scheme.
func (Bcrypt) Recognizes(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

// Hash implements Scheme.
func (Bcrypt) Hash(password string, opts Options) (string, error) {
	cost := option(opts, OptionCost, bcrypt.DefaultCost)
	// bcrypt silently raises a too-low cost to the default; reject it instead.
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("%w: cost %d outside [%d, %d]", ErrInvalidOption, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if len(password) > BcryptMaxPasswordLen {
		return "", fmt.Errorf("%w: %d bytes > %d", ErrPasswordTooLong, len(password), BcryptMaxPasswordLen)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify implements Scheme.
func (Bcrypt) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

// NeedsRehash implements Scheme.
func (Bcrypt) NeedsRehash(hash string, opts Options) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost != option(opts, OptionCost, bcrypt.DefaultCost)
}
