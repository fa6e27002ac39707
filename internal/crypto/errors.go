package crypto

import (
	"errors"
	"fmt"
)

var (
	// ErrHashing matches every *HashingError.
	ErrHashing = errors.New("password hashing failed")

	// ErrUnknownAlgorithm indicates an algorithm identifier no scheme is registered for.
	ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

	// ErrInvalidOption indicates an option value the scheme cannot use.
	ErrInvalidOption = errors.New("invalid hash option")

	// ErrPasswordTooLong indicates a password longer than the scheme can hash.
	ErrPasswordTooLong = errors.New("password too long for hash algorithm")

	// ErrMalformedHash indicates a stored hash that cannot be parsed.
	ErrMalformedHash = errors.New("malformed password hash")

	errEmptyHash = errors.New("scheme produced an empty hash")
)

// HashingError reports that a password hash could not be produced.
type HashingError struct {
	Algorithm string
	Err       error
}

func (e *HashingError) Error() string {
	return fmt.Sprintf("password hashing failed (%s): %v", e.Algorithm, e.Err)
}

func (e *HashingError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrHashing) hold for any HashingError.
func (e *HashingError) Is(target error) bool { return target == ErrHashing }
