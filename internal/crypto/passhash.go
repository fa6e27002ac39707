// Package crypto implements password hashing schemes, verification and
// rehash detection for stored password hashes.
package crypto

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = AlgorithmBcrypt

// Options holds scheme-specific tuning parameters, e.g. {"cost": 12}.
// Keys a scheme does not know are ignored.
type Options map[string]int

// Scheme is a single password hashing algorithm.
type Scheme interface {
	// Name returns the canonical algorithm identifier.
	Name() string
	// Recognizes reports whether hash was produced by this scheme.
	Recognizes(hash string) bool
	// Hash returns an encoded hash of password.
	Hash(password string, opts Options) (string, error)
	// Verify reports whether password matches hash.
	Verify(password, hash string) (bool, error)
	// NeedsRehash reports whether hash was created with parameters other than opts.
	NeedsRehash(hash string, opts Options) bool
}

// Registry dispatches hashing requests to registered schemes.
type Registry struct {
	byName  map[string]Scheme
	schemes []Scheme
}

// Passwords is the registry with every built-in scheme.
var Passwords = NewRegistry(Bcrypt{}, Argon2id{})

// NewRegistry builds a registry from the given schemes.
func NewRegistry(schemes ...Scheme) *Registry {
	r := &Registry{byName: make(map[string]Scheme, len(schemes))}
	for _, s := range schemes {
		r.byName[s.Name()] = s
		r.schemes = append(r.schemes, s)
	}
	return r
}

// RegisterAlias makes alias resolve to the scheme registered as name.
func (r *Registry) RegisterAlias(alias, name string) {
	if s, ok := r.byName[name]; ok {
		r.byName[alias] = s
	}
}

func init() {
	Passwords.RegisterAlias(algorithmBcryptAlias, AlgorithmBcrypt)
}

// Lookup resolves an algorithm identifier. Empty means DefaultAlgorithm.
func (r *Registry) Lookup(algorithm string) (Scheme, bool) {
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}
	s, ok := r.byName[strings.ToLower(algorithm)]
	return s, ok
}

// Hash hashes password with the given algorithm and options.
// Every failure is returned as *HashingError.
func (r *Registry) Hash(password, algorithm string, opts Options) (string, error) {
	s, ok := r.Lookup(algorithm)
	if !ok {
		return "", &HashingError{Algorithm: algorithm, Err: fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)}
	}
	h, err := s.Hash(password, opts)
	if err != nil {
		return "", &HashingError{Algorithm: s.Name(), Err: err}
	}
	if h == "" {
		return "", &HashingError{Algorithm: s.Name(), Err: errEmptyHash}
	}
	return h, nil
}

// Verify checks password against an encoded hash of any registered scheme.
// A hash no scheme recognizes yields false and ErrMalformedHash.
func (r *Registry) Verify(password, hash string) (bool, error) {
	s := r.schemeFor(hash)
	if s == nil {
		return false, fmt.Errorf("%w: unrecognized format", ErrMalformedHash)
	}
	return s.Verify(password, hash)
}

// NeedsRehash reports whether hash should be replaced by a fresh hash made
// with algorithm and opts.
func (r *Registry) NeedsRehash(hash, algorithm string, opts Options) bool {
	want, ok := r.Lookup(algorithm)
	if !ok {
		return true
	}
	if !want.Recognizes(hash) {
		return true
	}
	return want.NeedsRehash(hash, opts)
}

func (r *Registry) schemeFor(hash string) Scheme {
	for _, s := range r.schemes {
		if s.Recognizes(hash) {
			return s
		}
	}
	return nil
}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

func option(opts Options, key string, def int) int {
	if v, ok := opts[key]; ok {
		return v
	}
	return def
}
