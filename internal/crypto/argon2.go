package crypto

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	// AlgorithmArgon2id identifies the Argon2id scheme.
	AlgorithmArgon2id = "argon2id"

	// OptionMemoryCost is the Argon2 memory size in KiB.
	OptionMemoryCost = "memory_cost"
	// OptionTimeCost is the number of Argon2 iterations.
	OptionTimeCost = "time_cost"
	// OptionThreads is the Argon2 parallelism degree.
	OptionThreads = "threads"
)

// Argon2id defaults (tuned for server-side hashing).
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16
)

// Ceilings for parameters read from stored hashes. A corrupt row must not
// make verification allocate or spin without bound.
const (
	argonMaxMemory  = 1 << 20 // KiB, 1 GiB
	argonMaxTime    = 64
	argonMinKeyLen  = 16
	argonMaxKeyLen  = 64
	argonMinSaltLen = 8
	argonMaxSaltLen = 64
)

var b64 = base64.RawStdEncoding

// Argon2id hashes passwords with Argon2id and encodes them in PHC string
// format: $argon2id$v=19$m=65536,t=3,p=1$<salt>$<key>.
type Argon2id struct{}

type argonParams struct {
	version int
	memory  uint32
	time    uint32
	threads uint8
}

// Name implements Scheme.
func (Argon2id) Name() string { return AlgorithmArgon2id }

// Recognizes implements Scheme.
func (Argon2id) Recognizes(hash string) bool {
	return strings.HasPrefix(hash, "$"+AlgorithmArgon2id+"$")
}

// Hash implements Scheme.
func (Argon2id) Hash(password string, opts Options) (string, error) {
	p, err := argonParamsFrom(opts)
	if err != nil {
		return "", err
	}
	salt, err := RandBytes(argonSaltLen)
	if err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, argonKeyLen)
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		AlgorithmArgon2id, p.version, p.memory, p.time, p.threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify implements Scheme.
func (Argon2id) Verify(password, hash string) (bool, error) {
	p, salt, expected, err := decodeArgon(hash)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(got, expected) == 1, nil
}

// NeedsRehash implements Scheme.
func (Argon2id) NeedsRehash(hash string, opts Options) bool {
	have, _, _, err := decodeArgon(hash)
	if err != nil {
		return true
	}
	want, err := argonParamsFrom(opts)
	if err != nil {
		return true
	}
	return have != want
}

func argonParamsFrom(opts Options) (argonParams, error) {
	m := option(opts, OptionMemoryCost, int(argonMemory))
	t := option(opts, OptionTimeCost, int(argonTime))
	th := option(opts, OptionThreads, int(argonThreads))

	switch {
	case th < 1 || th > 255:
		return argonParams{}, fmt.Errorf("%w: threads %d outside [1, 255]", ErrInvalidOption, th)
	case t < 1:
		return argonParams{}, fmt.Errorf("%w: time_cost %d < 1", ErrInvalidOption, t)
	case t > argonMaxTime:
		return argonParams{}, fmt.Errorf("%w: time_cost %d > %d", ErrInvalidOption, t, argonMaxTime)
	case m < 8*th || m > argonMaxMemory:
		return argonParams{}, fmt.Errorf("%w: memory_cost %d KiB out of range for %d threads", ErrInvalidOption, m, th)
	}
	return argonParams{version: argon2.Version, memory: uint32(m), time: uint32(t), threads: uint8(th)}, nil
}

func decodeArgon(hash string) (argonParams, []byte, []byte, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != AlgorithmArgon2id {
		return argonParams{}, nil, nil, fmt.Errorf("%w: expected 6 argon2id segments", ErrMalformedHash)
	}

	var p argonParams
	if _, err := fmt.Sscanf(parts[2], "v=%d", &p.version); err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("%w: version: %v", ErrMalformedHash, err)
	}
	if p.version != argon2.Version {
		return argonParams{}, nil, nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedHash, p.version)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("%w: params: %v", ErrMalformedHash, err)
	}
	if p.time < 1 || p.threads < 1 {
		return argonParams{}, nil, nil, fmt.Errorf("%w: zero cost parameters", ErrMalformedHash)
	}
	if p.time > argonMaxTime || p.memory > argonMaxMemory {
		return argonParams{}, nil, nil, fmt.Errorf("%w: cost m=%d,t=%d above limit", ErrMalformedHash, p.memory, p.time)
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	if len(salt) < argonMinSaltLen || len(salt) > argonMaxSaltLen {
		return argonParams{}, nil, nil, fmt.Errorf("%w: salt length %d", ErrMalformedHash, len(salt))
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("%w: key: %v", ErrMalformedHash, err)
	}
	if len(key) < argonMinKeyLen || len(key) > argonMaxKeyLen {
		return argonParams{}, nil, nil, fmt.Errorf("%w: key length %d", ErrMalformedHash, len(key))
	}
	return p, salt, key, nil
}
