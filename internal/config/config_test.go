package config

import (
	"flag"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/lockout-auth/internal/crypto"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlagSet(), nil)
	require.NoError(t, err)

	assert.Equal(t, "bcrypt", cfg.HashAlgorithm)
	assert.Equal(t, 3, cfg.AttemptsBeforeLockout)
	assert.Equal(t, 5*time.Minute, cfg.LockoutClearTime)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.HashOptions)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("LOCKOUT_DSN", "postgres://env")
	t.Setenv("LOCKOUT_HASH_ALGORITHM", "argon2id")
	t.Setenv("LOCKOUT_HASH_OPTIONS", "memory_cost:1024,threads:2")
	t.Setenv("LOCKOUT_ATTEMPTS_BEFORE_LOCKOUT", "5")
	t.Setenv("LOCKOUT_CLEAR_TIME", "10m")

	cfg, err := Load(newFlagSet(), nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env", cfg.DSN)
	assert.Equal(t, "argon2id", cfg.HashAlgorithm)
	assert.Equal(t, map[string]int{"memory_cost": 1024, "threads": 2}, cfg.HashOptions)
	assert.Equal(t, 5, cfg.AttemptsBeforeLockout)
	assert.Equal(t, 10*time.Minute, cfg.LockoutClearTime)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("LOCKOUT_ATTEMPTS_BEFORE_LOCKOUT", "5")
	t.Setenv("LOCKOUT_HASH_OPTIONS", "cost:12")

	fs := newFlagSet()
	cfg, err := Load(fs, []string{"-attempts", "2", "-hash-options", "cost:9", "-clear-time", "600s", "login", "-u", "x"})
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.AttemptsBeforeLockout)
	assert.Equal(t, map[string]int{"cost": 9}, cfg.HashOptions)
	assert.Equal(t, 600*time.Second, cfg.LockoutClearTime)
	assert.Equal(t, []string{"login", "-u", "x"}, fs.Args())
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(newFlagSet(), []string{"-attempts", "0"})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(newFlagSet(), []string{"-clear-time", "10ms"})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(newFlagSet(), []string{"-hash-options", "cost"})
	require.Error(t, err)

	_, err = Load(newFlagSet(), []string{"-hash-options", "cost:high"})
	require.Error(t, err)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("LOCKOUT_ATTEMPTS_BEFORE_LOCKOUT", "many")

	_, err := Load(newFlagSet(), nil)
	require.Error(t, err)
}

func TestConfig_Authenticator(t *testing.T) {
	cfg := Config{
		HashAlgorithm:         "bcrypt",
		HashOptions:           map[string]int{"cost": 11},
		AttemptsBeforeLockout: 4,
		LockoutClearTime:      time.Minute,
	}
	ac := cfg.Authenticator()

	assert.Equal(t, "bcrypt", ac.HashAlgorithm)
	assert.Equal(t, crypto.Options{crypto.OptionCost: 11}, ac.HashOptions)
	assert.Equal(t, 4, ac.AttemptsBeforeLockout)
	assert.Equal(t, time.Minute, ac.LockoutClearTime)
}

func TestHashOptionsFlag_String(t *testing.T) {
	var h hashOptionsFlag
	assert.Equal(t, "", h.String())
	require.NoError(t, h.Set("cost:7"))
	assert.Equal(t, "cost:7", h.String())
}
