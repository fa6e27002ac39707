package config

import "errors"

// ErrInvalidConfig is returned when a setting has an unusable value.
var ErrInvalidConfig = errors.New("invalid config")
