package env

import "errors"

// Configuration errors.
var (
	// ErrUnknownKind is returned for a transport kind with no factory.
	ErrUnknownKind = errors.New("unknown socket type")

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)
