package lock

import "errors"

var (
	// ErrInvalidInput indicates a missing project or holder identifier.
	ErrInvalidInput = errors.New("invalid lock input")
)
