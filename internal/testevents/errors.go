package testevents

import "errors"

var (
	// ErrConfig is returned for generation settings that cannot produce events.
	ErrConfig = errors.New("invalid generator config")
	// ErrMismatch is returned when a file read back differs from what was written.
	ErrMismatch = errors.New("round trip mismatch")
)
