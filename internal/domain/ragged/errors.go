package ragged

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrShape = errors.New("ragged shape mismatch")
)
