package schema

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrLabelTable = errors.New("invalid label table")
)
