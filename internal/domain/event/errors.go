package event

import (
	"errors"

	"github.com/okian/ucbtag/internal/domain/ragged"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrMissingField = errors.New("required field missing")
	ErrShape        = ragged.ErrShape
)
