package assemble

import (
	"errors"

	"github.com/okian/ucbtag/internal/domain/ragged"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrCapacityOverflow = errors.New("jet exceeds constituent capacity")
	ErrUnknownFlavour   = errors.New("matched flavour has no label")
	ErrPolicy           = errors.New("unknown policy")
	ErrShape            = ragged.ErrShape
)
