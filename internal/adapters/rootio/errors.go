package rootio

import (
	"errors"

	"github.com/okian/ucbtag/internal/domain/event"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrRead         = errors.New("read root file failed")
	ErrWrite        = errors.New("write root file failed")
	ErrLeafType     = errors.New("unsupported leaf type")
	ErrMissingField = event.ErrMissingField
)
