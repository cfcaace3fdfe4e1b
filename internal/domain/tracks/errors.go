package tracks

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrSignConvention = errors.New("unknown impact parameter sign convention")
)
