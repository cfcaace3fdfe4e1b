package h5

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrWrite = errors.New("write hdf5 file failed")
	ErrShape = errors.New("dataset shape mismatch")
)
