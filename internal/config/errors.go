package config

import "errors"

var (
	// ErrInvalidConfig wraps every validation failure of converter settings.
	ErrInvalidConfig = errors.New("invalid converter config")
	// ErrLoadConfig is returned when the config file or environment cannot be read.
	ErrLoadConfig = errors.New("load converter config failed")
	// ErrUnknownPolicy marks an overflow, flavour or sign setting that names no policy.
	ErrUnknownPolicy = errors.New("unknown conversion policy")
)
