// Package worker runs a task over contiguous partitions of an index range
// on a bounded set of goroutines.
package worker

import (
	"github.com/okian/ucbtag/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithName sets the pool name for identification and logging.
func WithName(name string) Option {
	return func(p *Pool) {
		if name != "" {
			p.name = name
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMinPartition sets the smallest number of items worth a partition of
// its own. Small inputs then run on fewer goroutines.
func WithMinPartition(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.minPartition = n
		}
	}
}
