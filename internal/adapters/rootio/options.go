// Package rootio reads detector trees from ROOT files into event tables and
// writes event tables back as ROOT trees.
package rootio

import (
	"github.com/okian/ucbtag/internal/domain/event"
	"github.com/okian/ucbtag/pkg/logger"
)

// Default tree names.
const (
	DefaultJetTree   = "BUVertices"
	DefaultTruthTree = "showerData"
)

// Option applies a configuration option to the Reader.
type Option func(*Reader)

// WithBranches sets the branch names to read.
func WithBranches(br event.Branches) Option {
	return func(r *Reader) {
		r.branches = br
	}
}

// WithTrees sets the jet and truth tree names.
func WithTrees(jetTree, truthTree string) Option {
	return func(r *Reader) {
		if jetTree != "" {
			r.jetTree = jetTree
		}
		if truthTree != "" {
			r.truthTree = truthTree
		}
	}
}

// WithLogger sets a custom logger for the reader.
func WithLogger(l logger.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}
