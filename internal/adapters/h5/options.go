// Package h5 persists converted jets and constituents as HDF5 compound
// datasets.
package h5

import (
	"github.com/okian/ucbtag/pkg/logger"
)

// Dataset and attribute names.
const (
	JetsDataset         = "jets"
	ConstituentsDataset = "constituents"
	FlavourLabelsAttr   = "flavour_labels"
	SchemaVersionAttr   = "schema_version"
)

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithLogger sets a custom logger for the writer.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}
