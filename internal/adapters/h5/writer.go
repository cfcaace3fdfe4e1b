package h5

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"time"

	"gonum.org/v1/hdf5"

	"github.com/okian/ucbtag/internal/adapters/atomicfile"
	"github.com/okian/ucbtag/internal/domain/schema"
	"github.com/okian/ucbtag/pkg/logger"
)

// Dataset is everything one output file holds.
type Dataset struct {
	Jets []schema.JetRecord
	// Constituents is row-major [len(Jets), Capacity].
	Constituents []schema.ConstituentRecord
	Capacity     int
	LabelNames   []string
}

// Writer writes Datasets to HDF5 files.
type Writer struct {
	logger logger.Logger
}

// NewWriter creates a writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("h5")
	}
	return w
}

// Write stores d at path and returns the size of the published file. The
// file appears at path only once it is complete.
func (w *Writer) Write(ctx context.Context, path string, d Dataset) (int64, error) {
	if d.Capacity <= 0 || len(d.Constituents) != len(d.Jets)*d.Capacity {
		return 0, fmt.Errorf("%w: %d constituents for %d jets of capacity %d", ErrShape, len(d.Constituents), len(d.Jets), d.Capacity)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	start := time.Now()
	err := atomicfile.Write(path, func(tmp string) error {
		return write(tmp, d)
	})
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	w.logger.Info(ctx, "wrote dataset",
		logger.String("path", path),
		logger.Int("jets", len(d.Jets)),
		logger.Int("capacity", d.Capacity),
		logger.Any("bytes", info.Size()),
		logger.Duration("elapsed", time.Since(start)),
	)
	return info.Size(), nil
}

func write(path string, d Dataset) error {
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrWrite, path, err)
	}

	n, c := uint(len(d.Jets)), uint(d.Capacity)
	jets, err := writeCompound(f, JetsDataset, schema.JetRecord{}, schema.JetFields(), []uint{n}, &d.Jets, len(d.Jets))
	if err != nil {
		_ = f.Close()
		return err
	}
	if err := writeAttributes(jets, d.LabelNames); err != nil {
		_ = jets.Close()
		_ = f.Close()
		return err
	}
	if err := jets.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: close %s: %w", ErrWrite, JetsDataset, err)
	}

	cons, err := writeCompound(f, ConstituentsDataset, schema.ConstituentRecord{}, schema.ConstituentFields(), []uint{n, c}, &d.Constituents, len(d.Constituents))
	if err != nil {
		_ = f.Close()
		return err
	}
	if err := cons.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: close %s: %w", ErrWrite, ConstituentsDataset, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrWrite, path, err)
	}
	return nil
}

// writeCompound creates a dataset of record type rec with the given
// dimensions and writes data, a pointer to a slice of rec. Empty datasets
// are created but not written.
func writeCompound(f *hdf5.File, name string, rec any, fields []schema.Field, dims []uint, data any, rows int) (*hdf5.Dataset, error) {
	dtype, err := compound(rec, fields)
	if err != nil {
		return nil, err
	}
	defer dtype.Close()

	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dataspace %s: %w", ErrWrite, name, err)
	}
	defer space.Close()

	dset, err := f.CreateDataset(name, &dtype.Datatype, space)
	if err != nil {
		return nil, fmt.Errorf("%w: dataset %s: %w", ErrWrite, name, err)
	}
	if rows == 0 {
		return dset, nil
	}
	if err := dset.Write(data); err != nil {
		_ = dset.Close()
		return nil, fmt.Errorf("%w: dataset %s: %w", ErrWrite, name, err)
	}
	return dset, nil
}

// compound builds the HDF5 type of rec from its ordered field list. Member
// offsets come from the Go layout, matched through the hdf5 struct tags.
func compound(rec any, fields []schema.Field) (*hdf5.CompoundType, error) {
	t := reflect.TypeOf(rec)
	offsets := make(map[string]uintptr, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		offsets[sf.Tag.Get("hdf5")] = sf.Offset
	}

	ct, err := hdf5.NewCompoundType(int(t.Size()))
	if err != nil {
		return nil, fmt.Errorf("%w: compound %s: %w", ErrWrite, t.Name(), err)
	}
	for _, fd := range fields {
		off, ok := offsets[fd.Name]
		if !ok {
			_ = ct.Close()
			return nil, fmt.Errorf("%w: %s has no member %q", ErrShape, t.Name(), fd.Name)
		}
		if err := ct.Insert(fd.Name, int(off), native(fd.Kind)); err != nil {
			_ = ct.Close()
			return nil, fmt.Errorf("%w: member %s.%s: %w", ErrWrite, t.Name(), fd.Name, err)
		}
	}
	return ct, nil
}

// native maps a field kind to its member type. Bools are stored as one-byte
// integers holding 0 or 1, the width of a Go bool, whatever hbool_t is in
// the linked library.
func native(k schema.Kind) *hdf5.Datatype {
	switch k {
	case schema.Int32:
		return hdf5.T_NATIVE_INT32
	case schema.Bool:
		return hdf5.T_NATIVE_INT8
	default:
		return hdf5.T_NATIVE_FLOAT
	}
}

// writeAttributes stamps the label names, as a JSON array string, and the
// schema version on the jets dataset.
func writeAttributes(dset *hdf5.Dataset, labels []string) error {
	raw, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("%w: encode labels: %w", ErrWrite, err)
	}
	names := string(raw)
	if err := scalarAttribute(dset, FlavourLabelsAttr, hdf5.T_GO_STRING, &names); err != nil {
		return err
	}
	version := schema.Version
	return scalarAttribute(dset, SchemaVersionAttr, hdf5.T_NATIVE_INT32, &version)
}

func scalarAttribute(dset *hdf5.Dataset, name string, dtype *hdf5.Datatype, v any) error {
	space, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return fmt.Errorf("%w: attribute %s: %w", ErrWrite, name, err)
	}
	defer space.Close()

	attr, err := dset.CreateAttribute(name, dtype, space)
	if err != nil {
		return fmt.Errorf("%w: attribute %s: %w", ErrWrite, name, err)
	}
	defer attr.Close()

	if err := attr.Write(v, dtype); err != nil {
		return fmt.Errorf("%w: attribute %s: %w", ErrWrite, name, err)
	}
	return nil
}
