package rootio

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/okian/ucbtag/internal/domain/event"
	"github.com/okian/ucbtag/internal/domain/ragged"
	"github.com/okian/ucbtag/pkg/logger"
)

// cancelCheckEvery is how many entries are read between context checks.
const cancelCheckEvery = 1024

// Reader loads the jet and truth trees of one file.
type Reader struct {
	branches  event.Branches
	jetTree   string
	truthTree string
	logger    logger.Logger
}

// NewReader creates a reader for the default trees and branches.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		branches:  event.DefaultBranches(),
		jetTree:   DefaultJetTree,
		truthTree: DefaultTruthTree,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("rootio")
	}
	return r
}

// Read loads the configured branches of both trees. Only the named branches
// are decoded; every other branch of the file is left untouched.
func (r *Reader) Read(ctx context.Context, path string) (jets, truths *event.Table, err error) {
	start := time.Now()
	f, err := groot.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open %s: %w", ErrRead, path, err)
	}
	defer f.Close()

	jetNames := append(r.branches.JetColumns(), r.branches.TrackColumns()...)
	if jets, err = readTree(ctx, f, r.jetTree, jetNames); err != nil {
		return nil, nil, err
	}
	if truths, err = readTree(ctx, f, r.truthTree, r.branches.AllTruthColumns()); err != nil {
		return nil, nil, err
	}

	r.logger.Info(ctx, "read input trees",
		logger.String("path", path),
		logger.Int("events", jets.Events()),
		logger.Duration("elapsed", time.Since(start)),
	)
	return jets, truths, nil
}

// ReadBatch reads path and assembles the batch.
func (r *Reader) ReadBatch(ctx context.Context, path string) (*event.Batch, error) {
	jets, truths, err := r.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return event.Build(jets, truths, r.branches)
}

func readTree(ctx context.Context, f *riofs.File, name string, branches []string) (*event.Table, error) {
	obj, err := f.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: tree %s: %w", ErrMissingField, name, err)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s, not a tree", ErrRead, name, obj.Class())
	}

	available := make(map[string]rtree.ReadVar)
	for _, rv := range rtree.NewReadVars(tree) {
		available[rv.Name] = rv
	}

	cols := make([]*column, 0, len(branches))
	rvars := make([]rtree.ReadVar, 0, len(branches))
	for _, b := range branches {
		rv, ok := available[b]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrMissingField, name, b)
		}
		c, err := newColumn(b, rv.Value)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, b, err)
		}
		cols = append(cols, c)
		rvars = append(rvars, rv)
	}

	rd, err := rtree.NewReader(tree, rvars)
	if err != nil {
		return nil, fmt.Errorf("%w: tree %s: %w", ErrRead, name, err)
	}
	defer rd.Close()

	err = rd.Read(func(rc rtree.RCtx) error {
		if rc.Entry%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for _, c := range cols {
			c.take()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: tree %s: %w", ErrRead, name, err)
	}

	tbl := event.NewTable(name, int(tree.Entries()))
	for _, c := range cols {
		if err := c.store(tbl); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// shape is the nesting depth of a branch below the event axis.
type shape int

const (
	scalarShape shape = iota
	jaggedShape
	nestedShape
)

// column accumulates one branch entry by entry into flat float64 storage.
type column struct {
	name   string
	shape  shape
	value  reflect.Value
	outer  []int
	inner  []int
	values []float64
}

func newColumn(name string, ptr any) (*column, error) {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("%w: %T", ErrLeafType, ptr)
	}
	t := v.Type().Elem()
	c := &column{name: name, value: v}
	switch {
	case numeric(t):
		c.shape = scalarShape
	case sequence(t) && numeric(t.Elem()):
		c.shape = jaggedShape
	case sequence(t) && sequence(t.Elem()) && numeric(t.Elem().Elem()):
		c.shape = nestedShape
	default:
		return nil, fmt.Errorf("%w: %s", ErrLeafType, t)
	}
	return c, nil
}

// take appends the current entry.
func (c *column) take() {
	v := c.value.Elem()
	switch c.shape {
	case scalarShape:
		c.values = append(c.values, toFloat(v))
	case jaggedShape:
		c.outer = append(c.outer, v.Len())
		for i := 0; i < v.Len(); i++ {
			c.values = append(c.values, toFloat(v.Index(i)))
		}
	case nestedShape:
		c.outer = append(c.outer, v.Len())
		for i := 0; i < v.Len(); i++ {
			obj := v.Index(i)
			c.inner = append(c.inner, obj.Len())
			for k := 0; k < obj.Len(); k++ {
				c.values = append(c.values, toFloat(obj.Index(k)))
			}
		}
	}
}

func (c *column) store(t *event.Table) error {
	switch c.shape {
	case scalarShape:
		return t.PutScalar(c.name, c.values)
	case jaggedShape:
		arr, err := build(c.outer, c.values)
		if err != nil {
			return err
		}
		return t.PutJagged(c.name, arr)
	default:
		outer, err := ragged.NewIndex(c.outer)
		if err != nil {
			return err
		}
		inner, err := build(c.inner, c.values)
		if err != nil {
			return err
		}
		return t.PutNested(c.name, event.Nested{Outer: outer, Inner: inner})
	}
}

func build(counts []int, data []float64) (ragged.Array[float64], error) {
	index, err := ragged.NewIndex(counts)
	if err != nil {
		return ragged.Array[float64]{}, err
	}
	return ragged.New(index, data)
}

func numeric(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func sequence(t reflect.Type) bool {
	return t.Kind() == reflect.Slice || t.Kind() == reflect.Array
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return v.Float()
	}
}
