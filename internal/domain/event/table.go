package event

import (
	"fmt"
	"sort"

	"github.com/okian/ucbtag/internal/domain/ragged"
)

// Nested is a doubly-ragged column: event -> object -> element. Outer
// gives the object count per event; Inner holds one row per object.
type Nested struct {
	Outer ragged.Index
	Inner ragged.Array[float64]
}

// Table is a named set of per-event columns read from one tree. Readers
// fill it; Build consumes it. Every column must cover the same number of
// events.
type Table struct {
	name    string
	events  int
	scalars map[string][]float64
	jagged  map[string]ragged.Array[float64]
	nested  map[string]Nested
}

// NewTable returns an empty table for the named tree with a fixed event
// count.
func NewTable(name string, events int) *Table {
	return &Table{
		name:    name,
		events:  events,
		scalars: make(map[string][]float64),
		jagged:  make(map[string]ragged.Array[float64]),
		nested:  make(map[string]Nested),
	}
}

// Name returns the tree name.
func (t *Table) Name() string { return t.name }

// Events returns the number of events in the table.
func (t *Table) Events() int { return t.events }

// PutScalar stores a one-value-per-event column.
func (t *Table) PutScalar(name string, v []float64) error {
	if len(v) != t.events {
		return fmt.Errorf("%w: %s.%s has %d events, want %d", ErrShape, t.name, name, len(v), t.events)
	}
	t.scalars[name] = v
	return nil
}

// PutJagged stores an event -> object column.
func (t *Table) PutJagged(name string, v ragged.Array[float64]) error {
	if v.Rows() != t.events {
		return fmt.Errorf("%w: %s.%s has %d events, want %d", ErrShape, t.name, name, v.Rows(), t.events)
	}
	t.jagged[name] = v
	return nil
}

// PutNested stores an event -> object -> element column.
func (t *Table) PutNested(name string, v Nested) error {
	if v.Outer.Rows() != t.events {
		return fmt.Errorf("%w: %s.%s has %d events, want %d", ErrShape, t.name, name, v.Outer.Rows(), t.events)
	}
	if v.Outer.Total() != v.Inner.Rows() {
		return fmt.Errorf("%w: %s.%s has %d objects but %d element rows", ErrShape, t.name, name, v.Outer.Total(), v.Inner.Rows())
	}
	t.nested[name] = v
	return nil
}

// Scalar returns a one-value-per-event column.
func (t *Table) Scalar(name string) ([]float64, error) {
	v, ok := t.scalars[name]
	if !ok {
		return nil, t.missing(name)
	}
	return v, nil
}

// Jagged returns an event -> object column.
func (t *Table) Jagged(name string) (ragged.Array[float64], error) {
	v, ok := t.jagged[name]
	if !ok {
		return ragged.Array[float64]{}, t.missing(name)
	}
	return v, nil
}

// Nested returns an event -> object -> element column.
func (t *Table) Nested(name string) (Nested, error) {
	v, ok := t.nested[name]
	if !ok {
		return Nested{}, t.missing(name)
	}
	return v, nil
}

// Stack reads fixed-multiplicity sibling scalar columns (for example the
// d1_ and d2_ daughters of an event) as one collection with len(names)
// objects per event, in argument order.
func (t *Table) Stack(names ...string) (ragged.Array[float64], error) {
	cols := make([][]float64, len(names))
	for i, n := range names {
		v, err := t.Scalar(n)
		if err != nil {
			return ragged.Array[float64]{}, err
		}
		cols[i] = v
	}
	return ragged.Stack(cols...)
}

// Columns lists every stored column name, sorted.
func (t *Table) Columns() []string {
	out := make([]string, 0, len(t.scalars)+len(t.jagged)+len(t.nested))
	for n := range t.scalars {
		out = append(out, n)
	}
	for n := range t.jagged {
		out = append(out, n)
	}
	for n := range t.nested {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (t *Table) missing(name string) error {
	return fmt.Errorf("%w: %s.%s", ErrMissingField, t.name, name)
}
