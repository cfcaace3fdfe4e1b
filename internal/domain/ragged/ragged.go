// Package ragged stores variable-length-per-row collections as one flat
// backing slice plus an offset index.
//
// Row i of an Array owns Data()[Offset(i):Offset(i+1)]. Two levels of
// nesting compose: an event -> jet Array and a jet -> track Array whose row
// count equals the first array's element count.
package ragged

import (
	"fmt"
)

// Number is the element constraint for Array.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// Index maps rows onto a contiguous flat range. It is immutable.
type Index struct {
	offsets []int
}

// NewIndex builds an Index from per-row element counts.
func NewIndex(counts []int) (Index, error) {
	offsets := make([]int, len(counts)+1)
	for i, c := range counts {
		if c < 0 {
			return Index{}, fmt.Errorf("%w: negative count %d at row %d", ErrShape, c, i)
		}
		offsets[i+1] = offsets[i] + c
	}
	return Index{offsets: offsets}, nil
}

// UniformIndex builds an Index of rows that all hold n elements.
func UniformIndex(rows, n int) Index {
	offsets := make([]int, rows+1)
	for i := 1; i <= rows; i++ {
		offsets[i] = offsets[i-1] + n
	}
	return Index{offsets: offsets}
}

// Rows returns the number of rows.
func (ix Index) Rows() int {
	if len(ix.offsets) == 0 {
		return 0
	}
	return len(ix.offsets) - 1
}

// Total returns the number of elements across all rows.
func (ix Index) Total() int {
	if len(ix.offsets) == 0 {
		return 0
	}
	return ix.offsets[len(ix.offsets)-1]
}

// Span returns the flat [lo, hi) range owned by row i.
func (ix Index) Span(i int) (int, int) {
	return ix.offsets[i], ix.offsets[i+1]
}

// Offset returns the flat position at which row i starts. Offset(Rows())
// equals Total().
func (ix Index) Offset(i int) int {
	if len(ix.offsets) == 0 {
		return 0
	}
	return ix.offsets[i]
}

// Count returns the number of elements in row i.
func (ix Index) Count(i int) int {
	return ix.offsets[i+1] - ix.offsets[i]
}

// Counts returns per-row element counts.
func (ix Index) Counts() []int {
	out := make([]int, ix.Rows())
	for i := range out {
		out[i] = ix.Count(i)
	}
	return out
}

// Equal reports whether two indexes describe the same shape.
func (ix Index) Equal(o Index) bool {
	if ix.Rows() != o.Rows() {
		return false
	}
	for i := 0; i <= ix.Rows(); i++ {
		if ix.Offset(i) != o.Offset(i) {
			return false
		}
	}
	return true
}

// Slice returns the index of rows [lo, hi), rebased so that the first
// selected row starts at zero.
func (ix Index) Slice(lo, hi int) Index {
	if lo == hi {
		return Index{offsets: []int{0}}
	}
	base := ix.offsets[lo]
	offsets := make([]int, hi-lo+1)
	for i := range offsets {
		offsets[i] = ix.offsets[lo+i] - base
	}
	return Index{offsets: offsets}
}

// RowOf returns, for every flat element, the row that owns it.
func (ix Index) RowOf() []int {
	out := make([]int, ix.Total())
	for r := 0; r < ix.Rows(); r++ {
		lo, hi := ix.Span(r)
		for k := lo; k < hi; k++ {
			out[k] = r
		}
	}
	return out
}

// Array is a ragged collection of numbers.
type Array[T Number] struct {
	index Index
	data  []T
}

// New builds an Array over data with the given shape.
func New[T Number](index Index, data []T) (Array[T], error) {
	if index.Total() != len(data) {
		return Array[T]{}, fmt.Errorf("%w: index covers %d elements, data has %d", ErrShape, index.Total(), len(data))
	}
	return Array[T]{index: index, data: data}, nil
}

// FromRows copies nested rows into a flat Array.
func FromRows[T Number](rows [][]T) Array[T] {
	counts := make([]int, len(rows))
	total := 0
	for i, r := range rows {
		counts[i] = len(r)
		total += len(r)
	}
	index, _ := NewIndex(counts)
	data := make([]T, 0, total)
	for _, r := range rows {
		data = append(data, r...)
	}
	return Array[T]{index: index, data: data}
}

// Index returns the shape of the array.
func (a Array[T]) Index() Index { return a.index }

// Data returns the flat backing storage. Callers must not modify it.
func (a Array[T]) Data() []T { return a.data }

// Rows returns the number of rows.
func (a Array[T]) Rows() int { return a.index.Rows() }

// Len returns the total number of elements.
func (a Array[T]) Len() int { return len(a.data) }

// Row returns the elements of row i.
func (a Array[T]) Row(i int) []T {
	lo, hi := a.index.Span(i)
	return a.data[lo:hi:hi]
}

// Slice returns a view over rows [lo, hi). Data is shared.
func (a Array[T]) Slice(lo, hi int) Array[T] {
	flo, fhi := a.index.Offset(lo), a.index.Offset(hi)
	return Array[T]{index: a.index.Slice(lo, hi), data: a.data[flo:fhi:fhi]}
}

// Map applies f to every element, keeping the shape.
func Map[T, U Number](a Array[T], f func(T) U) Array[U] {
	out := make([]U, len(a.data))
	for i, v := range a.data {
		out[i] = f(v)
	}
	return Array[U]{index: a.index, data: out}
}

// Map2 applies f elementwise over two arrays of identical shape.
func Map2[T, U, V Number](a Array[T], b Array[U], f func(T, U) V) (Array[V], error) {
	if !a.index.Equal(b.index) {
		return Array[V]{}, fmt.Errorf("%w: operands have different shapes", ErrShape)
	}
	out := make([]V, len(a.data))
	for i := range a.data {
		out[i] = f(a.data[i], b.data[i])
	}
	return Array[V]{index: a.index, data: out}, nil
}

// Broadcast repeats each parent value across the elements of the matching
// row of index. len(parent) must equal index.Rows().
func Broadcast[T Number](parent []T, index Index) (Array[T], error) {
	if len(parent) != index.Rows() {
		return Array[T]{}, fmt.Errorf("%w: %d parent values for %d rows", ErrShape, len(parent), index.Rows())
	}
	out := make([]T, index.Total())
	for r, v := range parent {
		lo, hi := index.Span(r)
		for k := lo; k < hi; k++ {
			out[k] = v
		}
	}
	return Array[T]{index: index, data: out}, nil
}

// Stack combines k one-value-per-row columns into an Array whose every row
// holds k elements, in argument order.
func Stack[T Number](cols ...[]T) (Array[T], error) {
	if len(cols) == 0 {
		return Array[T]{index: Index{offsets: []int{0}}}, nil
	}
	rows := len(cols[0])
	for i, c := range cols {
		if len(c) != rows {
			return Array[T]{}, fmt.Errorf("%w: column %d has %d rows, want %d", ErrShape, i, len(c), rows)
		}
	}
	k := len(cols)
	data := make([]T, rows*k)
	for r := 0; r < rows; r++ {
		for j, c := range cols {
			data[r*k+j] = c[r]
		}
	}
	return Array[T]{index: UniformIndex(rows, k), data: data}, nil
}
