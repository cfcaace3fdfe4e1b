package schema

import (
	"fmt"
	"sort"
)

// Label codes of the default table.
const (
	LabelLight     int32 = 0
	LabelCharm     int32 = 1
	LabelBottom    int32 = 2
	LabelUnmatched int32 = -1
)

// LabelTable maps a jet flavour (absolute PDG ID of the matched parton) to
// a small closed set of class labels. It is immutable once built.
type LabelTable struct {
	codes map[int32]int32
	names []string
}

// DefaultLabels returns the light/charm/bottom table: d, u, s -> light,
// c -> charm, b -> bottom.
func DefaultLabels() LabelTable {
	t, _ := NewLabelTable(
		[]string{"light", "charm", "bottom"},
		map[int32]int32{1: LabelLight, 2: LabelLight, 3: LabelLight, 4: LabelCharm, 5: LabelBottom},
	)
	return t
}

// NewLabelTable builds a table from label names (indexed by label code) and
// a flavour -> label map. Both inputs are copied.
func NewLabelTable(names []string, codes map[int32]int32) (LabelTable, error) {
	if len(names) == 0 {
		return LabelTable{}, fmt.Errorf("%w: no label names", ErrLabelTable)
	}
	t := LabelTable{
		codes: make(map[int32]int32, len(codes)),
		names: append([]string(nil), names...),
	}
	for flavour, label := range codes {
		if label < 0 || int(label) >= len(names) {
			return LabelTable{}, fmt.Errorf("%w: flavour %d maps to label %d outside [0, %d)", ErrLabelTable, flavour, label, len(names))
		}
		t.codes[flavour] = label
	}
	return t, nil
}

// Label returns the class label for a flavour and whether the table knows it.
func (t LabelTable) Label(flavour int32) (int32, bool) {
	l, ok := t.codes[flavour]
	return l, ok
}

// Names returns the label names ordered by label code.
func (t LabelTable) Names() []string {
	return append([]string(nil), t.names...)
}

// Flavours returns the known flavour codes in ascending order.
func (t LabelTable) Flavours() []int32 {
	out := make([]int32, 0, len(t.codes))
	for f := range t.codes {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
