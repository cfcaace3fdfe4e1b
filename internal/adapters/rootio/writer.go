package rootio

import (
	"context"
	"fmt"
	"math"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/okian/ucbtag/internal/adapters/atomicfile"
	"github.com/okian/ucbtag/internal/domain/event"
)

// WriteFile stores jets and truths as two trees with the layout the Reader
// expects: jagged jet branches, doubly-jagged track branches and one scalar
// branch per truth daughter. PDG ID branches are written as int32. Trees are
// named after their tables.
func WriteFile(ctx context.Context, path string, br event.Branches, jets, truths *event.Table) error {
	return atomicfile.Write(path, func(tmp string) error {
		f, err := groot.Create(tmp)
		if err != nil {
			return fmt.Errorf("%w: create %s: %w", ErrWrite, path, err)
		}
		if err := writeJetTree(ctx, f, br, jets); err != nil {
			_ = f.Close()
			return err
		}
		if err := writeTruthTree(ctx, f, br, truths); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("%w: close %s: %w", ErrWrite, path, err)
		}
		return nil
	})
}

// filler copies one event of a column into its write variable.
type filler func(ev int)

func writeJetTree(ctx context.Context, f *riofs.File, br event.Branches, t *event.Table) error {
	var (
		wvars   []rtree.WriteVar
		fillers []filler
	)
	for _, name := range br.JetColumns() {
		col, err := t.Jagged(name)
		if err != nil {
			return err
		}
		v := new([]float64)
		wvars = append(wvars, rtree.WriteVar{Name: name, Value: v})
		fillers = append(fillers, func(ev int) { *v = col.Row(ev) })
	}
	for _, name := range br.TrackColumns() {
		col, err := t.Nested(name)
		if err != nil {
			return err
		}
		v := new([][]float64)
		wvars = append(wvars, rtree.WriteVar{Name: name, Value: v})
		fillers = append(fillers, func(ev int) {
			lo, hi := col.Outer.Span(ev)
			rows := make([][]float64, 0, hi-lo)
			for k := lo; k < hi; k++ {
				rows = append(rows, col.Inner.Row(k))
			}
			*v = rows
		})
	}
	return writeTree(ctx, f, t, wvars, fillers)
}

func writeTruthTree(ctx context.Context, f *riofs.File, br event.Branches, t *event.Table) error {
	pdg := make(map[string]bool)
	for _, n := range br.TruthColumns(br.TruthPDGID) {
		pdg[n] = true
	}

	var (
		wvars   []rtree.WriteVar
		fillers []filler
	)
	for _, name := range br.AllTruthColumns() {
		col, err := t.Scalar(name)
		if err != nil {
			return err
		}
		if pdg[name] {
			v := new(int32)
			wvars = append(wvars, rtree.WriteVar{Name: name, Value: v})
			fillers = append(fillers, func(ev int) { *v = int32(math.Round(col[ev])) })
			continue
		}
		v := new(float64)
		wvars = append(wvars, rtree.WriteVar{Name: name, Value: v})
		fillers = append(fillers, func(ev int) { *v = col[ev] })
	}
	return writeTree(ctx, f, t, wvars, fillers)
}

func writeTree(ctx context.Context, f *riofs.File, t *event.Table, wvars []rtree.WriteVar, fillers []filler) error {
	w, err := rtree.NewWriter(f, t.Name(), wvars)
	if err != nil {
		return fmt.Errorf("%w: tree %s: %w", ErrWrite, t.Name(), err)
	}
	for ev := 0; ev < t.Events(); ev++ {
		if ev%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				_ = w.Close()
				return err
			}
		}
		for _, fill := range fillers {
			fill(ev)
		}
		if _, err := w.Write(); err != nil {
			_ = w.Close()
			return fmt.Errorf("%w: tree %s entry %d: %w", ErrWrite, t.Name(), ev, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: tree %s: %w", ErrWrite, t.Name(), err)
	}
	return nil
}
