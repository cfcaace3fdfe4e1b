// Package event holds the per-event input model: ragged jet, track and truth
// collections assembled from named detector columns.
package event

import (
	"fmt"
	"math"

	"github.com/okian/ucbtag/internal/domain/ragged"
)

// Jets are reconstructed jets, one row per event.
type Jets struct {
	Px     ragged.Array[float64]
	Py     ragged.Array[float64]
	Pz     ragged.Array[float64]
	Energy ragged.Array[float64]
	Mass   ragged.Array[float64]
}

// Tracks are jet constituents, one row per jet across the whole batch
// (event-major, then jet order).
type Tracks struct {
	Omega     ragged.Array[float64]
	TanLambda ragged.Array[float64]
	D0        ragged.Array[float64]
	D0Sigma   ragged.Array[float64]
	Z0        ragged.Array[float64]
	Z0Sigma   ragged.Array[float64]
	Phi       ragged.Array[float64]
}

// Truths are truth partons, one row per event.
type Truths struct {
	PDGID  ragged.Array[int32]
	Energy ragged.Array[float64]
	Px     ragged.Array[float64]
	Py     ragged.Array[float64]
	Pz     ragged.Array[float64]
}

// Batch is a whole file worth of events held in memory.
type Batch struct {
	Jets   Jets
	Tracks Tracks
	Truths Truths
}

// Events returns the number of events.
func (b *Batch) Events() int { return b.Jets.Px.Rows() }

// NumJets returns the number of jets across all events.
func (b *Batch) NumJets() int { return b.Jets.Px.Len() }

// NumTracks returns the number of tracks across all jets.
func (b *Batch) NumTracks() int { return b.Tracks.Omega.Len() }

// Slice returns a view over events [lo, hi). Jets and tracks of those
// events are selected together.
func (b *Batch) Slice(lo, hi int) *Batch {
	jlo, jhi := b.Jets.Px.Index().Offset(lo), b.Jets.Px.Index().Offset(hi)
	return &Batch{
		Jets: Jets{
			Px:     b.Jets.Px.Slice(lo, hi),
			Py:     b.Jets.Py.Slice(lo, hi),
			Pz:     b.Jets.Pz.Slice(lo, hi),
			Energy: b.Jets.Energy.Slice(lo, hi),
			Mass:   b.Jets.Mass.Slice(lo, hi),
		},
		Tracks: Tracks{
			Omega:     b.Tracks.Omega.Slice(jlo, jhi),
			TanLambda: b.Tracks.TanLambda.Slice(jlo, jhi),
			D0:        b.Tracks.D0.Slice(jlo, jhi),
			D0Sigma:   b.Tracks.D0Sigma.Slice(jlo, jhi),
			Z0:        b.Tracks.Z0.Slice(jlo, jhi),
			Z0Sigma:   b.Tracks.Z0Sigma.Slice(jlo, jhi),
			Phi:       b.Tracks.Phi.Slice(jlo, jhi),
		},
		Truths: Truths{
			PDGID:  b.Truths.PDGID.Slice(lo, hi),
			Energy: b.Truths.Energy.Slice(lo, hi),
			Px:     b.Truths.Px.Slice(lo, hi),
			Py:     b.Truths.Py.Slice(lo, hi),
			Pz:     b.Truths.Pz.Slice(lo, hi),
		},
	}
}

// Validate checks that every column agrees on shape: jet columns share one
// index, track columns share one index with a row per jet, and truth columns
// share one index with a row per event.
func (b *Batch) Validate() error {
	jet := b.Jets.Px.Index()
	if err := sameShape(jet, "jet px",
		shaped{"jet py", b.Jets.Py.Index()},
		shaped{"jet pz", b.Jets.Pz.Index()},
		shaped{"jet energy", b.Jets.Energy.Index()},
		shaped{"jet mass", b.Jets.Mass.Index()},
	); err != nil {
		return err
	}

	trk := b.Tracks.Omega.Index()
	if trk.Rows() != jet.Total() {
		return fmt.Errorf("%w: %d track rows for %d jets", ErrShape, trk.Rows(), jet.Total())
	}
	if err := sameShape(trk, "track omega",
		shaped{"track tan lambda", b.Tracks.TanLambda.Index()},
		shaped{"track d0", b.Tracks.D0.Index()},
		shaped{"track d0 sigma", b.Tracks.D0Sigma.Index()},
		shaped{"track z0", b.Tracks.Z0.Index()},
		shaped{"track z0 sigma", b.Tracks.Z0Sigma.Index()},
		shaped{"track phi", b.Tracks.Phi.Index()},
	); err != nil {
		return err
	}

	tru := b.Truths.Px.Index()
	if tru.Rows() != jet.Rows() {
		return fmt.Errorf("%w: %d truth events for %d jet events", ErrShape, tru.Rows(), jet.Rows())
	}
	return sameShape(tru, "truth px",
		shaped{"truth pdgid", b.Truths.PDGID.Index()},
		shaped{"truth energy", b.Truths.Energy.Index()},
		shaped{"truth py", b.Truths.Py.Index()},
		shaped{"truth pz", b.Truths.Pz.Index()},
	)
}

type shaped struct {
	name  string
	index ragged.Index
}

func sameShape(ref ragged.Index, refName string, cols ...shaped) error {
	for _, c := range cols {
		if !c.index.Equal(ref) {
			return fmt.Errorf("%w: %s differs from %s", ErrShape, c.name, refName)
		}
	}
	return nil
}

// Build assembles a Batch from a jet tree table and a truth tree table
// using the given branch names. Any absent branch fails the whole build
// with ErrMissingField.
func Build(jets, truths *Table, br Branches) (*Batch, error) {
	if jets.Events() != truths.Events() {
		return nil, fmt.Errorf("%w: jet tree has %d events, truth tree has %d", ErrShape, jets.Events(), truths.Events())
	}

	var (
		b   Batch
		err error
	)
	jetCols := []struct {
		name string
		dst  *ragged.Array[float64]
	}{
		{br.JetPx, &b.Jets.Px},
		{br.JetPy, &b.Jets.Py},
		{br.JetPz, &b.Jets.Pz},
		{br.JetEnergy, &b.Jets.Energy},
		{br.JetMass, &b.Jets.Mass},
	}
	for _, c := range jetCols {
		if *c.dst, err = jets.Jagged(c.name); err != nil {
			return nil, err
		}
	}

	trackCols := []struct {
		name string
		dst  *ragged.Array[float64]
	}{
		{br.TrackOmega, &b.Tracks.Omega},
		{br.TrackTanLambda, &b.Tracks.TanLambda},
		{br.TrackD0, &b.Tracks.D0},
		{br.TrackD0Sigma, &b.Tracks.D0Sigma},
		{br.TrackZ0, &b.Tracks.Z0},
		{br.TrackZ0Sigma, &b.Tracks.Z0Sigma},
		{br.TrackPhi, &b.Tracks.Phi},
	}
	for _, c := range trackCols {
		n, err := jets.Nested(c.name)
		if err != nil {
			return nil, err
		}
		if !n.Outer.Equal(b.Jets.Px.Index()) {
			return nil, fmt.Errorf("%w: %s jet counts differ from %s", ErrShape, c.name, br.JetPx)
		}
		*c.dst = n.Inner
	}

	pdgid, err := truths.Stack(br.TruthColumns(br.TruthPDGID)...)
	if err != nil {
		return nil, err
	}
	b.Truths.PDGID = ragged.Map(pdgid, func(v float64) int32 { return int32(math.Round(v)) })

	truthCols := []struct {
		suffix string
		dst    *ragged.Array[float64]
	}{
		{br.TruthEnergy, &b.Truths.Energy},
		{br.TruthPx, &b.Truths.Px},
		{br.TruthPy, &b.Truths.Py},
		{br.TruthPz, &b.Truths.Pz},
	}
	for _, c := range truthCols {
		if *c.dst, err = truths.Stack(br.TruthColumns(c.suffix)...); err != nil {
			return nil, err
		}
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}
