// Package assemble turns matched jets and ragged per-jet tracks into the
// fixed-layout output records.
//
// Jets become one JetRecord each, flattened event-major. Tracks become a
// dense [jets, capacity] block of ConstituentRecords in row-major order;
// slot k of jet j lives at j*capacity+k and unused slots stay zero.
package assemble

import (
	"fmt"

	"github.com/okian/ucbtag/internal/domain/kinematics"
	"github.com/okian/ucbtag/internal/domain/match"
	"github.com/okian/ucbtag/internal/domain/schema"
	"github.com/okian/ucbtag/internal/domain/tracks"
)

// Audit counts what assembly did to the input. Audits of disjoint event
// ranges add up to the audit of their union.
type Audit struct {
	MatchedJets     int
	UnmatchedJets   int
	UnknownFlavours int
	TruncatedJets   int
	DroppedTracks   int
	KeptTracks      int
}

// Add accumulates o into a.
func (a *Audit) Add(o Audit) {
	a.MatchedJets += o.MatchedJets
	a.UnmatchedJets += o.UnmatchedJets
	a.UnknownFlavours += o.UnknownFlavours
	a.TruncatedJets += o.TruncatedJets
	a.DroppedTracks += o.DroppedTracks
	a.KeptTracks += o.KeptTracks
}

// JetColumns are the flat per-jet inputs of FillJets. Every column has one
// entry per jet.
type JetColumns struct {
	Kinematics kinematics.Momentum
	Energy     []float64
	Mass       []float64
	Match      match.Result
}

func (c JetColumns) len() (int, error) {
	n := c.Kinematics.Pt.Len()
	for _, m := range []int{c.Kinematics.Eta.Len(), c.Kinematics.Phi.Len(), len(c.Energy), len(c.Mass), c.Match.Len()} {
		if m != n {
			return 0, fmt.Errorf("%w: jet columns have %d and %d entries", ErrShape, n, m)
		}
	}
	return n, nil
}

// Label resolves the class label of one jet. Unmatched jets get
// schema.LabelUnmatched. A matched flavour missing from the table is
// reported as unknown and, under Passthrough, labelled with its raw code.
func Label(labels schema.LabelTable, flavour int32, matched bool, policy FlavourPolicy) (label int32, unknown bool, err error) {
	if !matched {
		return schema.LabelUnmatched, false, nil
	}
	if l, ok := labels.Label(flavour); ok {
		return l, false, nil
	}
	if policy == Strict {
		return 0, true, fmt.Errorf("%w: flavour %d", ErrUnknownFlavour, flavour)
	}
	return flavour, true, nil
}

// FillJets writes one record per jet into dst, which must hold exactly one
// slot per jet.
func FillJets(dst []schema.JetRecord, c JetColumns, labels schema.LabelTable, policy FlavourPolicy) (Audit, error) {
	n, err := c.len()
	if err != nil {
		return Audit{}, err
	}
	if len(dst) != n {
		return Audit{}, fmt.Errorf("%w: %d jet slots for %d jets", ErrShape, len(dst), n)
	}

	pt, eta, phi := c.Kinematics.Pt.Data(), c.Kinematics.Eta.Data(), c.Kinematics.Phi.Data()
	var a Audit
	for j := 0; j < n; j++ {
		flavour, matched := c.Match.Flavour[j], c.Match.Matched[j]
		label, unknown, err := Label(labels, flavour, matched, policy)
		if err != nil {
			return a, fmt.Errorf("jet %d: %w", j, err)
		}
		if unknown {
			a.UnknownFlavours++
		}
		if matched {
			a.MatchedJets++
		} else {
			a.UnmatchedJets++
		}
		dst[j] = schema.JetRecord{
			Pt:           float32(pt[j]),
			Eta:          float32(eta[j]),
			Phi:          float32(phi[j]),
			Energy:       float32(c.Energy[j]),
			Mass:         float32(c.Mass[j]),
			Flavour:      flavour,
			FlavourLabel: label,
			DR:           float32(c.Match.DR[j]),
			IsMatched:    matched,
		}
	}
	return a, nil
}

// Jets allocates and fills the jet records.
func Jets(c JetColumns, labels schema.LabelTable, policy FlavourPolicy) ([]schema.JetRecord, Audit, error) {
	dst := make([]schema.JetRecord, c.Match.Len())
	a, err := FillJets(dst, c, labels, policy)
	if err != nil {
		return nil, a, err
	}
	return dst, a, nil
}

// Constituent converts the derived features of one track into its record.
func Constituent(f tracks.Features) schema.ConstituentRecord {
	return schema.ConstituentRecord{
		Valid:      f.Valid,
		Charge:     f.Charge,
		D0:         float32(f.D0),
		Eta:        float32(f.Eta),
		Phi:        float32(f.Phi),
		EtaRel:     float32(f.EtaRel),
		PhiRel:     float32(f.PhiRel),
		PtFrac:     float32(f.PtFrac),
		DR:         float32(f.DR),
		Z0:         float32(f.Z0),
		Signed2DIP: float32(f.Signed2DIP),
		Signed3DIP: float32(f.Signed3DIP),
	}
}

// FillConstituents writes the dense constituent block of set into dst,
// which must hold exactly jets*capacity slots. Slots past a jet's track
// count are reset to the zero record.
func FillConstituents(dst []schema.ConstituentRecord, set tracks.Set, capacity int, policy OverflowPolicy) (Audit, error) {
	if capacity <= 0 {
		return Audit{}, fmt.Errorf("%w: capacity %d", ErrShape, capacity)
	}
	jets := set.Index.Rows()
	if len(dst) != jets*capacity {
		return Audit{}, fmt.Errorf("%w: %d constituent slots for %d jets of capacity %d", ErrShape, len(dst), jets, capacity)
	}

	var a Audit
	for j := 0; j < jets; j++ {
		row := set.Row(j)
		if len(row) > capacity {
			if policy == Reject {
				return a, fmt.Errorf("%w: jet %d has %d tracks, capacity %d", ErrCapacityOverflow, j, len(row), capacity)
			}
			a.TruncatedJets++
			a.DroppedTracks += len(row) - capacity
			row = row[:capacity]
		}
		a.KeptTracks += len(row)

		slots := dst[j*capacity : (j+1)*capacity]
		for k, f := range row {
			slots[k] = Constituent(f)
		}
		clear(slots[len(row):])
	}
	return a, nil
}

// Constituents allocates and fills the dense constituent block.
func Constituents(set tracks.Set, capacity int, policy OverflowPolicy) ([]schema.ConstituentRecord, Audit, error) {
	if capacity <= 0 {
		return nil, Audit{}, fmt.Errorf("%w: capacity %d", ErrShape, capacity)
	}
	dst := make([]schema.ConstituentRecord, set.Index.Rows()*capacity)
	a, err := FillConstituents(dst, set, capacity, policy)
	if err != nil {
		return nil, a, err
	}
	return dst, a, nil
}

// Dense is a row-major [Jets, Capacity] view of constituent records.
type Dense struct {
	Records  []schema.ConstituentRecord
	Capacity int
}

// Jets returns the number of rows.
func (d Dense) Jets() int {
	if d.Capacity == 0 {
		return 0
	}
	return len(d.Records) / d.Capacity
}

// Row returns the capacity slots of jet j.
func (d Dense) Row(j int) []schema.ConstituentRecord {
	return d.Records[j*d.Capacity : (j+1)*d.Capacity : (j+1)*d.Capacity]
}
