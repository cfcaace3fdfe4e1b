// Package match assigns every reconstructed jet its closest truth particle
// in (eta, phi) within the same event.
//
// Matching is per event and independent across events. Every jet is paired
// with every truth particle of its event, the pair distance is DeltaR, and
// the first truth particle at the minimum distance wins. A jet is matched
// when that minimum is strictly below the threshold.
package match

import (
	"fmt"
	"math"

	"github.com/okian/ucbtag/internal/domain/kinematics"
	"github.com/okian/ucbtag/internal/domain/ragged"
)

// Matching defaults and sentinels.
const (
	DefaultThreshold = 0.4

	// UnmatchedFlavour is the flavour of a jet with no truth particle
	// inside the threshold. No PDG ID magnitude is negative.
	UnmatchedFlavour int32 = -1
	// UnmatchedDR is the reported distance of an unmatched jet. Real
	// distances are bounded by the eta range plus pi.
	UnmatchedDR = 999.0
	// NoCandidate is the nearest index reported for a jet whose event has
	// no truth particles.
	NoCandidate = -1
)

// Direction is a ragged collection of (eta, phi) directions.
type Direction struct {
	Eta ragged.Array[float64]
	Phi ragged.Array[float64]
}

// Truths are the match candidates of a batch, one row per event.
type Truths struct {
	Direction
	Pt    ragged.Array[float64]
	PDGID ragged.Array[int32]
}

// Result holds one entry per jet, flattened event-major.
type Result struct {
	Flavour []int32
	DR      []float64
	Matched []bool
	// Truth is the index of the nearest truth particle within its event,
	// or NoCandidate. It is set even when the jet is not matched.
	Truth []int
	// TruthPt is the pt of the matched truth particle, 0 when unmatched.
	TruthPt []float64
}

// Len returns the number of jets in the result.
func (r Result) Len() int { return len(r.Flavour) }

// Nearest finds for each object of a its closest object of b in the same
// row. It returns the within-row index of the winner and the distance,
// NoCandidate and +Inf when the row of b is empty. NaN distances never win.
func Nearest(a, b Direction) ([]int, []float64, error) {
	if err := a.check(); err != nil {
		return nil, nil, err
	}
	if err := b.check(); err != nil {
		return nil, nil, err
	}
	ai, bi := a.Eta.Index(), b.Eta.Index()
	if ai.Rows() != bi.Rows() {
		return nil, nil, fmt.Errorf("%w: %d rows against %d", ragged.ErrShape, ai.Rows(), bi.Rows())
	}

	aEta, aPhi := a.Eta.Data(), a.Phi.Data()
	bEta, bPhi := b.Eta.Data(), b.Phi.Data()
	best := make([]int, ai.Total())
	bestDR := make([]float64, ai.Total())

	for ev := 0; ev < ai.Rows(); ev++ {
		alo, ahi := ai.Span(ev)
		blo, bhi := bi.Span(ev)
		for i := alo; i < ahi; i++ {
			idx, dist := NoCandidate, math.Inf(1)
			for k := blo; k < bhi; k++ {
				if d := kinematics.DeltaR(aEta[i], aPhi[i], bEta[k], bPhi[k]); d < dist {
					idx, dist = k-blo, d
				}
			}
			best[i], bestDR[i] = idx, dist
		}
	}
	return best, bestDR, nil
}

// Match assigns flavour and match quality to every jet.
func Match(jets Direction, truths Truths, threshold float64) (Result, error) {
	if !truths.Pt.Index().Equal(truths.Eta.Index()) || !truths.PDGID.Index().Equal(truths.Eta.Index()) {
		return Result{}, fmt.Errorf("%w: truth columns differ in shape", ragged.ErrShape)
	}
	best, bestDR, err := Nearest(jets, truths.Direction)
	if err != nil {
		return Result{}, err
	}

	n := len(best)
	r := Result{
		Flavour: make([]int32, n),
		DR:      make([]float64, n),
		Matched: make([]bool, n),
		Truth:   best,
		TruthPt: make([]float64, n),
	}
	ji, ti := jets.Eta.Index(), truths.Eta.Index()
	pdg, pt := truths.PDGID.Data(), truths.Pt.Data()

	for ev := 0; ev < ji.Rows(); ev++ {
		jlo, jhi := ji.Span(ev)
		base := ti.Offset(ev)
		for j := jlo; j < jhi; j++ {
			if best[j] == NoCandidate || !(bestDR[j] < threshold) {
				r.Flavour[j] = UnmatchedFlavour
				r.DR[j] = UnmatchedDR
				continue
			}
			k := base + best[j]
			r.Flavour[j] = abs32(pdg[k])
			r.DR[j] = bestDR[j]
			r.Matched[j] = true
			r.TruthPt[j] = pt[k]
		}
	}
	return r, nil
}

func (d Direction) check() error {
	if !d.Eta.Index().Equal(d.Phi.Index()) {
		return fmt.Errorf("%w: eta and phi differ in shape", ragged.ErrShape)
	}
	return nil
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
