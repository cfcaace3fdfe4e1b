// Package kinematics holds the elementwise momentum and angle transforms
// shared by jets, truth particles and tracks.
//
// Scalar forms are total over their mathematical domain. Eta is not guarded
// at theta 0 or pi and yields +Inf, -Inf or NaN there. Column forms apply the
// scalar form over the flat storage of ragged arrays and keep their shape.
package kinematics

import (
	"math"

	"github.com/okian/ucbtag/internal/domain/ragged"
)

// Pt returns the transverse momentum sqrt(px² + py²).
func Pt(px, py float64) float64 {
	return math.Sqrt(px*px + py*py)
}

// Phi returns the azimuth atan2(py, px) in (-pi, pi].
func Phi(px, py float64) float64 {
	return math.Atan2(py, px)
}

// Theta returns the polar angle atan2(pt, pz).
func Theta(pt, pz float64) float64 {
	return math.Atan2(pt, pz)
}

// Eta returns the pseudorapidity -ln(tan(theta/2)).
func Eta(theta float64) float64 {
	return -math.Log(math.Tan(theta / 2))
}

// DeltaPhi returns a-b folded back into (-pi, pi] with one ±2pi step. Inputs
// already in (-pi, pi] never need more than one step.
func DeltaPhi(a, b float64) float64 {
	d := a - b
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// DeltaR is the angular distance in (eta, phi).
func DeltaR(eta1, phi1, eta2, phi2 float64) float64 {
	return math.Hypot(eta1-eta2, DeltaPhi(phi1, phi2))
}

// Momentum holds the derived kinematics of a ragged collection. All columns
// share one shape.
type Momentum struct {
	Pt    ragged.Array[float64]
	Phi   ragged.Array[float64]
	Theta ragged.Array[float64]
	Eta   ragged.Array[float64]
}

// FromCartesian derives pt, phi, theta and eta from px, py, pz columns.
func FromCartesian(px, py, pz ragged.Array[float64]) (Momentum, error) {
	pt, err := ragged.Map2(px, py, Pt)
	if err != nil {
		return Momentum{}, err
	}
	phi, err := ragged.Map2(px, py, Phi)
	if err != nil {
		return Momentum{}, err
	}
	theta, err := ragged.Map2(pt, pz, Theta)
	if err != nil {
		return Momentum{}, err
	}
	return Momentum{
		Pt:    pt,
		Phi:   phi,
		Theta: theta,
		Eta:   ragged.Map(theta, Eta),
	}, nil
}
