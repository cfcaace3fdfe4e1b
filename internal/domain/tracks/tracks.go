// Package tracks derives physical and jet-relative quantities for jet
// constituent tracks from their helix parameters.
package tracks

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/ucbtag/internal/domain/event"
	"github.com/okian/ucbtag/internal/domain/kinematics"
	"github.com/okian/ucbtag/internal/domain/ragged"
)

// Calibration constants.
const (
	// PtScale converts B[T]/|omega| into transverse momentum.
	PtScale = 0.0003
	// DefaultBField is the solenoid field strength in tesla.
	DefaultBField = 3.57
)

// SignConvention selects the angle that orients impact-parameter
// significances.
type SignConvention int

const (
	// SignPhiRel signs by d0·sin(phi_rel), the standard heavy-flavour
	// tagging orientation.
	SignPhiRel SignConvention = iota
	// SignEtaRel signs by d0·sin(eta_rel). Kept to reproduce files written
	// by earlier converters.
	SignEtaRel
)

// String returns the configuration name of the convention.
func (c SignConvention) String() string {
	switch c {
	case SignPhiRel:
		return "phi_rel"
	case SignEtaRel:
		return "eta_rel"
	default:
		return fmt.Sprintf("SignConvention(%d)", int(c))
	}
}

// ParseSignConvention maps a configuration name to a SignConvention.
func ParseSignConvention(s string) (SignConvention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "phi_rel":
		return SignPhiRel, nil
	case "eta_rel":
		return SignEtaRel, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrSignConvention, s)
	}
}

// Params configures derivation.
type Params struct {
	BField float64
	Sign   SignConvention
}

// DefaultParams returns the nominal field and the phi_rel convention.
func DefaultParams() Params {
	return Params{BField: DefaultBField, Sign: SignPhiRel}
}

// Raw holds the stored parameters of one track.
type Raw struct {
	Omega     float64
	TanLambda float64
	D0        float64
	D0Sigma   float64
	Z0        float64
	Z0Sigma   float64
	Phi       float64
}

// Axis is the direction and momentum of the parent jet.
type Axis struct {
	Eta float64
	Phi float64
	Pt  float64
}

// Features are the derived quantities of one track. Jet-relative fields
// are zero when the track is not Valid, except PtFrac which is always
// Pt/jet pt.
type Features struct {
	Valid  bool
	Charge int32
	Pt     float64
	Theta  float64
	Eta    float64
	Phi    float64
	D0     float64
	Z0     float64

	PhiRel     float64
	EtaRel     float64
	PtFrac     float64
	DR         float64
	Signed2DIP float64
	Signed3DIP float64
}

// Charge is the sign of the curvature; 0 for zero curvature.
func Charge(omega float64) int32 {
	switch {
	case omega > 0:
		return 1
	case omega < 0:
		return -1
	default:
		return 0
	}
}

// Theta converts the dip-angle tangent into the polar angle.
func Theta(tanLambda float64) float64 {
	return math.Pi/2 - math.Atan(tanLambda)
}

// Pt returns PtScale·bField/|omega|, or 0 for zero curvature.
func Pt(omega, bField float64) float64 {
	if omega == 0 {
		return 0
	}
	return PtScale * bField / math.Abs(omega)
}

// Valid reports whether the track carries a usable curvature.
func Valid(omega float64) bool {
	return omega != 0
}

// sign follows numpy: NaN stays NaN.
func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	case v == 0:
		return 0
	default:
		return math.NaN()
	}
}

// Derive computes every feature of one track relative to its parent jet.
func Derive(r Raw, jet Axis, p Params) Features {
	theta := Theta(r.TanLambda)
	f := Features{
		Valid:  Valid(r.Omega),
		Charge: Charge(r.Omega),
		Pt:     Pt(r.Omega, p.BField),
		Theta:  theta,
		Eta:    kinematics.Eta(theta),
		Phi:    r.Phi,
		D0:     r.D0,
		Z0:     r.Z0,
	}
	f.PtFrac = f.Pt / jet.Pt
	if !f.Valid {
		return f
	}

	f.PhiRel = kinematics.DeltaPhi(r.Phi, jet.Phi)
	f.EtaRel = jet.Eta - f.Eta
	f.DR = math.Hypot(f.PhiRel, f.EtaRel)

	orient := f.PhiRel
	if p.Sign == SignEtaRel {
		orient = f.EtaRel
	}
	s := sign(r.D0 * math.Sin(orient))
	f.Signed2DIP = s * math.Abs(r.D0/r.D0Sigma)
	f.Signed3DIP = s * math.Hypot(r.D0, r.Z0) / math.Hypot(r.D0Sigma, r.Z0Sigma)
	return f
}

// Set is the derived features of a ragged track collection, one row per
// jet.
type Set struct {
	Index    ragged.Index
	Features []Features
}

// Row returns the features of jet i.
func (s Set) Row(i int) []Features {
	lo, hi := s.Index.Span(i)
	return s.Features[lo:hi:hi]
}

// DeriveAll derives every track of t. jets holds one Axis per row of t,
// broadcast down to its tracks.
func DeriveAll(t event.Tracks, jets []Axis, p Params) (Set, error) {
	index := t.Omega.Index()
	if len(jets) != index.Rows() {
		return Set{}, fmt.Errorf("%w: %d jet axes for %d track rows", ragged.ErrShape, len(jets), index.Rows())
	}
	omega, tanl := t.Omega.Data(), t.TanLambda.Data()
	d0, d0s := t.D0.Data(), t.D0Sigma.Data()
	z0, z0s := t.Z0.Data(), t.Z0Sigma.Data()
	phi := t.Phi.Data()

	out := make([]Features, index.Total())
	for j, axis := range jets {
		lo, hi := index.Span(j)
		for k := lo; k < hi; k++ {
			out[k] = Derive(Raw{
				Omega:     omega[k],
				TanLambda: tanl[k],
				D0:        d0[k],
				D0Sigma:   d0s[k],
				Z0:        z0[k],
				Z0Sigma:   z0s[k],
				Phi:       phi[k],
			}, axis, p)
		}
	}
	return Set{Index: index, Features: out}, nil
}
