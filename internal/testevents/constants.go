package testevents

import "github.com/okian/ucbtag/internal/adapters/rootio"

// Default tool settings.
const (
	defaultEvents            = 10000
	defaultMaxJets           = 4
	defaultMaxTracks         = 40
	defaultSeed              = 1
	defaultZeroOmegaFraction = 0.02
	defaultMatchFraction     = 0.7
	defaultJetTree           = rootio.DefaultJetTree
	defaultTruthTree         = rootio.DefaultTruthTree
)

// Kinematic ranges of the generated objects.
const (
	maxAbsEta     = 2.5
	minTruthPt    = 5.0
	truthPtRange  = 95.0
	minJetPt      = 10.0
	jetPtRange    = 140.0
	maxJetMass    = 25.0
	aimSpread     = 0.15
	trackSpread   = 0.3
	minAbsOmega   = 1e-4
	omegaRange    = 5e-3
	d0Width       = 0.05
	z0Width       = 0.1
	minD0Sigma    = 0.005
	d0SigmaRange  = 0.045
	minZ0Sigma    = 0.01
	z0SigmaRange  = 0.09
	pcgStreamSalt = 0x9e3779b97f4a7c15
)

// pdgChoices are the truth species drawn, quarks and gluons of both signs.
var pdgChoices = []int32{5, -5, 4, -4, 1, -1, 2, -2, 3, -3, 21} //nolint:gochecknoglobals // fixed lookup table

// File permission constants.
const (
	directoryPermission = 0o750
	logFilePermission   = 0o600
)
