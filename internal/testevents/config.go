package testevents

import (
	"time"

	"github.com/okian/ucbtag/internal/domain/event"
)

// Config holds configuration for the synthetic event tool.
type Config struct {
	Events            int            // Number of events to generate
	MaxJets           int            // Upper bound on jets per event
	MaxTracks         int            // Upper bound on tracks per jet
	Seed              uint64         // Generator seed; equal seeds give equal files
	ZeroOmegaFraction float64        // Share of tracks written with zero curvature
	MatchFraction     float64        // Share of jets aimed at a truth particle
	Branches          event.Branches // Branch names to write
	JetTree           string         // Jet tree name
	TruthTree         string         // Truth tree name
	OutputFile        string         // Output ROOT file
	LogFile           string         // Log file for tool output
	Verbose           bool           // Enable verbose logging
}

// DefaultConfig returns the settings used when no flags are given.
func DefaultConfig() Config {
	return Config{
		Events:            defaultEvents,
		MaxJets:           defaultMaxJets,
		MaxTracks:         defaultMaxTracks,
		Seed:              defaultSeed,
		ZeroOmegaFraction: defaultZeroOmegaFraction,
		MatchFraction:     defaultMatchFraction,
		Branches:          event.DefaultBranches(),
		JetTree:           defaultJetTree,
		TruthTree:         defaultTruthTree,
	}
}

// Stats holds generation statistics.
type Stats struct {
	EventsGenerated int
	JetsGenerated   int
	TracksGenerated int
	ZeroOmegaTracks int
	AimedJets       int
	ColumnsVerified int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
