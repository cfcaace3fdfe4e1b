package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/ucbtag/internal/testevents"
)

// Default configuration constants.
const (
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	defaults := testevents.DefaultConfig()
	var (
		events     = flag.Int("events", defaults.Events, "Number of events to generate")
		maxJets    = flag.Int("max-jets", defaults.MaxJets, "Upper bound on jets per event")
		maxTracks  = flag.Int("max-tracks", defaults.MaxTracks, "Upper bound on tracks per jet")
		seed       = flag.Uint64("seed", defaults.Seed, "Generator seed")
		zeroOmega  = flag.Float64("zero-omega", defaults.ZeroOmegaFraction, "Share of tracks with zero curvature")
		match      = flag.Float64("match", defaults.MatchFraction, "Share of jets aimed at a truth particle")
		outputFile = flag.String("output", "", "Output ROOT file (default: generated_events_TIMESTAMP.root)")
		logFile    = flag.String("log", "", "Log file for tool output (default: generate_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testevents.ShowHelp()
		return
	}

	// Setup logging
	logPath, err := testevents.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := defaults
	config.Events = *events
	config.MaxJets = *maxJets
	config.MaxTracks = *maxTracks
	config.Seed = *seed
	config.ZeroOmegaFraction = *zeroOmega
	config.MatchFraction = *match
	config.OutputFile = *outputFile
	config.LogFile = logPath
	config.Verbose = *verbose

	if _, err := testevents.Run(ctx, &config); err != nil {
		os.Stderr.WriteString("Generation failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // cancel already called
	}
}
