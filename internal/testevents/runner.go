package testevents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/ucbtag/internal/adapters/rootio"
	"github.com/okian/ucbtag/pkg/logger"
)

// Run generates the configured events, writes them as a ROOT file and reads
// the file back to check every column survived.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		StartTime: time.Now(),
	}

	filename := outputPath(config.OutputFile)
	logger.Get().Info(ctx, "starting synthetic event generation",
		logger.String("output", filename),
		logger.Int("events", config.Events),
		logger.Any("seed", config.Seed),
		logger.String("logFile", config.LogFile),
		logger.Bool("verbose", config.Verbose))

	// Step 1: Generate tables
	jets, truths, err := Generate(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("event generation failed: %w", err)
	}

	// Step 2: Write the ROOT file
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return stats, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := rootio.WriteFile(ctx, filename, config.Branches, jets, truths); err != nil {
		return stats, fmt.Errorf("writing events failed: %w", err)
	}

	// Step 3: Read back and verify
	reader := rootio.NewReader(
		rootio.WithBranches(config.Branches),
		rootio.WithTrees(jets.Name(), truths.Name()),
	)
	gotJets, gotTruths, err := reader.Read(ctx, filename)
	if err != nil {
		return stats, fmt.Errorf("reading events back failed: %w", err)
	}
	n, err := Verify(config.Branches, jets, gotJets, truths, gotTruths)
	stats.ColumnsVerified = n
	if err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(ctx, stats, config.Verbose)

	logger.Get().Info(ctx, "events saved to file", logger.String("filename", filename))
	return stats, nil
}

// outputPath returns name, or a timestamped default when it is empty.
func outputPath(name string) string {
	if name != "" {
		return name
	}
	return "generated_events_" + time.Now().Format("20060102_150405") + ".root"
}

// displayFinalStats logs the final generation statistics.
func displayFinalStats(ctx context.Context, stats *Stats, verbose bool) {
	var eventsPerSecond, jetsPerEvent, tracksPerJet float64

	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsGenerated) / stats.Duration.Seconds()
	}
	if stats.EventsGenerated > 0 {
		jetsPerEvent = float64(stats.JetsGenerated) / float64(stats.EventsGenerated)
	}
	if stats.JetsGenerated > 0 {
		tracksPerJet = float64(stats.TracksGenerated) / float64(stats.JetsGenerated)
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("jetsGenerated", stats.JetsGenerated),
		logger.Int("tracksGenerated", stats.TracksGenerated),
		logger.Int("columnsVerified", stats.ColumnsVerified),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("eventsPerSecond", eventsPerSecond))

	if verbose {
		logger.Get().Info(ctx, "shape statistics",
			logger.Float64("jetsPerEvent", jetsPerEvent),
			logger.Float64("tracksPerJet", tracksPerJet),
			logger.Int("aimedJets", stats.AimedJets),
			logger.Int("zeroOmegaTracks", stats.ZeroOmegaTracks))
	}
}
