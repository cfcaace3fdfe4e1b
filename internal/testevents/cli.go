package testevents

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/okian/ucbtag/pkg/logger"
)

// SetupLogging configures logging to both stderr and a file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) (string, error) {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "generate_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.InitWithWriter(io.MultiWriter(os.Stderr, file)); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		logger.SetLevel(slog.LevelDebug)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return logFile, nil
}

// ShowHelp prints usage information for the synthetic event tool.
func ShowHelp() {
	os.Stdout.WriteString(`ucbtag Synthetic Event Tool
===========================

Writes a reproducible ROOT file with the BUVertices and showerData trees the
converter reads, then reads it back to check every branch.

Usage:
  go run ./cmd/test-events [options]

Options:
  -events int
        Number of events to generate (default 10000)
  -max-jets int
        Upper bound on jets per event (default 4)
  -max-tracks int
        Upper bound on tracks per jet (default 40)
  -seed uint
        Generator seed (default 1)
  -zero-omega float
        Share of tracks with zero curvature (default 0.02)
  -match float
        Share of jets aimed at a truth particle (default 0.7)
  -output string
        Output ROOT file (default: generated_events_TIMESTAMP.root)
  -log string
        Log file for tool output (default: generate_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Generate with default settings
  go run ./cmd/test-events

  # A small file with busy jets
  go run ./cmd/test-events -events 200 -max-tracks 300 -output small.root
`)
}
