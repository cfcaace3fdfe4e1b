// Package config defines converter configuration and its loading from
// defaults, a YAML file and the environment.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/okian/ucbtag/internal/adapters/rootio"
	"github.com/okian/ucbtag/internal/domain/assemble"
	"github.com/okian/ucbtag/internal/domain/event"
	"github.com/okian/ucbtag/internal/domain/match"
	"github.com/okian/ucbtag/internal/domain/tracks"
	"github.com/okian/ucbtag/pkg/logger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// WorkerCount sets the number of partition workers.
	WorkerCount int `koanf:"worker_count"`

	// BField is the solenoid field in tesla used for track pt.
	BField float64 `koanf:"b_field"`

	// MatchDRThreshold is the DeltaR below which a jet is matched.
	MatchDRThreshold float64 `koanf:"match_dr_threshold"`

	// ConstituentCapacity is the number of track slots per jet.
	ConstituentCapacity int `koanf:"constituent_capacity"`

	// OverflowPolicy is "truncate" or "error".
	OverflowPolicy string `koanf:"overflow_policy"`

	// UnknownFlavourPolicy is "passthrough" or "error".
	UnknownFlavourPolicy string `koanf:"unknown_flavour_policy"`

	// IPSignConvention is "phi_rel" or "eta_rel".
	IPSignConvention string `koanf:"ip_sign_convention"`

	// JetTree and TruthTree name the input trees.
	JetTree   string `koanf:"jet_tree"`
	TruthTree string `koanf:"truth_tree"`

	// MetricsTextfile, when set, receives the run metrics after conversion.
	MetricsTextfile string `koanf:"metrics_textfile"`

	// Branches names the input columns.
	Branches event.Branches `koanf:"branches"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		WorkerCount:          runtime.NumCPU(),
		BField:               tracks.DefaultBField,
		MatchDRThreshold:     match.DefaultThreshold,
		ConstituentCapacity:  assemble.DefaultCapacity,
		OverflowPolicy:       assemble.Truncate.String(),
		UnknownFlavourPolicy: assemble.Passthrough.String(),
		IPSignConvention:     tracks.SignPhiRel.String(),
		JetTree:              rootio.DefaultJetTree,
		TruthTree:            rootio.DefaultTruthTree,
		Branches:             event.DefaultBranches(),
	}
}

// Validate reports the first setting the converter cannot run with.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	}
	if !(c.BField > 0) {
		return fmt.Errorf("%w: b_field must be positive, got %v", ErrInvalidConfig, c.BField)
	}
	if !(c.MatchDRThreshold > 0) {
		return fmt.Errorf("%w: match_dr_threshold must be positive, got %v", ErrInvalidConfig, c.MatchDRThreshold)
	}
	if c.ConstituentCapacity <= 0 {
		return fmt.Errorf("%w: constituent_capacity must be positive, got %d", ErrInvalidConfig, c.ConstituentCapacity)
	}
	if _, err := c.Overflow(); err != nil {
		return err
	}
	if _, err := c.Flavour(); err != nil {
		return err
	}
	if _, err := c.Sign(); err != nil {
		return err
	}
	if c.JetTree == "" || c.TruthTree == "" {
		return fmt.Errorf("%w: tree names must not be empty", ErrInvalidConfig)
	}
	if len(c.Branches.TruthPrefixes) == 0 {
		return fmt.Errorf("%w: branches.truth_prefixes must not be empty", ErrInvalidConfig)
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() slog.Level {
	l, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// Overflow returns the parsed overflow policy.
func (c *Config) Overflow() (assemble.OverflowPolicy, error) {
	p, err := assemble.ParseOverflowPolicy(c.OverflowPolicy)
	if err != nil {
		return p, fmt.Errorf("%w: %w: %w", ErrInvalidConfig, ErrUnknownPolicy, err)
	}
	return p, nil
}

// Flavour returns the parsed unknown flavour policy.
func (c *Config) Flavour() (assemble.FlavourPolicy, error) {
	p, err := assemble.ParseFlavourPolicy(c.UnknownFlavourPolicy)
	if err != nil {
		return p, fmt.Errorf("%w: %w: %w", ErrInvalidConfig, ErrUnknownPolicy, err)
	}
	return p, nil
}

// Sign returns the parsed impact-parameter sign convention.
func (c *Config) Sign() (tracks.SignConvention, error) {
	s, err := tracks.ParseSignConvention(c.IPSignConvention)
	if err != nil {
		return s, fmt.Errorf("%w: %w: %w", ErrInvalidConfig, ErrUnknownPolicy, err)
	}
	return s, nil
}
