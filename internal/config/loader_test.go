package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/ucbtag/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New(ctx))
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("UCBTAG_WORKER_COUNT", "16")
			_ = os.Setenv("UCBTAG_CONSTITUENT_CAPACITY", "64")
			_ = os.Setenv("UCBTAG_OVERFLOW_POLICY", "error")
			_ = os.Setenv("UCBTAG_MATCH_DR_THRESHOLD", "0.3")
			_ = os.Setenv("UCBTAG_BRANCHES__JET_PX", "jetPx")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.ConstituentCapacity, convey.ShouldEqual, 64)
				convey.So(cfg.OverflowPolicy, convey.ShouldEqual, "error")
				convey.So(cfg.MatchDRThreshold, convey.ShouldEqual, 0.3)
				convey.So(cfg.Branches.JetPx, convey.ShouldEqual, "jetPx")
				convey.So(cfg.Branches.JetPy, convey.ShouldEqual, "jmoy")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
log_level: debug
worker_count: 24
b_field: 4.0
ip_sign_convention: eta_rel
jet_tree: Jets
branches:
  track_d0_sigma: daughters_trackD0Err
  truth_prefixes: ["q1_", "q2_", "q3_"]
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("UCBTAG_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.BField, convey.ShouldEqual, 4.0)
				convey.So(cfg.IPSignConvention, convey.ShouldEqual, "eta_rel")
				convey.So(cfg.JetTree, convey.ShouldEqual, "Jets")
				convey.So(cfg.TruthTree, convey.ShouldEqual, "showerData")
				convey.So(cfg.Branches.TrackD0Sigma, convey.ShouldEqual, "daughters_trackD0Err")
				convey.So(cfg.Branches.TruthPrefixes, convey.ShouldResemble, []string{"q1_", "q2_", "q3_"})
				convey.So(cfg.Branches.TrackD0, convey.ShouldEqual, "daughters_trackD0")
			})
		})

		convey.Convey("When env and file both set a key", func() {
			tmpFile := createTempConfigFile("worker_count: 24\nconstituent_capacity: 50\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("UCBTAG_CONFIG", tmpFile)
			_ = os.Setenv("UCBTAG_WORKER_COUNT", "32") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env takes precedence", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.ConstituentCapacity, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("UCBTAG_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the config file is not YAML", func() {
			tmpFile := createTempConfigFile("worker_count: [unterminated\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("UCBTAG_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When an env var is not a number", func() {
			_ = os.Setenv("UCBTAG_WORKER_COUNT", "not_a_number")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a value fails validation", func() {
			_ = os.Setenv("UCBTAG_CONSTITUENT_CAPACITY", "0")
			_ = os.Setenv("UCBTAG_UNKNOWN_FLAVOUR_POLICY", "error")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "constituent_capacity")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"UCBTAG_CONFIG",
		"UCBTAG_WORKER_COUNT",
		"UCBTAG_CONSTITUENT_CAPACITY",
		"UCBTAG_OVERFLOW_POLICY",
		"UCBTAG_UNKNOWN_FLAVOUR_POLICY",
		"UCBTAG_MATCH_DR_THRESHOLD",
		"UCBTAG_BRANCHES__JET_PX",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "ucbtag-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
