package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/ucbtag/internal/adapters/h5"
	"github.com/okian/ucbtag/internal/adapters/rootio"
	app "github.com/okian/ucbtag/internal/app"
	"github.com/okian/ucbtag/internal/config"
	"github.com/okian/ucbtag/pkg/logger"
	"github.com/okian/ucbtag/pkg/metrics"
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCommand().ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ucbtag <input.root> <output.h5>",
		Short: "Convert detector jets and tracks into a dense tagging dataset",
		Long: `ucbtag reads reconstructed jets, their tracks and the truth partons of
every event from a ROOT file, matches each jet to its nearest parton and
writes one jet record per jet plus a padded block of constituent records to
an HDF5 file.

Settings come from defaults, then the YAML file named by UCBTAG_CONFIG,
then UCBTAG_* environment variables.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// Load configuration (defaults -> optional file -> env)
			cfg, err := config.Load(ctx)
			if err != nil {
				os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
				return err
			}
			if err := run(ctx, cfg, args[0], args[1]); err != nil {
				logger.Get().Error(ctx, "conversion failed", logger.Error(err))
				return err
			}
			return nil
		},
	}
}

// run executes read, convert and write for one input file. Nothing is
// written to output unless every stage succeeds.
func run(ctx context.Context, cfg *config.Config, input, output string) error {
	logger.SetLevel(cfg.Level())
	log := logger.Get()

	overflow, err := cfg.Overflow()
	if err != nil {
		return err
	}
	flavour, err := cfg.Flavour()
	if err != nil {
		return err
	}
	sign, err := cfg.Sign()
	if err != nil {
		return err
	}

	reader := rootio.NewReader(
		rootio.WithBranches(cfg.Branches),
		rootio.WithTrees(cfg.JetTree, cfg.TruthTree),
		rootio.WithLogger(log.Named("rootio")),
	)
	start := time.Now()
	batch, err := reader.ReadBatch(ctx, input)
	if err != nil {
		metrics.RecordStageError(metrics.StageRead)
		return fmt.Errorf("read %s: %w", input, err)
	}
	metrics.ObserveStage(metrics.StageRead, time.Since(start))

	svc := app.New(
		app.WithLogger(log.Named("convert")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithThreshold(cfg.MatchDRThreshold),
		app.WithCapacity(cfg.ConstituentCapacity),
		app.WithBField(cfg.BField),
		app.WithSignConvention(sign),
		app.WithOverflowPolicy(overflow),
		app.WithFlavourPolicy(flavour),
	)
	res, err := svc.Convert(ctx, batch)
	if err != nil {
		return err
	}

	start = time.Now()
	size, err := h5.NewWriter(h5.WithLogger(log.Named("h5"))).Write(ctx, output, h5.Dataset{
		Jets:         res.Jets,
		Constituents: res.Constituents,
		Capacity:     res.Capacity,
		LabelNames:   res.LabelNames,
	})
	if err != nil {
		metrics.RecordStageError(metrics.StageWrite)
		return fmt.Errorf("write %s: %w", output, err)
	}
	metrics.ObserveStage(metrics.StageWrite, time.Since(start))
	metrics.UpdateOutputBytes(size)
	metrics.MarkRunFinished(time.Now())

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			// The dataset is already published; a missing metrics file is not fatal.
			log.Warn(ctx, "failed to write metrics textfile", logger.String("path", cfg.MetricsTextfile), logger.Error(err))
		}
	}

	log.Info(ctx, "dataset written",
		logger.String("run_id", res.RunID),
		logger.String("input", input),
		logger.String("output", output),
		logger.Int("events", res.Events),
		logger.Int("jets", len(res.Jets)))
	return nil
}
