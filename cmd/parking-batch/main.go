package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ironsheep/truck-parking-mcp/internal/app"
	"github.com/ironsheep/truck-parking-mcp/internal/config"
	"github.com/ironsheep/truck-parking-mcp/internal/logging"
	"github.com/ironsheep/truck-parking-mcp/internal/metrics"
	"github.com/ironsheep/truck-parking-mcp/internal/output"
	"github.com/ironsheep/truck-parking-mcp/internal/pipeline"
	"github.com/ironsheep/truck-parking-mcp/internal/tracing"
)

const serviceName = "parking-batch"

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("%s %s\n", serviceName, Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		}
	}

	fs := config.NewFlagSet(serviceName)
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if fs.NArg() != 1 {
		usage(fs)
		os.Exit(2)
	}

	if err := run(fs, fs.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func usage(fs *pflag.FlagSet) {
	fmt.Fprintln(os.Stderr, "parking-batch - estimate truck parking spaces for a set of facilities")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage: parking-batch [options] facilities.json")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprint(os.Stderr, fs.FlagUsages())
	fmt.Fprintln(os.Stderr, "      --version          print version information")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Every setting can also come from the config file or a PARKING_* variable,")
	fmt.Fprintln(os.Stderr, "e.g. PARKING_BATCH_WORKERS=8 or PARKING_IMAGERY_DELAY=1s.")
}

func run(fs *pflag.FlagSet, facilitiesPath string) error {
	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		return err
	}

	log := logging.New(serviceName, Version, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanupTracing, err := tracing.Init(ctx, log, serviceName, Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer cleanupTracing()

	facilities, err := pipeline.LoadFacilities(facilitiesPath)
	if err != nil {
		return err
	}

	c, cleanup, err := app.Build(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	runID := output.NewRunID()
	log = log.With().Str("run_id", runID).Logger()

	records, runErr := pipeline.NewBatch(c.Analyzer, cfg.Batch.BatchConfig, log).Run(ctx, facilities)
	if runErr != nil {
		// Keep what finished before the interrupt.
		log.Warn().Err(runErr).Int("completed", len(records)).Msg("batch interrupted")
	}

	if err := output.WriteGeoJSON(cfg.Batch.Output, runID, records); err != nil {
		return err
	}
	summary := output.Summarize(runID, records, time.Now())
	if err := output.WriteSummary(cfg.Batch.Summary, summary); err != nil {
		return err
	}
	if cfg.Batch.AnnotateDir != "" {
		if err := os.MkdirAll(cfg.Batch.AnnotateDir, 0o755); err != nil {
			return fmt.Errorf("create annotate dir: %w", err)
		}
		n, err := output.WriteAnnotated(cfg.Batch.AnnotateDir, records)
		if err != nil {
			return err
		}
		log.Info().Int("images", n).Str("dir", cfg.Batch.AnnotateDir).Msg("annotated tiles written")
	}
	if cfg.Batch.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.Batch.MetricsFile); err != nil {
			return err
		}
	}

	log.Info().
		Int("facilities", summary.Facilities).
		Int("spaces", summary.Spaces).
		Int("with_errors", summary.WithErrors).
		Str("geojson", cfg.Batch.Output).
		Str("summary", cfg.Batch.Summary).
		Msg("run complete")
	return runErr
}
