package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/biosphere/config"
	"github.com/pthm-cable/biosphere/control"
	"github.com/pthm-cable/biosphere/environment"
	"github.com/pthm-cable/biosphere/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	showMetrics := flag.Bool("metrics", false, "Start with the metrics display on")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	resume := flag.String("resume", "", "Resume from a snapshot file")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	speed := flag.Int("speed", 1, "Simulation ticks per step (1-10)")
	interval := flag.Duration("interval", 0, "Delay between steps (0 = as fast as possible)")
	checkInvariants := flag.Bool("check-invariants", false, "Verify state bounds after every tick (panics on violation)")
	noStdin := flag.Bool("no-stdin", false, "Ignore commands on stdin")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))
	runID := uuid.NewString()

	env, err := buildEnvironment(cfg, rng, *resume)
	if err != nil {
		logger.Error("failed to create environment", "error", err)
		os.Exit(1)
	}

	var output *telemetry.OutputManager
	if *outputDir != "" {
		output, err = telemetry.NewOutputManager(filepath.Join(*outputDir, runID))
		if err != nil {
			logger.Error("failed to create output", "error", err)
			os.Exit(1)
		}
		if err := output.WriteConfig(cfg); err != nil {
			logger.Error("failed to write config", "error", err)
		}
	}

	reporter := telemetry.NewReporter(telemetry.ReporterOptions{
		Logger:          logger,
		Output:          output,
		LogStats:        *logStats,
		MetricsEvery:    cfg.Telemetry.WindowTicks / 10,
		BookmarkHistory: cfg.Telemetry.BookmarkHistorySize,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var commands <-chan control.Command
	if !*noStdin {
		commands = readCommands(ctx, os.Stdin, logger)
	}

	loop := control.NewLoop(env, reporter, commands, control.Options{
		MaxTicks:        *maxTicks,
		Interval:        *interval,
		Speed:           *speed,
		FrameBuffer:     cfg.Telemetry.FrameBuffer,
		ShowMetrics:     *showMetrics,
		CheckInvariants: *checkInvariants,
		SnapshotDir:     *snapshotDir,
		RunID:           runID,
		Logger:          logger,
	})

	population := len(env.Population())
	logger.Info("starting_simulation",
		"run_id", runID,
		"seed", rngSeed,
		"tick", env.TickCount(),
		"population", population,
		"max_ticks", *maxTicks,
		"output_dir", output.Dir(),
	)

	runErr := loop.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("simulation stopped", "error", runErr)
	}

	if *snapshotDir != "" {
		path, err := telemetry.SaveSnapshot(env.Snapshot(runID, nil), *snapshotDir)
		if err != nil {
			logger.Error("failed to save snapshot", "error", err)
		} else {
			logger.Info("snapshot_saved", "path", path, "tick", env.TickCount())
		}
	}

	if err := output.Close(); err != nil {
		logger.Error("failed to close output", "error", err)
	}

	logger.Info("simulation_finished",
		"run_id", runID,
		"tick", env.TickCount(),
		"population", len(env.Population()),
		"extinct", env.IsExtinct(),
	)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		os.Exit(1)
	}
}

// buildEnvironment creates a fresh environment or resumes one from a snapshot.
func buildEnvironment(cfg *config.Config, rng *rand.Rand, resume string) (*environment.Environment, error) {
	if resume == "" {
		return environment.New(cfg, rng)
	}
	snap, err := telemetry.LoadSnapshot(resume)
	if err != nil {
		return nil, err
	}
	return environment.Restore(cfg, rng, snap)
}

// readCommands parses one command per line from r until EOF or ctx is done.
// Unknown input is logged and skipped.
func readCommands(ctx context.Context, r io.Reader, logger *slog.Logger) <-chan control.Command {
	out := make(chan control.Command)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			cmd, err := control.ParseCommand(line)
			if err != nil {
				logger.Warn("ignoring input", "error", err)
				continue
			}
			select {
			case out <- cmd:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
