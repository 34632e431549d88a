package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/swirl/app"
	"github.com/pthm-cable/swirl/config"
	"github.com/pthm-cable/swirl/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to a scene YAML file (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "Seed for every system, offset by its index (0 = use config)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	duration := flag.Float64("duration", 0, "Headless run length in seconds (0 = use config)")
	timeScale := flag.Float64("time-scale", 0, "Simulation speed in the viewer (0 = use config)")
	streamAddr := flag.String("stream", "", "Serve frames over websocket on this address")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *seed != 0 {
		for i := range cfg.Systems {
			cfg.Systems[i].Seed = *seed + int64(i)
			cfg.Systems[i].UseRandomSeed = false
		}
	}
	if *timeScale > 0 {
		cfg.Simulation.TimeScale = *timeScale
	}

	name := "default"
	if *configPath != "" {
		name = strings.TrimSuffix(filepath.Base(*configPath), filepath.Ext(*configPath))
	}

	opts := app.Options{
		Name:           name,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		SnapshotDir:    *snapshotDir,
		OutputDir:      *outputDir,
		MaxTicks:       *maxTicks,
		Duration:       *duration,
		StreamAddr:     *streamAddr,
		Logger:         logger,
	}

	a, err := app.New(cfg, opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}

	if *headless {
		// Headless mode - pure CPU simulation, no raylib needed
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err = a.RunHeadless(ctx)
		stop()
	} else {
		err = viewer.Run(a, *maxTicks, logger)
	}
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}
