// Package app drives a scene: it steps the particle systems at a fixed
// tick, feeds telemetry and the frame stream, and saves snapshots. The
// raylib viewer and the headless runner share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/swirl/config"
	"github.com/pthm-cable/swirl/particles"
	"github.com/pthm-cable/swirl/scene"
	"github.com/pthm-cable/swirl/stream"
	"github.com/pthm-cable/swirl/telemetry"
)

// maxCatchUp bounds the ticks run for one Advance call so a stalled
// window does not trigger a spiral of catch-up work.
const maxCatchUp = 8

// Options holds the runtime settings that come from the command line.
type Options struct {
	Name           string  // scene label written into snapshots
	LogStats       bool    // log window and perf stats
	StatsWindowSec float64 // overrides the config window when > 0
	SnapshotDir    string  // snapshots without an output directory
	OutputDir      string  // CSV logs, config copy and snapshots
	MaxTicks       int64   // stop after N ticks; 0 = unlimited
	Duration       float64 // overrides simulation.duration when > 0
	StreamAddr     string  // overrides stream.addr and enables streaming
	Logger         *slog.Logger

	// StatsCallback is called after each stats window is flushed.
	StatsCallback func(telemetry.WindowStats)
}

// App owns a scene and the services around it.
type App struct {
	cfg  *config.Config
	opts Options
	log  *slog.Logger

	scene *scene.Scene

	collector     *telemetry.Collector
	bookmarks     *telemetry.BookmarkDetector
	outputManager *telemetry.OutputManager
	perf          *telemetry.PerfCollector

	stream      *stream.Server
	streamEvery float64
	streamAcc   float64
	cancel      context.CancelFunc

	finishedSubs []particles.Subscription

	dt        float64
	tick      int64
	simTime   float64
	backlog   float64
	paused    bool
	timeScale float64
	closed    bool
}

// New builds the scene from cfg and starts the optional services.
func New(cfg *config.Config, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	sc := scene.New(scene.Options{Logger: log, Perf: perf})
	if err := sc.Build(cfg); err != nil {
		return nil, fmt.Errorf("building scene: %w", err)
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	dt := cfg.Simulation.DT
	if dt <= 0 {
		dt = 1.0 / particles.DefaultSimulationRate
	}

	a := &App{
		cfg:       cfg,
		opts:      opts,
		log:       log,
		scene:     sc,
		collector: telemetry.NewCollector(statsWindow, dt),
		bookmarks: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize),
		perf:      perf,
		dt:        dt,
		timeScale: cfg.Simulation.TimeScale,
	}
	if a.timeScale <= 0 {
		a.timeScale = 1
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		sc.Close()
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	a.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		log.Error("failed to write config", "error", err)
	}

	sc.VisitSystems(func(v scene.SystemView) {
		name := v.Name
		a.finishedSubs = append(a.finishedSubs, v.System.OnFinished(func(*particles.System) {
			a.log.Info("system finished", "system", name, "tick", a.tick)
		}))
	})

	if err := a.startStream(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) startStream() error {
	sc := a.cfg.Stream
	if a.opts.StreamAddr != "" {
		sc.Enabled = true
		sc.Addr = a.opts.StreamAddr
	}
	if !sc.Enabled {
		return nil
	}
	srv := stream.New(stream.Options{
		Addr:         sc.Addr,
		Compress:     sc.Compress,
		MaxParticles: sc.MaxParticles,
		Logger:       a.log,
	})
	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		cancel()
		return fmt.Errorf("starting stream: %w", err)
	}
	a.stream = srv
	a.cancel = cancel
	a.streamEvery = sc.Interval
	a.log.Info("streaming frames", "addr", srv.Addr(), "interval", sc.Interval, "compress", sc.Compress)
	return nil
}

// Scene returns the driven scene.
func (a *App) Scene() *scene.Scene { return a.scene }

// Config returns the loaded configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Tick returns the number of ticks run.
func (a *App) Tick() int64 { return a.tick }

// SimTime returns the simulated seconds run.
func (a *App) SimTime() float64 { return a.simTime }

// DT returns the fixed tick length.
func (a *App) DT() float64 { return a.dt }

// Perf returns the phase profiler.
func (a *App) Perf() *telemetry.PerfCollector { return a.perf }

// Stream returns the frame server, nil when streaming is off.
func (a *App) Stream() *stream.Server { return a.stream }

// Paused reports whether Advance is ignoring time.
func (a *App) Paused() bool { return a.paused }

// SetPaused pauses or resumes Advance.
func (a *App) SetPaused(p bool) {
	a.paused = p
	if p {
		a.backlog = 0
	}
}

// TimeScale returns the wall-clock multiplier used by Advance.
func (a *App) TimeScale() float64 { return a.timeScale }

// SetTimeScale sets the wall-clock multiplier, clamped to [1/8, 8].
func (a *App) SetTimeScale(s float64) {
	a.timeScale = min(max(s, 0.125), 8)
}

// Step runs one fixed tick: scene update, stream publish and telemetry.
func (a *App) Step() {
	a.perf.StartTick()

	a.scene.Update(a.dt)
	a.tick++
	a.simTime += a.dt

	a.perf.StartPhase(telemetry.PhaseStream)
	a.publish()

	a.perf.StartPhase(telemetry.PhaseTelemetry)
	a.flushTelemetry()

	a.perf.EndTick()
}

// Advance runs as many fixed ticks as wall seconds times the time scale
// cover, carrying the remainder to the next call. It returns the number
// of ticks run.
func (a *App) Advance(wall float64) int {
	if a.paused || wall <= 0 {
		return 0
	}
	a.backlog += wall * a.timeScale
	n := 0
	for a.backlog >= a.dt && n < maxCatchUp {
		a.Step()
		a.backlog -= a.dt
		n++
	}
	if n == maxCatchUp {
		a.backlog = 0
	}
	return n
}

func (a *App) publish() {
	if a.stream == nil {
		return
	}
	a.streamAcc += a.dt
	if a.streamAcc < a.streamEvery {
		return
	}
	a.streamAcc = 0
	if err := a.stream.Publish(a.scene); err != nil {
		a.log.Warn("failed to publish frames", "error", err)
	}
}

// Done reports whether a headless run should stop.
func (a *App) Done() bool {
	if a.opts.MaxTicks > 0 && a.tick >= a.opts.MaxTicks {
		return true
	}
	duration := a.cfg.Simulation.Duration
	if a.opts.Duration > 0 {
		duration = a.opts.Duration
	}
	if duration > 0 {
		return a.simTime >= duration-a.dt/2
	}
	return a.scene.Finished()
}

// RunHeadless steps until Done or ctx is cancelled.
func (a *App) RunHeadless(ctx context.Context) error {
	a.log.Info("starting headless simulation",
		"systems", len(a.scene.SystemNames()),
		"dt", a.dt,
		"max_ticks", a.opts.MaxTicks,
	)
	for !a.Done() {
		if err := ctx.Err(); err != nil {
			a.log.Info("interrupted", "tick", a.tick)
			return nil
		}
		a.Step()
	}
	a.log.Info("simulation complete", "tick", a.tick, "sim_time", a.simTime)
	return nil
}

// Close stops the scene and every service. Later calls do nothing.
func (a *App) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	for _, sub := range a.finishedSubs {
		sub.Unsubscribe()
	}
	var errs []error
	if a.stream != nil {
		errs = append(errs, a.stream.Close())
		a.cancel()
	}
	a.scene.Close()
	errs = append(errs, a.outputManager.Close())
	return errors.Join(errs...)
}
