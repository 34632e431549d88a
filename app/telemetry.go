package app

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/swirl/particles"
	"github.com/pthm-cable/swirl/scene"
	"github.com/pthm-cable/swirl/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (a *App) flushTelemetry() {
	if !a.collector.ShouldFlush(a.tick) {
		return
	}

	samples, dist := a.sample()
	stats := a.collector.Flush(a.tick, a.simTime, samples, dist)
	perfStats := a.perf.Stats()

	if a.opts.StatsCallback != nil {
		a.opts.StatsCallback(stats)
	}

	if a.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := a.outputManager.WriteTelemetry(stats); err != nil {
		a.log.Error("failed to write telemetry", "error", err)
	}
	if err := a.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		a.log.Error("failed to write perf", "error", err)
	}

	for _, bm := range a.bookmarks.Check(stats) {
		if a.opts.LogStats {
			bm.LogBookmark()
		}
		if err := a.outputManager.WriteBookmark(bm); err != nil {
			a.log.Error("failed to write bookmark", "error", err)
		}
		if a.cfg.Telemetry.SnapshotOnBookmark || a.opts.SnapshotDir != "" {
			if _, err := a.SaveSnapshot(&bm); err != nil {
				a.log.Error("failed to save snapshot", "error", err)
			}
		}
	}
}

// sample reads every system's counters and published frame.
func (a *App) sample() ([]telemetry.SystemSample, telemetry.ParticleSample) {
	var samples []telemetry.SystemSample
	var dist telemetry.ParticleSample

	a.scene.VisitSystems(func(v scene.SystemView) {
		sys := v.System
		d := sys.Diagnostics()
		f := sys.CurrentFrame()
		defer f.Release()

		samples = append(samples, telemetry.SystemSample{
			Name:           v.Name,
			Running:        sys.IsRunning(),
			Draining:       sys.IsDraining(),
			Finished:       sys.IsFinished(),
			Alive:          f.Len(),
			Capacity:       sys.MaxParticleCount(),
			BoundingRadius: f.Sphere.Radius,
			Counters: telemetry.Counters{
				Spawned:         d.Spawned,
				Retired:         d.Retired,
				Dropped:         d.Dropped,
				NonFiniteClamps: d.NonFiniteClamps,
				VorticesSpawned: d.VorticesSpawned,
				Steps:           d.Steps,
				Finished:        d.Finished,
			},
		})
		for i := range f.Particles {
			p := &f.Particles[i]
			dist.Ages = append(dist.Ages, p.Age)
			dist.Speeds = append(dist.Speeds, r3.Norm(p.Velocity))
			dist.Sizes = append(dist.Sizes, p.CurrentSize())
		}
	})
	return samples, dist
}

// Snapshot captures the published frame of every system.
func (a *App) Snapshot(bm *telemetry.Bookmark) *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:  telemetry.SnapshotVersion,
		Scene:    a.opts.Name,
		Tick:     a.tick,
		Bookmark: bm,
	}
	a.scene.VisitSystems(func(v scene.SystemView) {
		f := v.System.CurrentFrame()
		defer f.Release()
		snap.Systems = append(snap.Systems, systemState(v.Name, v.System.State(), f))
	})
	return snap
}

// SaveSnapshot writes a snapshot to the output directory, or to the
// snapshot directory when no output directory is set.
func (a *App) SaveSnapshot(bm *telemetry.Bookmark) (string, error) {
	snap := a.Snapshot(bm)
	var (
		path string
		err  error
	)
	switch {
	case a.outputManager != nil:
		path, err = a.outputManager.WriteSnapshot(snap)
	case a.opts.SnapshotDir != "":
		path, err = telemetry.SaveSnapshot(snap, a.opts.SnapshotDir)
	default:
		return "", nil
	}
	if err != nil {
		return "", err
	}
	a.log.Info("snapshot saved", "path", path, "tick", a.tick, "particles", snap.ParticleCount())
	return path, nil
}

func systemState(name string, st particles.State, f *particles.Frame) telemetry.SystemState {
	s := telemetry.SystemState{
		Name:      name,
		State:     st.String(),
		Sequence:  f.Sequence,
		SimTime:   f.SimTime,
		Center:    vec(f.Sphere.Center),
		Radius:    f.Sphere.Radius,
		Particles: make([]telemetry.ParticleState, len(f.Particles)),
	}
	if f.Box.Valid {
		s.BoxMin, s.BoxMax = vec(f.Box.Min), vec(f.Box.Max)
	}
	for i := range f.Particles {
		p := &f.Particles[i]
		s.Particles[i] = telemetry.ParticleState{
			Position:    vec(p.Position),
			Velocity:    vec(p.Velocity),
			Age:         p.Age,
			VisibleTime: p.VisibleTime,
			Size:        p.CurrentSize(),
			Color:       [4]float64{p.Color.R, p.Color.G, p.Color.B, p.Color.A},
			Orientation: p.Orientation,
			Tile:        p.TilingIndex,
		}
	}
	return s
}

func vec(v r3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
