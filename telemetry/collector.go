package telemetry

// Counters are the cumulative per-system counters a collector diffs
// between windows.
type Counters struct {
	Spawned         uint64
	Retired         uint64
	Dropped         uint64
	NonFiniteClamps uint64
	VorticesSpawned uint64
	Steps           uint64
	Finished        uint64
}

func (c Counters) sub(prev Counters) Counters {
	d := func(cur, old uint64) uint64 {
		// A recreated system restarts its counters.
		if cur < old {
			return cur
		}
		return cur - old
	}
	return Counters{
		Spawned:         d(c.Spawned, prev.Spawned),
		Retired:         d(c.Retired, prev.Retired),
		Dropped:         d(c.Dropped, prev.Dropped),
		NonFiniteClamps: d(c.NonFiniteClamps, prev.NonFiniteClamps),
		VorticesSpawned: d(c.VorticesSpawned, prev.VorticesSpawned),
		Steps:           d(c.Steps, prev.Steps),
		Finished:        d(c.Finished, prev.Finished),
	}
}

// SystemSample is one particle system's state at flush time.
type SystemSample struct {
	Name           string
	Running        bool
	Draining       bool
	Finished       bool
	Alive          int
	Capacity       int
	BoundingRadius float64
	Counters       Counters
}

// ParticleSample carries per-particle values pooled across systems.
type ParticleSample struct {
	Ages   []float64
	Speeds []float64
	Sizes  []float64
}

// Collector turns cumulative counters into per-window stats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int64
	windowStartTick     int64

	last map[string]Counters
}

// NewCollector creates a collector flushing every windowDurationSec of
// simulation time at the given tick length.
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticks := int64(1)
	if dt > 0 {
		ticks = max(int64(windowDurationSec/dt), 1)
	}
	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticks,
		last:                make(map[string]Counters),
	}
}

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}

// Flush builds the stats for the window ending at currentTick and starts
// the next one.
func (c *Collector) Flush(currentTick int64, simTime float64, systems []SystemSample, particles ParticleSample) WindowStats {
	ws := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      simTime,
		Systems:         len(systems),
	}

	seen := make(map[string]bool, len(systems))
	for _, s := range systems {
		seen[s.Name] = true
		switch {
		case s.Finished:
			ws.Finished++
		case s.Draining:
			ws.Draining++
			ws.Running++
		case s.Running:
			ws.Running++
		}
		ws.Alive += s.Alive
		ws.Capacity += s.Capacity
		ws.MaxBoundingRadius = max(ws.MaxBoundingRadius, s.BoundingRadius)

		d := s.Counters.sub(c.last[s.Name])
		c.last[s.Name] = s.Counters
		ws.Spawned += d.Spawned
		ws.Retired += d.Retired
		ws.Dropped += d.Dropped
		ws.NonFiniteClamps += d.NonFiniteClamps
		ws.VorticesSpawned += d.VorticesSpawned
		ws.Steps += d.Steps
		ws.FinishedEvents += d.Finished
	}
	for name := range c.last {
		if !seen[name] {
			delete(c.last, name)
		}
	}
	if ws.Capacity > 0 {
		ws.Fill = float64(ws.Alive) / float64(ws.Capacity)
	}

	age := ComputeDistribution(particles.Ages)
	ws.AgeP10, ws.AgeP50, ws.AgeP90 = age.P10, age.P50, age.P90
	speed := ComputeDistribution(particles.Speeds)
	ws.SpeedMean, ws.SpeedStd, ws.SpeedP90 = speed.Mean, speed.Std, speed.P90
	ws.SizeMean = ComputeDistribution(particles.Sizes).Mean

	c.windowStartTick = currentTick
	return ws
}
