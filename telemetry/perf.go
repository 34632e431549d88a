package telemetry

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Phase names for a simulation tick. A tick may run several particle
// steps for several systems; their phase times are summed.
const (
	PhaseScene     = "scene"
	PhaseEmit      = "emit"
	PhaseIntegrate = "integrate"
	PhaseRetire    = "retire"
	PhasePublish   = "publish"
	PhaseStream    = "stream"
	PhaseTelemetry = "telemetry"
)

// phaseOrder is the order phases are reported in.
var phaseOrder = []string{
	PhaseScene, PhaseEmit, PhaseIntegrate, PhaseRetire,
	PhasePublish, PhaseStream, PhaseTelemetry,
}

// Phases returns the phase names in report order.
func Phases() []string {
	return slices.Clone(phaseOrder)
}

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks tick and phase timings over a rolling window.
// A nil collector ignores every call, so it can be handed to particle
// systems unconditionally.
type PerfCollector struct {
	mu sync.Mutex

	samples []PerfSample
	next    int
	filled  int

	open       map[string]time.Duration
	tickStart  time.Time
	phaseStart time.Time
	phase      string

	lastFrame time.Time
	frameDur  time.Duration
}

// NewPerfCollector creates a collector averaging over window ticks.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		samples: make([]PerfSample, window),
		open:    make(map[string]time.Duration),
	}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tickStart = time.Now()
	p.open = make(map[string]time.Duration, len(phaseOrder))
	p.phase = ""
}

// StartPhase closes the running phase and opens the named one.
func (p *PerfCollector) StartPhase(phase string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != "" {
		p.open[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndTick closes the tick and stores its sample.
func (p *PerfCollector) EndTick() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.closePhase(now)
	p.phase = ""

	p.samples[p.next] = PerfSample{TickDuration: now.Sub(p.tickStart), Phases: p.open}
	p.next = (p.next + 1) % len(p.samples)
	if p.filled < len(p.samples) {
		p.filled++
	}
}

// RecordFrame marks a presented frame in graphics mode.
func (p *PerfCollector) RecordFrame() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frameDur = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Average duration and share of the tick per phase.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the current window.
func (p *PerfCollector) Stats() PerfStats {
	out := PerfStats{
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	if p == nil {
		return out
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	out.FrameDuration = p.frameDur
	if p.frameDur > 0 {
		out.FPS = float64(time.Second) / float64(p.frameDur)
	}
	if p.filled == 0 {
		return out
	}

	var total time.Duration
	sums := make(map[string]time.Duration)
	for i := 0; i < p.filled; i++ {
		s := p.samples[i]
		total += s.TickDuration
		if i == 0 || s.TickDuration < out.MinTickDuration {
			out.MinTickDuration = s.TickDuration
		}
		out.MaxTickDuration = max(out.MaxTickDuration, s.TickDuration)
		for name, d := range s.Phases {
			sums[name] += d
		}
	}

	n := time.Duration(p.filled)
	out.AvgTickDuration = total / n
	for name, sum := range sums {
		avg := sum / n
		out.PhaseAvg[name] = avg
		if out.AvgTickDuration > 0 {
			out.PhasePct[name] = float64(avg) / float64(out.AvgTickDuration) * 100
		}
	}
	if out.AvgTickDuration > 0 {
		out.TicksPerSecond = float64(time.Second) / float64(out.AvgTickDuration)
	}
	return out
}

// LogStats logs the statistics at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, name := range phaseOrder {
		if pct := s.PhasePct[name]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(name+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is the flat CSV row for PerfStats.
type PerfStatsCSV struct {
	WindowEnd    int64   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	ScenePct     float64 `csv:"scene_pct"`
	EmitPct      float64 `csv:"emit_pct"`
	IntegratePct float64 `csv:"integrate_pct"`
	RetirePct    float64 `csv:"retire_pct"`
	PublishPct   float64 `csv:"publish_pct"`
	StreamPct    float64 `csv:"stream_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		ScenePct:     s.PhasePct[PhaseScene],
		EmitPct:      s.PhasePct[PhaseEmit],
		IntegratePct: s.PhasePct[PhaseIntegrate],
		RetirePct:    s.PhasePct[PhaseRetire],
		PublishPct:   s.PhasePct[PhasePublish],
		StreamPct:    s.PhasePct[PhaseStream],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
