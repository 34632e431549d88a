package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one telemetry window,
// summed over every particle system in the scene.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// System states at window end
	Systems  int `csv:"systems"`
	Running  int `csv:"running"`
	Draining int `csv:"draining"`
	Finished int `csv:"finished"`

	// Population at window end
	Alive    int     `csv:"alive"`
	Capacity int     `csv:"capacity"`
	Fill     float64 `csv:"fill"`

	// Events during window
	Spawned         uint64 `csv:"spawned"`
	Retired         uint64 `csv:"retired"`
	Dropped         uint64 `csv:"dropped"`
	NonFiniteClamps uint64 `csv:"clamps"`
	VorticesSpawned uint64 `csv:"vortices_spawned"`
	Steps           uint64 `csv:"steps"`
	FinishedEvents  uint64 `csv:"finished_events"`

	// Particle distributions (sampled at window end)
	AgeP10    float64 `csv:"age_p10"`
	AgeP50    float64 `csv:"age_p50"`
	AgeP90    float64 `csv:"age_p90"`
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP90  float64 `csv:"speed_p90"`
	SizeMean  float64 `csv:"size_mean"`

	MaxBoundingRadius float64 `csv:"max_radius"`
}

// Percentile returns the p-th quantile (p in [0,1]) of an ascending
// slice using the empirical CDF. Returns 0 for an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	p = min(max(p, 0), 1)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Distribution summarises a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// ComputeDistribution sorts a copy of values and summarises it. Std is
// zero for fewer than two values.
func ComputeDistribution(values []float64) Distribution {
	n := len(values)
	if n == 0 {
		return Distribution{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var d Distribution
	if n < 2 {
		d.Mean = sorted[0]
	} else {
		d.Mean, d.Std = stat.MeanStdDev(sorted, nil)
	}
	d.P10 = Percentile(sorted, 0.10)
	d.P50 = Percentile(sorted, 0.50)
	d.P90 = Percentile(sorted, 0.90)
	return d
}

// LogValue implements slog.LogValuer.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("systems", s.Systems),
		slog.Int("running", s.Running),
		slog.Int("draining", s.Draining),
		slog.Int("finished", s.Finished),
		slog.Int("alive", s.Alive),
		slog.Int("capacity", s.Capacity),
		slog.Uint64("spawned", s.Spawned),
		slog.Uint64("retired", s.Retired),
		slog.Uint64("dropped", s.Dropped),
		slog.Uint64("clamps", s.NonFiniteClamps),
		slog.Uint64("vortices_spawned", s.VorticesSpawned),
		slog.Float64("age_p50", s.AgeP50),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("size_mean", s.SizeMean),
		slog.Float64("max_radius", s.MaxBoundingRadius),
	)
}

// LogStats logs the window at info level.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
