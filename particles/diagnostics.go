package particles

import "log/slog"

// Diagnostics are cumulative counters since the system was created.
type Diagnostics struct {
	Spawned         uint64
	Retired         uint64
	Dropped         uint64 // spawns refused for lack of capacity
	NonFiniteClamps uint64 // velocity components reset to zero
	VorticesSpawned uint64
	Steps           uint64
	Finished        uint64
}

// LogValue implements slog.LogValuer.
func (d Diagnostics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("spawned", d.Spawned),
		slog.Uint64("retired", d.Retired),
		slog.Uint64("dropped", d.Dropped),
		slog.Uint64("non_finite_clamps", d.NonFiniteClamps),
		slog.Uint64("vortices_spawned", d.VorticesSpawned),
		slog.Uint64("steps", d.Steps),
		slog.Uint64("finished", d.Finished),
	)
}
