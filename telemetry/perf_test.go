package telemetry

import (
	"log/slog"
	"slices"
	"testing"
	"time"
)

// particleTick mimics a scene tick stepping n systems, each spending d in
// every particle phase.
func particleTick(pc *PerfCollector, n int, d time.Duration) {
	pc.StartTick()
	for range n {
		pc.StartPhase(PhaseScene)
		for _, phase := range []string{PhaseEmit, PhaseIntegrate, PhaseRetire, PhasePublish} {
			pc.StartPhase(phase)
			time.Sleep(d)
		}
	}
	pc.StartPhase(PhaseStream)
	pc.EndTick()
}

func TestPhasesInTickOrder(t *testing.T) {
	got := Phases()
	want := []string{PhaseScene, PhaseEmit, PhaseIntegrate, PhaseRetire, PhasePublish, PhaseStream, PhaseTelemetry}
	if !slices.Equal(got, want) {
		t.Fatalf("Phases() = %v, want %v", got, want)
	}
	got[0] = "changed"
	if Phases()[0] != PhaseScene {
		t.Error("Phases() shares its backing array")
	}
}

func TestParticlePhasesSumAcrossSystems(t *testing.T) {
	const step = 200 * time.Microsecond
	pc := NewPerfCollector(8)
	for range 4 {
		particleTick(pc, 2, step)
	}
	stats := pc.Stats()

	var phaseSum time.Duration
	var pctSum float64
	for _, phase := range []string{PhaseEmit, PhaseIntegrate, PhaseRetire, PhasePublish} {
		avg := stats.PhaseAvg[phase]
		if avg < 2*step {
			t.Errorf("%s avg = %v, want at least %v for two systems", phase, avg, 2*step)
		}
		phaseSum += avg
		pctSum += stats.PhasePct[phase]
	}
	if phaseSum > stats.AvgTickDuration {
		t.Errorf("particle phases %v exceed the tick %v", phaseSum, stats.AvgTickDuration)
	}
	if pctSum > 100.001 {
		t.Errorf("particle phase shares sum to %.2f%%", pctSum)
	}
	if _, ok := stats.PhaseAvg[PhaseTelemetry]; ok {
		t.Error("telemetry phase reported without being opened")
	}
	if !(stats.MinTickDuration <= stats.AvgTickDuration && stats.AvgTickDuration <= stats.MaxTickDuration) {
		t.Errorf("min %v avg %v max %v out of order", stats.MinTickDuration, stats.AvgTickDuration, stats.MaxTickDuration)
	}
	if stats.TicksPerSecond <= 0 {
		t.Errorf("TicksPerSecond = %v", stats.TicksPerSecond)
	}
}

func TestWindowForgetsOldTicks(t *testing.T) {
	const slow = 5 * time.Millisecond
	pc := NewPerfCollector(3)
	for range 3 {
		particleTick(pc, 1, slow/4)
	}
	if got := pc.Stats().MaxTickDuration; got < slow {
		t.Fatalf("max tick = %v with slow ticks in the window, want >= %v", got, slow)
	}
	for range 3 {
		particleTick(pc, 1, 0)
	}
	stats := pc.Stats()
	if stats.MaxTickDuration >= slow {
		t.Errorf("max tick = %v after the window rolled over, want < %v", stats.MaxTickDuration, slow)
	}
	if stats.PhaseAvg[PhaseIntegrate] >= slow/4 {
		t.Errorf("integrate avg = %v still includes evicted ticks", stats.PhaseAvg[PhaseIntegrate])
	}
}

func TestTimeAfterEndTickIsNotCharged(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.StartTick()
	pc.StartPhase(PhaseEmit)
	pc.EndTick()
	time.Sleep(2 * time.Millisecond)

	stats := pc.Stats()
	if stats.PhaseAvg[PhaseEmit] >= time.Millisecond {
		t.Errorf("emit avg = %v includes time after EndTick", stats.PhaseAvg[PhaseEmit])
	}
}

func TestNilCollectorIsInert(t *testing.T) {
	var pc *PerfCollector
	particleTick(pc, 3, 0)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.AvgTickDuration != 0 || stats.FPS != 0 {
		t.Errorf("nil collector stats = %+v", stats)
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("nil collector returned nil maps")
	}
}

func TestFrameRate(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.RecordFrame()
	if fps := pc.Stats().FPS; fps != 0 {
		t.Errorf("FPS = %v after one frame, want 0", fps)
	}
	time.Sleep(20 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 20*time.Millisecond {
		t.Errorf("frame duration = %v, want >= 20ms", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 50 {
		t.Errorf("FPS = %v for a 20ms frame, want (0, 50]", stats.FPS)
	}
}

func TestStatsCSVColumns(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: 1500 * time.Microsecond,
		MaxTickDuration: 4 * time.Millisecond,
		TicksPerSecond:  666,
		PhasePct: map[string]float64{
			PhaseEmit:      10,
			PhaseIntegrate: 60,
			PhaseRetire:    5,
			PhasePublish:   20,
		},
	}
	row := s.ToCSV(300)
	if row.WindowEnd != 300 || row.AvgTickUS != 1500 || row.MaxTickUS != 4000 {
		t.Errorf("row = %+v", row)
	}
	if row.EmitPct != 10 || row.IntegratePct != 60 || row.RetirePct != 5 || row.PublishPct != 20 {
		t.Errorf("particle columns = %v %v %v %v", row.EmitPct, row.IntegratePct, row.RetirePct, row.PublishPct)
	}
	if row.StreamPct != 0 || row.ScenePct != 0 {
		t.Errorf("idle columns = %v %v, want 0", row.StreamPct, row.ScenePct)
	}
}

func TestLogValueSkipsIdlePhases(t *testing.T) {
	s := PerfStats{PhasePct: map[string]float64{PhaseIntegrate: 72.46, PhaseStream: 0.05}}
	keys := map[string]slog.Value{}
	for _, a := range s.LogValue().Group() {
		keys[a.Key] = a.Value
	}
	if v, ok := keys["integrate_pct"]; !ok || v.Float64() != 72.4 {
		t.Errorf("integrate_pct = %v, want 72.4", v)
	}
	if _, ok := keys["stream_pct"]; ok {
		t.Error("stream_pct logged below the threshold")
	}
	if _, ok := keys["fps"]; ok {
		t.Error("fps logged without frames")
	}
}
