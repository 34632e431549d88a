package main

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/swirl/config"
)

func loadDefaults(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestParamVectorDefaultsFromConfig(t *testing.T) {
	cfg := loadDefaults(t)
	pv, err := NewParamVector(cfg, "fountain")
	if err != nil {
		t.Fatal(err)
	}
	def := pv.DefaultVector()
	if def[paramMaxParticles] != 2000 {
		t.Errorf("max_particles default = %v, want 2000", def[paramMaxParticles])
	}
	if math.Abs(def[paramAirDrag]-0.4) > 1e-9 {
		t.Errorf("air_drag default = %v, want 0.4", def[paramAirDrag])
	}
	if def[paramEmissionScale] != 1 || def[paramLifeScale] != 1 {
		t.Errorf("scale defaults = %v, %v", def[paramEmissionScale], def[paramLifeScale])
	}

	if _, err := NewParamVector(cfg, "nope"); err == nil {
		t.Error("unknown system accepted")
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	pv, err := NewParamVector(loadDefaults(t), "fountain")
	if err != nil {
		t.Fatal(err)
	}
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
	for i, n := range pv.Normalize(raw) {
		if n < 0 || n > 1 {
			t.Errorf("%s normalized out of range: %v", pv.Specs[i].Name, n)
		}
	}
}

func TestClamp(t *testing.T) {
	pv, err := NewParamVector(loadDefaults(t), "fountain")
	if err != nil {
		t.Fatal(err)
	}
	got := pv.Clamp([]float64{-1, 100, 10, 1.5})
	want := []float64{0.2, 4, 50, 1.5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s = %v, want %v", pv.Specs[i].Name, got[i], want[i])
		}
	}
}

func TestApplyToConfigScalesCurves(t *testing.T) {
	base := loadDefaults(t)
	pv, err := NewParamVector(base, "fountain")
	if err != nil {
		t.Fatal(err)
	}
	cfg := loadDefaults(t)
	if err := pv.ApplyToConfig(cfg, []float64{2, 0.5, 800, 1.25}); err != nil {
		t.Fatal(err)
	}

	before, _ := base.System("fountain")
	after, _ := cfg.System("fountain")
	if after.MaxParticleCount != 800 {
		t.Errorf("max particles = %d, want 800", after.MaxParticleCount)
	}
	if after.AirDrag != 1.25 {
		t.Errorf("air drag = %v, want 1.25", after.AirDrag)
	}
	for i, k := range after.Gradients.Emission.Keys {
		if want := before.Gradients.Emission.Keys[i].V * 2; math.Abs(k.V-want) > 1e-9 {
			t.Errorf("emission key %d = %v, want %v", i, k.V, want)
		}
	}
	for i, k := range after.Gradients.StartVisibleTime.Keys {
		b := before.Gradients.StartVisibleTime.Keys[i]
		if math.Abs(k.Min-b.Min*0.5) > 1e-9 || math.Abs(k.Max-b.Max*0.5) > 1e-9 {
			t.Errorf("visible time key %d = [%v,%v], want half of [%v,%v]", i, k.Min, k.Max, b.Min, b.Max)
		}
	}

	pc, err := after.ToParticles()
	if err != nil {
		t.Fatalf("ToParticles: %v", err)
	}
	if err := pc.Validate(); err != nil {
		t.Errorf("tuned system invalid: %v", err)
	}
}

func TestComputeFitnessPenalties(t *testing.T) {
	fe := &FitnessEvaluator{targetFill: 0.8, maxRadius: 10}
	clean := fe.computeFitness(runSummary{})
	if clean != 0 {
		t.Errorf("clean run fitness = %v, want 0", clean)
	}
	drops := fe.computeFitness(runSummary{dropRate: 0.1})
	if math.Abs(drops-0.4) > 1e-9 {
		t.Errorf("drop fitness = %v, want 0.4", drops)
	}
	inside := fe.computeFitness(runSummary{radius: 9})
	outside := fe.computeFitness(runSummary{radius: 20})
	if inside != 0 || outside <= 0 {
		t.Errorf("radius penalty inside=%v outside=%v", inside, outside)
	}
}

func TestRecorderKeepsBestAndWritesRows(t *testing.T) {
	pv, err := NewParamVector(loadDefaults(t), "fountain")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "log.csv")
	rec, err := newRecorder(path, pv, &FitnessEvaluator{}, 3)
	if err != nil {
		t.Fatal(err)
	}

	scores := []float64{0.5, 0.2, 0.9}
	i := 0
	fn := rec.wrap(func([]float64) float64 { s := scores[i]; i++; return s })
	mid := pv.Normalize(pv.DefaultVector())
	for range scores {
		fn(mid)
	}
	if err := rec.close(); err != nil {
		t.Fatal(err)
	}

	if rec.evals != 3 || rec.bestFitness != 0.2 {
		t.Errorf("evals=%d best=%v, want 3 and 0.2", rec.evals, rec.bestFitness)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(rows))
	}
	if len(rows[0]) != 6+pv.Dim() || rows[2][1] != "0.200000" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0m00s"},
		{75 * time.Second, "1m15s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h02m03s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
