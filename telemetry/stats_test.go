package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.0},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9},
		{"clamped above", []float64{1, 2, 3}, 1.5, 3},
		{"clamped below", []float64{1, 2, 3}, -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistribution(t *testing.T) {
	// Unsorted input; the caller's slice must not be reordered.
	values := []float64{10, 1, 9, 2, 8, 3, 7, 4, 6, 5}
	d := ComputeDistribution(values)

	if math.Abs(d.Mean-5.5) > 1e-9 {
		t.Errorf("mean = %v, want 5.5", d.Mean)
	}
	if math.Abs(d.Std-math.Sqrt(82.5/9)) > 1e-9 {
		t.Errorf("std = %v, want %v", d.Std, math.Sqrt(82.5/9))
	}
	if d.P10 != 1 || d.P50 != 5 || d.P90 != 9 {
		t.Errorf("percentiles = %v/%v/%v, want 1/5/9", d.P10, d.P50, d.P90)
	}
	if values[0] != 10 {
		t.Error("input slice was modified")
	}
}

func TestComputeDistributionSmall(t *testing.T) {
	if d := ComputeDistribution(nil); d != (Distribution{}) {
		t.Errorf("empty = %+v, want zero", d)
	}
	d := ComputeDistribution([]float64{4})
	if d.Mean != 4 || d.Std != 0 || d.P50 != 4 {
		t.Errorf("single = %+v", d)
	}
}
