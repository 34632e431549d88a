package gradient

import (
	"math"
	"math/rand"
	"testing"
)

func TestEvaluate(t *testing.T) {
	g := NewScalar()
	g.Insert(0.5, 10)
	g.Insert(0.0, 0)
	g.Insert(1.0, 20)

	tests := []struct {
		name string
		t    float64
		want float64
	}{
		{"before first key", -1, 0},
		{"first key", 0, 0},
		{"between", 0.25, 5},
		{"middle key", 0.5, 10},
		{"upper half", 0.75, 15},
		{"last key", 1, 20},
		{"after last key", 3, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Evaluate(tt.t)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Evaluate(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestEvaluateStaysBracketed(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := NewScalar()
	for i := 0; i < 12; i++ {
		g.Insert(rng.Float64(), rng.Float64()*100-50)
	}
	keys := g.Keys()

	for i := 0; i < 1000; i++ {
		q := rng.Float64()*1.4 - 0.2
		got := g.Evaluate(q)

		lo, hi := keys[0].Value, keys[0].Value
		switch {
		case q < keys[0].Time:
		case q >= keys[len(keys)-1].Time:
			lo, hi = keys[len(keys)-1].Value, keys[len(keys)-1].Value
		default:
			for j := 1; j < len(keys); j++ {
				if keys[j].Time > q {
					lo, hi = keys[j-1].Value, keys[j].Value
					break
				}
			}
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		if got < lo-1e-9 || got > hi+1e-9 {
			t.Fatalf("Evaluate(%v) = %v outside bracketing values [%v, %v]", q, got, lo, hi)
		}
	}
}

func TestDuplicateKeysLaterWins(t *testing.T) {
	g := NewScalar()
	g.Insert(0, 0)
	g.Insert(0.5, 1)
	g.Insert(0.5, 2)
	g.Insert(1, 2)

	if got := g.Evaluate(0.5); got != 2 {
		t.Errorf("Evaluate at duplicate time = %v, want 2", got)
	}
	// Approaching from the left interpolates toward the first key at 0.5.
	if got := g.Evaluate(0.25); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Evaluate(0.25) = %v, want 0.5", got)
	}
	if g.Len() != 4 {
		t.Errorf("Len = %d, want 4", g.Len())
	}
}

func TestSetReplaces(t *testing.T) {
	g := NewScalar()
	g.Set(0, 1)
	g.Set(0, 3)
	g.Set(1, 5)

	if g.Len() != 2 {
		t.Fatalf("Len = %d, want 2", g.Len())
	}
	if got := g.Evaluate(0); got != 3 {
		t.Errorf("Evaluate(0) = %v, want 3", got)
	}
}

func TestEmptyAndClear(t *testing.T) {
	g := NewColor()
	if !g.Empty() {
		t.Fatal("new gradient should be empty")
	}
	if got := g.Evaluate(0.3); got != (RGBA{}) {
		t.Errorf("empty Evaluate = %v, want zero", got)
	}

	g.Set(0, RGBA{1, 1, 1, 1})
	g.Clear()
	if !g.Empty() || g.Len() != 0 {
		t.Error("Clear did not remove keys")
	}

	var nilGrad *Scalar
	if !nilGrad.Empty() {
		t.Error("nil gradient should report empty")
	}
}

func TestRemoveAndClone(t *testing.T) {
	g := NewScalar()
	g.Set(0, 1)
	g.Set(1, 2)

	c := g.Clone()
	g.Remove(0)
	g.Remove(10)

	if g.Len() != 1 || c.Len() != 2 {
		t.Errorf("Len after remove = %d (clone %d), want 1 (clone 2)", g.Len(), c.Len())
	}
	if got := c.Evaluate(0); got != 1 {
		t.Errorf("clone changed: Evaluate(0) = %v", got)
	}
}

func TestRangeAndColor(t *testing.T) {
	r := NewRange()
	r.Set(0, MinMax{Min: 1, Max: 2})
	r.Set(1, MinMax{Min: 3, Max: 6})

	mid := r.Evaluate(0.5)
	if mid != (MinMax{Min: 2, Max: 4}) {
		t.Errorf("range midpoint = %v", mid)
	}
	if got := mid.Sample(0.25); got != 2.5 {
		t.Errorf("Sample(0.25) = %v, want 2.5", got)
	}
	if got := Largest(r); got != 6 {
		t.Errorf("Largest = %v, want 6", got)
	}

	c := NewColor()
	c.Set(0, RGBA{0, 0, 0, 0})
	c.Set(1, RGBA{1, 0.5, 0, 1})
	if got := c.Evaluate(0.5); got != (RGBA{0.5, 0.25, 0, 0.5}) {
		t.Errorf("color midpoint = %v", got)
	}
}

func TestEasing(t *testing.T) {
	g := NewScalar()
	g.Set(0, 0)
	g.Set(1, 1)

	if err := g.SetEasing("bogus"); err == nil {
		t.Error("expected error for unknown easing")
	}
	if g.Easing() != EaseLinear {
		t.Errorf("easing changed after failed SetEasing: %q", g.Easing())
	}

	if err := g.SetEasing(EaseInQuad); err != nil {
		t.Fatal(err)
	}
	if got := g.Evaluate(0.5); math.Abs(got-0.25) > 1e-6 {
		t.Errorf("in_quad at 0.5 = %v, want 0.25", got)
	}

	for _, name := range EasingNames() {
		if err := g.SetEasing(name); err != nil {
			t.Fatalf("SetEasing(%q): %v", name, err)
		}
		for q := 0.0; q <= 1.0; q += 0.05 {
			if v := g.Evaluate(q); v < -1e-6 || v > 1+1e-6 {
				t.Errorf("%s: Evaluate(%v) = %v outside [0, 1]", name, q, v)
			}
		}
	}
}
