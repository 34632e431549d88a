package vortex

import (
	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"
)

// Channel offsets decorrelate the three noise lookups.
var turbulenceOffsets = [3]r3.Vec{
	{},
	{X: 31.416, Y: -47.853, Z: 12.734},
	{X: -19.271, Y: 8.639, Z: 53.117},
}

// Turbulence is a smooth, time varying noise acceleration field.
type Turbulence struct {
	Strength  float64 // acceleration amplitude; 0 disables the field
	Scale     float64 // spatial frequency
	TimeScale float64 // how fast the pattern evolves

	noise opensimplex.Noise
}

// NewTurbulence creates a turbulence field seeded with seed.
func NewTurbulence(seed int64, strength, scale, timeScale float64) *Turbulence {
	return &Turbulence{
		Strength:  strength,
		Scale:     scale,
		TimeScale: timeScale,
		noise:     opensimplex.New(seed),
	}
}

// Enabled reports whether the field contributes anything.
func (t *Turbulence) Enabled() bool {
	return t != nil && t.Strength != 0
}

// Evaluate returns the acceleration at p and simulation time tm.
func (t *Turbulence) Evaluate(p r3.Vec, tm float64) r3.Vec {
	if !t.Enabled() {
		return r3.Vec{}
	}
	q := r3.Scale(t.Scale, p)
	w := tm * t.TimeScale
	var out [3]float64
	for i, off := range turbulenceOffsets {
		s := r3.Add(q, off)
		out[i] = t.noise.Eval4(s.X, s.Y, s.Z, w)
	}
	return r3.Scale(t.Strength, r3.Vec{X: out[0], Y: out[1], Z: out[2]})
}
