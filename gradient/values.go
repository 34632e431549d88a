package gradient

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// MinMax is a value range. Particles pick a point inside it with their own
// random factor.
type MinMax struct {
	Min, Max float64
}

// Sample returns the value at fraction f between Min and Max.
func (r MinMax) Sample(f float64) float64 {
	return r.Min + (r.Max-r.Min)*f
}

// RGBA is a linear color with components nominally in [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// Gradient kinds used by the particle system.
type (
	Scalar = Gradient[float64]
	Range  = Gradient[MinMax]
	Color  = Gradient[RGBA]
	Vector = Gradient[r3.Vec]
)

// LerpFloat blends two scalars.
func LerpFloat(a, b, f float64) float64 {
	return a + (b-a)*f
}

// LerpMinMax blends both ends of a range.
func LerpMinMax(a, b MinMax, f float64) MinMax {
	return MinMax{Min: LerpFloat(a.Min, b.Min, f), Max: LerpFloat(a.Max, b.Max, f)}
}

// LerpRGBA blends each channel.
func LerpRGBA(a, b RGBA, f float64) RGBA {
	return RGBA{
		R: LerpFloat(a.R, b.R, f),
		G: LerpFloat(a.G, b.G, f),
		B: LerpFloat(a.B, b.B, f),
		A: LerpFloat(a.A, b.A, f),
	}
}

// LerpVec blends two vectors.
func LerpVec(a, b r3.Vec, f float64) r3.Vec {
	return r3.Add(a, r3.Scale(f, r3.Sub(b, a)))
}

func NewScalar() *Scalar { return New(LerpFloat) }
func NewRange() *Range   { return New(LerpMinMax) }
func NewColor() *Color   { return New(LerpRGBA) }
func NewVector() *Vector { return New(LerpVec) }

// ConstScalar returns a gradient holding v everywhere.
func ConstScalar(v float64) *Scalar {
	g := NewScalar()
	g.Set(0, v)
	return g
}

// ConstRange returns a gradient holding [lo, hi] everywhere.
func ConstRange(lo, hi float64) *Range {
	g := NewRange()
	g.Set(0, MinMax{Min: lo, Max: hi})
	return g
}

// Largest returns the largest Max over all keys, or 0 for an empty range.
// Interpolation never exceeds it, so it bounds every sample.
func Largest(g *Range) float64 {
	if g.Empty() {
		return 0
	}
	m := math.Inf(-1)
	for _, k := range g.keys {
		m = math.Max(m, math.Max(k.Value.Max, k.Value.Min))
	}
	return m
}
