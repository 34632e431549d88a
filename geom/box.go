// Package geom holds the bounding volumes and transform helpers shared by the
// simulation core and its consumers.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Box is an axis-aligned bounding box. The zero value is an empty box.
type Box struct {
	Min, Max r3.Vec
	Valid    bool
}

// Sphere is a bounding sphere.
type Sphere struct {
	Center r3.Vec
	Radius float64
}

// ExtendCube grows the box to contain a cube of half extent r centred on p.
func (b *Box) ExtendCube(p r3.Vec, r float64) {
	r = math.Abs(r)
	lo := r3.Vec{X: p.X - r, Y: p.Y - r, Z: p.Z - r}
	hi := r3.Vec{X: p.X + r, Y: p.Y + r, Z: p.Z + r}
	if !b.Valid {
		b.Min, b.Max, b.Valid = lo, hi, true
		return
	}
	b.Min = r3.Vec{X: math.Min(b.Min.X, lo.X), Y: math.Min(b.Min.Y, lo.Y), Z: math.Min(b.Min.Z, lo.Z)}
	b.Max = r3.Vec{X: math.Max(b.Max.X, hi.X), Y: math.Max(b.Max.Y, hi.Y), Z: math.Max(b.Max.Z, hi.Z)}
}

// Merge returns the union of two boxes.
func (b Box) Merge(o Box) Box {
	switch {
	case !o.Valid:
		return b
	case !b.Valid:
		return o
	}
	return Box{
		Min:   r3.Vec{X: math.Min(b.Min.X, o.Min.X), Y: math.Min(b.Min.Y, o.Min.Y), Z: math.Min(b.Min.Z, o.Min.Z)},
		Max:   r3.Vec{X: math.Max(b.Max.X, o.Max.X), Y: math.Max(b.Max.Y, o.Max.Y), Z: math.Max(b.Max.Z, o.Max.Z)},
		Valid: true,
	}
}

// Center returns the box centre, or the origin for an empty box.
func (b Box) Center() r3.Vec {
	if !b.Valid {
		return r3.Vec{}
	}
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Size returns the box extent along each axis.
func (b Box) Size() r3.Vec {
	if !b.Valid {
		return r3.Vec{}
	}
	return r3.Sub(b.Max, b.Min)
}

// Contains reports whether p lies inside the box, boundary included.
func (b Box) Contains(p r3.Vec) bool {
	return b.Valid &&
		p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// ContainsCube reports whether the cube of half extent r around p fits in the box.
func (b Box) ContainsCube(p r3.Vec, r float64) bool {
	return b.Contains(r3.Vec{X: p.X - r, Y: p.Y - r, Z: p.Z - r}) &&
		b.Contains(r3.Vec{X: p.X + r, Y: p.Y + r, Z: p.Z + r})
}

// Contains reports whether p lies inside the sphere.
func (s Sphere) Contains(p r3.Vec) bool {
	return r3.Norm(r3.Sub(p, s.Center)) <= s.Radius
}
