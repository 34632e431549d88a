// Package vortex implements the localized swirl field that bends particle
// velocities, plus a noise based turbulence field.
package vortex

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// ID identifies a vortex within its Field.
type ID uint64

// minDistanceFrac clamps the distance used by confinement to a fraction of
// the check range, keeping the 1/d term finite near the core.
const minDistanceFrac = 1e-3

// Vortex is a point swirl around an axis.
type Vortex struct {
	ID         ID
	Position   r3.Vec
	Axis       r3.Vec // unit length
	CheckRange float64
	Torque     float64
	// Strength scales the torque, 0..1. Particle-bound vortices fade with it.
	Strength    float64
	Confinement bool
}

// Acceleration returns the vortex's contribution at p. Outside CheckRange,
// at the centre, and on the axis itself the contribution is zero.
// eps is the field's vorticity confinement strength.
func (v *Vortex) Acceleration(p r3.Vec, eps float64) r3.Vec {
	r := r3.Sub(p, v.Position)
	d := r3.Norm(r)
	if !(d < v.CheckRange) || d == 0 {
		return r3.Vec{}
	}

	c := r3.Cross(v.Axis, r)
	cn := r3.Norm(c)
	if cn == 0 {
		return r3.Vec{}
	}
	tangent := r3.Scale(1/cn, c)

	falloff := (v.CheckRange - d) / v.CheckRange
	mag := v.Torque * v.Strength * falloff

	if v.Confinement && eps != 0 {
		dc := math.Max(d, v.CheckRange*minDistanceFrac)
		curl := math.Abs(v.Torque * (1/dc - 2/v.CheckRange))
		mag += eps * curl * sign(v.Torque) * v.Strength
	}
	return r3.Scale(mag, tangent)
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// Field is a set of vortices. Evaluate may be called from several goroutines
// at once; mutations must happen between evaluations.
type Field struct {
	TorqueMin, TorqueMax float64
	// ConfinementStrength applies to vortices with Confinement set.
	ConfinementStrength float64

	rng      *rand.Rand
	vortices []Vortex
	nextID   ID
}

// NewField creates an empty field whose spawned torques are drawn from seed.
func NewField(seed int64) *Field {
	return &Field{rng: rand.New(rand.NewSource(seed))}
}

// Seed resets the torque sampler.
func (f *Field) Seed(seed int64) {
	f.rng.Seed(seed)
}

// Spawn adds a vortex with full strength and a torque sampled uniformly in
// [TorqueMin, TorqueMax].
func (f *Field) Spawn(pos, axis r3.Vec, checkRange float64, confinement bool) ID {
	torque := f.TorqueMin + (f.TorqueMax-f.TorqueMin)*f.rng.Float64()
	return f.Add(Vortex{
		Position:    pos,
		Axis:        axis,
		CheckRange:  checkRange,
		Torque:      torque,
		Strength:    1,
		Confinement: confinement,
	})
}

// Add inserts v with a fresh ID, normalizing its axis.
func (f *Field) Add(v Vortex) ID {
	f.nextID++
	v.ID = f.nextID
	if n := r3.Norm(v.Axis); n > 0 {
		v.Axis = r3.Scale(1/n, v.Axis)
	}
	f.vortices = append(f.vortices, v)
	return v.ID
}

func (f *Field) index(id ID) int {
	for i := range f.vortices {
		if f.vortices[i].ID == id {
			return i
		}
	}
	return -1
}

// Remove deletes a vortex. It reports whether the ID was present.
func (f *Field) Remove(id ID) bool {
	i := f.index(id)
	if i < 0 {
		return false
	}
	last := len(f.vortices) - 1
	f.vortices[i] = f.vortices[last]
	f.vortices = f.vortices[:last]
	return true
}

// Move repositions a vortex and updates its strength.
func (f *Field) Move(id ID, pos r3.Vec, strength float64) bool {
	i := f.index(id)
	if i < 0 {
		return false
	}
	f.vortices[i].Position = pos
	f.vortices[i].Strength = strength
	return true
}

// Place repositions a vortex and points it along axis, keeping its torque
// and strength.
func (f *Field) Place(id ID, pos, axis r3.Vec) bool {
	i := f.index(id)
	if i < 0 {
		return false
	}
	f.vortices[i].Position = pos
	if n := r3.Norm(axis); n > 0 {
		f.vortices[i].Axis = r3.Scale(1/n, axis)
	}
	return true
}

// Get returns a copy of a vortex.
func (f *Field) Get(id ID) (Vortex, bool) {
	i := f.index(id)
	if i < 0 {
		return Vortex{}, false
	}
	return f.vortices[i], true
}

// Len returns the number of vortices.
func (f *Field) Len() int {
	return len(f.vortices)
}

// Vortices returns a copy of the vortex list.
func (f *Field) Vortices() []Vortex {
	out := make([]Vortex, len(f.vortices))
	copy(out, f.vortices)
	return out
}

// Clear removes every vortex.
func (f *Field) Clear() {
	f.vortices = f.vortices[:0]
}

// Evaluate sums every vortex's acceleration at p.
func (f *Field) Evaluate(p r3.Vec) r3.Vec {
	var acc r3.Vec
	for i := range f.vortices {
		acc = r3.Add(acc, f.vortices[i].Acceleration(p, f.ConfinementStrength))
	}
	return acc
}
