package particles

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/swirl/gradient"
	"github.com/pthm-cable/swirl/vortex"
)

// Particle is one simulated sprite. Published frames hold copies.
type Particle struct {
	Position r3.Vec
	Velocity r3.Vec

	Age         float64 // seconds since spawn
	VisibleTime float64 // lifetime budget in seconds

	Size      float64
	SizeScale float64
	Color     gradient.RGBA

	Orientation     float64
	OrientationRate float64
	Lift            float64

	TilingIndex int
	BornIndex   uint64
	Vortex      vortex.ID // 0 when the particle carries no vortex
}

// CurrentSize is the rendered half extent.
func (p *Particle) CurrentSize() float64 {
	return p.Size * p.SizeScale
}

// LifeFraction is age normalized by the visible-time budget.
func (p *Particle) LifeFraction() float64 {
	if p.VisibleTime <= 0 {
		return 1
	}
	return p.Age / p.VisibleTime
}

func (p *Particle) expired() bool {
	return p.Age > p.VisibleTime
}
