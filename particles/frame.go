package particles

import (
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/swirl/geom"
)

// Frame is a published snapshot of a system. It must not be modified, and
// must be released once the reader is done with it.
type Frame struct {
	Sequence  uint64
	SimTime   float64
	Particles []Particle
	Box       geom.Box
	Sphere    geom.Sphere

	refs atomic.Int32
}

// Len returns the number of particles in the frame.
func (f *Frame) Len() int {
	return len(f.Particles)
}

// Release returns the frame to the system for reuse.
func (f *Frame) Release() {
	f.refs.Add(-1)
}

// frameRing hands out scratch buffers for the simulation goroutine and
// publishes them with a pointer swap. A buffer is only rewritten when it is
// neither published nor held by a reader.
type frameRing struct {
	current atomic.Pointer[Frame]
	buffers []*Frame
	seq     uint64
}

func newFrameRing(n int) *frameRing {
	r := &frameRing{buffers: make([]*Frame, n)}
	for i := range r.buffers {
		r.buffers[i] = &Frame{}
	}
	r.current.Store(r.buffers[0])
	return r
}

// acquire returns the published frame with its reference count raised.
func (r *frameRing) acquire() *Frame {
	for {
		f := r.current.Load()
		f.refs.Add(1)
		if r.current.Load() == f {
			return f
		}
		// Swapped out between load and increment; the writer may already
		// be reusing it.
		f.refs.Add(-1)
	}
}

// scratch returns a buffer safe to overwrite, growing the ring when readers
// hold every spare buffer.
func (r *frameRing) scratch() *Frame {
	cur := r.current.Load()
	for _, f := range r.buffers {
		if f != cur && f.refs.Load() == 0 {
			return f
		}
	}
	f := &Frame{}
	r.buffers = append(r.buffers, f)
	return f
}

// publish fills a scratch buffer from alive and swaps it in.
func (r *frameRing) publish(alive []Particle, simTime float64, box geom.Box) *Frame {
	f := r.scratch()
	r.seq++
	f.Sequence = r.seq
	f.SimTime = simTime
	f.Particles = append(f.Particles[:0], alive...)
	f.Box = box
	f.Sphere = boundingSphere(alive, box)
	r.current.Store(f)
	return f
}

// boundingSphere centres on the box and reaches the far edge of every particle.
func boundingSphere(alive []Particle, box geom.Box) geom.Sphere {
	if !box.Valid {
		return geom.Sphere{}
	}
	c := box.Center()
	radius := 0.0
	for i := range alive {
		p := &alive[i]
		// The cube of half extent s fits in a sphere of radius s*sqrt(3).
		d := r3.Norm(r3.Sub(p.Position, c)) + math.Abs(p.CurrentSize())*sqrt3
		if d > radius {
			radius = d
		}
	}
	return geom.Sphere{Center: c, Radius: radius}
}

const sqrt3 = 1.7320508075688772
