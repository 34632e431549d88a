// Package particles is the simulation core: it spawns particles on an
// emitter shape, advances them through drag, lift and a vortex field,
// retires them when their visible time runs out and publishes immutable
// frames for renderers on other goroutines.
//
// A System is driven by one goroutine calling CalcNextFrame. The frame,
// count, bounds and state readers may be called from any goroutine.
// Configuration setters must be called from the driving goroutine.
package particles

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/swirl/emitter"
	"github.com/pthm-cable/swirl/geom"
	"github.com/pthm-cable/swirl/vortex"
)

// State is the lifecycle state of a System.
type State int32

const (
	Stopped State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// frameBuffers is the initial ring size: one published, one held by a
// renderer, one being written.
const frameBuffers = 3

// stepEpsilon absorbs rounding when converting accumulated time to steps.
const stepEpsilon = 1e-9

// System is a single particle system instance.
type System struct {
	ctx Context
	log *slog.Logger
	cfg Config

	state     atomic.Int32
	draining  atomic.Bool
	mustReset bool

	pool       *Pool
	field      *vortex.Field
	turbulence *vortex.Turbulence
	shape      *emitter.Shape
	rng        *rand.Rand
	workers    *workerPool

	simTime   float64 // seconds into the current period
	totalTime float64 // seconds since Start
	acc       float64 // unsimulated time for fixed steps
	impulse   float64 // fractional spawns carried between steps
	born      uint64
	box       geom.Box

	frames    *frameRing
	count     atomic.Int64
	published atomic.Uint64
	simClock  atomic.Uint64 // math.Float64bits(simTime)

	finished      finishedObservers
	finishPending bool

	diag    Diagnostics
	lastErr error
}

// NewSystem creates a stopped system. The system takes ownership of the
// gradients in cfg.
func NewSystem(ctx Context, cfg Config) *System {
	s := &System{
		ctx:    ctx,
		log:    ctx.logger(),
		cfg:    cfg,
		pool:   NewPool(max(cfg.MaxParticleCount, 0)),
		field:  vortex.NewField(cfg.Seed + 1),
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		frames: newFrameRing(frameBuffers),
	}
	s.workers = newWorkerPool(cfg.Workers)
	s.applyFieldParams()
	return s
}

// Start validates the configuration, resolves the emitter and begins a new
// run from time zero with an empty pool. Calling Start on a running system
// restarts it.
func (s *System) Start() error {
	shape, err := s.prepare()
	if err != nil {
		return err
	}
	s.shape = shape
	s.applyConfig()
	s.clearRun()
	s.state.Store(int32(Running))
	s.publishEmpty()

	s.log.Info("particle system started",
		"emitter", s.cfg.EmitterID,
		"max_particles", s.cfg.MaxParticleCount,
		"period", s.cfg.PeriodTime,
		"loop", s.cfg.Loop,
	)
	return nil
}

// Stop halts the system, discards all particles and publishes an empty frame.
func (s *System) Stop() {
	prev := s.State()
	s.state.Store(int32(Stopped))
	s.clearRun()
	s.publishEmpty()
	if prev != Stopped {
		s.log.Info("particle system stopped")
	}
}

// Reset re-applies the configuration without changing whether the system
// runs. A running system restarts its clock with an empty pool.
func (s *System) Reset() error {
	s.mustReset = false
	if s.State() != Running {
		s.applyConfig()
		return nil
	}

	shape, err := s.prepare()
	if err != nil {
		return err
	}
	s.shape = shape
	s.applyConfig()
	s.clearRun()
	s.publishEmpty()
	return nil
}

// Close stops the worker goroutines. The system must not be ticked afterwards.
func (s *System) Close() {
	s.workers.stop()
}

// prepare validates the configuration and resolves its references.
func (s *System) prepare() (*emitter.Shape, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	if s.ctx.Emitters == nil {
		return nil, invalid("emitter", "no emitter source in context")
	}
	shape, ok := s.ctx.Emitters.Lookup(s.cfg.EmitterID)
	if !ok || shape == nil {
		return nil, invalid("emitter", fmt.Sprintf("emitter %d not found", s.cfg.EmitterID))
	}
	if s.ctx.Textures != nil {
		for _, id := range s.cfg.Textures {
			if id != "" && !s.ctx.Textures.HasTexture(id) {
				return nil, invalid("textures", fmt.Sprintf("texture %q not found", id))
			}
		}
	}
	if shape.Dirty() {
		shape.Finalize()
	}
	return shape, nil
}

// applyConfig rebuilds everything derived from the configuration.
func (s *System) applyConfig() {
	if s.pool.Cap() != s.cfg.MaxParticleCount {
		s.removeBoundVortices()
		s.pool.Resize(s.cfg.MaxParticleCount)
	}

	seed := s.cfg.Seed
	if s.cfg.UseRandomSeed {
		seed = time.Now().UnixNano()
	}
	s.rng.Seed(seed)
	s.field.Seed(seed + 1)
	t := s.cfg.Turbulence
	s.turbulence = vortex.NewTurbulence(seed+2, t.Strength, t.Scale, t.TimeScale)

	want := s.cfg.Workers
	if want <= 0 {
		want = newWorkerPool(0).numWorkers
	}
	if want != s.workers.numWorkers {
		s.workers.stop()
		s.workers = newWorkerPool(want)
	}
	s.applyFieldParams()
}

func (s *System) applyFieldParams() {
	s.field.TorqueMin = s.cfg.VortexTorqueMin
	s.field.TorqueMax = s.cfg.VortexTorqueMax
	s.field.ConfinementStrength = 0
	if s.cfg.VorticityConfinement {
		s.field.ConfinementStrength = s.cfg.ConfinementStrength
	}
}

// clearRun empties the pool and rewinds the clocks.
func (s *System) clearRun() {
	s.removeBoundVortices()
	s.pool.Clear()
	s.simTime = 0
	s.simClock.Store(0)
	s.totalTime = 0
	s.acc = 0
	s.impulse = 0
	s.born = 0
	s.box = geom.Box{}
	s.draining.Store(false)
	s.finishPending = false
	s.lastErr = nil
}

func (s *System) removeBoundVortices() {
	for _, p := range s.pool.Alive() {
		if p.Vortex != 0 {
			s.field.Remove(p.Vortex)
		}
	}
}

func (s *System) publishEmpty() {
	f := s.frames.publish(nil, 0, geom.Box{})
	s.count.Store(0)
	s.published.Store(f.Sequence)
}

// OnFinished registers fn to run each time the system enters Finished.
// Callbacks run on the goroutine calling CalcNextFrame.
func (s *System) OnFinished(fn FinishedFunc) Subscription {
	return s.finished.add(fn)
}

// State returns the lifecycle state.
func (s *System) State() State {
	return State(s.state.Load())
}

// IsRunning reports whether the system is Running. A non-looping system
// stays running while it drains after its period.
func (s *System) IsRunning() bool {
	return s.State() == Running
}

// IsFinished reports whether a non-looping run has drained completely.
func (s *System) IsFinished() bool {
	return s.State() == Finished
}

// IsDraining reports whether the system stopped emitting and waits for its
// particles to expire.
func (s *System) IsDraining() bool {
	return s.IsRunning() && s.draining.Load()
}

// ParticleCount returns the number of particles in the published frame.
func (s *System) ParticleCount() int {
	return int(s.count.Load())
}

// CurrentFrame returns the published frame. The caller must Release it.
func (s *System) CurrentFrame() *Frame {
	return s.frames.acquire()
}

// FrameCounter returns the sequence number of the published frame.
func (s *System) FrameCounter() uint64 {
	return s.published.Load()
}

// BoundingBox returns the bounds of the published frame.
func (s *System) BoundingBox() geom.Box {
	f := s.frames.acquire()
	defer f.Release()
	return f.Box
}

// BoundingSphere returns the bounding sphere of the published frame.
func (s *System) BoundingSphere() geom.Sphere {
	f := s.frames.acquire()
	defer f.Release()
	return f.Sphere
}

// SimulationTime returns seconds into the current emission period. It is
// safe to call while another goroutine ticks the system.
func (s *System) SimulationTime() float64 {
	return math.Float64frombits(s.simClock.Load())
}

// Diagnostics returns the cumulative counters.
func (s *System) Diagnostics() Diagnostics {
	return s.diag
}

// LastError returns the error that forced the current run to drain, if any.
func (s *System) LastError() error {
	return s.lastErr
}

// Config returns a copy of the configuration. Gradients are shared.
func (s *System) Config() Config {
	return s.cfg
}

// AddVortex places a free-standing vortex with the configured check range
// and a torque drawn from the configured torque range.
func (s *System) AddVortex(pos, axis r3.Vec) vortex.ID {
	return s.field.Spawn(pos, axis, s.cfg.VortexCheckRange, s.cfg.VorticityConfinement)
}

// PlaceVortex moves a vortex added with AddVortex.
func (s *System) PlaceVortex(id vortex.ID, pos, axis r3.Vec) bool {
	return s.field.Place(id, pos, axis)
}

// RemoveVortex deletes a vortex added with AddVortex.
func (s *System) RemoveVortex(id vortex.ID) bool {
	return s.field.Remove(id)
}

// Vortices returns the active vortices, including particle-bound ones.
func (s *System) Vortices() []vortex.Vortex {
	return s.field.Vortices()
}
