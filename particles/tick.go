package particles

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/swirl/geom"
	"github.com/pthm-cable/swirl/telemetry"
)

var defaultDirection = r3.Vec{Y: 1}

// CalcNextFrame advances a running system by dt seconds and publishes a new
// frame. With a fixed simulation rate, dt is accumulated and whole steps
// run; steps beyond MaxSubSteps are deferred to later calls rather than
// dropped. It does nothing unless the system is running.
func (s *System) CalcNextFrame(dt float64) {
	if s.State() != Running {
		return
	}
	if s.mustReset {
		if err := s.Reset(); err != nil {
			s.log.Warn("particle system reset failed", "error", err)
		}
	}
	if !(dt >= 0) || math.IsInf(dt, 0) {
		return
	}

	if rate := s.cfg.SimulationRate; rate > 0 {
		step := 1 / rate
		s.acc += dt
		n := int(math.Floor(s.acc*rate + stepEpsilon))
		if limit := s.cfg.MaxSubSteps; limit > 0 && n > limit {
			n = limit
		}
		for i := 0; i < n && s.State() == Running; i++ {
			s.step(step)
			s.acc -= step
		}
	} else if dt > 0 {
		s.step(dt)
	}

	s.publish()

	if s.finishPending {
		s.finishPending = false
		s.finished.notify(s)
	}
}

// step runs one integration step: emit, integrate, retire.
func (s *System) step(dt float64) {
	s.diag.Steps++

	if !s.draining.Load() && s.simTime >= s.cfg.PeriodTime {
		if s.cfg.Loop {
			s.simTime = math.Mod(s.simTime, s.cfg.PeriodTime)
		} else {
			s.beginDrain(nil)
		}
	}

	s.ctx.phase(telemetry.PhaseEmit)
	if !s.draining.Load() {
		s.emit(s.simTime, dt)
	}

	s.ctx.phase(telemetry.PhaseIntegrate)
	box, clamps := s.integrate(dt)
	s.diag.NonFiniteClamps += clamps

	s.ctx.phase(telemetry.PhaseRetire)
	s.retire()
	s.box = box

	s.simTime += dt
	s.simClock.Store(math.Float64bits(s.simTime))
	s.totalTime += dt

	if s.draining.Load() && s.pool.Len() == 0 {
		s.finish()
	}
}

// emit accumulates the emission impulse and spawns its whole part.
func (s *System) emit(phase, dt float64) {
	rate := s.cfg.Emission.Evaluate(phase)
	if rate > 0 && !math.IsInf(rate, 0) {
		s.impulse += rate * dt
	}
	count := int(s.impulse)
	if count <= 0 {
		return
	}
	s.impulse -= float64(count)

	if free := s.pool.Free(); count > free {
		s.diag.Dropped += uint64(count - free)
		count = free
	}
	for i := 0; i < count; i++ {
		if err := s.spawn(phase); err != nil {
			s.beginDrain(err)
			return
		}
	}
}

// spawn creates one particle. All start ranges share one random factor so
// that large particles are also the fast, long lived ones.
func (s *System) spawn(phase float64) error {
	pos, normal, err := s.shape.Sample(s.rng)
	if err != nil {
		return err
	}
	p := s.pool.Spawn()
	if p == nil {
		s.diag.Dropped++
		return nil
	}

	c := &s.cfg
	f := s.rng.Float64()

	dir := c.EmitDirection
	if c.VelocityOriented {
		dir = normal
	}
	dir = geom.Unit(geom.TransformDirection(c.World, dir), defaultDirection)

	p.Position = geom.TransformPoint(c.World, pos)
	p.Velocity = r3.Scale(c.StartVelocity.Evaluate(phase).Sample(f), dir)
	p.VisibleTime = c.StartVisibleTime.Evaluate(phase).Sample(f)
	p.Size = c.StartSize.Evaluate(phase).Sample(f)
	p.Lift = c.StartLift.Evaluate(phase).Sample(1 - f)
	p.Orientation = c.StartOrientation.Evaluate(phase).Sample(f)
	p.OrientationRate = c.StartOrientationRate.Evaluate(phase).Sample(f)
	p.SizeScale = c.SizeScale.Evaluate(0)
	p.Color = c.Color.Evaluate(0)

	if tiles := c.TextureColumns * c.TextureRows; tiles > 1 {
		p.TilingIndex = s.rng.Intn(tiles)
	}

	s.born++
	p.BornIndex = s.born
	s.diag.Spawned++

	if c.VortexToParticleRate > 0 {
		every := uint64(max(1, math.Round(1/c.VortexToParticleRate)))
		if p.BornIndex%every == 0 {
			s.bindVortex(p)
		}
	}
	return nil
}

// bindVortex attaches a transient vortex that follows p and fades with the
// torque factor gradient.
func (s *System) bindVortex(p *Particle) {
	c := &s.cfg
	r := c.VortexRangeMin + (c.VortexRangeMax-c.VortexRangeMin)*s.rng.Float64()
	if !(r > 0) {
		return
	}
	axis := r3.Vec{X: s.rng.Float64() - 0.5, Y: s.rng.Float64() - 0.5, Z: s.rng.Float64() - 0.5}
	axis = geom.Unit(axis, defaultDirection)

	p.Vortex = s.field.Spawn(p.Position, axis, r, c.VorticityConfinement)
	s.field.Move(p.Vortex, p.Position, c.TorqueFactor.Evaluate(0))
	s.diag.VorticesSpawned++
}

// integrateChunk advances particles [i0, i1). It only touches those
// particles, so disjoint ranges may run concurrently.
func (s *System) integrateChunk(i0, i1 int, dt float64) chunkResult {
	var res chunkResult
	alive := s.pool.Alive()
	c := &s.cfg
	drag := math.Exp(-c.AirDrag * dt)
	turbulent := s.turbulence.Enabled()

	for i := i0; i < i1; i++ {
		p := &alive[i]
		p.Age += dt

		acc := s.field.Evaluate(p.Position)
		if turbulent {
			acc = r3.Add(acc, s.turbulence.Evaluate(p.Position, s.totalTime))
		}

		v := r3.Scale(drag, p.Velocity)
		v = r3.Add(v, r3.Scale(dt, acc))
		v = r3.Add(v, r3.Scale(p.Lift*dt, c.LiftDirection))
		v, clamped := sanitize(v)
		res.clamps += clamped

		p.Velocity = v
		p.Position = r3.Add(p.Position, r3.Scale(dt, v))
		p.Orientation += p.OrientationRate * dt

		if p.expired() {
			continue
		}
		t := p.Age / p.VisibleTime
		p.Color = c.Color.Evaluate(t)
		p.SizeScale = c.SizeScale.Evaluate(t)
		res.box.ExtendCube(p.Position, p.CurrentSize())
	}
	return res
}

// sanitize zeroes non-finite components.
func sanitize(v r3.Vec) (r3.Vec, uint64) {
	var n uint64
	if math.IsNaN(v.X) || math.IsInf(v.X, 0) {
		v.X = 0
		n++
	}
	if math.IsNaN(v.Y) || math.IsInf(v.Y, 0) {
		v.Y = 0
		n++
	}
	if math.IsNaN(v.Z) || math.IsInf(v.Z, 0) {
		v.Z = 0
		n++
	}
	return v, n
}

// retire compacts the pool and moves particle-bound vortices to their hosts.
func (s *System) retire() {
	removed := s.pool.Compact((*Particle).expired, func(p *Particle) {
		if p.Vortex != 0 {
			s.field.Remove(p.Vortex)
		}
	})
	s.diag.Retired += uint64(removed)

	if s.field.Len() == 0 {
		return
	}
	alive := s.pool.Alive()
	for i := range alive {
		p := &alive[i]
		if p.Vortex != 0 {
			s.field.Move(p.Vortex, p.Position, s.cfg.TorqueFactor.Evaluate(p.LifeFraction()))
		}
	}
}

func (s *System) beginDrain(err error) {
	if s.draining.Swap(true) {
		return
	}
	if err != nil {
		s.lastErr = err
		s.log.Warn("particle emitter failed, draining", "emitter", s.cfg.EmitterID, "error", err)
		return
	}
	s.log.Debug("particle period elapsed, draining", "alive", s.pool.Len())
}

func (s *System) finish() {
	s.state.Store(int32(Finished))
	s.draining.Store(false)
	s.diag.Finished++
	s.finishPending = true
	s.log.Info("particle system finished", "diagnostics", s.diag)
}

func (s *System) publish() {
	s.ctx.phase(telemetry.PhasePublish)
	f := s.frames.publish(s.pool.Alive(), s.simTime, s.box)
	s.count.Store(int64(f.Len()))
	s.published.Store(f.Sequence)
}
