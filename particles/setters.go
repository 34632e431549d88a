package particles

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/swirl/emitter"
	"github.com/pthm-cable/swirl/gradient"
)

// Gradient setters reject empty gradients. Gradients are read every step,
// so replacing one takes effect immediately.

func (s *System) SetColorGradient(g *gradient.Color) error {
	if g.Empty() {
		return invalid("color", "gradient has no keys")
	}
	s.cfg.Color = g
	return nil
}

func (s *System) ColorGradient() *gradient.Color { return s.cfg.Color }

func (s *System) SetEmissionGradient(g *gradient.Scalar) error {
	return setScalar(&s.cfg.Emission, g, "emission")
}

func (s *System) EmissionGradient() *gradient.Scalar { return s.cfg.Emission }

func (s *System) SetSizeScaleGradient(g *gradient.Scalar) error {
	if !g.Empty() {
		if err := checkSizeScale(g); err != nil {
			return err
		}
	}
	return setScalar(&s.cfg.SizeScale, g, "size_scale")
}

func (s *System) SizeScaleGradient() *gradient.Scalar { return s.cfg.SizeScale }

func (s *System) SetTorqueFactorGradient(g *gradient.Scalar) error {
	return setScalar(&s.cfg.TorqueFactor, g, "torque_factor")
}

func (s *System) TorqueFactorGradient() *gradient.Scalar { return s.cfg.TorqueFactor }

func (s *System) SetStartVisibleTimeGradient(g *gradient.Range) error {
	return setRange(&s.cfg.StartVisibleTime, g, "start_visible_time")
}

func (s *System) StartVisibleTimeGradient() *gradient.Range { return s.cfg.StartVisibleTime }

func (s *System) SetStartSizeGradient(g *gradient.Range) error {
	if !g.Empty() {
		if err := checkStartSize(g); err != nil {
			return err
		}
	}
	return setRange(&s.cfg.StartSize, g, "start_size")
}

func (s *System) StartSizeGradient() *gradient.Range { return s.cfg.StartSize }

func (s *System) SetStartVelocityGradient(g *gradient.Range) error {
	return setRange(&s.cfg.StartVelocity, g, "start_velocity")
}

func (s *System) StartVelocityGradient() *gradient.Range { return s.cfg.StartVelocity }

func (s *System) SetStartLiftGradient(g *gradient.Range) error {
	return setRange(&s.cfg.StartLift, g, "start_lift")
}

func (s *System) StartLiftGradient() *gradient.Range { return s.cfg.StartLift }

func (s *System) SetStartOrientationGradient(g *gradient.Range) error {
	return setRange(&s.cfg.StartOrientation, g, "start_orientation")
}

func (s *System) StartOrientationGradient() *gradient.Range { return s.cfg.StartOrientation }

func (s *System) SetStartOrientationRateGradient(g *gradient.Range) error {
	return setRange(&s.cfg.StartOrientationRate, g, "start_orientation_rate")
}

func (s *System) StartOrientationRateGradient() *gradient.Range { return s.cfg.StartOrientationRate }

func setScalar(dst **gradient.Scalar, g *gradient.Scalar, field string) error {
	if g.Empty() {
		return invalid(field, "gradient has no keys")
	}
	*dst = g
	return nil
}

func setRange(dst **gradient.Range, g *gradient.Range, field string) error {
	if g.Empty() {
		return invalid(field, "gradient has no keys")
	}
	*dst = g
	return nil
}

// SetEmitterID changes the emitter. The ID must resolve through the
// context; otherwise the current emitter is kept. A running system
// restarts on its next tick.
func (s *System) SetEmitterID(id emitter.ID) error {
	if s.ctx.Emitters == nil {
		return invalid("emitter", "no emitter source in context")
	}
	if shape, ok := s.ctx.Emitters.Lookup(id); !ok || shape == nil {
		return invalid("emitter", fmt.Sprintf("emitter %d not found", id))
	}
	s.cfg.EmitterID = id
	s.mustReset = s.IsRunning()
	return nil
}

func (s *System) EmitterID() emitter.ID { return s.cfg.EmitterID }

// SetMaxParticleCount resizes the pool. A running system restarts on its next tick.
func (s *System) SetMaxParticleCount(n int) error {
	if n <= 0 {
		return invalid("max_particle_count", "must be positive")
	}
	s.cfg.MaxParticleCount = n
	s.mustReset = s.IsRunning()
	return nil
}

func (s *System) MaxParticleCount() int { return s.cfg.MaxParticleCount }

func (s *System) SetPeriodTime(seconds float64) error {
	if !(seconds > 0) || math.IsInf(seconds, 0) {
		return invalid("period_time", "must be a positive number of seconds")
	}
	s.cfg.PeriodTime = seconds
	return nil
}

func (s *System) PeriodTime() float64 { return s.cfg.PeriodTime }

func (s *System) SetLoop(loop bool) { s.cfg.Loop = loop }

func (s *System) Loop() bool { return s.cfg.Loop }

// SetSimulationRate sets the fixed step rate in Hz; 0 selects variable steps.
func (s *System) SetSimulationRate(hz float64) error {
	if !(hz >= 0) || math.IsInf(hz, 0) {
		return invalid("simulation_rate", "must be zero or positive")
	}
	s.cfg.SimulationRate = hz
	s.acc = 0
	return nil
}

func (s *System) SimulationRate() float64 { return s.cfg.SimulationRate }

func (s *System) SetMaxSubSteps(n int) error {
	if n < 0 {
		return invalid("max_sub_steps", "must not be negative")
	}
	s.cfg.MaxSubSteps = n
	return nil
}

func (s *System) MaxSubSteps() int { return s.cfg.MaxSubSteps }

func (s *System) SetAirDrag(drag float64) error {
	if !(drag >= 0) {
		return invalid("air_drag", "must not be negative")
	}
	s.cfg.AirDrag = drag
	return nil
}

func (s *System) AirDrag() float64 { return s.cfg.AirDrag }

func (s *System) SetVelocityOriented(v bool) { s.cfg.VelocityOriented = v }

func (s *System) VelocityOriented() bool { return s.cfg.VelocityOriented }

func (s *System) SetEmitDirection(d r3.Vec) { s.cfg.EmitDirection = d }

func (s *System) EmitDirection() r3.Vec { return s.cfg.EmitDirection }

func (s *System) SetLiftDirection(d r3.Vec) { s.cfg.LiftDirection = d }

func (s *System) LiftDirection() r3.Vec { return s.cfg.LiftDirection }

// SetWorldMatrix sets the transform applied to newly emitted particles.
// Particles already alive keep their world positions.
func (s *System) SetWorldMatrix(m mgl64.Mat4) { s.cfg.World = m }

func (s *System) WorldMatrix() mgl64.Mat4 { return s.cfg.World }

func (s *System) SetTextures(a, b, c TextureID) {
	s.cfg.Textures = [3]TextureID{a, b, c}
}

func (s *System) Textures() [3]TextureID { return s.cfg.Textures }

func (s *System) SetTextureTiling(columns, rows int) error {
	if columns <= 0 || rows <= 0 {
		return invalid("texture_tiling", "columns and rows must be positive")
	}
	s.cfg.TextureColumns, s.cfg.TextureRows = columns, rows
	return nil
}

func (s *System) TextureTiling() (columns, rows int) {
	return s.cfg.TextureColumns, s.cfg.TextureRows
}

func (s *System) SetSecondTextureRotation(r float64) { s.cfg.SecondTextureRotation = r }

func (s *System) SecondTextureRotation() float64 { return s.cfg.SecondTextureRotation }

func (s *System) SetThirdTextureRotation(r float64) { s.cfg.ThirdTextureRotation = r }

func (s *System) ThirdTextureRotation() float64 { return s.cfg.ThirdTextureRotation }

func (s *System) SetVorticityConfinement(on bool) {
	s.cfg.VorticityConfinement = on
	s.applyFieldParams()
}

func (s *System) VorticityConfinement() bool { return s.cfg.VorticityConfinement }

func (s *System) SetConfinementStrength(eps float64) error {
	if !(eps >= 0) {
		return invalid("confinement_strength", "must not be negative")
	}
	s.cfg.ConfinementStrength = eps
	s.applyFieldParams()
	return nil
}

func (s *System) ConfinementStrength() float64 { return s.cfg.ConfinementStrength }

// SetVortexTorque sets the range torques are drawn from for new vortices.
func (s *System) SetVortexTorque(lo, hi float64) error {
	if lo > hi {
		return invalid("vortex_torque", "min exceeds max")
	}
	s.cfg.VortexTorqueMin, s.cfg.VortexTorqueMax = lo, hi
	s.applyFieldParams()
	return nil
}

func (s *System) VortexTorque() (lo, hi float64) {
	return s.cfg.VortexTorqueMin, s.cfg.VortexTorqueMax
}

// SetVortexRange sets the check range interval of particle-bound vortices.
func (s *System) SetVortexRange(lo, hi float64) error {
	if lo > hi || lo < 0 {
		return invalid("vortex_range", "need 0 <= min <= max")
	}
	s.cfg.VortexRangeMin, s.cfg.VortexRangeMax = lo, hi
	return nil
}

func (s *System) VortexRange() (lo, hi float64) {
	return s.cfg.VortexRangeMin, s.cfg.VortexRangeMax
}

// SetVortexCheckRange sets the check range of vortices added with AddVortex.
func (s *System) SetVortexCheckRange(r float64) error {
	if !(r >= 0) {
		return invalid("vortex_check_range", "must not be negative")
	}
	s.cfg.VortexCheckRange = r
	return nil
}

func (s *System) VortexCheckRange() float64 { return s.cfg.VortexCheckRange }

func (s *System) SetVortexToParticleRate(rate float64) error {
	if !(rate >= 0 && rate <= 1) {
		return invalid("vortex_to_particle_rate", "must be within [0, 1]")
	}
	s.cfg.VortexToParticleRate = rate
	return nil
}

func (s *System) VortexToParticleRate() float64 { return s.cfg.VortexToParticleRate }

// SetTurbulence replaces the turbulence parameters, keeping the noise seed.
func (s *System) SetTurbulence(t Turbulence) {
	s.cfg.Turbulence = t
	if s.turbulence != nil {
		s.turbulence.Strength = t.Strength
		s.turbulence.Scale = t.Scale
		s.turbulence.TimeScale = t.TimeScale
	}
}

func (s *System) Turbulence() Turbulence { return s.cfg.Turbulence }

// SetSeed sets the seed used from the next Start or Reset.
func (s *System) SetSeed(seed int64) { s.cfg.Seed = seed }

func (s *System) Seed() int64 { return s.cfg.Seed }

// SetUseRandomSeed makes each Start draw a time based seed.
func (s *System) SetUseRandomSeed(on bool) { s.cfg.UseRandomSeed = on }

func (s *System) UseRandomSeed() bool { return s.cfg.UseRandomSeed }
