package particles

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/swirl/emitter"
	"github.com/pthm-cable/swirl/gradient"
)

// DefaultSimulationRate is the fixed step rate in Hz.
const DefaultSimulationRate = 60

// Turbulence configures the noise acceleration field.
type Turbulence struct {
	Strength  float64
	Scale     float64
	TimeScale float64
}

// Config is the full description of a particle system.
//
// Gradient times: Emission and the Start* gradients are keyed in seconds of
// the emission period; Color, SizeScale and TorqueFactor are keyed by the
// particle's life fraction in [0, 1].
type Config struct {
	MaxParticleCount int
	PeriodTime       float64 // seconds
	Loop             bool
	// SimulationRate is the fixed step rate in Hz; 0 steps once per call
	// with the caller's dt.
	SimulationRate float64
	// MaxSubSteps caps fixed steps per CalcNextFrame; the rest carries over.
	MaxSubSteps int
	AirDrag     float64 // 1/s

	VelocityOriented bool
	EmitDirection    r3.Vec // used when not velocity oriented
	LiftDirection    r3.Vec
	World            mgl64.Mat4

	EmitterID emitter.ID

	// Renderer-only parameters.
	Textures              [3]TextureID
	TextureColumns        int
	TextureRows           int
	SecondTextureRotation float64
	ThirdTextureRotation  float64

	VorticityConfinement bool
	ConfinementStrength  float64
	VortexTorqueMin      float64
	VortexTorqueMax      float64
	VortexRangeMin       float64 // check range of particle-bound vortices
	VortexRangeMax       float64
	VortexCheckRange     float64 // check range of vortices added with AddVortex
	VortexToParticleRate float64 // fraction of spawned particles carrying a vortex

	Turbulence Turbulence

	Seed          int64
	UseRandomSeed bool

	// Workers for the integration pass; 0 uses GOMAXPROCS.
	Workers           int
	ParallelThreshold int

	Color                *gradient.Color
	Emission             *gradient.Scalar // particles per second
	SizeScale            *gradient.Scalar
	TorqueFactor         *gradient.Scalar
	StartVisibleTime     *gradient.Range
	StartSize            *gradient.Range
	StartVelocity        *gradient.Range
	StartLift            *gradient.Range
	StartOrientation     *gradient.Range
	StartOrientationRate *gradient.Range
}

// DefaultConfig returns a looping fountain of soft white sprites.
func DefaultConfig() Config {
	color := gradient.NewColor()
	color.Set(0, gradient.RGBA{R: 1, G: 1, B: 1, A: 0})
	color.Set(0.2, gradient.RGBA{R: 1, G: 1, B: 1, A: 1})
	color.Set(0.5, gradient.RGBA{R: 1, G: 1, B: 1, A: 1})
	color.Set(1, gradient.RGBA{R: 1, G: 1, B: 1, A: 0})

	torque := gradient.NewScalar()
	torque.Set(0, 0)
	torque.Set(0.1, 1)
	torque.Set(0.9, 1)
	torque.Set(1, 0)

	return Config{
		MaxParticleCount:    100,
		PeriodTime:          5,
		Loop:                true,
		SimulationRate:      DefaultSimulationRate,
		MaxSubSteps:         8,
		AirDrag:             0.5,
		EmitDirection:       r3.Vec{Y: 1},
		LiftDirection:       r3.Vec{Y: 1},
		World:               mgl64.Ident4(),
		TextureColumns:      1,
		TextureRows:         1,
		ConfinementStrength: 0.1,
		VortexTorqueMin:     0.5,
		VortexTorqueMax:     0.7,
		VortexRangeMin:      0.5,
		VortexRangeMax:      1,
		VortexCheckRange:    2,
		Turbulence:          Turbulence{Scale: 1, TimeScale: 1},
		Seed:                1,
		ParallelThreshold:   256,

		Color:                color,
		Emission:             gradient.ConstScalar(20),
		SizeScale:            gradient.ConstScalar(1),
		TorqueFactor:         torque,
		StartVisibleTime:     gradient.ConstRange(2.5, 3.5),
		StartSize:            gradient.ConstRange(0.1, 0.3),
		StartVelocity:        gradient.ConstRange(0.6, 1.2),
		StartLift:            gradient.ConstRange(0, 0),
		StartOrientation:     gradient.ConstRange(0, 0),
		StartOrientationRate: gradient.ConstRange(0, 0),
	}
}

// Clone returns a copy with independent gradients.
func (c Config) Clone() Config {
	out := c
	if c.Color != nil {
		out.Color = c.Color.Clone()
	}
	for _, g := range []**gradient.Scalar{&out.Emission, &out.SizeScale, &out.TorqueFactor} {
		if *g != nil {
			*g = (*g).Clone()
		}
	}
	for _, g := range out.ranges() {
		if *g.grad != nil {
			*g.grad = (*g.grad).Clone()
		}
	}
	return out
}

type namedRange struct {
	name string
	grad **gradient.Range
}

func (c *Config) ranges() []namedRange {
	return []namedRange{
		{"start_visible_time", &c.StartVisibleTime},
		{"start_size", &c.StartSize},
		{"start_velocity", &c.StartVelocity},
		{"start_lift", &c.StartLift},
		{"start_orientation", &c.StartOrientation},
		{"start_orientation_rate", &c.StartOrientationRate},
	}
}

// MaxLife is the longest visible time any particle can be given.
func (c *Config) MaxLife() float64 {
	return gradient.Largest(c.StartVisibleTime)
}

// Validate checks everything that does not need a Context.
func (c *Config) Validate() error {
	switch {
	case c.MaxParticleCount <= 0:
		return invalid("max_particle_count", "must be positive")
	case !(c.PeriodTime > 0) || math.IsInf(c.PeriodTime, 0):
		return invalid("period_time", "must be a positive number of seconds")
	case !(c.SimulationRate >= 0) || math.IsInf(c.SimulationRate, 0):
		return invalid("simulation_rate", "must be zero or positive")
	case c.MaxSubSteps < 0:
		return invalid("max_sub_steps", "must not be negative")
	case !(c.AirDrag >= 0):
		return invalid("air_drag", "must not be negative")
	case c.TextureColumns <= 0 || c.TextureRows <= 0:
		return invalid("texture_tiling", "columns and rows must be positive")
	case c.VortexTorqueMin > c.VortexTorqueMax:
		return invalid("vortex_torque", "min exceeds max")
	case c.VortexRangeMin > c.VortexRangeMax:
		return invalid("vortex_range", "min exceeds max")
	case c.VortexRangeMin < 0 || c.VortexCheckRange < 0:
		return invalid("vortex_range", "must not be negative")
	case c.VortexToParticleRate < 0 || c.VortexToParticleRate > 1:
		return invalid("vortex_to_particle_rate", "must be within [0, 1]")
	case c.Workers < 0:
		return invalid("workers", "must not be negative")
	}

	if c.Color.Empty() {
		return invalid("color", "gradient has no keys")
	}
	if c.Emission.Empty() {
		return invalid("emission", "gradient has no keys")
	}
	if c.SizeScale.Empty() {
		return invalid("size_scale", "gradient has no keys")
	}
	if err := checkSizeScale(c.SizeScale); err != nil {
		return err
	}
	if c.TorqueFactor.Empty() {
		return invalid("torque_factor", "gradient has no keys")
	}
	for _, r := range c.ranges() {
		if (*r.grad).Empty() {
			return invalid(r.name, "gradient has no keys")
		}
	}
	return checkStartSize(c.StartSize)
}

// Sizes are half extents; a negative one would invert the bounds.
func checkSizeScale(g *gradient.Scalar) error {
	for _, k := range g.Keys() {
		if !(k.Value >= 0) {
			return invalid("size_scale", "keys must not be negative")
		}
	}
	return nil
}

func checkStartSize(g *gradient.Range) error {
	for _, k := range g.Keys() {
		if !(k.Value.Min >= 0) || !(k.Value.Max >= 0) {
			return invalid("start_size", "keys must not be negative")
		}
	}
	return nil
}
