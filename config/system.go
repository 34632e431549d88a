package config

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/swirl/emitter"
	"github.com/pthm-cable/swirl/geom"
	"github.com/pthm-cable/swirl/particles"
)

// Vec3 is written as a flow list [x, y, z].
type Vec3 [3]float64

// R3 converts to a gonum vector.
func (v Vec3) R3() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

func vec3(v r3.Vec) Vec3 { return Vec3{v.X, v.Y, v.Z} }

// TransformConfig places a node relative to its parent. Rotation is in
// degrees, applied Y then X then Z.
type TransformConfig struct {
	Translate Vec3    `yaml:"translate,flow"`
	Rotate    Vec3    `yaml:"rotate,flow"`
	Scale     float64 `yaml:"scale"`
}

// Matrix returns the local matrix.
func (t TransformConfig) Matrix() mgl64.Mat4 {
	rot := r3.Vec{
		X: mgl64.DegToRad(t.Rotate[0]),
		Y: mgl64.DegToRad(t.Rotate[1]),
		Z: mgl64.DegToRad(t.Rotate[2]),
	}
	return geom.Compose(t.Translate.R3(), rot, t.Scale)
}

// GroupConfig is a transform-only scene node.
type GroupConfig struct {
	Name      string          `yaml:"name"`
	Parent    string          `yaml:"parent,omitempty"`
	Transform TransformConfig `yaml:"transform"`
}

// EmitterConfig describes an emitter shape node.
type EmitterConfig struct {
	ID        uint64          `yaml:"id"`
	Name      string          `yaml:"name,omitempty"`
	Kind      string          `yaml:"kind"`
	Size      float64         `yaml:"size,omitempty"`
	Parent    string          `yaml:"parent,omitempty"`
	Transform TransformConfig `yaml:"transform"`
	Triangles [][3]Vec3       `yaml:"triangles,omitempty,flow"`
}

// Build creates the shape. Mesh shapes are finalized.
func (e EmitterConfig) Build() (*emitter.Shape, error) {
	kind, err := emitter.ParseKind(e.Kind)
	if err != nil {
		return nil, fmt.Errorf("emitter %d: %w", e.ID, err)
	}
	if kind != emitter.KindMesh {
		if len(e.Triangles) > 0 {
			return nil, fmt.Errorf("emitter %d: triangles given for %s shape", e.ID, kind)
		}
		return emitter.NewShape(emitter.ID(e.ID), kind, e.Size), nil
	}
	tris := make([]emitter.Triangle, len(e.Triangles))
	for i, t := range e.Triangles {
		tris[i] = emitter.Triangle{A: t[0].R3(), B: t[1].R3(), C: t[2].R3()}
	}
	return emitter.NewMesh(emitter.ID(e.ID), tris...), nil
}

// VortexConfig is a static vortex in the system's local space.
type VortexConfig struct {
	Position Vec3 `yaml:"position,flow"`
	Axis     Vec3 `yaml:"axis,flow"`
}

// VorticityConfig groups the vortex parameters of a system.
type VorticityConfig struct {
	Confinement         bool           `yaml:"confinement"`
	ConfinementStrength float64        `yaml:"confinement_strength"`
	TorqueMin           float64        `yaml:"torque_min"`
	TorqueMax           float64        `yaml:"torque_max"`
	RangeMin            float64        `yaml:"range_min"`
	RangeMax            float64        `yaml:"range_max"`
	CheckRange          float64        `yaml:"check_range"`
	ParticleRate        float64        `yaml:"particle_rate"`
	Static              []VortexConfig `yaml:"static,omitempty"`
}

// TurbulenceConfig mirrors particles.Turbulence.
type TurbulenceConfig struct {
	Strength  float64 `yaml:"strength"`
	Scale     float64 `yaml:"scale"`
	TimeScale float64 `yaml:"time_scale"`
}

// GradientsConfig holds every curve of a system.
type GradientsConfig struct {
	Color                ColorCurve  `yaml:"color"`
	Emission             ScalarCurve `yaml:"emission"`
	SizeScale            ScalarCurve `yaml:"size_scale"`
	TorqueFactor         ScalarCurve `yaml:"torque_factor"`
	StartVisibleTime     RangeCurve  `yaml:"start_visible_time"`
	StartSize            RangeCurve  `yaml:"start_size"`
	StartVelocity        RangeCurve  `yaml:"start_velocity"`
	StartLift            RangeCurve  `yaml:"start_lift"`
	StartOrientation     RangeCurve  `yaml:"start_orientation"`
	StartOrientationRate RangeCurve  `yaml:"start_orientation_rate"`
}

// SystemConfig is the persisted form of a particle system node.
type SystemConfig struct {
	Name      string          `yaml:"name"`
	Parent    string          `yaml:"parent,omitempty"`
	Transform TransformConfig `yaml:"transform"`
	Autostart bool            `yaml:"autostart"`

	Emitter          uint64  `yaml:"emitter"`
	MaxParticleCount int     `yaml:"max_particle_count"`
	PeriodTime       float64 `yaml:"period_time"`
	Loop             bool    `yaml:"loop"`
	SimulationRate   float64 `yaml:"simulation_rate"`
	MaxSubSteps      int     `yaml:"max_sub_steps"`
	AirDrag          float64 `yaml:"air_drag"`
	VelocityOriented bool    `yaml:"velocity_oriented"`
	EmitDirection    Vec3    `yaml:"emit_direction,flow"`
	LiftDirection    Vec3    `yaml:"lift_direction,flow"`

	Textures              [3]string `yaml:"textures,flow"`
	TextureColumns        int       `yaml:"texture_columns"`
	TextureRows           int       `yaml:"texture_rows"`
	SecondTextureRotation float64   `yaml:"second_texture_rotation"`
	ThirdTextureRotation  float64   `yaml:"third_texture_rotation"`

	Vorticity  VorticityConfig  `yaml:"vorticity"`
	Turbulence TurbulenceConfig `yaml:"turbulence"`

	Seed              int64 `yaml:"seed"`
	UseRandomSeed     bool  `yaml:"use_random_seed"`
	Workers           int   `yaml:"workers"`
	ParallelThreshold int   `yaml:"parallel_threshold"`

	Gradients GradientsConfig `yaml:"gradients"`
}

// DefaultSystem returns the persisted form of particles.DefaultConfig.
func DefaultSystem() SystemConfig {
	s := FromParticles(particles.DefaultConfig())
	s.Transform.Scale = 1
	s.Autostart = true
	return s
}

// UnmarshalYAML fills unspecified fields from DefaultSystem, so each
// entry of a systems list only needs to name what differs.
func (s *SystemConfig) UnmarshalYAML(n *yaml.Node) error {
	type plain SystemConfig
	p := plain(DefaultSystem())
	if err := n.Decode(&p); err != nil {
		return err
	}
	*s = SystemConfig(p)
	return nil
}

// FromParticles captures a particle configuration. Name, parent,
// transform and static vortices are left empty: they belong to the scene.
func FromParticles(c particles.Config) SystemConfig {
	s := SystemConfig{
		Emitter:          uint64(c.EmitterID),
		MaxParticleCount: c.MaxParticleCount,
		PeriodTime:       c.PeriodTime,
		Loop:             c.Loop,
		SimulationRate:   c.SimulationRate,
		MaxSubSteps:      c.MaxSubSteps,
		AirDrag:          c.AirDrag,
		VelocityOriented: c.VelocityOriented,
		EmitDirection:    vec3(c.EmitDirection),
		LiftDirection:    vec3(c.LiftDirection),

		TextureColumns:        c.TextureColumns,
		TextureRows:           c.TextureRows,
		SecondTextureRotation: c.SecondTextureRotation,
		ThirdTextureRotation:  c.ThirdTextureRotation,

		Vorticity: VorticityConfig{
			Confinement:         c.VorticityConfinement,
			ConfinementStrength: c.ConfinementStrength,
			TorqueMin:           c.VortexTorqueMin,
			TorqueMax:           c.VortexTorqueMax,
			RangeMin:            c.VortexRangeMin,
			RangeMax:            c.VortexRangeMax,
			CheckRange:          c.VortexCheckRange,
			ParticleRate:        c.VortexToParticleRate,
		},
		Turbulence: TurbulenceConfig(c.Turbulence),

		Seed:              c.Seed,
		UseRandomSeed:     c.UseRandomSeed,
		Workers:           c.Workers,
		ParallelThreshold: c.ParallelThreshold,

		Gradients: GradientsConfig{
			Color:                colorCurve(c.Color),
			Emission:             scalarCurve(c.Emission),
			SizeScale:            scalarCurve(c.SizeScale),
			TorqueFactor:         scalarCurve(c.TorqueFactor),
			StartVisibleTime:     rangeCurve(c.StartVisibleTime),
			StartSize:            rangeCurve(c.StartSize),
			StartVelocity:        rangeCurve(c.StartVelocity),
			StartLift:            rangeCurve(c.StartLift),
			StartOrientation:     rangeCurve(c.StartOrientation),
			StartOrientationRate: rangeCurve(c.StartOrientationRate),
		},
	}
	for i, t := range c.Textures {
		s.Textures[i] = string(t)
	}
	return s
}

// ToParticles builds the particle configuration. The world matrix is the
// local transform; the scene replaces it with the composed one.
func (s SystemConfig) ToParticles() (particles.Config, error) {
	c := particles.Config{
		MaxParticleCount: s.MaxParticleCount,
		PeriodTime:       s.PeriodTime,
		Loop:             s.Loop,
		SimulationRate:   s.SimulationRate,
		MaxSubSteps:      s.MaxSubSteps,
		AirDrag:          s.AirDrag,
		VelocityOriented: s.VelocityOriented,
		EmitDirection:    s.EmitDirection.R3(),
		LiftDirection:    s.LiftDirection.R3(),
		World:            s.Transform.Matrix(),
		EmitterID:        emitter.ID(s.Emitter),

		TextureColumns:        s.TextureColumns,
		TextureRows:           s.TextureRows,
		SecondTextureRotation: s.SecondTextureRotation,
		ThirdTextureRotation:  s.ThirdTextureRotation,

		VorticityConfinement: s.Vorticity.Confinement,
		ConfinementStrength:  s.Vorticity.ConfinementStrength,
		VortexTorqueMin:      s.Vorticity.TorqueMin,
		VortexTorqueMax:      s.Vorticity.TorqueMax,
		VortexRangeMin:       s.Vorticity.RangeMin,
		VortexRangeMax:       s.Vorticity.RangeMax,
		VortexCheckRange:     s.Vorticity.CheckRange,
		VortexToParticleRate: s.Vorticity.ParticleRate,

		Turbulence: particles.Turbulence(s.Turbulence),

		Seed:              s.Seed,
		UseRandomSeed:     s.UseRandomSeed,
		Workers:           s.Workers,
		ParallelThreshold: s.ParallelThreshold,
	}
	for i, t := range s.Textures {
		c.Textures[i] = particles.TextureID(t)
	}

	g := s.Gradients
	var err error
	build := func(field string, fn func() error) {
		if err == nil {
			if e := fn(); e != nil {
				err = fmt.Errorf("system %q: gradient %s: %w", s.Name, field, e)
			}
		}
	}
	build("color", func() (e error) { c.Color, e = g.Color.Build(); return })
	build("emission", func() (e error) { c.Emission, e = g.Emission.Build(); return })
	build("size_scale", func() (e error) { c.SizeScale, e = g.SizeScale.Build(); return })
	build("torque_factor", func() (e error) { c.TorqueFactor, e = g.TorqueFactor.Build(); return })
	build("start_visible_time", func() (e error) { c.StartVisibleTime, e = g.StartVisibleTime.Build(); return })
	build("start_size", func() (e error) { c.StartSize, e = g.StartSize.Build(); return })
	build("start_velocity", func() (e error) { c.StartVelocity, e = g.StartVelocity.Build(); return })
	build("start_lift", func() (e error) { c.StartLift, e = g.StartLift.Build(); return })
	build("start_orientation", func() (e error) { c.StartOrientation, e = g.StartOrientation.Build(); return })
	build("start_orientation_rate", func() (e error) { c.StartOrientationRate, e = g.StartOrientationRate.Build(); return })
	if err != nil {
		return particles.Config{}, err
	}
	return c, nil
}
