package particles

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/swirl/emitter"
	"github.com/pthm-cable/swirl/gradient"
)

const testEmitter emitter.ID = 1

func newTestSystem(t *testing.T, mutate func(*Config)) (*System, *emitter.Registry) {
	t.Helper()
	reg := emitter.NewRegistry()
	reg.Register(emitter.NewShape(testEmitter, emitter.KindDisc, 1))

	cfg := DefaultConfig()
	cfg.EmitterID = testEmitter
	if mutate != nil {
		mutate(&cfg)
	}
	s := NewSystem(Context{Emitters: reg}, cfg)
	t.Cleanup(s.Close)
	return s, reg
}

func tick(s *System, n int, dt float64) {
	for i := 0; i < n; i++ {
		s.CalcNextFrame(dt)
	}
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero capacity", func(c *Config) { c.MaxParticleCount = 0 }, "max_particle_count"},
		{"zero period", func(c *Config) { c.PeriodTime = 0 }, "period_time"},
		{"negative rate", func(c *Config) { c.SimulationRate = -1 }, "simulation_rate"},
		{"negative drag", func(c *Config) { c.AirDrag = -0.1 }, "air_drag"},
		{"no tiling", func(c *Config) { c.TextureRows = 0 }, "texture_tiling"},
		{"torque order", func(c *Config) { c.VortexTorqueMin = 2 }, "vortex_torque"},
		{"empty color", func(c *Config) { c.Color = gradient.NewColor() }, "color"},
		{"nil emission", func(c *Config) { c.Emission = nil }, "emission"},
		{"empty start size", func(c *Config) { c.StartSize = gradient.NewRange() }, "start_size"},
		{"missing emitter", func(c *Config) { c.EmitterID = 99 }, "emitter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSystem(t, tt.mutate)
			err := s.Start()
			var ice *InvalidConfigurationError
			if !errors.As(err, &ice) {
				t.Fatalf("Start() = %v, want InvalidConfigurationError", err)
			}
			if ice.Field != tt.field {
				t.Errorf("Field = %q, want %q", ice.Field, tt.field)
			}
			if s.State() != Stopped {
				t.Errorf("State = %v after failed Start, want stopped", s.State())
			}
		})
	}
}

func TestStartRequiresKnownTextures(t *testing.T) {
	reg := emitter.NewRegistry()
	reg.Register(emitter.NewShape(testEmitter, emitter.KindPoint, 0))
	cfg := DefaultConfig()
	cfg.EmitterID = testEmitter
	cfg.Textures[0] = "smoke.png"

	s := NewSystem(Context{Emitters: reg, Textures: textureSet{"spark.png": true}}, cfg)
	defer s.Close()

	var ice *InvalidConfigurationError
	if err := s.Start(); !errors.As(err, &ice) || ice.Field != "textures" {
		t.Errorf("Start() = %v, want textures error", err)
	}
}

type textureSet map[TextureID]bool

func (ts textureSet) HasTexture(id TextureID) bool { return ts[id] }

func TestNonLoopingRunDrainsThenFinishes(t *testing.T) {
	s, _ := newTestSystem(t, func(c *Config) {
		c.MaxParticleCount = 100
		c.Emission = gradient.ConstScalar(50)
		c.PeriodTime = 2
		c.Loop = false
	})

	var finished atomic.Int32
	s.OnFinished(func(*System) { finished.Add(1) })

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	tick(s, 20, 0.1)

	d := s.Diagnostics()
	if d.Spawned < 95 || d.Spawned > 100 {
		t.Errorf("spawned %d after 2s at 50/s, want 95..100", d.Spawned)
	}
	if !s.IsRunning() || s.IsFinished() {
		t.Fatalf("state = %v, want running", s.State())
	}
	if n := s.ParticleCount(); n < 95 || n > 100 {
		t.Errorf("ParticleCount = %d, want 95..100", n)
	}

	// Past the period: no more emission, particles expire within the
	// longest visible time.
	s.CalcNextFrame(0.1)
	if !s.IsDraining() {
		t.Error("expected draining after the period elapsed")
	}
	spawned := s.Diagnostics().Spawned

	for i := 0; i < 80 && !s.IsFinished(); i++ {
		s.CalcNextFrame(0.1)
		if s.Diagnostics().Spawned != spawned {
			t.Fatal("spawned while draining")
		}
	}

	if !s.IsFinished() || s.IsRunning() {
		t.Fatalf("state = %v, want finished", s.State())
	}
	if s.ParticleCount() != 0 {
		t.Errorf("ParticleCount = %d after finish, want 0", s.ParticleCount())
	}
	if finished.Load() != 1 {
		t.Errorf("finished callback fired %d times, want 1", finished.Load())
	}

	tick(s, 5, 0.1)
	if finished.Load() != 1 {
		t.Error("finished callback fired again without a new run")
	}
}

func TestLoopingRunNeverFinishes(t *testing.T) {
	s, _ := newTestSystem(t, func(c *Config) {
		c.PeriodTime = 0.5
		c.Loop = true
	})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 300; i++ {
		s.CalcNextFrame(0.05)
		if s.IsFinished() || s.IsDraining() {
			t.Fatalf("tick %d: looping system left the running state (%v)", i, s.State())
		}
		if st := s.SimulationTime(); st < 0 || st > 0.5+1.0/60+1e-9 {
			t.Fatalf("simulation time %v escaped the period", st)
		}
	}
}

func TestParticleCountBoundedByCapacity(t *testing.T) {
	s, _ := newTestSystem(t, func(c *Config) {
		c.MaxParticleCount = 10
		c.Emission = gradient.ConstScalar(1000)
	})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 30; i++ {
		s.CalcNextFrame(1.0 / 30)
		if n := s.ParticleCount(); n < 0 || n > 10 {
			t.Fatalf("ParticleCount = %d, want within [0, 10]", n)
		}
	}
	if s.Diagnostics().Dropped == 0 {
		t.Error("expected dropped spawns when emission exceeds capacity")
	}
}

func TestBoundsEncloseParticles(t *testing.T) {
	s, _ := newTestSystem(t, func(c *Config) {
		c.MaxParticleCount = 500
		c.Emission = gradient.ConstScalar(400)
		c.StartLift = gradient.ConstRange(-0.5, 0.5)
		c.VortexToParticleRate = 0.1
		c.Turbulence.Strength = 0.5
	})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 40; i++ {
		s.CalcNextFrame(1.0 / 30)

		f := s.CurrentFrame()
		for _, p := range f.Particles {
			if !f.Box.ContainsCube(p.Position, p.CurrentSize()) {
				t.Fatalf("box %+v misses particle at %v size %v", f.Box, p.Position, p.CurrentSize())
			}
			if r3.Norm(r3.Sub(p.Position, f.Sphere.Center))+p.CurrentSize() > f.Sphere.Radius+1e-9 {
				t.Fatalf("sphere %+v misses particle at %v", f.Sphere, p.Position)
			}
			if p.Age > p.VisibleTime {
				t.Fatalf("published expired particle: age %v > %v", p.Age, p.VisibleTime)
			}
		}
		if f.Len() == 0 && f.Box.Valid {
			t.Fatal("empty frame with a valid box")
		}
		f.Release()
	}
}

func TestEmptyEmitterDrainsToFinished(t *testing.T) {
	s, reg := newTestSystem(t, nil)
	reg.Register(emitter.NewMesh(testEmitter))

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.CalcNextFrame(0.1)

	var ee *emitter.EmptyEmitterError
	if !errors.As(s.LastError(), &ee) {
		t.Fatalf("LastError = %v, want EmptyEmitterError", s.LastError())
	}
	if !s.IsFinished() {
		t.Errorf("state = %v, want finished once the empty pool drains", s.State())
	}
}

func TestStopPublishesEmptyFrame(t *testing.T) {
	s, _ := newTestSystem(t, nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	tick(s, 30, 1.0/30)
	if s.ParticleCount() == 0 {
		t.Fatal("expected particles before Stop")
	}
	before := s.FrameCounter()

	s.Stop()
	if s.State() != Stopped || s.ParticleCount() != 0 {
		t.Errorf("after Stop: state %v, count %d", s.State(), s.ParticleCount())
	}
	if s.FrameCounter() <= before {
		t.Error("Stop did not publish a new frame")
	}
	f := s.CurrentFrame()
	defer f.Release()
	if f.Len() != 0 || f.Box.Valid {
		t.Errorf("frame after Stop has %d particles, box %+v", f.Len(), f.Box)
	}

	seq := s.FrameCounter()
	s.CalcNextFrame(0.1)
	if s.FrameCounter() != seq {
		t.Error("stopped system published a frame")
	}
}

func TestResetKeepsRunningState(t *testing.T) {
	s, _ := newTestSystem(t, nil)
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if s.State() != Stopped {
		t.Fatalf("Reset started a stopped system")
	}

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	tick(s, 20, 0.05)
	if err := s.SetMaxParticleCount(7); err != nil {
		t.Fatal(err)
	}
	s.CalcNextFrame(0.05)

	if !s.IsRunning() {
		t.Errorf("state = %v after reset, want running", s.State())
	}
	if n := s.ParticleCount(); n > 7 {
		t.Errorf("ParticleCount = %d after shrinking capacity to 7", n)
	}
}

func TestFixedStepAccumulator(t *testing.T) {
	t.Run("irregular dt", func(t *testing.T) {
		s, _ := newTestSystem(t, func(c *Config) { c.MaxSubSteps = 0 })
		if err := s.Start(); err != nil {
			t.Fatal(err)
		}
		for _, dt := range []float64{0.013, 0.021, 0.4, 0.0001, 0.5659} {
			s.CalcNextFrame(dt)
		}
		if got := s.Diagnostics().Steps; got != 60 {
			t.Errorf("steps = %d for 1s at 60Hz, want 60", got)
		}
	})

	t.Run("backlog carried", func(t *testing.T) {
		s, _ := newTestSystem(t, func(c *Config) { c.MaxSubSteps = 2 })
		if err := s.Start(); err != nil {
			t.Fatal(err)
		}
		s.CalcNextFrame(1)
		if got := s.Diagnostics().Steps; got != 2 {
			t.Fatalf("steps = %d after capped call, want 2", got)
		}
		tick(s, 40, 0)
		if got := s.Diagnostics().Steps; got != 60 {
			t.Errorf("steps = %d after draining backlog, want 60", got)
		}
	})

	t.Run("variable step", func(t *testing.T) {
		s, _ := newTestSystem(t, func(c *Config) { c.SimulationRate = 0 })
		if err := s.Start(); err != nil {
			t.Fatal(err)
		}
		tick(s, 7, 0.03)
		if got := s.Diagnostics().Steps; got != 7 {
			t.Errorf("steps = %d, want one per call", got)
		}
		if math.Abs(s.SimulationTime()-0.21) > 1e-9 {
			t.Errorf("SimulationTime = %v, want 0.21", s.SimulationTime())
		}
	})
}

func TestParallelMatchesSerial(t *testing.T) {
	build := func(workers, threshold int) *System {
		s, _ := newTestSystem(t, func(c *Config) {
			c.MaxParticleCount = 2000
			c.Emission = gradient.ConstScalar(3000)
			c.VortexToParticleRate = 0.05
			c.VorticityConfinement = true
			c.Turbulence.Strength = 0.3
			c.Workers = workers
			c.ParallelThreshold = threshold
		})
		if err := s.Start(); err != nil {
			t.Fatal(err)
		}
		return s
	}
	serial := build(1, 1<<30)
	parallel := build(4, 1)

	for i := 0; i < 30; i++ {
		serial.CalcNextFrame(1.0 / 30)
		parallel.CalcNextFrame(1.0 / 30)
	}

	a, b := serial.CurrentFrame(), parallel.CurrentFrame()
	defer a.Release()
	defer b.Release()
	if a.Len() != b.Len() || a.Len() == 0 {
		t.Fatalf("lengths differ or empty: %d vs %d", a.Len(), b.Len())
	}
	for i := range a.Particles {
		if a.Particles[i] != b.Particles[i] {
			t.Fatalf("particle %d differs:\n%+v\n%+v", i, a.Particles[i], b.Particles[i])
		}
	}
	if a.Box != b.Box || a.Sphere != b.Sphere {
		t.Errorf("bounds differ: %+v / %+v", a.Box, b.Box)
	}
}

func TestHeldFrameIsNotRewritten(t *testing.T) {
	s, _ := newTestSystem(t, func(c *Config) { c.Emission = gradient.ConstScalar(200) })
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	tick(s, 10, 0.05)

	held := s.CurrentFrame()
	seq, n := held.Sequence, held.Len()
	snapshot := append([]Particle(nil), held.Particles...)

	tick(s, 20, 0.05)
	if held.Sequence != seq || held.Len() != n {
		t.Fatalf("held frame changed: seq %d->%d len %d->%d", seq, held.Sequence, n, held.Len())
	}
	for i := range snapshot {
		if held.Particles[i] != snapshot[i] {
			t.Fatalf("held particle %d was rewritten", i)
		}
	}
	held.Release()

	if s.FrameCounter() != seq+20 {
		t.Errorf("FrameCounter = %d, want %d", s.FrameCounter(), seq+20)
	}
}

func TestConcurrentReaders(t *testing.T) {
	s, _ := newTestSystem(t, func(c *Config) {
		c.MaxParticleCount = 1000
		c.Emission = gradient.ConstScalar(2000)
	})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	var stop atomic.Bool
	var failures atomic.Int32
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last uint64
			for !stop.Load() {
				f := s.CurrentFrame()
				if f.Sequence < last {
					failures.Add(1)
				}
				last = f.Sequence
				for _, p := range f.Particles {
					if !f.Box.ContainsCube(p.Position, p.CurrentSize()) {
						failures.Add(1)
						break
					}
				}
				f.Release()
			}
		}()
	}

	tick(s, 200, 1.0/60)
	stop.Store(true)
	wg.Wait()

	if failures.Load() != 0 {
		t.Errorf("readers observed %d inconsistent frames", failures.Load())
	}
}

func TestUnsubscribe(t *testing.T) {
	s, _ := newTestSystem(t, func(c *Config) {
		c.Loop = false
		c.PeriodTime = 0.1
		c.StartVisibleTime = gradient.ConstRange(0.1, 0.1)
	})

	var a, b int
	subA := s.OnFinished(func(*System) { a++ })
	s.OnFinished(func(*System) { b++ })
	subA.Unsubscribe()
	subA.Unsubscribe()

	for run := 0; run < 2; run++ {
		if err := s.Start(); err != nil {
			t.Fatal(err)
		}
		tick(s, 30, 0.05)
		if !s.IsFinished() {
			t.Fatalf("run %d did not finish", run)
		}
	}
	if a != 0 || b != 2 {
		t.Errorf("callbacks a=%d b=%d, want 0 and 2", a, b)
	}
	if s.finished.len() != 1 {
		t.Errorf("observer list has %d entries, want 1", s.finished.len())
	}
}

func TestParticleBoundVortices(t *testing.T) {
	s, _ := newTestSystem(t, func(c *Config) {
		c.VortexToParticleRate = 1
		c.Emission = gradient.ConstScalar(30)
	})
	static := s.AddVortex(r3.Vec{X: 5}, r3.Vec{Y: 1})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	tick(s, 10, 0.1)

	if got, want := len(s.Vortices()), s.ParticleCount()+1; got != want {
		t.Errorf("vortices = %d, want one per particle plus the static one (%d)", got, want)
	}

	f := s.CurrentFrame()
	for _, p := range f.Particles {
		if p.Vortex == 0 {
			t.Fatal("particle without a vortex at rate 1")
		}
	}
	f.Release()

	s.Stop()
	vs := s.Vortices()
	if len(vs) != 1 || vs[0].ID != static {
		t.Errorf("after Stop vortices = %+v, want only the static one", vs)
	}
	if !s.RemoveVortex(static) {
		t.Error("RemoveVortex failed")
	}
}

func TestNonFiniteVelocityIsClamped(t *testing.T) {
	s, _ := newTestSystem(t, func(c *Config) {
		c.LiftDirection = r3.Vec{X: math.Inf(1)}
	})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	tick(s, 10, 0.1)

	if s.Diagnostics().NonFiniteClamps == 0 {
		t.Fatal("expected clamped velocity components")
	}
	if s.ParticleCount() == 0 {
		t.Fatal("clamped particles should not be retired")
	}
	f := s.CurrentFrame()
	defer f.Release()
	for _, p := range f.Particles {
		if math.IsNaN(p.Velocity.X) || math.IsInf(p.Velocity.X, 0) || math.IsNaN(p.Position.X) {
			t.Fatalf("non-finite state leaked: %+v", p)
		}
	}
}

func TestEmissionUsesWorldMatrix(t *testing.T) {
	reg := emitter.NewRegistry()
	reg.Register(emitter.NewShape(testEmitter, emitter.KindPoint, 0))
	cfg := DefaultConfig()
	cfg.EmitterID = testEmitter
	cfg.SimulationRate = 0
	cfg.AirDrag = 0
	cfg.StartVelocity = gradient.ConstRange(1, 1)
	cfg.EmitDirection = r3.Vec{X: 1}
	cfg.World = mgl64.Translate3D(10, 0, 0).Mul4(mgl64.HomogRotate3DZ(math.Pi / 2))

	s := NewSystem(Context{Emitters: reg}, cfg)
	defer s.Close()
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.CalcNextFrame(0.1)

	f := s.CurrentFrame()
	defer f.Release()
	if f.Len() == 0 {
		t.Fatal("no particles emitted")
	}
	for _, p := range f.Particles {
		if r3.Norm(r3.Sub(p.Velocity, r3.Vec{Y: 1})) > 1e-9 {
			t.Errorf("velocity %v, want rotated direction (0, 1, 0)", p.Velocity)
		}
		if r3.Norm(r3.Sub(p.Position, r3.Vec{X: 10, Y: 0.1})) > 1e-9 {
			t.Errorf("position %v, want (10, 0.1, 0)", p.Position)
		}
	}
}

func TestSettersValidate(t *testing.T) {
	s, _ := newTestSystem(t, nil)

	checks := []struct {
		name string
		err  error
	}{
		{"capacity", s.SetMaxParticleCount(0)},
		{"period", s.SetPeriodTime(-1)},
		{"rate", s.SetSimulationRate(math.NaN())},
		{"drag", s.SetAirDrag(-1)},
		{"tiling", s.SetTextureTiling(0, 4)},
		{"torque", s.SetVortexTorque(1, 0)},
		{"range", s.SetVortexRange(2, 1)},
		{"vortex rate", s.SetVortexToParticleRate(2)},
		{"color", s.SetColorGradient(gradient.NewColor())},
		{"emission", s.SetEmissionGradient(nil)},
		{"lift", s.SetStartLiftGradient(gradient.NewRange())},
	}
	for _, c := range checks {
		var ice *InvalidConfigurationError
		if !errors.As(c.err, &ice) {
			t.Errorf("%s: err = %v, want InvalidConfigurationError", c.name, c.err)
		}
	}

	if err := s.SetTextureTiling(4, 2); err != nil {
		t.Fatal(err)
	}
	if c, r := s.TextureTiling(); c != 4 || r != 2 {
		t.Errorf("TextureTiling = %d, %d", c, r)
	}
	if err := s.SetVortexTorque(0.1, 0.2); err != nil {
		t.Fatal(err)
	}
	if lo, hi := s.VortexTorque(); lo != 0.1 || hi != 0.2 {
		t.Errorf("VortexTorque = %v, %v", lo, hi)
	}
}

func TestTilingIndexInRange(t *testing.T) {
	s, _ := newTestSystem(t, func(c *Config) {
		c.TextureColumns, c.TextureRows = 3, 2
		c.Emission = gradient.ConstScalar(100)
	})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	tick(s, 10, 0.1)

	f := s.CurrentFrame()
	defer f.Release()
	seen := map[int]bool{}
	for _, p := range f.Particles {
		if p.TilingIndex < 0 || p.TilingIndex >= 6 {
			t.Fatalf("tiling index %d outside [0, 6)", p.TilingIndex)
		}
		seen[p.TilingIndex] = true
	}
	if len(seen) < 2 {
		t.Errorf("tiling indices not randomized: %v", seen)
	}
}

func TestSetEmitterIDRejectsUnknown(t *testing.T) {
	s, reg := newTestSystem(t, nil)
	reg.Register(emitter.NewShape(2, emitter.KindPoint, 0))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	var ice *InvalidConfigurationError
	if err := s.SetEmitterID(99); !errors.As(err, &ice) || ice.Field != "emitter" {
		t.Fatalf("SetEmitterID(99) = %v, want emitter error", err)
	}
	if s.EmitterID() != testEmitter {
		t.Errorf("EmitterID = %d after rejected change, want %d", s.EmitterID(), testEmitter)
	}
	tick(s, 5, 0.1)
	if err := s.LastError(); err != nil {
		t.Errorf("LastError = %v after rejected change", err)
	}
	if !s.IsRunning() || s.Diagnostics().Spawned == 0 {
		t.Errorf("state = %v spawned = %d, want running and emitting", s.State(), s.Diagnostics().Spawned)
	}

	if err := s.SetEmitterID(2); err != nil {
		t.Fatalf("SetEmitterID(2) = %v", err)
	}
	tick(s, 1, 0.1)
	if s.EmitterID() != 2 || !s.IsRunning() {
		t.Errorf("EmitterID = %d state = %v, want 2 and running", s.EmitterID(), s.State())
	}
}

func TestNegativeSizesRejected(t *testing.T) {
	s, _ := newTestSystem(t, func(c *Config) { c.SizeScale = gradient.ConstScalar(-1) })
	var ice *InvalidConfigurationError
	if err := s.Start(); !errors.As(err, &ice) || ice.Field != "size_scale" {
		t.Fatalf("Start() = %v, want size_scale error", err)
	}

	s, _ = newTestSystem(t, func(c *Config) { c.StartSize = gradient.ConstRange(-0.2, 0.1) })
	if err := s.Start(); !errors.As(err, &ice) || ice.Field != "start_size" {
		t.Fatalf("Start() = %v, want start_size error", err)
	}

	s, _ = newTestSystem(t, nil)
	before := s.SizeScaleGradient()
	if err := s.SetSizeScaleGradient(gradient.ConstScalar(-0.5)); !errors.As(err, &ice) {
		t.Errorf("SetSizeScaleGradient(-0.5) = %v, want InvalidConfigurationError", err)
	}
	if s.SizeScaleGradient() != before {
		t.Error("rejected size scale gradient was stored")
	}
	if err := s.SetStartSizeGradient(gradient.ConstRange(0.1, -1)); !errors.As(err, &ice) {
		t.Errorf("SetStartSizeGradient = %v, want InvalidConfigurationError", err)
	}
}

func TestBoundsContainParticlesAfterFirstTick(t *testing.T) {
	s, _ := newTestSystem(t, func(c *Config) {
		c.Emission = gradient.ConstScalar(200)
		c.SizeScale = gradient.ConstScalar(0)
	})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.CalcNextFrame(0.1)

	f := s.CurrentFrame()
	defer f.Release()
	if f.Len() == 0 {
		t.Fatal("no particles after one tick")
	}
	if f.Box.Min.X > f.Box.Max.X || f.Box.Min.Y > f.Box.Max.Y || f.Box.Min.Z > f.Box.Max.Z {
		t.Fatalf("inverted box %+v", f.Box)
	}
	for _, p := range f.Particles {
		if !f.Box.Contains(p.Position) || !f.Sphere.Contains(p.Position) {
			t.Fatalf("bounds %+v / %+v miss particle at %v", f.Box, f.Sphere, p.Position)
		}
	}
}

func TestRestartAfterFinishNotifiesAgain(t *testing.T) {
	s, _ := newTestSystem(t, func(c *Config) {
		c.Loop = false
		c.PeriodTime = 0.2
		c.StartVisibleTime = gradient.ConstRange(0.2, 0.2)
	})

	var finished atomic.Int32
	s.OnFinished(func(*System) { finished.Add(1) })

	runToFinish := func(run int32) {
		t.Helper()
		if err := s.Start(); err != nil {
			t.Fatal(err)
		}
		if !s.IsRunning() {
			t.Fatalf("run %d: state = %v after Start, want running", run, s.State())
		}
		for i := 0; i < 40 && !s.IsFinished(); i++ {
			s.CalcNextFrame(0.05)
		}
		if !s.IsFinished() {
			t.Fatalf("run %d did not finish", run)
		}
		if got := finished.Load(); got != run {
			t.Errorf("after run %d finished fired %d times", run, got)
		}
	}

	runToFinish(1)
	tick(s, 5, 0.05)
	runToFinish(2)
}

func TestSimulationTimeConcurrentRead(t *testing.T) {
	s, _ := newTestSystem(t, func(c *Config) {
		c.PeriodTime = 100
		c.SimulationRate = 0
	})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	var stop atomic.Bool
	var backwards atomic.Int32
	wg.Add(1)
	go func() {
		defer wg.Done()
		last := 0.0
		for !stop.Load() {
			now := s.SimulationTime()
			if now < last {
				backwards.Add(1)
			}
			last = now
		}
	}()

	tick(s, 100, 0.01)
	stop.Store(true)
	wg.Wait()

	if backwards.Load() != 0 {
		t.Errorf("simulation time went backwards %d times", backwards.Load())
	}
	if got := s.SimulationTime(); math.Abs(got-1) > 1e-6 {
		t.Errorf("SimulationTime = %v, want 1", got)
	}
}
