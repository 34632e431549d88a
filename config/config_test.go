package config

import (
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/swirl/geom"
	"github.com/pthm-cable/swirl/particles"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Systems) != 1 || cfg.Systems[0].Name != "fountain" {
		t.Fatalf("systems = %+v", cfg.Systems)
	}
	s, ok := cfg.System("fountain")
	if !ok {
		t.Fatal("fountain not indexed")
	}
	if s.Gradients.SizeScale.Easing != "out_quad" {
		t.Errorf("size scale easing = %q", s.Gradients.SizeScale.Easing)
	}
	if cfg.ParentOf("nozzle") != "fountain" || cfg.ParentOf("fountain") != "stage" {
		t.Errorf("parents: nozzle=%q fountain=%q", cfg.ParentOf("nozzle"), cfg.ParentOf("fountain"))
	}

	pc, err := s.ToParticles()
	if err != nil {
		t.Fatalf("ToParticles: %v", err)
	}
	if err := pc.Validate(); err != nil {
		t.Errorf("default system invalid: %v", err)
	}
	if pc.Color.Len() != 4 {
		t.Errorf("color keys = %d, want 4", pc.Color.Len())
	}
	if got := pc.Emission.Evaluate(1); got != 300 {
		t.Errorf("emission = %v, want 300", got)
	}
}

func TestDefaultSystemMatchesParticleDefaults(t *testing.T) {
	pc, err := DefaultSystem().ToParticles()
	if err != nil {
		t.Fatal(err)
	}
	want := particles.DefaultConfig()
	if pc.MaxParticleCount != want.MaxParticleCount || pc.PeriodTime != want.PeriodTime || pc.Loop != want.Loop {
		t.Errorf("scalars differ: %+v", pc)
	}
	for _, f := range []float64{0, 0.05, 0.1, 0.5, 0.95, 1} {
		if pc.TorqueFactor.Evaluate(f) != want.TorqueFactor.Evaluate(f) {
			t.Errorf("torque factor at %v differs", f)
		}
		if pc.Color.Evaluate(f) != want.Color.Evaluate(f) {
			t.Errorf("color at %v differs", f)
		}
	}
	if pc.MaxLife() != want.MaxLife() {
		t.Errorf("max life %v, want %v", pc.MaxLife(), want.MaxLife())
	}
}

func TestSystemParticleRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []SystemConfig{DefaultSystem(), cfg.Systems[0]} {
		pc, err := s.ToParticles()
		if err != nil {
			t.Fatal(err)
		}
		back := FromParticles(pc)
		back.Name, back.Parent, back.Transform, back.Autostart = s.Name, s.Parent, s.Transform, s.Autostart
		back.Vorticity.Static = s.Vorticity.Static
		if !reflect.DeepEqual(back, s) {
			t.Errorf("round trip of %q lost data:\n got %+v\nwant %+v", s.Name, back, s)
		}
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	// A color that is not exactly representable in hex.
	cfg.Systems[0].Gradients.Color.Keys[1].Color = Color{R: 0.3, G: 0.7, B: 0.123, A: 0.9}

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load written: %v", err)
	}
	if !reflect.DeepEqual(back.Systems, cfg.Systems) {
		t.Errorf("systems differ after round trip:\n got %+v\nwant %+v", back.Systems, cfg.Systems)
	}
	if !reflect.DeepEqual(back.Emitters, cfg.Emitters) || !reflect.DeepEqual(back.Groups, cfg.Groups) {
		t.Error("scene nodes differ after round trip")
	}
	if back.Viewer != cfg.Viewer || back.Camera != cfg.Camera || back.Stream != cfg.Stream {
		t.Error("settings differ after round trip")
	}
}

func TestPartialSystemGetsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
emitters:
  - {id: 3, kind: sphere, size: 1}
systems:
  - {name: puff, emitter: 3, loop: false, max_particle_count: 40}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := cfg.Systems[0]
	if s.Loop || s.MaxParticleCount != 40 {
		t.Errorf("explicit fields not applied: loop=%v max=%d", s.Loop, s.MaxParticleCount)
	}
	def := DefaultSystem()
	if s.PeriodTime != def.PeriodTime || !reflect.DeepEqual(s.Gradients, def.Gradients) {
		t.Error("omitted fields did not take defaults")
	}
	if !s.Autostart || s.Transform.Scale != 1 {
		t.Errorf("autostart=%v scale=%v", s.Autostart, s.Transform.Scale)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown emitter", `
emitters: [{id: 1, kind: point}]
systems: [{name: a, emitter: 9}]`, "unknown emitter 9"},
		{"duplicate names", `
groups: [{name: a}]
emitters: [{id: 1, kind: point}]
systems: [{name: a, emitter: 1}]`, `"a" used 2 times`},
		{"unknown parent", `
emitters: [{id: 1, kind: point}]
systems: [{name: a, emitter: 1, parent: nowhere}]`, `unknown parent "nowhere"`},
		{"parent cycle", `
groups: [{name: x, parent: y}, {name: y, parent: x}]
emitters: [{id: 1, kind: point}]
systems: [{name: a, emitter: 1, parent: x}]`, "parent cycle"},
		{"bad kind", `
emitters: [{id: 1, kind: torus}]
systems: [{name: a, emitter: 1}]`, "torus"},
		{"inverted range", `
emitters: [{id: 1, kind: point}]
systems:
  - name: a
    emitter: 1
    gradients: {start_size: {keys: [{t: 0, min: 2, max: 1}]}}`, "start_size"},
		{"invalid system", `
emitters: [{id: 1, kind: point}]
systems: [{name: a, emitter: 1, period_time: -1}]`, "period_time"},
		{"bad easing", `
emitters: [{id: 1, kind: point}]
systems:
  - name: a
    emitter: 1
    gradients: {emission: {easing: bounce, keys: [{t: 0, v: 1}]}}`, "bounce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestColorYAML(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{`"#ff0000"`, Color{R: 1, A: 1}, false},
		{`"#00ff0080"`, Color{G: 1, A: 128.0 / 255}, false},
		{`[0.5, 0.5, 0.5]`, Color{R: 0.5, G: 0.5, B: 0.5, A: 1}, false},
		{`[1, 0, 0, 0.25]`, Color{R: 1, A: 0.25}, false},
		{`"#zz0000"`, Color{}, true},
		{`[1, 2]`, Color{}, true},
		{`{r: 1}`, Color{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var v struct {
				C Color `yaml:"c"`
			}
			err := yaml.Unmarshal([]byte("c: "+tt.in), &v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got := v.C
			if math.Abs(got.R-tt.want.R) > 1e-9 || math.Abs(got.G-tt.want.G) > 1e-9 ||
				math.Abs(got.B-tt.want.B) > 1e-9 || math.Abs(got.A-tt.want.A) > 1e-9 {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestColorMarshalForm(t *testing.T) {
	exact, _ := ParseHex("#336699cc")
	out, err := yaml.Marshal(struct {
		C Color `yaml:"c"`
	}{exact})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "#336699cc") {
		t.Errorf("exact color written as %q", out)
	}

	out, err = yaml.Marshal(struct {
		C Color `yaml:"c"`
	}{Color{R: 0.3, G: 0.2, B: 0.1, A: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "[0.3, 0.2, 0.1, 1]") {
		t.Errorf("inexact color written as %q", out)
	}
}

func TestEmitterBuild(t *testing.T) {
	mesh := EmitterConfig{ID: 4, Kind: "mesh", Triangles: [][3]Vec3{
		{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}},
		{{1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	}}
	s, err := mesh.Build()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s.TotalArea()-1) > 1e-12 {
		t.Errorf("area = %v, want 1", s.TotalArea())
	}

	if _, err := (EmitterConfig{ID: 5, Kind: "disc", Triangles: mesh.Triangles}).Build(); err == nil {
		t.Error("triangles on a primitive should be rejected")
	}
}

func TestTransformMatrix(t *testing.T) {
	tr := TransformConfig{Translate: Vec3{1, 2, 3}, Rotate: Vec3{0, 90, 0}, Scale: 1}
	got := geom.TransformPoint(tr.Matrix(), r3.Vec{X: 1})
	want := r3.Vec{X: 1, Y: 2, Z: 2}
	if r3.Norm(r3.Sub(got, want)) > 1e-9 {
		t.Errorf("point = %v, want %v", got, want)
	}
}
