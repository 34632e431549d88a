// Package config loads the scene description: emitters, groups and
// particle systems plus the viewer, telemetry and stream settings.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds the full scene and runtime configuration.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Viewer     ViewerConfig     `yaml:"viewer"`
	Camera     CameraConfig     `yaml:"camera"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Stream     StreamConfig     `yaml:"stream"`

	Textures []TextureConfig `yaml:"textures"`
	Groups   []GroupConfig   `yaml:"groups"`
	Emitters []EmitterConfig `yaml:"emitters"`
	Systems  []SystemConfig  `yaml:"systems"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds driver parameters.
type SimulationConfig struct {
	DT        float64 `yaml:"dt"`         // headless tick length in seconds
	Duration  float64 `yaml:"duration"`   // headless run length; 0 runs until every system finishes
	TimeScale float64 `yaml:"time_scale"` // multiplies wall-clock dt in graphics mode
}

// ViewerConfig holds display settings.
type ViewerConfig struct {
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	TargetFPS    int    `yaml:"target_fps"`
	Title        string `yaml:"title"`
	Background   Color  `yaml:"background"`
	ShowBounds   bool   `yaml:"show_bounds"`
	ShowVortices bool   `yaml:"show_vortices"`
	ShowPanel    bool   `yaml:"show_panel"`
}

// CameraConfig holds the orbit camera. Angles are in degrees.
type CameraConfig struct {
	Target     Vec3    `yaml:"target,flow"`
	Distance   float64 `yaml:"distance"`
	Yaw        float64 `yaml:"yaw"`
	Pitch      float64 `yaml:"pitch"`
	FOV        float64 `yaml:"fov"`
	OrbitSpeed float64 `yaml:"orbit_speed"` // degrees per second of automatic yaw
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	BookmarkHistorySize int     `yaml:"bookmark_history_size"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	SnapshotOnBookmark  bool    `yaml:"snapshot_on_bookmark"`
}

// StreamConfig holds the websocket frame stream settings.
type StreamConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Addr         string  `yaml:"addr"`
	Interval     float64 `yaml:"interval"` // seconds between broadcasts
	Compress     bool    `yaml:"compress"`
	MaxParticles int     `yaml:"max_particles"` // per system and frame; 0 sends all
}

// TextureConfig declares a texture the systems may reference.
type TextureConfig struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
}

// DerivedConfig holds lookups built after loading.
type DerivedConfig struct {
	Nodes map[string]NodeRef // every named group, emitter and system
}

// NodeKind tags a named node.
type NodeKind uint8

const (
	NodeGroup NodeKind = iota
	NodeEmitter
	NodeSystem
)

// NodeRef locates a named node within its list.
type NodeRef struct {
	Kind  NodeKind
	Index int
}

// Load reads configuration from a YAML file over the embedded defaults.
// If path is empty, only the defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only fields present in the file are overwritten; lists are replaced.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse is Load for in-memory YAML layered over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.computeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived fills defaults that depend on other fields and builds
// the name index.
func (c *Config) computeDerived() {
	if c.Simulation.TimeScale == 0 {
		c.Simulation.TimeScale = 1
	}

	// Emitters without an ID get the next free one.
	var next uint64
	for _, e := range c.Emitters {
		next = max(next, e.ID)
	}
	for i := range c.Emitters {
		if c.Emitters[i].ID == 0 {
			next++
			c.Emitters[i].ID = next
		}
		if c.Emitters[i].Transform.Scale == 0 {
			c.Emitters[i].Transform.Scale = 1
		}
	}
	for i := range c.Systems {
		if c.Systems[i].Name == "" {
			c.Systems[i].Name = fmt.Sprintf("system-%d", i)
		}
	}
	for i := range c.Groups {
		if c.Groups[i].Transform.Scale == 0 {
			c.Groups[i].Transform.Scale = 1
		}
	}

	c.Derived.Nodes = make(map[string]NodeRef)
	for i, g := range c.Groups {
		c.Derived.Nodes[g.Name] = NodeRef{NodeGroup, i}
	}
	for i, e := range c.Emitters {
		if e.Name != "" {
			c.Derived.Nodes[e.Name] = NodeRef{NodeEmitter, i}
		}
	}
	for i, s := range c.Systems {
		c.Derived.Nodes[s.Name] = NodeRef{NodeSystem, i}
	}
}

// Validate checks cross references between nodes.
func (c *Config) Validate() error {
	var errs []error
	names := make(map[string]int)
	for _, g := range c.Groups {
		names[g.Name]++
	}
	for _, e := range c.Emitters {
		if e.Name != "" {
			names[e.Name]++
		}
	}
	for _, s := range c.Systems {
		names[s.Name]++
	}
	for name, n := range names {
		if name == "" {
			errs = append(errs, errors.New("group without a name"))
		} else if n > 1 {
			errs = append(errs, fmt.Errorf("node name %q used %d times", name, n))
		}
	}

	ids := make(map[uint64]bool)
	for _, e := range c.Emitters {
		if ids[e.ID] {
			errs = append(errs, fmt.Errorf("emitter id %d used twice", e.ID))
		}
		ids[e.ID] = true
		if _, err := e.Build(); err != nil {
			errs = append(errs, err)
		}
		errs = append(errs, c.checkParent("emitter "+fmt.Sprint(e.ID), e.Parent))
	}
	for _, g := range c.Groups {
		errs = append(errs, c.checkParent("group "+g.Name, g.Parent))
	}
	for _, s := range c.Systems {
		if !ids[s.Emitter] {
			errs = append(errs, fmt.Errorf("system %q: unknown emitter %d", s.Name, s.Emitter))
		}
		errs = append(errs, c.checkParent("system "+s.Name, s.Parent))
		pc, err := s.ToParticles()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := pc.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("system %q: %w", s.Name, err))
		}
	}
	errs = append(errs, c.checkCycles())
	return errors.Join(errs...)
}

func (c *Config) checkParent(who, parent string) error {
	if parent == "" {
		return nil
	}
	ref, ok := c.Derived.Nodes[parent]
	if !ok {
		return fmt.Errorf("%s: unknown parent %q", who, parent)
	}
	if ref.Kind == NodeEmitter {
		return fmt.Errorf("%s: parent %q is an emitter", who, parent)
	}
	return nil
}

// checkCycles walks every parent chain.
func (c *Config) checkCycles() error {
	for name := range c.Derived.Nodes {
		seen := []string{name}
		for p := c.ParentOf(name); p != ""; p = c.ParentOf(p) {
			if slices.Contains(seen, p) {
				return fmt.Errorf("parent cycle through %q", p)
			}
			seen = append(seen, p)
		}
	}
	return nil
}

// ParentOf returns the parent name of a named node.
func (c *Config) ParentOf(name string) string {
	ref, ok := c.Derived.Nodes[name]
	if !ok {
		return ""
	}
	switch ref.Kind {
	case NodeGroup:
		return c.Groups[ref.Index].Parent
	case NodeEmitter:
		return c.Emitters[ref.Index].Parent
	default:
		return c.Systems[ref.Index].Parent
	}
}

// System returns the named system config.
func (c *Config) System(name string) (*SystemConfig, bool) {
	ref, ok := c.Derived.Nodes[name]
	if !ok || ref.Kind != NodeSystem {
		return nil, false
	}
	return &c.Systems[ref.Index], true
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
