// Package main provides CMA-ES optimization of a particle system's
// capacity parameters.
package main

import (
	"fmt"

	"github.com/pthm-cable/swirl/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters of one system.
type ParamVector struct {
	System string
	Specs  []ParamSpec
}

// Parameter order; ApplyToConfig follows it.
const (
	paramEmissionScale = iota
	paramLifeScale
	paramMaxParticles
	paramAirDrag
)

// NewParamVector creates the standard parameters, with defaults taken from
// the named system of cfg.
func NewParamVector(cfg *config.Config, system string) (*ParamVector, error) {
	sc, ok := cfg.System(system)
	if !ok {
		return nil, fmt.Errorf("unknown system %q", system)
	}
	pv := &ParamVector{
		System: system,
		Specs: []ParamSpec{
			{Name: "emission_scale", Path: "gradients.emission (factor)", Min: 0.2, Max: 4, Default: 1},
			{Name: "life_scale", Path: "gradients.start_visible_time (factor)", Min: 0.2, Max: 4, Default: 1},
			{Name: "max_particles", Path: "max_particle_count", Min: 50, Max: 20000},
			{Name: "air_drag", Path: "air_drag", Min: 0, Max: 3},
		},
	}
	pv.Specs[paramMaxParticles].Default = float64(sc.MaxParticleCount)
	pv.Specs[paramAirDrag].Default = sc.AirDrag
	for i := range pv.Specs {
		s := &pv.Specs[i]
		s.Default = min(max(s.Default, s.Min), s.Max)
	}
	return pv, nil
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to the system in cfg. The curve
// factors multiply the keys already there, so cfg must be a fresh copy.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	s, ok := cfg.System(pv.System)
	if !ok {
		return fmt.Errorf("unknown system %q", pv.System)
	}
	clamped := pv.Clamp(values)

	emission := make([]config.ScalarKey, len(s.Gradients.Emission.Keys))
	for i, k := range s.Gradients.Emission.Keys {
		emission[i] = config.ScalarKey{T: k.T, V: k.V * clamped[paramEmissionScale]}
	}
	s.Gradients.Emission.Keys = emission

	life := make([]config.RangeKey, len(s.Gradients.StartVisibleTime.Keys))
	for i, k := range s.Gradients.StartVisibleTime.Keys {
		f := clamped[paramLifeScale]
		life[i] = config.RangeKey{T: k.T, Min: k.Min * f, Max: k.Max * f}
	}
	s.Gradients.StartVisibleTime.Keys = life

	s.MaxParticleCount = int(clamped[paramMaxParticles])
	s.AirDrag = clamped[paramAirDrag]
	return nil
}
