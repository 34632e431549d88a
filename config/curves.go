package config

import (
	"fmt"

	"github.com/pthm-cable/swirl/gradient"
)

// ScalarKey is one key of a scalar curve.
type ScalarKey struct {
	T float64 `yaml:"t"`
	V float64 `yaml:"v"`
}

// RangeKey is one key of a min/max curve.
type RangeKey struct {
	T   float64 `yaml:"t"`
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// ColorKey is one key of a color curve.
type ColorKey struct {
	T     float64 `yaml:"t"`
	Color Color   `yaml:"color"`
}

// ScalarCurve is the YAML form of a scalar gradient. Keys keep their file
// order among equal times.
type ScalarCurve struct {
	Easing string      `yaml:"easing,omitempty"`
	Keys   []ScalarKey `yaml:"keys,flow"`
}

// RangeCurve is the YAML form of a min/max gradient.
type RangeCurve struct {
	Easing string     `yaml:"easing,omitempty"`
	Keys   []RangeKey `yaml:"keys,flow"`
}

// ColorCurve is the YAML form of a color gradient.
type ColorCurve struct {
	Easing string     `yaml:"easing,omitempty"`
	Keys   []ColorKey `yaml:"keys"`
}

func easingName(name string) string {
	if name == gradient.EaseLinear {
		return ""
	}
	return name
}

// Build creates the gradient.
func (c ScalarCurve) Build() (*gradient.Scalar, error) {
	g := gradient.NewScalar()
	if err := g.SetEasing(c.Easing); err != nil {
		return nil, err
	}
	for _, k := range c.Keys {
		g.Insert(k.T, k.V)
	}
	return g, nil
}

// Build creates the gradient.
func (c RangeCurve) Build() (*gradient.Range, error) {
	g := gradient.NewRange()
	if err := g.SetEasing(c.Easing); err != nil {
		return nil, err
	}
	for _, k := range c.Keys {
		if k.Min > k.Max {
			return nil, fmt.Errorf("key at t=%g: min %g exceeds max %g", k.T, k.Min, k.Max)
		}
		g.Insert(k.T, gradient.MinMax{Min: k.Min, Max: k.Max})
	}
	return g, nil
}

// Build creates the gradient.
func (c ColorCurve) Build() (*gradient.Color, error) {
	g := gradient.NewColor()
	if err := g.SetEasing(c.Easing); err != nil {
		return nil, err
	}
	for _, k := range c.Keys {
		g.Insert(k.T, k.Color.RGBA())
	}
	return g, nil
}

func scalarCurve(g *gradient.Scalar) ScalarCurve {
	if g == nil {
		return ScalarCurve{}
	}
	c := ScalarCurve{Easing: easingName(g.Easing())}
	for _, k := range g.Keys() {
		c.Keys = append(c.Keys, ScalarKey{T: k.Time, V: k.Value})
	}
	return c
}

func rangeCurve(g *gradient.Range) RangeCurve {
	if g == nil {
		return RangeCurve{}
	}
	c := RangeCurve{Easing: easingName(g.Easing())}
	for _, k := range g.Keys() {
		c.Keys = append(c.Keys, RangeKey{T: k.Time, Min: k.Value.Min, Max: k.Value.Max})
	}
	return c
}

func colorCurve(g *gradient.Color) ColorCurve {
	if g == nil {
		return ColorCurve{}
	}
	c := ColorCurve{Easing: easingName(g.Easing())}
	for _, k := range g.Keys() {
		c.Keys = append(c.Keys, ColorKey{T: k.Time, Color: Color(k.Value)})
	}
	return c
}
