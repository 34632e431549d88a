package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/swirl/gradient"
)

// Color is an RGBA color that reads either "#rrggbb", "#rrggbbaa" or a
// list of three or four floats. It is written as hex when that is exact
// and as a list otherwise.
type Color gradient.RGBA

// ParseHex parses "#rgb", "#rrggbb" or "#rrggbbaa".
func ParseHex(s string) (Color, error) {
	s = strings.TrimSpace(s)
	alpha := 1.0
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("color %q: bad alpha: %w", s, err)
		}
		alpha = float64(a) / 255
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{R: c.R, G: c.G, B: c.B, A: alpha}, nil
}

// Hex formats the color as "#rrggbbaa".
func (c Color) Hex() string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex() + fmt.Sprintf("%02x", uint8(clamp01(c.A)*255+0.5))
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

// exactHex reports whether Hex parses back to exactly c.
func (c Color) exactHex() bool {
	back, err := ParseHex(c.Hex())
	return err == nil && back == c
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Color) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		parsed, err := ParseHex(n.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*c = parsed
		return nil
	case yaml.SequenceNode:
		var v []float64
		if err := n.Decode(&v); err != nil {
			return err
		}
		switch len(v) {
		case 3:
			*c = Color{R: v[0], G: v[1], B: v[2], A: 1}
		case 4:
			*c = Color{R: v[0], G: v[1], B: v[2], A: v[3]}
		default:
			return fmt.Errorf("line %d: color needs 3 or 4 components, got %d", n.Line, len(v))
		}
		return nil
	}
	return fmt.Errorf("line %d: color must be a hex string or a list", n.Line)
}

// MarshalYAML implements yaml.Marshaler.
func (c Color) MarshalYAML() (any, error) {
	if c.exactHex() {
		return c.Hex(), nil
	}
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range []float64{c.R, c.G, c.B, c.A} {
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(v, 'g', -1, 64)})
	}
	return n, nil
}

// RGBA converts to the gradient value type.
func (c Color) RGBA() gradient.RGBA { return gradient.RGBA(c) }
