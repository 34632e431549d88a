package gradient

import (
	"fmt"
	"sort"

	"github.com/tanema/gween/ease"
)

// Easing names accepted by SetEasing.
const (
	EaseLinear     = "linear"
	EaseInQuad     = "in_quad"
	EaseOutQuad    = "out_quad"
	EaseInOutQuad  = "in_out_quad"
	EaseInCubic    = "in_cubic"
	EaseOutCubic   = "out_cubic"
	EaseInOutCubic = "in_out_cubic"
	EaseInSine     = "in_sine"
	EaseOutSine    = "out_sine"
	EaseInOutSine  = "in_out_sine"
)

// Only monotonic curves that stay inside [0, 1] are offered, so eased
// gradients remain bracketed by their keys.
var easings = map[string]ease.TweenFunc{
	EaseLinear:     nil,
	EaseInQuad:     ease.InQuad,
	EaseOutQuad:    ease.OutQuad,
	EaseInOutQuad:  ease.InOutQuad,
	EaseInCubic:    ease.InCubic,
	EaseOutCubic:   ease.OutCubic,
	EaseInOutCubic: ease.InOutCubic,
	EaseInSine:     ease.InSine,
	EaseOutSine:    ease.OutSine,
	EaseInOutSine:  ease.InOutSine,
}

// SetEasing selects the curve applied between keys. An empty name means linear.
func (g *Gradient[T]) SetEasing(name string) error {
	if name == "" {
		name = EaseLinear
	}
	fn, ok := easings[name]
	if !ok {
		return fmt.Errorf("unknown easing %q", name)
	}
	g.easing = name
	g.easeFn = fn
	return nil
}

// Easing returns the name of the curve applied between keys.
func (g *Gradient[T]) Easing() string {
	return g.easing
}

// EasingNames lists the accepted easing names in sorted order.
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for n := range easings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
