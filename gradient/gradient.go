// Package gradient implements keyed curves that map a normalized time to a
// value by linear interpolation between the bracketing keys.
//
// Keys are kept sorted by time. Several keys may share a time; queries at or
// after that time see the one inserted last, which makes hard steps
// expressible. Outside the keyed range the nearest end key is returned.
package gradient

import (
	"sort"

	"github.com/tanema/gween/ease"
)

// Key is a single sample of a gradient.
type Key[T any] struct {
	Time  float64
	Value T
}

// LerpFunc blends a toward b by f in [0, 1].
type LerpFunc[T any] func(a, b T, f float64) T

// Gradient is an ordered list of keys with an interpolation rule.
// It is not safe for concurrent mutation.
type Gradient[T any] struct {
	keys   []Key[T]
	lerp   LerpFunc[T]
	easing string
	easeFn ease.TweenFunc
}

// New creates an empty gradient using lerp between keys.
func New[T any](lerp LerpFunc[T]) *Gradient[T] {
	return &Gradient[T]{lerp: lerp, easing: EaseLinear}
}

// upper returns the index of the first key with Time > t.
func (g *Gradient[T]) upper(t float64) int {
	return sort.Search(len(g.keys), func(i int) bool { return g.keys[i].Time > t })
}

// Insert adds a key, keeping keys ordered. A key whose time equals existing
// keys is placed after them.
func (g *Gradient[T]) Insert(t float64, v T) {
	i := g.upper(t)
	g.keys = append(g.keys, Key[T]{})
	copy(g.keys[i+1:], g.keys[i:])
	g.keys[i] = Key[T]{Time: t, Value: v}
}

// Set replaces the value of the last key at exactly t, or inserts a new key.
func (g *Gradient[T]) Set(t float64, v T) {
	i := g.upper(t)
	if i > 0 && g.keys[i-1].Time == t {
		g.keys[i-1].Value = v
		return
	}
	g.Insert(t, v)
}

// Remove deletes the key at index i. Out of range indices are ignored.
func (g *Gradient[T]) Remove(i int) {
	if i < 0 || i >= len(g.keys) {
		return
	}
	g.keys = append(g.keys[:i], g.keys[i+1:]...)
}

// Clear removes all keys.
func (g *Gradient[T]) Clear() {
	g.keys = g.keys[:0]
}

// Len returns the number of keys.
func (g *Gradient[T]) Len() int {
	return len(g.keys)
}

// Empty reports whether the gradient has no keys.
func (g *Gradient[T]) Empty() bool {
	return g == nil || len(g.keys) == 0
}

// Keys returns a copy of the keys in time order.
func (g *Gradient[T]) Keys() []Key[T] {
	out := make([]Key[T], len(g.keys))
	copy(out, g.keys)
	return out
}

// Evaluate returns the value at time t. An empty gradient yields the zero value.
func (g *Gradient[T]) Evaluate(t float64) T {
	var zero T
	n := len(g.keys)
	if n == 0 {
		return zero
	}

	i := g.upper(t)
	if i == 0 {
		return g.keys[0].Value
	}
	if i == n {
		return g.keys[n-1].Value
	}

	a, b := g.keys[i-1], g.keys[i]
	f := (t - a.Time) / (b.Time - a.Time)
	if g.easeFn != nil {
		f = float64(g.easeFn(float32(f), 0, 1, 1))
	}
	return g.lerp(a.Value, b.Value, f)
}

// Clone returns an independent copy sharing only the interpolation rule.
func (g *Gradient[T]) Clone() *Gradient[T] {
	c := *g
	c.keys = g.Keys()
	return &c
}
