// Package emitter provides the spawn shapes particles are born on.
//
// A Mesh shape samples points uniformly by area over its triangles. The
// primitive kinds (point, circle, disc, square, cube, sphere) are sized by a
// single radius or half extent and need no triangles.
package emitter

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/swirl/geom"
)

// ID identifies a shape in a Registry.
type ID uint64

// Kind selects the sampling rule of a Shape.
type Kind uint8

const (
	KindMesh Kind = iota
	KindPoint
	KindCircle
	KindDisc
	KindSquare
	KindCube
	KindSphere
)

var kindNames = [...]string{"mesh", "point", "circle", "disc", "square", "cube", "sphere"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ParseKind maps a name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown emitter kind %q", s)
}

var up = r3.Vec{Y: 1}

// Triangle is one face of a mesh shape.
type Triangle struct {
	A, B, C r3.Vec
}

// Area returns the triangle's surface area.
func (t Triangle) Area() float64 {
	return 0.5 * r3.Norm(r3.Cross(r3.Sub(t.B, t.A), r3.Sub(t.C, t.A)))
}

// Normal returns the unit face normal following the A, B, C winding.
// Degenerate triangles report +Y.
func (t Triangle) Normal() r3.Vec {
	return geom.Unit(r3.Cross(r3.Sub(t.B, t.A), r3.Sub(t.C, t.A)), up)
}

// Shape is an emitter. Edits are not safe while a system samples it.
type Shape struct {
	ID   ID
	Kind Kind
	// Size is the radius (circle, disc, sphere) or half extent (square, cube).
	Size float64

	matrix    mgl64.Mat4
	triangles []Triangle
	cumArea   []float64
	totalArea float64
	dirty     bool
}

// NewShape creates a shape of the given kind with an identity transform.
func NewShape(id ID, kind Kind, size float64) *Shape {
	return &Shape{ID: id, Kind: kind, Size: size, matrix: mgl64.Ident4()}
}

// NewMesh creates a mesh shape from triangles and finalizes it.
func NewMesh(id ID, tris ...Triangle) *Shape {
	s := NewShape(id, KindMesh, 0)
	for _, t := range tris {
		s.AddTriangle(t.A, t.B, t.C)
	}
	s.Finalize()
	return s
}

// SetMatrix sets the shape's transform relative to the particle system.
func (s *Shape) SetMatrix(m mgl64.Mat4) {
	s.matrix = m
}

// Matrix returns the shape's transform.
func (s *Shape) Matrix() mgl64.Mat4 {
	return s.matrix
}

// AddTriangle appends a face. Call Finalize before sampling again.
func (s *Shape) AddTriangle(a, b, c r3.Vec) {
	s.triangles = append(s.triangles, Triangle{A: a, B: b, C: c})
	s.dirty = true
}

// Clear removes all faces.
func (s *Shape) Clear() {
	s.triangles = s.triangles[:0]
	s.dirty = true
}

// Triangles returns a copy of the faces.
func (s *Shape) Triangles() []Triangle {
	out := make([]Triangle, len(s.triangles))
	copy(out, s.triangles)
	return out
}

// Finalize rebuilds the cumulative area table used for sampling.
func (s *Shape) Finalize() {
	if cap(s.cumArea) < len(s.triangles) {
		s.cumArea = make([]float64, len(s.triangles))
	}
	s.cumArea = s.cumArea[:len(s.triangles)]

	total := 0.0
	for i, t := range s.triangles {
		total += t.Area()
		s.cumArea[i] = total
	}
	s.totalArea = total
	s.dirty = false
}

// Dirty reports whether faces changed since the last Finalize.
func (s *Shape) Dirty() bool {
	return s.Kind == KindMesh && s.dirty
}

// TotalArea returns the summed face area as of the last Finalize.
func (s *Shape) TotalArea() float64 {
	return s.totalArea
}

// Sample draws a spawn position and the direction a particle would be
// emitted along when oriented by the shape.
func (s *Shape) Sample(rng *rand.Rand) (pos, normal r3.Vec, err error) {
	switch s.Kind {
	case KindMesh:
		pos, normal, err = s.sampleMesh(rng)
	case KindPoint:
		normal = randomUnit(rng)
	case KindCircle:
		a := rng.Float64() * 2 * math.Pi
		pos = r3.Vec{X: s.Size * math.Cos(a), Z: s.Size * math.Sin(a)}
		normal = up
	case KindDisc:
		a := rng.Float64() * 2 * math.Pi
		d := s.Size * math.Sqrt(rng.Float64())
		pos = r3.Vec{X: d * math.Cos(a), Z: d * math.Sin(a)}
		normal = up
	case KindSquare:
		pos = r3.Vec{X: s.Size * (2*rng.Float64() - 1), Z: s.Size * (2*rng.Float64() - 1)}
		normal = up
	case KindCube:
		pos = r3.Vec{
			X: s.Size * (2*rng.Float64() - 1),
			Y: s.Size * (2*rng.Float64() - 1),
			Z: s.Size * (2*rng.Float64() - 1),
		}
		normal = geom.Unit(pos, up)
	case KindSphere:
		pos = r3.Scale(s.Size, randomInBall(rng))
		normal = geom.Unit(pos, up)
	default:
		return pos, normal, fmt.Errorf("emitter %d: %v", s.ID, s.Kind)
	}
	if err != nil {
		return pos, normal, err
	}
	return geom.TransformPoint(s.matrix, pos), geom.Unit(geom.TransformDirection(s.matrix, normal), up), nil
}

func (s *Shape) sampleMesh(rng *rand.Rand) (pos, normal r3.Vec, err error) {
	if s.dirty {
		return pos, normal, ErrNotFinalized
	}
	if len(s.triangles) == 0 || !(s.totalArea > 0) {
		return pos, normal, &EmptyEmitterError{ID: s.ID}
	}

	// First triangle whose cumulative area exceeds the target; zero-area
	// faces share a cumulative value with their predecessor and are skipped.
	target := rng.Float64() * s.totalArea
	i := sort.SearchFloat64s(s.cumArea, target)
	for i < len(s.cumArea)-1 && s.cumArea[i] <= target {
		i++
	}
	t := s.triangles[i]

	u, v := rng.Float64(), rng.Float64()
	if u+v > 1 {
		u, v = 1-u, 1-v
	}
	pos = r3.Add(t.A, r3.Add(r3.Scale(u, r3.Sub(t.B, t.A)), r3.Scale(v, r3.Sub(t.C, t.A))))
	return pos, t.Normal(), nil
}

func randomInBall(rng *rand.Rand) r3.Vec {
	for {
		p := r3.Vec{X: 2*rng.Float64() - 1, Y: 2*rng.Float64() - 1, Z: 2*rng.Float64() - 1}
		if r3.Norm2(p) <= 1 {
			return p
		}
	}
}

func randomUnit(rng *rand.Rand) r3.Vec {
	for {
		p := randomInBall(rng)
		if n := r3.Norm(p); n > 1e-6 {
			return r3.Scale(1/n, p)
		}
	}
}
