package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestBoxExtendAndContains(t *testing.T) {
	var b Box
	if b.Contains(r3.Vec{}) {
		t.Fatal("empty box should contain nothing")
	}

	pts := []r3.Vec{{X: 1, Y: 2, Z: 3}, {X: -4, Y: 0, Z: 1}, {X: 2, Y: -1, Z: -5}}
	for _, p := range pts {
		b.ExtendCube(p, 0.5)
	}
	for _, p := range pts {
		if !b.ContainsCube(p, 0.5) {
			t.Errorf("box %v does not contain %v +/- 0.5", b, p)
		}
	}

	want := Box{Min: r3.Vec{X: -4.5, Y: -1.5, Z: -5.5}, Max: r3.Vec{X: 2.5, Y: 2.5, Z: 3.5}, Valid: true}
	if b != want {
		t.Errorf("box = %v, want %v", b, want)
	}
}

func TestBoxMerge(t *testing.T) {
	a := Box{Min: r3.Vec{X: 0}, Max: r3.Vec{X: 1, Y: 1, Z: 1}, Valid: true}
	b := Box{Min: r3.Vec{X: -1, Y: -1, Z: -1}, Max: r3.Vec{X: 0.5}, Valid: true}

	tests := []struct {
		name string
		x, y Box
		want Box
	}{
		{"both", a, b, Box{Min: r3.Vec{X: -1, Y: -1, Z: -1}, Max: r3.Vec{X: 1, Y: 1, Z: 1}, Valid: true}},
		{"left empty", Box{}, a, a},
		{"right empty", a, Box{}, a},
		{"both empty", Box{}, Box{}, Box{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.x.Merge(tt.y); got != tt.want {
				t.Errorf("Merge = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransform(t *testing.T) {
	m := Compose(r3.Vec{X: 10, Y: 0, Z: 0}, r3.Vec{Z: math.Pi / 2}, 2)

	p := TransformPoint(m, r3.Vec{X: 1})
	want := r3.Vec{X: 10, Y: 2, Z: 0}
	if r3.Norm(r3.Sub(p, want)) > 1e-9 {
		t.Errorf("TransformPoint = %v, want %v", p, want)
	}

	d := TransformDirection(m, r3.Vec{X: 1})
	wantDir := r3.Vec{Y: 2}
	if r3.Norm(r3.Sub(d, wantDir)) > 1e-9 {
		t.Errorf("TransformDirection = %v, want %v", d, wantDir)
	}

	if got := Translation(m); got != (r3.Vec{X: 10}) {
		t.Errorf("Translation = %v", got)
	}

	if got := TransformPoint(mgl64.Ident4(), r3.Vec{X: 1, Y: 2, Z: 3}); got != (r3.Vec{X: 1, Y: 2, Z: 3}) {
		t.Errorf("identity moved point to %v", got)
	}
}

func TestUnitFallback(t *testing.T) {
	up := r3.Vec{Y: 1}
	if got := Unit(r3.Vec{}, up); got != up {
		t.Errorf("Unit(zero) = %v, want fallback", got)
	}
	if got := Unit(r3.Vec{X: 3, Y: 4}, up); math.Abs(r3.Norm(got)-1) > 1e-12 {
		t.Errorf("Unit length = %v", r3.Norm(got))
	}
}

func TestExtendCubeNegativeExtent(t *testing.T) {
	var b Box
	p := r3.Vec{X: 1, Y: 2, Z: 3}
	b.ExtendCube(p, -0.5)
	if b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z {
		t.Fatalf("inverted box %+v", b)
	}
	if !b.ContainsCube(p, 0.5) {
		t.Errorf("box %+v does not contain %v +/- 0.5", b, p)
	}
	b.ExtendCube(r3.Vec{X: -1}, -1)
	if !b.Contains(p) || !b.Contains(r3.Vec{X: -2}) {
		t.Errorf("box %+v lost a point after a second negative extent", b)
	}
}
