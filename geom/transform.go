package geom

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"
)

// Identity returns the identity world matrix.
func Identity() mgl64.Mat4 {
	return mgl64.Ident4()
}

// TransformPoint applies m to a position (w = 1).
func TransformPoint(m mgl64.Mat4, p r3.Vec) r3.Vec {
	v := m.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	if v[3] != 0 && v[3] != 1 {
		return r3.Vec{X: v[0] / v[3], Y: v[1] / v[3], Z: v[2] / v[3]}
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// TransformDirection applies the linear part of m to a direction (w = 0).
// Translation is ignored and the result is not normalized.
func TransformDirection(m mgl64.Mat4, d r3.Vec) r3.Vec {
	v := m.Mul4x1(mgl64.Vec4{d.X, d.Y, d.Z, 0})
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// Translation returns the translation column of m.
func Translation(m mgl64.Mat4) r3.Vec {
	c := m.Col(3)
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}
}

// Compose builds a world matrix from translation, Euler rotation (radians,
// applied Y then X then Z) and uniform scale.
func Compose(translate, rotate r3.Vec, scale float64) mgl64.Mat4 {
	if scale == 0 {
		scale = 1
	}
	t := mgl64.Translate3D(translate.X, translate.Y, translate.Z)
	r := mgl64.HomogRotate3DY(rotate.Y).Mul4(mgl64.HomogRotate3DX(rotate.X)).Mul4(mgl64.HomogRotate3DZ(rotate.Z))
	s := mgl64.Scale3D(scale, scale, scale)
	return t.Mul4(r).Mul4(s)
}

// Unit returns the normalized vector, or fallback when v has zero length.
func Unit(v, fallback r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return fallback
	}
	return r3.Scale(1/n, v)
}
