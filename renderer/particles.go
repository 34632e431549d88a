// Package renderer draws published particle frames with raylib.
package renderer

import (
	"math"
	"slices"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/swirl/particles"
	"github.com/pthm-cable/swirl/scene"
)

// ParticleRenderer draws each particle as a camera-facing billboard, far
// to near. Up to three texture layers are stacked; the second and third
// turn at their configured rate in radians per second.
type ParticleRenderer struct {
	textures *TextureCache
	order    []sortKey
}

type sortKey struct {
	dist float64
	idx  int
}

// NewParticleRenderer creates a new particle renderer.
func NewParticleRenderer(textures *TextureCache) *ParticleRenderer {
	return &ParticleRenderer{textures: textures}
}

// Draw renders the current frame of one system. It must be called between
// rl.BeginMode3D and rl.EndMode3D. It returns the number of particles drawn.
func (r *ParticleRenderer) Draw(cam rl.Camera3D, v scene.SystemView) int {
	f := v.System.CurrentFrame()
	defer f.Release()
	if f.Len() == 0 {
		return 0
	}

	eye := r3.Vec{X: float64(cam.Position.X), Y: float64(cam.Position.Y), Z: float64(cam.Position.Z)}
	r.order = r.order[:0]
	for i := range f.Particles {
		d := r3.Norm2(r3.Sub(f.Particles[i].Position, eye))
		r.order = append(r.order, sortKey{dist: d, idx: i})
	}
	slices.SortFunc(r.order, func(a, b sortKey) int {
		switch {
		case a.dist > b.dist:
			return -1
		case a.dist < b.dist:
			return 1
		}
		return 0
	})

	ids := v.System.Textures()
	cols, rows := v.System.TextureTiling()
	spin := [3]float64{0, v.System.SecondTextureRotation(), v.System.ThirdTextureRotation()}

	rl.BeginBlendMode(rl.BlendAlpha)
	for layer, id := range ids {
		if id == "" && layer > 0 {
			continue
		}
		tex := r.textures.Get(id)
		turn := spin[layer] * f.SimTime
		for _, k := range r.order {
			r.drawParticle(cam, tex, &f.Particles[k.idx], cols, rows, turn)
		}
	}
	rl.EndBlendMode()
	return f.Len()
}

func (r *ParticleRenderer) drawParticle(cam rl.Camera3D, tex rl.Texture2D, p *particles.Particle, cols, rows int, turn float64) {
	size := float32(2 * p.CurrentSize())
	if size <= 0 {
		return
	}
	src := TileRect(float32(tex.Width), float32(tex.Height), cols, rows, p.TilingIndex)
	rot := float32((p.Orientation + turn) * 180 / math.Pi)
	rl.DrawBillboardPro(cam, tex, src, vec3(p.Position), rl.NewVector3(0, 1, 0),
		rl.NewVector2(size, size), rl.NewVector2(size/2, size/2), rot, rgba(p.Color))
}

// TileRect returns the source rectangle of tile index in a cols×rows atlas.
func TileRect(width, height float32, cols, rows, index int) rl.Rectangle {
	cols, rows = max(cols, 1), max(rows, 1)
	index = ((index % (cols * rows)) + cols*rows) % (cols * rows)
	tw, th := width/float32(cols), height/float32(rows)
	return rl.NewRectangle(float32(index%cols)*tw, float32(index/cols)*th, tw, th)
}
