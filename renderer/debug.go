package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/swirl/geom"
	"github.com/pthm-cable/swirl/scene"
)

// DebugRenderer draws helper geometry: the ground grid, bounding volumes,
// vortex axes and system origins.
type DebugRenderer struct {
	ShowBounds   bool
	ShowVortices bool
}

// DrawGrid draws the ground plane grid.
func (d *DebugRenderer) DrawGrid() {
	rl.DrawGrid(20, 1)
}

// Draw renders the helpers of one system. Call inside 3D mode.
func (d *DebugRenderer) Draw(v scene.SystemView) {
	origin := geom.Translation(v.World)
	rl.DrawSphere(vec3(origin), 0.05, rl.Orange)

	if d.ShowBounds {
		box := v.System.BoundingBox()
		if box.Valid {
			rl.DrawBoundingBox(rl.NewBoundingBox(vec3(box.Min), vec3(box.Max)), rl.Fade(rl.SkyBlue, 0.6))
			s := v.System.BoundingSphere()
			rl.DrawSphereWires(vec3(s.Center), float32(s.Radius), 8, 12, rl.Fade(rl.SkyBlue, 0.25))
		}
	}

	if d.ShowVortices {
		for _, vx := range v.System.Vortices() {
			tip := r3.Add(vx.Position, r3.Scale(vx.CheckRange, vx.Axis))
			tail := r3.Sub(vx.Position, r3.Scale(vx.CheckRange, vx.Axis))
			c := rl.Magenta
			if vx.Torque < 0 {
				c = rl.Lime
			}
			rl.DrawLine3D(vec3(tail), vec3(tip), c)
			rl.DrawCircle3D(vec3(vx.Position), float32(vx.CheckRange), rl.NewVector3(1, 0, 0), 90, rl.Fade(c, 0.3))
		}
	}
}
