package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/swirl/camera"
)

// Camera3D converts the orbit camera for raylib's 3D mode.
func Camera3D(c *camera.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   vec3(c.Eye()),
		Target:     vec3(c.Target),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       float32(c.FOV),
		Projection: rl.CameraPerspective,
	}
}

func vec3(v r3.Vec) rl.Vector3 {
	return rl.NewVector3(float32(v.X), float32(v.Y), float32(v.Z))
}
