// Package camera provides an orbit camera and its screen projection.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	near     = 0.05
	far      = 1000
	maxPitch = 89
)

// Camera orbits a target point. Angles are in degrees, Y is up.
type Camera struct {
	Target   r3.Vec
	Distance float64
	Yaw      float64
	Pitch    float64
	FOV      float64 // vertical field of view

	// OrbitSpeed turns the camera automatically, in degrees per second.
	OrbitSpeed float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float64

	MinDistance, MaxDistance float64

	home  pose
	glide *glide
}

// glide animates the pose fields back home. Order matches pose.fields.
type glide struct {
	tweens [6]*gween.Tween
}

// pose is what Reset returns to.
type pose struct {
	target   r3.Vec
	distance float64
	yaw      float64
	pitch    float64
}

func (p pose) fields() [6]float64 {
	return [6]float64{p.target.X, p.target.Y, p.target.Z, p.distance, p.yaw, p.pitch}
}

func (c *Camera) current() pose {
	return pose{target: c.Target, distance: c.Distance, yaw: c.Yaw, pitch: c.Pitch}
}

func (c *Camera) apply(f [6]float64) {
	c.Target = r3.Vec{X: f[0], Y: f[1], Z: f[2]}
	c.Distance, c.Yaw, c.Pitch = f[3], f[4], f[5]
}

// New creates a camera looking at target from the given pose.
func New(viewportW, viewportH float64, target r3.Vec, distance, yaw, pitch, fov float64) *Camera {
	if fov <= 0 || fov >= 180 {
		fov = 45
	}
	c := &Camera{
		Target:      target,
		Distance:    distance,
		Yaw:         yaw,
		Pitch:       clamp(pitch, -maxPitch, maxPitch),
		FOV:         fov,
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		MinDistance: 0.5,
		MaxDistance: 200,
	}
	c.Distance = clamp(c.Distance, c.MinDistance, c.MaxDistance)
	c.home = pose{target: c.Target, distance: c.Distance, yaw: c.Yaw, pitch: c.Pitch}
	return c
}

// Eye returns the camera position in world space.
func (c *Camera) Eye() r3.Vec {
	yaw, pitch := mgl64.DegToRad(c.Yaw), mgl64.DegToRad(c.Pitch)
	dir := r3.Vec{
		X: math.Cos(pitch) * math.Sin(yaw),
		Y: math.Sin(pitch),
		Z: math.Cos(pitch) * math.Cos(yaw),
	}
	return r3.Add(c.Target, r3.Scale(c.Distance, dir))
}

// View returns the world-to-camera matrix.
func (c *Camera) View() mgl64.Mat4 {
	eye := c.Eye()
	return mgl64.LookAtV(
		mgl64.Vec3{eye.X, eye.Y, eye.Z},
		mgl64.Vec3{c.Target.X, c.Target.Y, c.Target.Z},
		mgl64.Vec3{0, 1, 0},
	)
}

// Projection returns the perspective matrix for the viewport.
func (c *Camera) Projection() mgl64.Mat4 {
	aspect := 1.0
	if c.ViewportH > 0 {
		aspect = c.ViewportW / c.ViewportH
	}
	return mgl64.Perspective(mgl64.DegToRad(c.FOV), aspect, near, far)
}

// WorldToScreen projects a world point to screen pixels. depth is the
// distance along the view axis; ok is false for points behind the near
// plane.
func (c *Camera) WorldToScreen(p r3.Vec) (sx, sy, depth float64, ok bool) {
	v := c.View().Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	depth = -v.Z()
	if depth < near {
		return 0, 0, depth, false
	}
	clip := c.Projection().Mul4x1(v)
	ndcX, ndcY := clip.X()/clip.W(), clip.Y()/clip.W()
	sx = (ndcX + 1) / 2 * c.ViewportW
	sy = (1 - ndcY) / 2 * c.ViewportH
	return sx, sy, depth, true
}

// PixelsPerUnit returns how many pixels one world unit covers at depth.
func (c *Camera) PixelsPerUnit(depth float64) float64 {
	if depth < near {
		depth = near
	}
	return c.ViewportH / (2 * depth * math.Tan(mgl64.DegToRad(c.FOV)/2))
}

// IsVisible returns true if a sphere at p could be on screen
// (conservative check for culling).
func (c *Camera) IsVisible(p r3.Vec, radius float64) bool {
	sx, sy, depth, ok := c.WorldToScreen(p)
	if !ok {
		return depth+radius >= near
	}
	r := radius * c.PixelsPerUnit(depth)
	return sx+r >= 0 && sx-r <= c.ViewportW && sy+r >= 0 && sy-r <= c.ViewportH
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float64) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Orbit turns the camera around the target. Pitch stays short of the poles.
func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw = math.Mod(c.Yaw+dyaw, 360)
	c.Pitch = clamp(c.Pitch+dpitch, -maxPitch, maxPitch)
}

// Pan moves the target within the view plane by screen pixels.
func (c *Camera) Pan(dx, dy float64) {
	scale := 1 / c.PixelsPerUnit(c.Distance)
	view := c.View()
	right := r3.Vec{X: view.At(0, 0), Y: view.At(0, 1), Z: view.At(0, 2)}
	up := r3.Vec{X: view.At(1, 0), Y: view.At(1, 1), Z: view.At(1, 2)}
	c.Target = r3.Add(c.Target, r3.Add(r3.Scale(-dx*scale, right), r3.Scale(dy*scale, up)))
}

// ZoomBy divides the distance by factor, clamped to min/max.
func (c *Camera) ZoomBy(factor float64) {
	if factor <= 0 {
		return
	}
	c.Distance = clamp(c.Distance/factor, c.MinDistance, c.MaxDistance)
}

// Update advances a glide home, or applies the automatic orbit.
func (c *Camera) Update(dt float64) {
	if c.glide != nil {
		c.stepGlide(float32(dt))
		return
	}
	if c.OrbitSpeed != 0 {
		c.Orbit(c.OrbitSpeed*dt, 0)
	}
}

// Reset returns the camera to the pose it was created with.
func (c *Camera) Reset() {
	c.glide = nil
	c.apply(c.home.fields())
}

// GlideHome animates the camera back to its initial pose over duration
// seconds. Yaw takes the shorter way round.
func (c *Camera) GlideHome(duration float32) {
	if duration <= 0 {
		c.Reset()
		return
	}
	from, to := c.current().fields(), c.home.fields()
	to[4] = from[4] + math.Remainder(to[4]-from[4], 360)
	g := &glide{}
	for i := range g.tweens {
		g.tweens[i] = gween.New(float32(from[i]), float32(to[i]), duration, ease.InOutQuad)
	}
	c.glide = g
}

// Gliding reports whether a glide home is in progress.
func (c *Camera) Gliding() bool { return c.glide != nil }

func (c *Camera) stepGlide(dt float32) {
	var f [6]float64
	done := true
	for i, tw := range c.glide.tweens {
		v, finished := tw.Update(dt)
		f[i] = float64(v)
		done = done && finished
	}
	if done {
		c.Reset()
		return
	}
	c.apply(f)
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float64) float64 {
	return min(max(x, lo), hi)
}
