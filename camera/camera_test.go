package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func newTestCamera() *Camera {
	return New(1280, 720, r3.Vec{Y: 1}, 10, 0, 0, 60)
}

func TestEyePosition(t *testing.T) {
	tests := []struct {
		yaw, pitch float64
		want       r3.Vec
	}{
		{0, 0, r3.Vec{Y: 1, Z: 10}},
		{90, 0, r3.Vec{X: 10, Y: 1}},
		{0, 30, r3.Vec{Y: 1 + 5, Z: 10 * math.Cos(math.Pi/6)}},
	}
	for _, tt := range tests {
		cam := New(1280, 720, r3.Vec{Y: 1}, 10, tt.yaw, tt.pitch, 60)
		if got := cam.Eye(); r3.Norm(r3.Sub(got, tt.want)) > 1e-9 {
			t.Errorf("yaw %v pitch %v: eye = %v, want %v", tt.yaw, tt.pitch, got, tt.want)
		}
	}
}

func TestTargetProjectsToCenter(t *testing.T) {
	cam := newTestCamera()
	sx, sy, depth, ok := cam.WorldToScreen(cam.Target)
	if !ok {
		t.Fatal("target not projected")
	}
	if math.Abs(sx-640) > 0.01 || math.Abs(sy-360) > 0.01 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
	if math.Abs(depth-10) > 1e-9 {
		t.Errorf("depth = %v, want 10", depth)
	}
}

func TestProjectionOrientation(t *testing.T) {
	cam := newTestCamera()

	// Looking down -Z: +Y is up on screen, +X is right.
	_, sy, _, _ := cam.WorldToScreen(r3.Vec{Y: 2})
	if sy >= 360 {
		t.Errorf("point above target drawn at y=%f, want above center", sy)
	}
	sx, _, _, _ := cam.WorldToScreen(r3.Vec{X: 1, Y: 1})
	if sx <= 640 {
		t.Errorf("point right of target drawn at x=%f, want right of center", sx)
	}

	// One unit at the target's depth spans PixelsPerUnit pixels.
	_, top, _, _ := cam.WorldToScreen(r3.Vec{Y: 2})
	if got, want := 360-top, cam.PixelsPerUnit(10); math.Abs(got-want) > 1e-6 {
		t.Errorf("one unit = %v px, want %v", got, want)
	}
}

func TestBehindCamera(t *testing.T) {
	cam := newTestCamera()
	if _, _, _, ok := cam.WorldToScreen(r3.Vec{Y: 1, Z: 20}); ok {
		t.Error("point behind the camera was projected")
	}
	if cam.IsVisible(r3.Vec{Y: 1, Z: 20}, 1) {
		t.Error("point behind the camera reported visible")
	}
	if !cam.IsVisible(r3.Vec{Y: 1}, 0.1) {
		t.Error("target reported invisible")
	}
	if cam.IsVisible(r3.Vec{X: 100, Y: 1}, 0.1) {
		t.Error("point far off screen reported visible")
	}
}

func TestOrbitAndZoomClamp(t *testing.T) {
	cam := newTestCamera()
	cam.Orbit(0, 200)
	if cam.Pitch != maxPitch {
		t.Errorf("pitch = %v, want %v", cam.Pitch, float64(maxPitch))
	}
	cam.ZoomBy(1000)
	if cam.Distance != cam.MinDistance {
		t.Errorf("distance = %v, want %v", cam.Distance, cam.MinDistance)
	}
	cam.ZoomBy(0)
	if cam.Distance != cam.MinDistance {
		t.Error("zero factor changed distance")
	}

	cam.Reset()
	if cam.Pitch != 0 || cam.Distance != 10 {
		t.Errorf("reset pose: pitch %v distance %v", cam.Pitch, cam.Distance)
	}
}

func TestAutoOrbit(t *testing.T) {
	cam := newTestCamera()
	cam.OrbitSpeed = 90
	cam.Update(0.5)
	if math.Abs(cam.Yaw-45) > 1e-9 {
		t.Errorf("yaw = %v, want 45", cam.Yaw)
	}
}

func TestPanMovesTarget(t *testing.T) {
	cam := newTestCamera()
	cam.Pan(-100, 0)
	if cam.Target.X <= 0 {
		t.Errorf("dragging left should move target right, got %v", cam.Target)
	}
	if math.Abs(cam.Target.Y-1) > 1e-9 || math.Abs(cam.Target.Z) > 1e-9 {
		t.Errorf("horizontal pan left the view plane: %v", cam.Target)
	}
}

func TestGlideHome(t *testing.T) {
	cam := newTestCamera()
	cam.Orbit(350, 30)
	cam.GlideHome(0.5)

	cam.Update(0.25)
	if !cam.Gliding() {
		t.Fatal("glide ended early")
	}
	if cam.Yaw <= 350 || cam.Yaw >= 360 {
		t.Errorf("yaw = %v, want the short way between 350 and 360", cam.Yaw)
	}
	if cam.Pitch <= 0 || cam.Pitch >= 30 {
		t.Errorf("pitch = %v, want between 0 and 30", cam.Pitch)
	}

	cam.Update(0.5)
	if cam.Gliding() {
		t.Fatal("glide still running")
	}
	if cam.Yaw != 0 || cam.Pitch != 0 || cam.Distance != 10 {
		t.Errorf("final pose: yaw %v pitch %v distance %v", cam.Yaw, cam.Pitch, cam.Distance)
	}
}
