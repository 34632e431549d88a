package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	orbitDegPerPixel = 0.3
	keyOrbitStep     = 90.0 // degrees per second
)

// handleInput processes keyboard and mouse input.
func (v *Viewer) handleInput() {
	v.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		v.app.SetPaused(!v.app.Paused())
	}

	// Time scale with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) {
		v.app.SetTimeScale(v.app.TimeScale() / 2)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		v.app.SetTimeScale(v.app.TimeScale() * 2)
	}

	if rl.IsKeyPressed(rl.KeyN) {
		v.nextSystem()
	}
	if rl.IsKeyPressed(rl.KeyS) {
		if _, err := v.app.SaveSnapshot(nil); err != nil {
			v.log.Error("failed to save snapshot", "error", err)
		}
	}

	v.overlays.HandleInput()
	v.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	if w == v.screenW && h == v.screenH {
		return
	}
	v.screenW, v.screenH = w, h
	v.cam.Resize(float64(w), float64(h))
}

// handleCameraInput processes orbit, pan and zoom controls.
func (v *Viewer) handleCameraInput() {
	dt := float64(rl.GetFrameTime())

	if !v.overPanel() {
		delta := rl.GetMouseDelta()
		switch {
		case rl.IsMouseButtonDown(rl.MouseButtonLeft):
			v.cam.Orbit(-float64(delta.X)*orbitDegPerPixel, float64(delta.Y)*orbitDegPerPixel)
		case rl.IsMouseButtonDown(rl.MouseButtonRight), rl.IsMouseButtonDown(rl.MouseButtonMiddle):
			v.cam.Pan(float64(delta.X), float64(delta.Y))
		}

		if wheel := rl.GetMouseWheelMove(); wheel != 0 {
			v.cam.ZoomBy(1 + float64(wheel)*0.1)
		}
	}

	// Arrow keys orbit
	if rl.IsKeyDown(rl.KeyLeft) {
		v.cam.Orbit(-keyOrbitStep*dt, 0)
	}
	if rl.IsKeyDown(rl.KeyRight) {
		v.cam.Orbit(keyOrbitStep*dt, 0)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.cam.Orbit(0, keyOrbitStep*dt)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.cam.Orbit(0, -keyOrbitStep*dt)
	}

	// Keyboard zoom with +/- (= and - keys)
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		v.cam.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		v.cam.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyR) || rl.IsKeyPressed(rl.KeyHome) {
		v.cam.GlideHome(glideTime)
	}
}
