// Package viewer is the raylib debug window: it renders every particle
// system of an app's scene and exposes the tuning panels.
package viewer

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/swirl/app"
	"github.com/pthm-cable/swirl/camera"
	"github.com/pthm-cable/swirl/config"
	"github.com/pthm-cable/swirl/renderer"
	"github.com/pthm-cable/swirl/scene"
	"github.com/pthm-cable/swirl/ui"
)

const (
	panelWidth = 280
	glideTime  = 0.6
)

// Viewer holds the window state around an App.
type Viewer struct {
	app *app.App
	log *slog.Logger

	cam        *camera.Camera
	background *renderer.BackgroundRenderer
	textures   *renderer.TextureCache
	particles  *renderer.ParticleRenderer
	debug      *renderer.DebugRenderer

	hud       *ui.HUD
	panel     *ui.SystemPanel
	tuning    *ui.TuningPanel
	perfPanel *ui.PerfPanel
	overlays  *ui.OverlayRegistry

	selected int
	drawn    int

	screenW, screenH int32
}

// Run opens the window and drives a until the window closes or maxTicks
// ticks have run (0 = unlimited).
func Run(a *app.App, maxTicks int64, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	cfg := a.Config()
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Viewer.Width), int32(cfg.Viewer.Height), cfg.Viewer.Title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Viewer.TargetFPS))

	v := newViewer(a, cfg, log)
	defer v.textures.Unload()

	for !rl.WindowShouldClose() {
		v.Update()
		v.Draw()

		if maxTicks > 0 && a.Tick() >= maxTicks {
			log.Info("max ticks reached", "tick", a.Tick())
			break
		}
	}
	return nil
}

func newViewer(a *app.App, cfg *config.Config, log *slog.Logger) *Viewer {
	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	cc := cfg.Camera
	cam := camera.New(float64(w), float64(h), cc.Target.R3(), cc.Distance, cc.Yaw, cc.Pitch, cc.FOV)
	cam.OrbitSpeed = cc.OrbitSpeed

	textures := renderer.NewTextureCache(a.Scene().Textures())
	v := &Viewer{
		app:        a,
		log:        log,
		cam:        cam,
		background: renderer.NewBackgroundRenderer(cfg.Viewer.Background.RGBA()),
		textures:   textures,
		particles:  renderer.NewParticleRenderer(textures),
		debug:      &renderer.DebugRenderer{},
		hud:        ui.NewHUD(),
		panel:      ui.NewSystemPanel(panelWidth, ui.AnchorTopRight),
		tuning:     ui.NewTuningPanel(panelWidth, log),
		perfPanel:  ui.NewPerfPanel(),
		overlays:   ui.NewOverlayRegistry(),
		screenW:    w,
		screenH:    h,
	}
	v.overlays.SetEnabled(ui.OverlayBounds, cfg.Viewer.ShowBounds)
	v.overlays.SetEnabled(ui.OverlayVortices, cfg.Viewer.ShowVortices)
	v.overlays.SetEnabled(ui.OverlayPanel, cfg.Viewer.ShowPanel)
	return v
}

// Update handles input, then advances the simulation by the frame time.
func (v *Viewer) Update() {
	v.handleInput()

	frame := float64(rl.GetFrameTime())
	v.cam.Update(frame)
	v.app.Advance(frame)
	v.app.Perf().RecordFrame()
}

// selectedSystem returns the name of the selected system, or "".
func (v *Viewer) selectedSystem() string {
	names := v.app.Scene().SystemNames()
	if len(names) == 0 {
		return ""
	}
	v.selected %= len(names)
	return names[v.selected]
}

func (v *Viewer) nextSystem() {
	v.selected++
	v.log.Info("selected system", "system", v.selectedSystem())
}

// Draw renders one frame.
func (v *Viewer) Draw() {
	rl.BeginDrawing()
	v.background.Draw(v.screenW, v.screenH)

	cam3d := renderer.Camera3D(v.cam)
	v.debug.ShowBounds = v.overlays.IsEnabled(ui.OverlayBounds)
	v.debug.ShowVortices = v.overlays.IsEnabled(ui.OverlayVortices)

	rl.BeginMode3D(cam3d)
	if v.overlays.IsEnabled(ui.OverlayGrid) {
		v.debug.DrawGrid()
	}
	v.drawn = 0
	v.app.Scene().VisitSystems(func(sv scene.SystemView) {
		v.drawn += v.particles.Draw(cam3d, sv)
		v.debug.Draw(sv)
	})
	rl.EndMode3D()

	v.drawUI()
	rl.EndDrawing()
}

func (v *Viewer) drawUI() {
	sc := v.app.Scene()
	running := 0
	sc.VisitSystems(func(sv scene.SystemView) {
		if sv.System.IsRunning() {
			running++
		}
	})
	clients := -1
	if srv := v.app.Stream(); srv != nil {
		clients = srv.Clients()
	}
	selected := v.selectedSystem()

	v.hud.Draw(ui.HUDData{
		Title:     v.app.Config().Viewer.Title,
		Systems:   len(sc.SystemNames()),
		Running:   running,
		Particles: v.drawn,
		SimTime:   v.app.SimTime(),
		Tick:      v.app.Tick(),
		TimeScale: v.app.TimeScale(),
		FPS:       rl.GetFPS(),
		Paused:    v.app.Paused(),
		Clients:   clients,
		Selected:  selected,
	})
	v.hud.DrawControls(v.screenH, v.overlays)

	if v.overlays.IsEnabled(ui.OverlayPerf) {
		v.perfPanel.Draw(10, 100, v.app.Perf().Stats())
	}

	if !v.overlays.IsEnabled(ui.OverlayPanel) || selected == "" {
		return
	}
	sys, _ := sc.System(selected)
	info, _ := sc.Info(selected)
	v.panel.Draw(selected, info, sys, v.screenW, v.screenH)

	x := v.screenW - panelWidth - 10
	y := 10 + v.panel.Height() + 8
	v.apply(v.tuning.Draw(x, y, sys), selected)
}

// apply carries out a tuning panel action on the named system.
func (v *Viewer) apply(act ui.Action, name string) {
	sc := v.app.Scene()
	sys, ok := sc.System(name)
	if !ok {
		return
	}
	var err error
	switch act {
	case ui.ActionNone:
		return
	case ui.ActionStart:
		err = sys.Start()
	case ui.ActionStop:
		sys.Stop()
	case ui.ActionReset:
		err = sys.Reset()
	case ui.ActionNextSystem:
		v.nextSystem()
	case ui.ActionRestartScene:
		err = sc.Restart()
	}
	if err != nil {
		v.log.Warn("action failed", "system", name, "error", err)
	}
}

// overPanel reports whether the mouse is over the side panels.
func (v *Viewer) overPanel() bool {
	if !v.overlays.IsEnabled(ui.OverlayPanel) {
		return false
	}
	return rl.GetMouseX() >= v.screenW-panelWidth-20
}
