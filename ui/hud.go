package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/swirl/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Systems   int
	Running   int
	Particles int
	SimTime   float64
	Tick      int64
	TimeScale float64
	FPS       int32
	Paused    bool
	Clients   int // stream clients; -1 when streaming is off
	Selected  string
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Systems: %d/%d running | Particles: %d", data.Running, data.Systems, data.Particles),
		10, 35, 16, rl.LightGray,
	)
	info := fmt.Sprintf("Tick: %d | Time: %.1fs | Speed: %.2gx | FPS: %d", data.Tick, data.SimTime, data.TimeScale, data.FPS)
	if data.Clients >= 0 {
		info += fmt.Sprintf(" | Stream: %d", data.Clients)
	}
	rl.DrawText(info, 10, 55, 16, rl.LightGray)

	status := "Running"
	if data.Paused {
		status = "PAUSED"
	}
	if data.Selected != "" {
		status += "  [" + data.Selected + "]"
	}
	rl.DrawText(status, 10, 75, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, overlays *OverlayRegistry) {
	legend := "Space: pause  ./,: speed  Drag: orbit  Wheel: zoom  R: reset view  N: next system  S: snapshot"
	for _, d := range overlays.All() {
		mark := " "
		if overlays.IsEnabled(d.ID) {
			mark = "*"
		}
		legend += fmt.Sprintf("  %s%s:%s", mark, d.KeyLabel, d.Name)
	}
	rl.DrawText(legend, 10, screenHeight-22, 12, rl.Gray)
}

// PerfPanel renders the phase breakdown of the perf collector.
type PerfPanel struct {
	renderer *Renderer
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel() *PerfPanel {
	return &PerfPanel{renderer: NewRenderer()}
}

// Draw renders the panel at (x, y).
func (p *PerfPanel) Draw(x, y int32, stats telemetry.PerfStats) {
	rl.DrawText("Performance", x, y, 16, rl.White)
	y += 20
	rl.DrawText(fmt.Sprintf("tick avg %s  max %s  %.0f ticks/s", stats.AvgTickDuration, stats.MaxTickDuration, stats.TicksPerSecond), x, y, 12, rl.Yellow)
	y += 16

	for _, phase := range telemetry.Phases() {
		pct := stats.PhasePct[phase]
		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}
		rl.DrawText(fmt.Sprintf("%-10s %6s %5.1f%%", phase, stats.PhaseAvg[phase], pct), x, y, 12, color)
		y += 14
	}
}
