package ui

import (
	"fmt"
	"log/slog"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/swirl/particles"
)

// Action is a request from the tuning panel that the caller carries out.
type Action int

const (
	ActionNone Action = iota
	ActionStart
	ActionStop
	ActionReset
	ActionNextSystem
	ActionRestartScene
)

// TuningPanel edits the selected system's parameters with raygui sliders.
// Changes go through the system's setters and take effect on its next tick.
type TuningPanel struct {
	renderer *Renderer
	width    int32
	log      *slog.Logger
}

// NewTuningPanel creates a panel of the given width.
func NewTuningPanel(width int32, log *slog.Logger) *TuningPanel {
	if log == nil {
		log = slog.Default()
	}
	return &TuningPanel{renderer: NewRenderer(), width: width, log: log}
}

const (
	sliderHeight = 18
	rowHeight    = 36
	tuningRows   = 7
)

// Height returns the panel height.
func (p *TuningPanel) Height() int32 {
	return p.renderer.Theme.Padding*2 + 20 + tuningRows*rowHeight + 2*28 + 8
}

// Draw renders the panel at (x, y) and applies slider changes to sys.
func (p *TuningPanel) Draw(x, y int32, sys *particles.System) Action {
	r := p.renderer
	pad := r.Theme.Padding
	r.DrawPanel(x, y, p.width, p.Height())
	rl.DrawText("Tuning", x+pad, y+pad, 16, rl.White)

	fx := float32(x + pad)
	fy := float32(y + pad + 24)
	w := float32(p.width - 2*pad - 50)

	slider := func(label string, value, lo, hi float32, format string) float32 {
		rl.DrawText(label, int32(fx), int32(fy), r.Theme.FontSize, r.Theme.LabelColor)
		v := gui.SliderBar(rl.Rectangle{X: fx, Y: fy + 14, Width: w, Height: sliderHeight}, "", "", value, lo, hi)
		rl.DrawText(fmt.Sprintf(format, v), int32(fx+w+6), int32(fy+16), r.Theme.FontSize, r.Theme.ValueColor)
		fy += rowHeight
		return v
	}
	apply := func(what string, err error) {
		if err != nil {
			p.log.Warn("parameter rejected", "parameter", what, "error", err)
		}
	}

	if v := slider("Max particles", float32(sys.MaxParticleCount()), 10, 20000, "%.0f"); int(v) != sys.MaxParticleCount() {
		apply("max_particle_count", sys.SetMaxParticleCount(int(v)))
	}
	if v := slider("Period (s)", float32(sys.PeriodTime()), 0.5, 30, "%.1f"); float64(v) != float64(float32(sys.PeriodTime())) {
		apply("period_time", sys.SetPeriodTime(float64(v)))
	}
	if v := slider("Air drag", float32(sys.AirDrag()), 0, 5, "%.2f"); float64(v) != float64(float32(sys.AirDrag())) {
		apply("air_drag", sys.SetAirDrag(float64(v)))
	}
	turb := sys.Turbulence()
	if v := slider("Turbulence", float32(turb.Strength), 0, 5, "%.2f"); float64(v) != float64(float32(turb.Strength)) {
		turb.Strength = float64(v)
		sys.SetTurbulence(turb)
	}
	if v := slider("Confinement", float32(sys.ConfinementStrength()), 0, 2, "%.2f"); float64(v) != float64(float32(sys.ConfinementStrength())) {
		apply("confinement_strength", sys.SetConfinementStrength(float64(v)))
	}
	if v := slider("Vortex rate", float32(sys.VortexToParticleRate()), 0, 0.25, "%.3f"); float64(v) != float64(float32(sys.VortexToParticleRate())) {
		apply("vortex_to_particle_rate", sys.SetVortexToParticleRate(float64(v)))
	}

	loop := gui.CheckBox(rl.Rectangle{X: fx, Y: fy, Width: 14, Height: 14}, "Loop", sys.Loop())
	if loop != sys.Loop() {
		sys.SetLoop(loop)
	}
	conf := gui.CheckBox(rl.Rectangle{X: fx + 90, Y: fy, Width: 14, Height: 14}, "Confine", sys.VorticityConfinement())
	if conf != sys.VorticityConfinement() {
		sys.SetVorticityConfinement(conf)
	}
	fy += rowHeight

	bw := float32(p.width-2*pad-10) / 3
	action := ActionNone
	switch {
	case gui.Button(rl.Rectangle{X: fx, Y: fy, Width: bw, Height: 24}, "Start"):
		action = ActionStart
	case gui.Button(rl.Rectangle{X: fx + bw + 5, Y: fy, Width: bw, Height: 24}, "Stop"):
		action = ActionStop
	case gui.Button(rl.Rectangle{X: fx + 2*(bw+5), Y: fy, Width: bw, Height: 24}, "Reset"):
		action = ActionReset
	}
	fy += 28
	switch {
	case gui.Button(rl.Rectangle{X: fx, Y: fy, Width: bw*1.5 + 2, Height: 24}, "Next system"):
		action = ActionNextSystem
	case gui.Button(rl.Rectangle{X: fx + bw*1.5 + 8, Y: fy, Width: bw*1.5 + 2, Height: 24}, "Restart scene"):
		action = ActionRestartScene
	}
	return action
}
