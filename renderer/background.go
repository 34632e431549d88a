package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/swirl/gradient"
)

// BackgroundRenderer fills the screen with a vertical gradient derived
// from one base color.
type BackgroundRenderer struct {
	top, bottom rl.Color
}

// NewBackgroundRenderer creates a background lighter at the top than base.
func NewBackgroundRenderer(base gradient.RGBA) *BackgroundRenderer {
	c := colorful.Color{R: base.R, G: base.G, B: base.B}.Clamped()
	lighter := c.BlendLab(colorful.Color{R: 0.35, G: 0.4, B: 0.5}, 0.25).Clamped()
	return &BackgroundRenderer{top: toRL(lighter, 1), bottom: toRL(c, 1)}
}

// Draw paints the full screen.
func (b *BackgroundRenderer) Draw(screenW, screenH int32) {
	rl.ClearBackground(b.bottom)
	rl.DrawRectangleGradientV(0, 0, screenW, screenH, b.top, b.bottom)
}

func toRL(c colorful.Color, alpha float64) rl.Color {
	r, g, bl := c.RGB255()
	return rl.Color{R: r, G: g, B: bl, A: uint8(min(max(alpha, 0), 1)*255 + 0.5)}
}

// rgba converts a particle color.
func rgba(c gradient.RGBA) rl.Color {
	return toRL(colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped(), c.A)
}
