package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/swirl/gradient"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight + 2
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawBar draws a progress bar for [0, max] values.
func (r *Renderer) DrawBar(x, y int32, label string, value, max float32, width int32) int32 {
	ratio := float32(0)
	if max > 0 {
		ratio = min(value/max, 1)
	}

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)

	// Near-full bars warn of saturation.
	fill := r.Theme.BarFill
	if ratio > 0.95 {
		fill = r.Theme.BarFillHigh
	}
	rl.DrawRectangle(barX, y+2, int32(float32(barWidth)*max32(ratio, 0)), r.Theme.BarHeight, fill)

	rl.DrawText(fmt.Sprintf("%.2f", value), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight + 2
}

// DrawGradientStrip previews a color gradient over [0, 1].
func (r *Renderer) DrawGradientStrip(x, y int32, label string, g *gradient.Color, width int32) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	if g == nil || g.Empty() {
		return y + r.Theme.LineHeight
	}
	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth
	const steps = 32
	step := float32(barWidth) / steps
	for i := range steps {
		c := g.Evaluate((float64(i) + 0.5) / steps)
		col := rl.ColorFromNormalized(rl.NewVector4(float32(c.R), float32(c.G), float32(c.B), float32(c.A)))
		rl.DrawRectangle(barX+int32(float32(i)*step), y+2, int32(step)+1, r.Theme.BarHeight, col)
	}
	rl.DrawRectangleLines(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.PanelBorder)
	return y + r.Theme.LineHeight + 2
}

// DrawScalarCurve plots a scalar gradient over [0, 1] as a polyline.
func (r *Renderer) DrawScalarCurve(x, y int32, label string, g *gradient.Scalar, width, height int32) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	y += r.Theme.LineHeight
	if g == nil || g.Empty() {
		return y
	}
	const steps = 48
	var vals [steps + 1]float64
	hi := 0.0
	for i := range vals {
		vals[i] = g.Evaluate(float64(i) / steps)
		hi = max(hi, vals[i])
	}
	if hi <= 0 {
		hi = 1
	}
	rl.DrawRectangle(x, y, width, height, r.Theme.BarBg)
	for i := 1; i <= steps; i++ {
		x0 := float32(x) + float32(i-1)*float32(width)/steps
		x1 := float32(x) + float32(i)*float32(width)/steps
		y0 := float32(y+height) - float32(vals[i-1]/hi)*float32(height)
		y1 := float32(y+height) - float32(vals[i]/hi)*float32(height)
		rl.DrawLineV(rl.NewVector2(x0, y0), rl.NewVector2(x1, y1), r.Theme.BarFill)
	}
	rl.DrawText(fmt.Sprintf("max %.2f", hi), x+width-60, y+2, 10, r.Theme.LabelColor)
	return y + height + 4
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
