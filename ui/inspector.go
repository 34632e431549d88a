package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/swirl/components"
	"github.com/pthm-cable/swirl/particles"
)

// SystemPanel shows the summary of the selected particle system. Fields
// come from the inspect tags of components.SystemInfo.
type SystemPanel struct {
	renderer *Renderer
	width    int32
	anchor   PanelAnchor
}

// NewSystemPanel creates a panel of the given width.
func NewSystemPanel(width int32, anchor PanelAnchor) *SystemPanel {
	return &SystemPanel{renderer: NewRenderer(), width: width, anchor: anchor}
}

// Height returns the panel height for one system.
func (p *SystemPanel) Height() int32 {
	t := p.renderer.Theme
	rows := int32(len(extractFields(components.SystemInfo{})))
	return t.Padding*2 + t.LineHeight*2 + rows*(t.LineHeight+2) + (t.LineHeight+2)*2 + 40
}

// Draw renders the panel for the named system.
func (p *SystemPanel) Draw(name string, info components.SystemInfo, sys *particles.System, screenW, screenH int32) {
	r := p.renderer
	t := r.Theme
	h := p.Height()
	x, y := Place(p.anchor, p.width, h, screenW, screenH, 10)
	r.DrawPanel(x, y, p.width, h)

	x += t.Padding
	y += t.Padding
	inner := p.width - 2*t.Padding
	y = r.DrawSectionHeader(x, y, name)

	for _, f := range extractFields(&info) {
		switch f.Widget {
		case WidgetBar:
			y = r.DrawBar(x, y, f.Name, f.float(), f.Max, inner)
		case WidgetBool:
			state := "no"
			if b, _ := f.Value.(bool); b {
				state = "yes"
			}
			y = r.DrawLabelValue(x, y, f.Name, state)
		default:
			s := f.text()
			if s == "" {
				s = "-"
			}
			y = r.DrawLabelValue(x, y, f.Name, s)
		}
	}

	if sys == nil {
		return
	}
	y += 4
	y = r.DrawGradientStrip(x, y, "Color", sys.ColorGradient(), inner)
	lo, hi := sys.VortexTorque()
	r.DrawLabelValue(x, y, "Torque", fmt.Sprintf("%.2f .. %.2f", lo, hi))
	y += t.LineHeight
	rl.DrawText(fmt.Sprintf("emitter %d  workers %d", sys.EmitterID(), sys.Config().Workers), x, y, 10, rl.Gray)
}
