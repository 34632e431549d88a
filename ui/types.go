// Package ui draws the debug viewer's panels: the HUD, the per-system
// inspector and the raygui tuning controls.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// PanelAnchor specifies where a panel is anchored on screen.
type PanelAnchor int

const (
	AnchorTopLeft PanelAnchor = iota
	AnchorTopRight
	AnchorBottomLeft
	AnchorBottomRight
)

// Place returns the top-left corner of a panel of the given size.
func Place(anchor PanelAnchor, w, h, screenW, screenH, margin int32) (x, y int32) {
	switch anchor {
	case AnchorTopRight:
		return screenW - w - margin, margin
	case AnchorBottomLeft:
		return margin, screenH - h - margin
	case AnchorBottomRight:
		return screenW - w - margin, screenH - h - margin
	}
	return margin, margin
}

// Theme holds panel colors and metrics.
type Theme struct {
	PanelBg, PanelBorder rl.Color
	SectionHeader        rl.Color
	LabelColor           rl.Color
	ValueColor           rl.Color

	// Bars switch to BarFillHigh above 95% of their scale.
	BarBg, BarFill, BarFillHigh rl.Color

	Padding, LineHeight      int32
	LabelWidth, BarHeight    int32
	FontSize, HeaderFontSize int32
}

// DefaultTheme is a dark panel with warm accents matching the default
// fountain palette.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 16, G: 16, B: 24, A: 225},
		PanelBorder:    rl.Color{R: 72, G: 64, B: 88, A: 255},
		SectionHeader:  rl.Color{R: 255, G: 200, B: 120, A: 255},
		LabelColor:     rl.LightGray,
		ValueColor:     rl.RayWhite,
		BarBg:          rl.Color{R: 36, G: 34, B: 44, A: 255},
		BarFill:        rl.Color{R: 128, G: 144, B: 160, A: 255},
		BarFillHigh:    rl.Color{R: 255, G: 176, B: 80, A: 255},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     96,
		BarHeight:      10,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
