// Vortex field preview tool - a horizontal slice of the vortex and
// turbulence acceleration with sliders.
//
// Usage: go run ./cmd/fieldpreview
package main

import (
	"fmt"
	"image/color"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
	gridSize     = 128
)

// panel lays out labelled sliders top to bottom.
type panel struct {
	x, y    float32
	changed bool
}

func (p *panel) slider(label, format string, value, lo, hi float32) float32 {
	rl.DrawText(label, int32(p.x), int32(p.y), 14, rl.Gray)
	p.y += 18
	v := gui.SliderBar(
		rl.Rectangle{X: p.x, Y: p.y, Width: float32(panelWidth - 80), Height: 20},
		fmt.Sprintf(format, lo), fmt.Sprintf(format, hi),
		value, lo, hi,
	)
	rl.DrawText(fmt.Sprintf(format, value), int32(p.x+float32(panelWidth-70)), int32(p.y+2), 16, rl.DarkGray)
	p.y += 30
	if v != value {
		p.changed = true
	}
	return v
}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Vortex Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := defaultParams()

	grid := make([]float32, gridSize*gridSize)
	img := rl.GenImageColor(gridSize, gridSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	animating := false
	needsRegen := true
	var peak float64

	for !rl.WindowShouldClose() {
		if animating {
			params.Elapsed += rl.GetFrameTime()
			needsRegen = true
		}
		if needsRegen {
			peak = sample(grid, gridSize, params)
			updateTexture(texture, grid)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: gridSize, Height: gridSize},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)
		drawVortexMarkers(params)

		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Peak acceleration: %.3f", peak), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Time: %.1f  Slice Y: %.2f", params.Elapsed, params.Height), 15, statsY+20, 16, rl.DarkGray)

		p := &panel{x: float32(previewSize + 20), y: 10}
		rl.DrawText("Vortex Field Parameters", int32(p.x), int32(p.y), 20, rl.DarkGray)
		p.y += 35

		params.Count = int(p.slider("Vortices on ring", "%.0f", float32(params.Count), 0, 8))
		params.Ring = p.slider("Ring radius", "%.2f", params.Ring, 0, 3)
		params.CheckRange = p.slider("Check range", "%.2f", params.CheckRange, 0.1, 4)
		params.TorqueMin = p.slider("Torque min", "%.1f", params.TorqueMin, -10, 10)
		params.TorqueMax = max(params.TorqueMin, p.slider("Torque max", "%.1f", params.TorqueMax, -10, 10))
		params.ConfinementStrength = p.slider("Confinement strength", "%.2f", params.ConfinementStrength, 0, 2)
		params.Strength = p.slider("Turbulence strength", "%.2f", params.Strength, 0, 3)
		params.Scale = p.slider("Turbulence scale", "%.2f", params.Scale, 0.05, 4)
		params.TimeScale = p.slider("Turbulence time scale", "%.2f", params.TimeScale, 0, 2)
		params.Height = p.slider("Slice height", "%.2f", params.Height, -2, 2)
		if p.changed {
			needsRegen = true
		}
		p.y += 5

		if gui.Button(rl.Rectangle{X: p.x, Y: p.y, Width: 120, Height: 30}, toggleText(animating, "Stop", "Animate")) {
			animating = !animating
		}
		if gui.Button(rl.Rectangle{X: p.x + 130, Y: p.y, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(0, 99999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: p.x + 260, Y: p.y, Width: 120, Height: 30}, "Reset All") {
			params = defaultParams()
			needsRegen = true
		}
		p.y += 45

		snippet, err := params.snippet()
		if err != nil {
			snippet = err.Error()
		}
		for _, line := range strings.Split(strings.TrimSpace(snippet), "\n") {
			if strings.Contains(line, "range_") || strings.Contains(line, "particle_rate") {
				continue
			}
			rl.DrawText(line, int32(p.x), int32(p.y), 12, rl.Gray)
			p.y += 14
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(p.x), windowHeight-30, 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) && err == nil {
			rl.SetClipboardText(snippet)
		}

		rl.EndDrawing()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// drawVortexMarkers circles each vortex position and its check range.
func drawVortexMarkers(p FieldParams) {
	field, _ := p.build()
	scale := previewSize / (2 * float64(p.Extent))
	for _, v := range field.Vortices() {
		cx := int32(10 + (v.Position.X+float64(p.Extent))*scale)
		cy := int32(10 + (v.Position.Z+float64(p.Extent))*scale)
		col := rl.Red
		if v.Torque < 0 {
			col = rl.Blue
		}
		rl.DrawCircle(cx, cy, 3, col)
		rl.DrawCircleLines(cx, cy, float32(v.CheckRange*scale), col)
	}
}

// updateTexture updates the GPU texture from the grid values
func updateTexture(texture rl.Texture2D, grid []float32) {
	pixels := make([]color.RGBA, len(grid))
	for i, v := range grid {
		// Use a color gradient: dark blue -> cyan -> yellow -> white
		var r, g, b uint8
		switch {
		case v < 0.25:
			t := v / 0.25
			r = uint8(10 + t*30)
			g = uint8(20 + t*60)
			b = uint8(60 + t*100)
		case v < 0.5:
			t := (v - 0.25) / 0.25
			r = uint8(40 + t*20)
			g = uint8(80 + t*120)
			b = uint8(160 + t*40)
		case v < 0.75:
			t := (v - 0.5) / 0.25
			r = uint8(60 + t*140)
			g = uint8(200 - t*40)
			b = uint8(200 - t*150)
		default:
			t := (v - 0.75) / 0.25
			r = uint8(200 + t*55)
			g = uint8(160 + t*95)
			b = uint8(50 + t*205)
		}
		pixels[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	rl.UpdateTexture(texture, pixels)
}
