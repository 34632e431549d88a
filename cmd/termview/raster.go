package main

import (
	"github.com/gdamore/tcell/v2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/swirl/camera"
)

// ramp orders glyphs by coverage.
var ramp = []rune(" .:-=+*#%@")

// point is a particle reduced to what the terminal shows.
type point struct {
	pos        r3.Vec
	size       float64
	r, g, b, a float64
}

// cell accumulates the particles projected into one character.
type cell struct {
	weight  float64
	r, g, b float64
}

// raster projects points into a character grid. Terminal cells are about
// twice as tall as wide, so the camera sees a viewport of cols × 2·rows
// and rows are halved.
type raster struct {
	cols, rows int
	cells      []cell
}

func newRaster(cols, rows int) *raster {
	return &raster{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
}

func (r *raster) resize(cols, rows int) {
	if cols == r.cols && rows == r.rows {
		return
	}
	r.cols, r.rows = cols, rows
	r.cells = make([]cell, cols*rows)
}

func (r *raster) clear() {
	clear(r.cells)
}

// add splats p into the grid. Weight is alpha times the projected
// footprint, with a floor so distant particles stay visible.
func (r *raster) add(cam *camera.Camera, p point) {
	sx, sy, depth, ok := cam.WorldToScreen(p.pos)
	if !ok {
		return
	}
	x, y := int(sx), int(sy/2)
	if x < 0 || y < 0 || x >= r.cols || y >= r.rows {
		return
	}
	footprint := max(p.size*cam.PixelsPerUnit(depth), 0.25)
	w := p.a * min(footprint, 4)
	c := &r.cells[y*r.cols+x]
	c.weight += w
	c.r += p.r * w
	c.g += p.g * w
	c.b += p.b * w
}

// glyph returns the rune and average color of the cell at (x, y).
func (r *raster) glyph(x, y int) (rune, tcell.Color) {
	c := r.cells[y*r.cols+x]
	if c.weight <= 0 {
		return ' ', tcell.ColorDefault
	}
	i := 1 + int(c.weight*2)
	if i >= len(ramp) {
		i = len(ramp) - 1
	}
	col := tcell.NewRGBColor(channel(c.r/c.weight), channel(c.g/c.weight), channel(c.b/c.weight))
	return ramp[i], col
}

// count returns the number of lit cells.
func (r *raster) count() int {
	n := 0
	for _, c := range r.cells {
		if c.weight > 0 {
			n++
		}
	}
	return n
}

func channel(v float64) int32 {
	return int32(min(max(v, 0), 1)*255 + 0.5)
}

// draw copies the grid to the screen.
func (r *raster) draw(s tcell.Screen) {
	for y := 0; y < r.rows; y++ {
		for x := 0; x < r.cols; x++ {
			ch, col := r.glyph(x, y)
			s.SetContent(x, y, ch, nil, tcell.StyleDefault.Foreground(col))
		}
	}
}
