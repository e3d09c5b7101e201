package core

import "math"

// ByteGrid stores a 2D grid of byte-sized cell values in row-major order.
type ByteGrid struct {
	W, H int
	data []uint8
}

// NewByteGrid allocates a grid with the given dimensions.
func NewByteGrid(w, h int) *ByteGrid {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &ByteGrid{W: w, H: h, data: make([]uint8, w*h)}
}

// Cells exposes the backing slice so callers can read/write values directly.
func (g *ByteGrid) Cells() []uint8 { return g.data }

// Index returns the linear slice index for coordinates (x, y).
func (g *ByteGrid) Index(x, y int) int { return y*g.W + x }

// At returns the value at (x, y), or 0 outside the grid.
func (g *ByteGrid) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= g.W || y >= g.H {
		return 0
	}
	return g.data[g.Index(x, y)]
}

// FillRect paints v over the cells covered by the world-space rectangle
// (x, y, w, h) where each cell spans cellW by cellH world units. Cells that
// the rectangle only partially covers are painted too; out-of-range parts
// are clipped.
func (g *ByteGrid) FillRect(x, y, w, h, cellW, cellH float64, v uint8) {
	if w <= 0 || h <= 0 || cellW <= 0 || cellH <= 0 {
		return
	}
	x0 := int(math.Floor(x / cellW))
	y0 := int(math.Floor(y / cellH))
	x1 := int(math.Ceil((x + w) / cellW))
	y1 := int(math.Ceil((y + h) / cellH))
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, g.W), min(y1, g.H)
	for cy := y0; cy < y1; cy++ {
		row := cy * g.W
		for cx := x0; cx < x1; cx++ {
			g.data[row+cx] = v
		}
	}
}

// Clear fills the grid with zeros.
func (g *ByteGrid) Clear() {
	for i := range g.data {
		g.data[i] = 0
	}
}
