package render

import (
	"image/color"

	"crossroads/internal/core"
	"crossroads/internal/sims/intersection"
)

// Cell kinds written by Rasterizer. They index Palette.
const (
	CellGrass uint8 = iota
	CellRoad
	CellLaneLine
	CellCrossing
	CellStopRed
	CellStopYellow
	CellStopGreen
	CellCar
	CellWreck
	CellWreckFaded
	numCells
)

// Palette maps each cell kind to its display color.
var Palette = [numCells]color.RGBA{
	CellGrass:      {R: 46, G: 92, B: 46, A: 255},
	CellRoad:       {R: 60, G: 60, B: 64, A: 255},
	CellLaneLine:   {R: 230, G: 200, B: 40, A: 255},
	CellCrossing:   {R: 210, G: 210, B: 210, A: 255},
	CellStopRed:    {R: 220, G: 40, B: 40, A: 255},
	CellStopYellow: {R: 240, G: 200, B: 30, A: 255},
	CellStopGreen:  {R: 40, G: 200, B: 70, A: 255},
	CellCar:        {R: 70, G: 130, B: 230, A: 255},
	CellWreck:      {R: 250, G: 120, B: 20, A: 255},
	CellWreckFaded: {R: 120, G: 80, B: 50, A: 255},
}

// WreckFade is how long a wreck stays bright after the crash, in simulated
// seconds. Older wrecks are drawn faded until WreckLinger.
const (
	WreckFade   = 1.5
	WreckLinger = 4.0
)

// World is the read-only view of a simulation the rasterizer draws.
type World interface {
	Geometry() intersection.Geometry
	Vehicles() []intersection.VehicleState
	Wrecks() []intersection.VehicleState
	Lights() intersection.Lights
	Time() float64
}

// Rasterizer paints a World into a cols x rows grid of cell kinds. The
// static road layer is computed once.
type Rasterizer struct {
	geom         intersection.Geometry
	grid         *core.ByteGrid
	road         []uint8
	cellW, cellH float64
}

// NewRasterizer sizes a raster for g. Each cell covers
// (ScreenWidth/cols) x (ScreenHeight/rows) world pixels.
func NewRasterizer(g intersection.Geometry, cols, rows int) *Rasterizer {
	grid := core.NewByteGrid(cols, rows)
	r := &Rasterizer{
		geom:  g,
		grid:  grid,
		cellW: g.ScreenWidth / float64(grid.W),
		cellH: g.ScreenHeight / float64(grid.H),
	}
	r.drawRoad()
	r.road = append([]uint8(nil), grid.Cells()...)
	return r
}

// Size returns the raster dimensions in cells.
func (r *Rasterizer) Size() (int, int) { return r.grid.W, r.grid.H }

// Cells returns the most recent raster in row-major order.
func (r *Rasterizer) Cells() []uint8 { return r.grid.Cells() }

// At returns the cell kind at (x, y).
func (r *Rasterizer) At(x, y int) uint8 { return r.grid.At(x, y) }

// Draw rasterizes w and returns the cells.
func (r *Rasterizer) Draw(w World) []uint8 {
	cells := r.grid.Cells()
	copy(cells, r.road)

	lights := w.Lights()
	for _, l := range intersection.Lanes {
		r.fill(StopBar(r.geom, l), stopCell(lights.For(l)))
	}

	now := w.Time()
	for _, v := range w.Wrecks() {
		age := now - v.CrashedAt
		if age > WreckLinger {
			continue
		}
		kind := CellWreck
		if age > WreckFade {
			kind = CellWreckFaded
		}
		r.fill(r.geom.Rect(v.Lane, v.Distance), kind)
	}
	for _, v := range w.Vehicles() {
		r.fill(r.geom.Rect(v.Lane, v.Distance), CellCar)
	}
	return cells
}

func (r *Rasterizer) fill(rect intersection.Rect, v uint8) {
	r.grid.FillRect(rect.X, rect.Y, rect.W, rect.H, r.cellW, r.cellH, v)
}

func (r *Rasterizer) drawRoad() {
	g := r.geom
	midX, midY := g.ScreenWidth/2, g.ScreenHeight/2
	lw := g.LaneWidth

	r.fill(intersection.Rect{X: 0, Y: midY - lw, W: g.ScreenWidth, H: 2 * lw}, CellRoad)
	r.fill(intersection.Rect{X: midX - lw, Y: 0, W: 2 * lw, H: g.ScreenHeight}, CellRoad)

	// Center lines stop short of the crossings.
	box := lw + g.CrossingWidth
	lt := max(g.LineThickness, 1)
	r.fill(intersection.Rect{X: 0, Y: midY - lt/2, W: midX - box, H: lt}, CellLaneLine)
	r.fill(intersection.Rect{X: midX + box, Y: midY - lt/2, W: g.ScreenWidth - midX - box, H: lt}, CellLaneLine)
	r.fill(intersection.Rect{X: midX - lt/2, Y: 0, W: lt, H: midY - box}, CellLaneLine)
	r.fill(intersection.Rect{X: midX - lt/2, Y: midY + box, W: lt, H: g.ScreenHeight - midY - box}, CellLaneLine)

	for _, c := range Crossings(g) {
		r.fill(c, CellCrossing)
	}
}

func stopCell(l intersection.Light) uint8 {
	switch l {
	case intersection.LightGreen:
		return CellStopGreen
	case intersection.LightYellow:
		return CellStopYellow
	}
	return CellStopRed
}

// StopBar returns the stop line painted across lane l, just ahead of where
// a stopped car's front bumper rests.
func StopBar(g intersection.Geometry, l intersection.LaneID) intersection.Rect {
	stop := g.Rect(l, g.StopPos(l))
	ahead := g.Rect(l, g.StopPos(l)+1)
	lw := g.LaneWidth
	if l.Axis() == intersection.AxisHorizontal {
		y := g.ScreenHeight / 2
		if stop.Y+stop.H/2 < y {
			y -= lw
		}
		if ahead.X > stop.X {
			return intersection.Rect{X: stop.X + stop.W + g.StopBlockSpacing, Y: y, W: g.StopBlockWidth, H: lw}
		}
		return intersection.Rect{X: stop.X - g.StopBlockSpacing - g.StopBlockWidth, Y: y, W: g.StopBlockWidth, H: lw}
	}
	x := g.ScreenWidth / 2
	if stop.X+stop.W/2 < x {
		x -= lw
	}
	if ahead.Y > stop.Y {
		return intersection.Rect{X: x, Y: stop.Y + stop.H + g.StopBlockSpacing, W: lw, H: g.StopBlockWidth}
	}
	return intersection.Rect{X: x, Y: stop.Y - g.StopBlockSpacing - g.StopBlockWidth, W: lw, H: g.StopBlockWidth}
}

// Crossings returns the four pedestrian crossings bordering the junction box.
func Crossings(g intersection.Geometry) []intersection.Rect {
	midX, midY := g.ScreenWidth/2, g.ScreenHeight/2
	lw, cw := g.LaneWidth, g.CrossingWidth
	return []intersection.Rect{
		{X: midX - lw - cw, Y: midY - lw, W: cw, H: 2 * lw},
		{X: midX + lw, Y: midY - lw, W: cw, H: 2 * lw},
		{X: midX - lw, Y: midY - lw - cw, W: 2 * lw, H: cw},
		{X: midX - lw, Y: midY + lw, W: 2 * lw, H: cw},
	}
}
