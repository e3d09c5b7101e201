//go:build ebiten

package app

import (
	"crossroads/internal/render"
	"crossroads/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Game adapts a Session to the ebiten.Game interface.
type Game struct {
	session *Session
	raster  *render.Rasterizer
	painter *render.GridPainter
	hud     *ui.HUD

	scale float64
	dt    float64
	chars []rune
}

// New constructs a Game drawing the session's simulation with cfg.
func New(session *Session, cfg *ViewConfig) *Game {
	raster := render.NewRasterizer(session.Sim().Geometry(), cfg.Cols, cfg.Rows)
	w, h := raster.Size()
	return &Game{
		session: session,
		raster:  raster,
		painter: render.NewGridPainter(w, h),
		hud:     ui.NewHUD(session, cfg.HUDWidth),
		scale:   cfg.Scale,
		dt:      cfg.DT(),
	}
}

// Update handles per-frame input and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.chars = ebiten.AppendInputChars(g.chars[:0])
	for _, r := range g.chars {
		if g.session.HandleKey(r) == ActionQuit {
			return ebiten.Termination
		}
	}
	g.hud.Update(g.viewWidth())
	return g.session.Update(g.dt)
}

// Draw renders the road, vehicles and side panel.
func (g *Game) Draw(screen *ebiten.Image) {
	g.raster.Draw(g.session.Sim())
	g.painter.Blit(screen, g.raster.Cells(), g.scale)
	g.hud.Draw(screen, g.viewWidth(), g.viewHeight())
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.viewWidth() + g.hud.Width(), g.viewHeight()
}

func (g *Game) viewWidth() int {
	w, _ := g.painter.Size()
	return int(float64(w) * g.scale)
}

func (g *Game) viewHeight() int {
	_, h := g.painter.Size()
	return int(float64(h) * g.scale)
}
