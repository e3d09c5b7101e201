// Package tui draws the intersection in a terminal with tcell and feeds key
// presses to an app.Session.
package tui

import (
	"context"
	"fmt"
	"time"

	"crossroads/internal/app"
	"crossroads/internal/core"
	"crossroads/internal/render"

	"github.com/gdamore/tcell/v2"
)

const (
	// DefaultCols and DefaultRows keep the square world square in a
	// terminal whose cells are about twice as tall as wide.
	DefaultCols = 90
	DefaultRows = 45

	frameRate   = 16 * time.Millisecond
	maxCatchUp  = 4
	statusInset = 2
)

// Viewer renders a session onto a tcell screen.
type Viewer struct {
	screen  tcell.Screen
	session *app.Session
	raster  *render.Rasterizer
	step    *core.FixedStep
	styles  [len(render.Palette)]tcell.Style
}

// New builds a viewer for session. The screen must already be initialized.
func New(screen tcell.Screen, session *app.Session, cols, rows, tps int) *Viewer {
	if cols <= 0 {
		cols = DefaultCols
	}
	if rows <= 0 {
		rows = DefaultRows
	}
	v := &Viewer{
		screen:  screen,
		session: session,
		raster:  render.NewRasterizer(session.Sim().Geometry(), cols, rows),
		step:    core.NewFixedStep(tps),
	}
	for i, c := range render.Palette {
		bg := tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
		v.styles[i] = tcell.StyleDefault.Background(bg).Foreground(tcell.ColorWhite)
	}
	return v
}

// Run polls input and steps the session at the configured tick rate until
// ctx is done or the user quits.
func (v *Viewer) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 64)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(frameRate)
	defer ticker.Stop()
	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if v.handle(ev) == app.ActionQuit {
				return nil
			}
		case <-ticker.C:
			for n := v.step.Pending(maxCatchUp); n > 0; n-- {
				if err := v.session.Update(v.step.DT()); err != nil {
					return err
				}
			}
			v.Draw()
		}
	}
}

func (v *Viewer) handle(ev tcell.Event) app.Action {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
		return app.ActionHandled
	case *tcell.EventKey:
		return v.handleKey(ev.Key(), ev.Rune())
	}
	return app.ActionNone
}

func (v *Viewer) handleKey(key tcell.Key, r rune) app.Action {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return app.ActionQuit
	case tcell.KeyRune:
		return v.session.HandleKey(r)
	}
	return app.ActionNone
}

// Draw paints the raster and the status column, then shows the screen.
func (v *Viewer) Draw() {
	v.screen.Clear()
	cells := v.raster.Draw(v.session.Sim())
	cols, rows := v.raster.Size()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v.screen.SetContent(x, y, ' ', nil, v.styles[cells[y*cols+x]])
		}
	}
	y := 0
	for _, line := range v.session.StatusLines() {
		v.text(cols+statusInset, y, line)
		y++
	}
	y++
	v.text(cols+statusInset, y, app.Help)
	v.screen.Show()
}

func (v *Viewer) text(x, y int, s string) {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, tcell.StyleDefault)
		x++
	}
}

// Open creates and initializes the terminal screen.
func Open() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initializing screen: %w", err)
	}
	return screen, nil
}
