package app

import "github.com/spf13/pflag"

// ViewConfig holds the viewer settings shared by the window and terminal
// front ends.
type ViewConfig struct {
	Scale    float64
	TPS      int
	Cols     int
	Rows     int
	HUDWidth int
	Auto     bool
}

// NewViewConfig returns the window defaults: a 225x225 cell raster drawn at
// three pixels per cell, stepped at 60 ticks per second.
func NewViewConfig() *ViewConfig {
	return &ViewConfig{Scale: 3, TPS: 60, Cols: 225, Rows: 225, HUDWidth: 300, Auto: true}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *ViewConfig) Bind(fs *pflag.FlagSet) {
	fs.Float64Var(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.IntVar(&c.Cols, "cols", c.Cols, "raster columns")
	fs.IntVar(&c.Rows, "rows", c.Rows, "raster rows")
	fs.IntVar(&c.HUDWidth, "hud-width", c.HUDWidth, "width of the side panel in pixels")
	fs.BoolVar(&c.Auto, "auto", c.Auto, "start with the automatic light controller")
}

// DT is the simulated time per tick.
func (c *ViewConfig) DT() float64 {
	if c.TPS <= 0 {
		return 1.0 / 60
	}
	return 1 / float64(c.TPS)
}
