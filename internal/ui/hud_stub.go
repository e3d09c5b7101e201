//go:build !ebiten

package ui

import "crossroads/internal/core"

// Panel is what the HUD shows and adjusts.
type Panel interface {
	StatusLines() []string
	ParameterControls() []core.ParameterControl
	Value(key string) (float64, bool)
	Adjust(key string, delta float64) bool
}

// HUD is a no-op placeholder for headless builds.
type HUD struct{}

// NewHUD returns nil in the headless build.
func NewHUD(Panel, int) *HUD { return nil }

// Width is zero in the headless build.
func (h *HUD) Width() int { return 0 }

// Update is a no-op in the headless build.
func (h *HUD) Update(int) {}

// Draw is a no-op in the headless build.
func (h *HUD) Draw(any, int, int) {}
