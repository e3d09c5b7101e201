package controller

import (
	"fmt"

	"crossroads/internal/sims/intersection"
)

type phase struct {
	horiz, vert intersection.Light
	yellow      bool
}

var cycle = [...]phase{
	{horiz: intersection.LightGreen, vert: intersection.LightRed},
	{horiz: intersection.LightYellow, vert: intersection.LightYellow, yellow: true},
	{horiz: intersection.LightRed, vert: intersection.LightGreen},
	{horiz: intersection.LightYellow, vert: intersection.LightYellow, yellow: true},
}

// FixedCycle rotates horizontal green, both yellow, vertical green, both
// yellow, spending green or yellow seconds in each phase.
type FixedCycle struct {
	green, yellow float64
	phase         int
	remaining     float64
}

// NewFixedCycle returns a cycle starting at the beginning of horizontal green.
func NewFixedCycle(green, yellow float64) (*FixedCycle, error) {
	if !(green > 0) || yellow < 0 {
		return nil, fmt.Errorf("cycle durations green=%v yellow=%v: %w", green, yellow, intersection.ErrInvalidInput)
	}
	c := &FixedCycle{green: green, yellow: yellow}
	c.Reset()
	return c, nil
}

// Durations returns the green and yellow phase lengths.
func (c *FixedCycle) Durations() (green, yellow float64) { return c.green, c.yellow }

// SetDurations changes the phase lengths. The running phase keeps its
// remaining time.
func (c *FixedCycle) SetDurations(green, yellow float64) error {
	if !(green > 0) || yellow < 0 {
		return fmt.Errorf("cycle durations green=%v yellow=%v: %w", green, yellow, intersection.ErrInvalidInput)
	}
	c.green, c.yellow = green, yellow
	return nil
}

// Reset returns to the start of horizontal green.
func (c *FixedCycle) Reset() {
	c.phase = 0
	c.remaining = c.green
}

// Phase returns the current phase index (0-3) and the seconds left in it.
func (c *FixedCycle) Phase() (int, float64) { return c.phase, c.remaining }

// Lights returns the colors for the coming tick, then charges dt against
// the current phase.
func (c *FixedCycle) Lights(dt float64) (intersection.Light, intersection.Light) {
	for c.remaining <= 0 {
		c.advance()
	}
	p := cycle[c.phase]
	c.remaining -= dt
	return p.horiz, p.vert
}

func (c *FixedCycle) advance() {
	c.phase = (c.phase + 1) % len(cycle)
	if cycle[c.phase].yellow {
		c.remaining += c.yellow
	} else {
		c.remaining += c.green
	}
}
