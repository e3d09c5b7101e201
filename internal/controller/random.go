package controller

import (
	"fmt"

	"crossroads/internal/core"
	"crossroads/internal/sims/intersection"
)

// Random picks a uniformly random action and holds it for a fixed time. It
// is the untrained baseline that learned controllers are compared against.
type Random struct {
	rng       *core.RNG
	hold      float64
	remaining float64
	action    int
}

// NewRandom returns a random controller drawing from rng.
func NewRandom(hold float64, rng *core.RNG) (*Random, error) {
	if !(hold > 0) {
		return nil, fmt.Errorf("hold %v must be positive: %w", hold, intersection.ErrInvalidInput)
	}
	return &Random{rng: rng, hold: hold}, nil
}

func (c *Random) Reset() { c.remaining = 0 }

// Action returns the action currently held.
func (c *Random) Action() int { return c.action }

func (c *Random) Lights(dt float64) (intersection.Light, intersection.Light) {
	if c.remaining <= 0 {
		c.action = c.rng.IntN(NumActions)
		c.remaining = c.hold
	}
	c.remaining -= dt
	// IntN keeps the action in range.
	h, v, _ := ActionLights(c.action)
	return h, v
}
