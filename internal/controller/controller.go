// Package controller decides which colors the intersection shows each tick.
package controller

import (
	"fmt"
	"strings"

	"crossroads/internal/core"
	"crossroads/internal/sims/intersection"
)

// Controller chooses the horizontal and vertical light colors for the next
// dt seconds.
type Controller interface {
	Lights(dt float64) (horiz, vert intersection.Light)
	Reset()
}

// Kind names a controller implementation.
type Kind string

const (
	KindFixed  Kind = "fixed"
	KindManual Kind = "manual"
	KindRandom Kind = "random"
)

// Kinds lists the controller kinds New accepts.
var Kinds = []Kind{KindFixed, KindManual, KindRandom}

// Options configures New.
type Options struct {
	Kind Kind

	// Green and Yellow are the fixed-cycle phase durations in seconds.
	Green  float64
	Yellow float64

	// Hold is how long the random controller keeps an action, in seconds.
	Hold float64
	Seed int64
}

// DefaultOptions returns a fixed cycle of 10s green and 2s yellow.
func DefaultOptions() Options {
	return Options{Kind: KindFixed, Green: 10, Yellow: 2, Hold: 2, Seed: 1}
}

// New builds the controller described by opts.
func New(opts Options) (Controller, error) {
	switch Kind(strings.ToLower(string(opts.Kind))) {
	case KindFixed, "":
		return NewFixedCycle(opts.Green, opts.Yellow)
	case KindManual:
		return NewManual(), nil
	case KindRandom:
		return NewRandom(opts.Hold, core.NewRNG(opts.Seed))
	}
	return nil, fmt.Errorf("unknown controller %q: %w", opts.Kind, intersection.ErrInvalidInput)
}

// actionLights enumerates every horizontal/vertical color pair. Index is the
// action number used by learning agents.
var actionLights = [...][2]intersection.Light{
	{intersection.LightRed, intersection.LightRed},
	{intersection.LightRed, intersection.LightYellow},
	{intersection.LightRed, intersection.LightGreen},
	{intersection.LightYellow, intersection.LightRed},
	{intersection.LightYellow, intersection.LightYellow},
	{intersection.LightYellow, intersection.LightGreen},
	{intersection.LightGreen, intersection.LightRed},
	{intersection.LightGreen, intersection.LightYellow},
	{intersection.LightGreen, intersection.LightGreen},
}

// NumActions is the size of the discrete action space.
const NumActions = len(actionLights)

// ActionLights decodes a discrete action into a color pair.
func ActionLights(action int) (horiz, vert intersection.Light, err error) {
	if action < 0 || action >= NumActions {
		return 0, 0, fmt.Errorf("action %d out of range [0,%d): %w", action, NumActions, intersection.ErrInvalidInput)
	}
	pair := actionLights[action]
	return pair[0], pair[1], nil
}
