package intersection

import (
	"fmt"
	"math"
	"strconv"
)

// Config controls an intersection simulation.
type Config struct {
	Scenario       Scenario
	RewardFunction string

	// Seed starts the spawn RNG. Nil draws a seed from the wall clock.
	Seed *int64

	// TrialTime is the episode horizon in simulated seconds.
	TrialTime float64

	// StopOnCrash marks the episode terminated once any crash happens. The
	// simulation keeps running; callers decide whether to stop.
	StopOnCrash bool

	// MaxSpeedJitter lowers each spawned car's cap by a uniform amount in
	// [0, MaxSpeedJitter). Zero gives every car the same cap.
	MaxSpeedJitter float64

	Geometry Geometry
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Scenario:       ScenarioNormal,
		RewardFunction: "normal",
		TrialTime:      60,
		Geometry:       DefaultGeometry(),
	}
}

// Seed returns a pointer to v for Config.Seed.
func Seed(v int64) *int64 { return &v }

// Validate checks the configuration before a simulation is built from it.
func (c Config) Validate() error {
	if !c.Scenario.Valid() {
		return fmt.Errorf("scenario %s: %w", c.Scenario, ErrInvalidInput)
	}
	if _, err := LookupReward(c.RewardFunction); err != nil {
		return err
	}
	if !(c.TrialTime > 0) || math.IsInf(c.TrialTime, 0) {
		return fmt.Errorf("trial time must be positive and finite, got %v: %w", c.TrialTime, ErrInvalidInput)
	}
	if err := c.Geometry.Validate(); err != nil {
		return err
	}
	maxSpeed := c.Geometry.SpeedLimit - vehicleSpeedMargin
	if c.MaxSpeedJitter < 0 || c.MaxSpeedJitter >= maxSpeed {
		return fmt.Errorf("max speed jitter must be in [0, %v), got %v: %w", maxSpeed, c.MaxSpeedJitter, ErrInvalidInput)
	}
	return nil
}

// FromMap populates the config from a string map (flag-style key/value pairs).
// Unparseable values keep their defaults.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["scenario"]; ok {
		if parsed, err := ParseScenario(v); err == nil {
			c.Scenario = parsed
		}
	}
	if v, ok := cfg["reward"]; ok {
		if _, err := LookupReward(v); err == nil {
			c.RewardFunction = v
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = Seed(parsed)
		}
	}
	if v, ok := cfg["trial_time"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.TrialTime = parsed
		}
	}
	if v, ok := cfg["stop_on_crash"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.StopOnCrash = parsed
		}
	}
	if v, ok := cfg["max_speed_jitter"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			c.MaxSpeedJitter = parsed
		}
	}
	return c
}
