// Package config loads run configuration for the crossroads commands.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"crossroads/internal/controller"
	"crossroads/internal/logging"
	"crossroads/internal/sims/intersection"
)

// RunConfig is the top-level configuration for simulation runs.
type RunConfig struct {
	// Scenario is the spawn preset: normal, rush-hour or big-event.
	Scenario intersection.Scenario `yaml:"scenario"`

	// RewardFunction names a registered reward: normal or delta.
	RewardFunction string `yaml:"reward_function"`

	// Seed starts the spawn RNG. Nil seeds from the clock.
	Seed *int64 `yaml:"seed,omitempty"`

	TrialTime      float64 `yaml:"trial_time"`
	StopOnCrash    bool    `yaml:"stop_on_crash"`
	MaxSpeedJitter float64 `yaml:"max_speed_jitter"`

	// DT is the fixed step in seconds.
	DT float64 `yaml:"dt"`

	// Episodes is how many episodes a run plays back to back.
	Episodes int `yaml:"episodes"`

	Controller ControllerConfig `yaml:"controller"`
	Logging    LoggingConfig    `yaml:"logging"`
	Store      StoreConfig      `yaml:"store"`
}

// ControllerConfig selects and tunes the light controller.
type ControllerConfig struct {
	Kind   controller.Kind `yaml:"kind"`
	Green  float64         `yaml:"green"`
	Yellow float64         `yaml:"yellow"`
	Hold   float64         `yaml:"hold"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level controls verbosity: "info" (default), "debug", or "trace".
	Level string `yaml:"level"`
}

// StoreConfig points at the SQLite episode history.
type StoreConfig struct {
	// Path is the database file. Empty disables recording.
	Path string `yaml:"path"`

	// SampleEvery records one tick row per this many steps.
	SampleEvery int `yaml:"sample_every"`
}

// Default returns the default run configuration.
func Default() *RunConfig {
	ctl := controller.DefaultOptions()
	sim := intersection.DefaultConfig()
	return &RunConfig{
		Scenario:       sim.Scenario,
		RewardFunction: sim.RewardFunction,
		TrialTime:      sim.TrialTime,
		DT:             1.0 / 60,
		Episodes:       1,
		Controller: ControllerConfig{
			Kind:   ctl.Kind,
			Green:  ctl.Green,
			Yellow: ctl.Yellow,
			Hold:   ctl.Hold,
		},
		Logging: LoggingConfig{Level: "info"},
		Store:   StoreConfig{SampleEvery: 60},
	}
}

// Load builds the configuration from defaults, the optional file at path,
// and CROSSROADS_* environment variables, in that order.
func Load(path string) (*RunConfig, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileCfg
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile reads a YAML configuration. Missing keys keep their defaults.
func LoadFromFile(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *RunConfig) Validate() error {
	if err := c.Sim().Validate(); err != nil {
		return err
	}
	if !(c.DT > 0) || math.IsInf(c.DT, 0) {
		return fmt.Errorf("dt must be positive and finite, got %v: %w", c.DT, intersection.ErrInvalidInput)
	}
	if c.Episodes < 1 {
		return fmt.Errorf("episodes must be at least 1, got %d: %w", c.Episodes, intersection.ErrInvalidInput)
	}
	if _, err := controller.New(c.ControllerOptions(0)); err != nil {
		return err
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}
	if c.Store.SampleEvery < 1 {
		return fmt.Errorf("sample_every must be at least 1, got %d", c.Store.SampleEvery)
	}
	return nil
}

// Sim maps the run configuration onto a simulation config.
func (c *RunConfig) Sim() intersection.Config {
	sim := intersection.DefaultConfig()
	sim.Scenario = c.Scenario
	sim.RewardFunction = c.RewardFunction
	if c.Seed != nil {
		sim.Seed = intersection.Seed(*c.Seed)
	}
	sim.TrialTime = c.TrialTime
	sim.StopOnCrash = c.StopOnCrash
	sim.MaxSpeedJitter = c.MaxSpeedJitter
	return sim
}

// ControllerOptions maps the controller section onto controller options.
// seed feeds the random controller.
func (c *RunConfig) ControllerOptions(seed int64) controller.Options {
	return controller.Options{
		Kind:   c.Controller.Kind,
		Green:  c.Controller.Green,
		Yellow: c.Controller.Yellow,
		Hold:   c.Controller.Hold,
		Seed:   seed,
	}
}

// applyEnvOverrides applies CROSSROADS_* environment variables to the config.
func applyEnvOverrides(c *RunConfig) {
	if v := os.Getenv("CROSSROADS_SCENARIO"); v != "" {
		if sc, err := intersection.ParseScenario(v); err == nil {
			c.Scenario = sc
		}
	}
	if v := os.Getenv("CROSSROADS_REWARD"); v != "" {
		c.RewardFunction = v
	}
	if v := os.Getenv("CROSSROADS_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = &n
		}
	}
	if v := os.Getenv("CROSSROADS_TRIAL_TIME"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.TrialTime = f
		}
	}
	if v := os.Getenv("CROSSROADS_STOP_ON_CRASH"); v != "" {
		c.StopOnCrash = v == "true" || v == "1"
	}
	if v := os.Getenv("CROSSROADS_CONTROLLER"); v != "" {
		c.Controller.Kind = controller.Kind(strings.ToLower(v))
	}
	if v := os.Getenv("CROSSROADS_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("CROSSROADS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}
