package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crossroads/internal/controller"
	"crossroads/internal/sims/intersection"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Scenario != intersection.ScenarioNormal {
		t.Errorf("expected normal scenario, got %s", cfg.Scenario)
	}
	if cfg.RewardFunction != "normal" {
		t.Errorf("expected reward 'normal', got '%s'", cfg.RewardFunction)
	}
	if cfg.TrialTime != 60 {
		t.Errorf("expected trial_time 60, got %v", cfg.TrialTime)
	}
	if cfg.Seed != nil {
		t.Errorf("expected nil seed, got %d", *cfg.Seed)
	}
	if cfg.Controller.Kind != controller.KindFixed {
		t.Errorf("expected fixed controller, got %s", cfg.Controller.Kind)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "run.yaml")
	content := `
scenario: rush-hour
reward_function: delta
seed: 42
trial_time: 120
stop_on_crash: true
episodes: 3
controller:
  kind: random
  hold: 4
store:
  path: runs.db
  sample_every: 30
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Scenario != intersection.ScenarioRushHour {
		t.Errorf("expected rush-hour, got %s", cfg.Scenario)
	}
	if cfg.RewardFunction != "delta" {
		t.Errorf("expected delta reward, got %s", cfg.RewardFunction)
	}
	if cfg.Seed == nil || *cfg.Seed != 42 {
		t.Errorf("expected seed 42, got %v", cfg.Seed)
	}
	if cfg.TrialTime != 120 || !cfg.StopOnCrash || cfg.Episodes != 3 {
		t.Errorf("unexpected episode settings: %+v", cfg)
	}
	if cfg.Controller.Kind != controller.KindRandom || cfg.Controller.Hold != 4 {
		t.Errorf("unexpected controller: %+v", cfg.Controller)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Controller.Green != 10 || cfg.DT != 1.0/60 {
		t.Errorf("defaults lost: green %v dt %v", cfg.Controller.Green, cfg.DT)
	}
	if cfg.Store.Path != "runs.db" || cfg.Store.SampleEvery != 30 {
		t.Errorf("unexpected store: %+v", cfg.Store)
	}

	sim := cfg.Sim()
	if sim.Seed == nil || *sim.Seed != 42 || sim.Scenario != intersection.ScenarioRushHour || !sim.StopOnCrash {
		t.Errorf("Sim() mapping wrong: %+v", sim)
	}
}

func TestLoadFromFileNumericScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("scenario: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Scenario != intersection.ScenarioBigEvent {
		t.Errorf("expected big-event, got %s", cfg.Scenario)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("scenario: gridlock\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFromFile(path)
	if err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Fatalf("expected parse error, got %v", err)
	}
	if !errors.Is(err, intersection.ErrInvalidInput) {
		t.Fatalf("parse error should wrap ErrInvalidInput: %v", err)
	}
}

func TestLoadAppliesEnv(t *testing.T) {
	t.Setenv("CROSSROADS_SCENARIO", "big-event")
	t.Setenv("CROSSROADS_REWARD", "delta")
	t.Setenv("CROSSROADS_SEED", "9")
	t.Setenv("CROSSROADS_TRIAL_TIME", "30")
	t.Setenv("CROSSROADS_STOP_ON_CRASH", "1")
	t.Setenv("CROSSROADS_CONTROLLER", "Manual")
	t.Setenv("CROSSROADS_DB", "/tmp/x.db")
	t.Setenv("CROSSROADS_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scenario != intersection.ScenarioBigEvent || cfg.RewardFunction != "delta" {
		t.Errorf("scenario/reward = %s/%s", cfg.Scenario, cfg.RewardFunction)
	}
	if cfg.Seed == nil || *cfg.Seed != 9 || cfg.TrialTime != 30 || !cfg.StopOnCrash {
		t.Errorf("episode overrides not applied: %+v", cfg)
	}
	if cfg.Controller.Kind != controller.KindManual || cfg.Store.Path != "/tmp/x.db" || cfg.Logging.Level != "debug" {
		t.Errorf("surface overrides not applied: %+v", cfg)
	}
}

func TestLoadWrapsFileError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "loading config file") {
		t.Fatalf("expected wrapped load error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RunConfig)
		wantErr bool
	}{
		{"default", func(*RunConfig) {}, false},
		{"zero dt", func(c *RunConfig) { c.DT = 0 }, true},
		{"no episodes", func(c *RunConfig) { c.Episodes = 0 }, true},
		{"unknown reward", func(c *RunConfig) { c.RewardFunction = "nope" }, true},
		{"bad trial time", func(c *RunConfig) { c.TrialTime = -1 }, true},
		{"bad controller", func(c *RunConfig) { c.Controller.Kind = "psychic" }, true},
		{"bad green", func(c *RunConfig) { c.Controller.Green = 0 }, true},
		{"bad level", func(c *RunConfig) { c.Logging.Level = "loud" }, true},
		{"empty level", func(c *RunConfig) { c.Logging.Level = "" }, false},
		{"bad sampling", func(c *RunConfig) { c.Store.SampleEvery = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
