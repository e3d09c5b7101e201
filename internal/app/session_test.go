package app

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"crossroads/internal/controller"
	"crossroads/internal/logging"
	"crossroads/internal/sims/intersection"
)

func newTestSession(t *testing.T, mutate func(*intersection.Config), auto bool) *Session {
	t.Helper()
	cfg := intersection.DefaultConfig()
	cfg.Seed = intersection.Seed(5)
	if mutate != nil {
		mutate(&cfg)
	}
	sim, err := intersection.New(cfg)
	if err != nil {
		t.Fatalf("intersection.New: %v", err)
	}
	var ctrl controller.Controller
	if auto {
		fc, err := controller.NewFixedCycle(10, 2)
		if err != nil {
			t.Fatalf("NewFixedCycle: %v", err)
		}
		ctrl = fc
	}
	return NewSession(sim, ctrl, nil)
}

func mustUpdate(t *testing.T, s *Session, dt float64) {
	t.Helper()
	if err := s.Update(dt); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestNewSessionMode(t *testing.T) {
	if got := newTestSession(t, nil, true).Mode(); got != ModeAuto {
		t.Fatalf("mode with controller = %s, want auto", got)
	}
	s := newTestSession(t, nil, false)
	if s.Mode() != ModeManual {
		t.Fatalf("mode without controller = %s, want manual", s.Mode())
	}
	if s.HandleKey('c') != ActionHandled || s.Mode() != ModeManual {
		t.Fatal("toggling auto without a controller should stay manual")
	}
	if s.Episode() != 1 || s.Sim().Status() != intersection.StatusRunning {
		t.Fatalf("episode %d status %s", s.Episode(), s.Sim().Status())
	}
}

func TestSessionManualKeys(t *testing.T) {
	s := newTestSession(t, nil, true)
	if s.HandleKey('a') != ActionHandled {
		t.Fatal("a should be bound")
	}
	if s.Mode() != ModeManual {
		t.Fatal("a light key should switch to manual")
	}
	s.HandleKey('w')
	mustUpdate(t, s, 1.0/60)
	got := s.Sim().Lights()
	if got.Horizontal != intersection.LightGreen || got.Vertical != intersection.LightYellow {
		t.Fatalf("lights = %+v, want green/yellow", got)
	}

	s.HandleKey('c')
	if s.Mode() != ModeAuto {
		t.Fatal("c should switch back to auto")
	}
	mustUpdate(t, s, 1.0/60)
	got = s.Sim().Lights()
	if got.Horizontal != intersection.LightGreen || got.Vertical != intersection.LightRed {
		t.Fatalf("cycle lights = %+v, want green/red", got)
	}

	if s.HandleKey('z') != ActionNone {
		t.Fatal("unbound key reported as handled")
	}
	if s.HandleKey(0x1b) != ActionQuit {
		t.Fatal("escape should quit")
	}
}

func TestSessionPauseAndStep(t *testing.T) {
	s := newTestSession(t, nil, true)
	s.HandleKey(' ')
	if !s.Paused() {
		t.Fatal("space should pause")
	}
	mustUpdate(t, s, 0.5)
	if s.Sim().Time() != 0 {
		t.Fatalf("paused session advanced to %v", s.Sim().Time())
	}
	s.HandleKey('+')
	s.HandleKey('n')
	mustUpdate(t, s, 0.5)
	mustUpdate(t, s, 0.5)
	if s.Sim().Time() != 0.5 {
		t.Fatalf("single step reached %v, want 0.5", s.Sim().Time())
	}
	s.HandleKey(' ')
	mustUpdate(t, s, 0.5)
	if s.Sim().Time() != 1.5 {
		t.Fatalf("unpaused x2 reached %v, want 1.5", s.Sim().Time())
	}
}

func TestSessionSpeedupBounds(t *testing.T) {
	s := newTestSession(t, nil, false)
	for i := 0; i < 10; i++ {
		s.HandleKey('+')
	}
	if s.Speedup() != maxSpeedup {
		t.Fatalf("speedup = %d, want %d", s.Speedup(), maxSpeedup)
	}
	for i := 0; i < 10; i++ {
		s.HandleKey('-')
	}
	if s.Speedup() != 1 {
		t.Fatalf("speedup = %d, want 1", s.Speedup())
	}
	if s.Adjust("speedup", -1) {
		t.Fatal("speedup below 1 reported a change")
	}
	if !s.Adjust("speedup", 1) || s.Speedup() != 2 {
		t.Fatalf("Adjust up gave %d", s.Speedup())
	}
}

func TestSessionResetAndReseed(t *testing.T) {
	s := newTestSession(t, nil, true)
	mustUpdate(t, s, 1)
	s.HandleKey('r')
	if s.Sim().Time() != 0 || s.Episode() != 2 || s.Sim().Seed() != 5 {
		t.Fatalf("reset: time %v episode %d seed %d", s.Sim().Time(), s.Episode(), s.Sim().Seed())
	}

	s.now = func() time.Time { return time.Unix(0, 99) }
	s.HandleKey('x')
	if s.Sim().Seed() != 99 || s.Episode() != 3 {
		t.Fatalf("reseed: seed %d episode %d", s.Sim().Seed(), s.Episode())
	}
}

func TestSessionRestartsFinishedEpisode(t *testing.T) {
	var buf bytes.Buffer
	cfg := intersection.DefaultConfig()
	cfg.Seed = intersection.Seed(5)
	cfg.TrialTime = 1
	sim, err := intersection.New(cfg)
	if err != nil {
		t.Fatalf("intersection.New: %v", err)
	}
	s := NewSession(sim, nil, logging.NewLogger("info", &buf))
	mustUpdate(t, s, 0.5)
	if s.Episode() != 1 {
		t.Fatal("episode ended early")
	}
	mustUpdate(t, s, 0.5)
	if s.Episode() != 2 || s.Sim().Time() != 0 || s.TotalReward() != 0 {
		t.Fatalf("episode %d time %v reward %v after horizon", s.Episode(), s.Sim().Time(), s.TotalReward())
	}
	if !strings.Contains(buf.String(), "msg=\"episode finished\"") {
		t.Fatalf("finish not logged: %s", buf.String())
	}
}

func TestSessionCycleControls(t *testing.T) {
	s := newTestSession(t, nil, true)
	keys := []string{}
	for _, c := range s.ParameterControls() {
		keys = append(keys, c.Key)
	}
	if strings.Join(keys, ",") != "speedup,green,yellow" {
		t.Fatalf("controls = %v", keys)
	}
	if !s.Adjust("green", 0.5) {
		t.Fatal("green adjust rejected")
	}
	if v, ok := s.Value("green"); !ok || v != 10.5 {
		t.Fatalf("green = %v, %v", v, ok)
	}
	if s.Adjust("yellow", -5) {
		t.Fatal("negative yellow accepted")
	}
	if v, _ := s.Value("yellow"); v != 2 {
		t.Fatalf("yellow = %v after rejected adjust", v)
	}

	manual := newTestSession(t, nil, false)
	if len(manual.ParameterControls()) != 1 {
		t.Fatal("cycle controls offered without a cycle")
	}
	if _, ok := manual.Value("green"); ok || manual.Adjust("green", 1) {
		t.Fatal("green available without a cycle")
	}
}

func TestSessionStatusLines(t *testing.T) {
	s := newTestSession(t, func(c *intersection.Config) { c.Scenario = intersection.ScenarioRushHour }, true)
	s.HandleKey(' ')
	lines := s.StatusLines()
	if len(lines) != 6 {
		t.Fatalf("got %d status lines", len(lines))
	}
	if !strings.Contains(lines[0], "episode 1") || !strings.Contains(lines[0], "rush-hour") {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "auto, paused") {
		t.Fatalf("state line = %q", lines[1])
	}
}
