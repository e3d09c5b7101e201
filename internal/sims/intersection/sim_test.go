package intersection

import (
	"errors"
	"math"
	"testing"
)

func newTestSim(t *testing.T, mutate func(*Config)) *Sim {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Seed = Seed(1)
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// quiet disables spawning so tests can place vehicles by hand.
func quiet(s *Sim) *Sim {
	s.slots = nil
	return s
}

func place(s *Sim, lane LaneID, d, speed float64) *Vehicle {
	s.nextID++
	v := NewVehicle(s.nextID, lane, d, s.geom, 0)
	v.speed = speed
	s.lanes.push(v)
	s.numCars++
	return v
}

func mustStep(t *testing.T, s *Sim, dt float64, h, v Light) (float64, Metrics) {
	t.Helper()
	r, m, err := s.Step(dt, h, v)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	return r, m
}

func TestNewStartsIdleWithGreenLights(t *testing.T) {
	s := newTestSim(t, nil)
	if s.Status() != StatusIdle {
		t.Fatalf("status = %s, want idle", s.Status())
	}
	if got := s.Lights(); got.Horizontal != LightGreen || got.Vertical != LightGreen {
		t.Fatalf("lights = %+v, want both green", got)
	}
	if s.Seed() != 1 {
		t.Fatalf("Seed() = %d, want 1", s.Seed())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"scenario":   func(c *Config) { c.Scenario = 0 },
		"reward":     func(c *Config) { c.RewardFunction = "nope" },
		"trial time": func(c *Config) { c.TrialTime = 0 },
		"infinite":   func(c *Config) { c.TrialTime = math.Inf(1) },
		"jitter":     func(c *Config) { c.MaxSpeedJitter = 1000 },
		"geometry":   func(c *Config) { c.Geometry.CarLength = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("New error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestStepRejectsBadInputWithoutSideEffects(t *testing.T) {
	s := newTestSim(t, nil)
	cases := []struct {
		name string
		dt   float64
		h, v Light
	}{
		{"zero light", 1.0 / 60, 0, LightRed},
		{"unknown light", 1.0 / 60, LightRed, Light(9)},
		{"negative dt", -1, LightRed, LightRed},
		{"nan dt", math.NaN(), LightRed, LightRed},
		{"inf dt", math.Inf(1), LightRed, LightRed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := s.Step(tc.dt, tc.h, tc.v); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Step error = %v, want ErrInvalidInput", err)
			}
			if s.Status() != StatusIdle || s.Time() != 0 || s.Lanes().Total() != 0 {
				t.Fatalf("rejected step changed state: status %s time %v cars %d", s.Status(), s.Time(), s.Lanes().Total())
			}
			if got := s.Lights(); got.Horizontal != LightGreen || got.Vertical != LightGreen {
				t.Fatalf("rejected step changed lights to %+v", got)
			}
		})
	}
}

func TestStepZeroDtKeepsTime(t *testing.T) {
	s := quiet(newTestSim(t, nil))
	v := place(s, LaneLeftRight, -500, 320)
	mustStep(t, s, 0, LightGreen, LightGreen)
	if s.Time() != 0 || v.Distance() != -500 {
		t.Fatalf("dt=0 advanced the world: time %v distance %v", s.Time(), v.Distance())
	}
	if s.Status() != StatusRunning {
		t.Fatalf("status = %s, want running", s.Status())
	}
}

func TestStatusTruncatesAtHorizon(t *testing.T) {
	s := quiet(newTestSim(t, func(c *Config) { c.TrialTime = 1 }))
	for i := 0; i < 3; i++ {
		_, m := mustStep(t, s, 0.25, LightRed, LightRed)
		if m.Truncated || m.Done() {
			t.Fatalf("truncated early at step %d (time %v)", i, m.Time)
		}
	}
	_, m := mustStep(t, s, 0.25, LightRed, LightRed)
	if !m.Truncated || s.Status() != StatusTruncated {
		t.Fatalf("not truncated at time %v: status %s", m.Time, s.Status())
	}
	_, m = mustStep(t, s, 0.25, LightRed, LightRed)
	if !m.Truncated || m.Time != 1.25 {
		t.Fatalf("stepping past horizon: truncated %v time %v", m.Truncated, m.Time)
	}
	s.Reset()
	if s.Status() != StatusRunning {
		t.Fatalf("status after Reset = %s, want running", s.Status())
	}
}

func TestResetClearsEpisode(t *testing.T) {
	s := newTestSim(t, func(c *Config) { c.Scenario = ScenarioRushHour })
	for i := 0; i < 600; i++ {
		mustStep(t, s, 1.0/60, LightGreen, LightRed)
	}
	if s.Metrics().Spawned == 0 {
		t.Fatal("expected rush hour to spawn vehicles in 10s")
	}
	obs := s.Reset()
	if obs.HorizLight != LightRed || obs.VertLight != LightRed {
		t.Fatalf("lights after Reset = %s/%s, want red/red", obs.HorizLight, obs.VertLight)
	}
	if obs.CarsPerLane != [NumLanes]int{} {
		t.Fatalf("lanes after Reset = %v, want empty", obs.CarsPerLane)
	}
	m := s.Metrics()
	if m.Time != 0 || m.TotalWaitTime != 0 || m.CarsPassed != 0 || m.NumCrashes != 0 || m.Spawned != 0 {
		t.Fatalf("counters after Reset = %+v", m)
	}
	if len(s.Wrecks()) != 0 {
		t.Fatal("wrecks survived Reset")
	}
}

func TestResetDoesNotReseed(t *testing.T) {
	a := newTestSim(t, func(c *Config) { c.Seed = Seed(5) })
	b := newTestSim(t, func(c *Config) { c.Seed = Seed(5) })
	a.rng.Float64()
	b.rng.Float64()
	a.Reset()
	if x, y := a.rng.Float64(), b.rng.Float64(); x != y {
		t.Fatalf("Reset disturbed the RNG stream: %v != %v", x, y)
	}
	a.Reseed(5)
	b.Reseed(5)
	if x, y := a.rng.Float64(), b.rng.Float64(); x != y {
		t.Fatalf("Reseed diverged: %v != %v", x, y)
	}
}

func TestSameSeedSameEpisode(t *testing.T) {
	run := func() ([]float64, Metrics) {
		s := newTestSim(t, func(c *Config) {
			c.Seed = Seed(42)
			c.Scenario = ScenarioRushHour
			c.MaxSpeedJitter = 40
			c.TrialTime = 1000
		})
		rewards := make([]float64, 0, 3000)
		var m Metrics
		for i := 0; i < 3000; i++ {
			h, v := LightGreen, LightRed
			if (i/600)%2 == 1 {
				h, v = LightRed, LightGreen
			}
			var r float64
			r, m = mustStep(t, s, 1.0/60, h, v)
			rewards = append(rewards, r)
		}
		return rewards, m
	}
	ra, ma := run()
	rb, mb := run()
	for i := range ra {
		if ra[i] != rb[i] {
			t.Fatalf("reward %d diverged: %v != %v", i, ra[i], rb[i])
		}
	}
	if ma != mb {
		t.Fatalf("final metrics diverged:\n%+v\n%+v", ma, mb)
	}
}

func TestRedEverywhereNeverCrashesOrCrosses(t *testing.T) {
	for _, sc := range []Scenario{ScenarioNormal, ScenarioRushHour, ScenarioBigEvent} {
		t.Run(sc.String(), func(t *testing.T) {
			s := newTestSim(t, func(c *Config) { c.Scenario = sc; c.Seed = Seed(11) })
			for i := 0; i < 3600; i++ {
				_, m := mustStep(t, s, 1.0/60, LightRed, LightRed)
				if m.NumCrashes != 0 {
					t.Fatalf("crash under all-red at %v", m.Time)
				}
				for _, l := range Lanes {
					for _, v := range s.Lanes().Lane(l) {
						if v.PastStopLine() {
							t.Fatalf("%s vehicle %d crossed the stop line at %v", l, v.ID(), v.Distance())
						}
					}
				}
			}
		})
	}
}

func TestOneAxisGreenFlowsWithoutCrashes(t *testing.T) {
	s := newTestSim(t, func(c *Config) { c.Scenario = ScenarioRushHour; c.Seed = Seed(3) })
	var m Metrics
	for i := 0; i < 3600; i++ {
		_, m = mustStep(t, s, 1.0/60, LightGreen, LightRed)
	}
	if m.NumCrashes != 0 {
		t.Fatalf("crashes = %d, want 0", m.NumCrashes)
	}
	if m.CarsPassed == 0 {
		t.Fatal("no horizontal traffic passed under green")
	}
}

func TestVehiclePassesExactlyOnce(t *testing.T) {
	s := quiet(newTestSim(t, nil))
	place(s, LaneUpDown, s.geom.ExitDistance()-1, 320)
	_, m := mustStep(t, s, 1.0/60, LightGreen, LightGreen)
	if m.CarsPassed != 1 || m.PassedDiff != 1 {
		t.Fatalf("first step passed %d (diff %d), want 1", m.CarsPassed, m.PassedDiff)
	}
	if s.Lanes().Total() != 0 {
		t.Fatal("exited vehicle still in lane")
	}
	_, m = mustStep(t, s, 1.0/60, LightGreen, LightGreen)
	if m.CarsPassed != 1 || m.PassedDiff != 0 {
		t.Fatalf("second step passed %d (diff %d), want 1/0", m.CarsPassed, m.PassedDiff)
	}
}

func TestObservationTracksLanes(t *testing.T) {
	s := quiet(newTestSim(t, nil))
	place(s, LaneRightLeft, -800, 0)
	place(s, LaneRightLeft, -1000, 0)
	place(s, LaneDownUp, -800, 0)
	mustStep(t, s, 1.0/60, LightYellow, LightRed)
	obs := s.Observe()
	if obs.CarsPerLane != [NumLanes]int{0, 2, 0, 1} {
		t.Fatalf("CarsPerLane = %v", obs.CarsPerLane)
	}
	if obs.HorizLight != LightYellow || obs.VertLight != LightRed {
		t.Fatalf("observed lights %s/%s", obs.HorizLight, obs.VertLight)
	}
	if got := len(s.Vehicles()); got != 3 {
		t.Fatalf("Vehicles() len = %d, want 3", got)
	}
}

func TestAverageWaitTime(t *testing.T) {
	s := quiet(newTestSim(t, nil))
	if s.AverageWaitTime() != 0 {
		t.Fatal("average with no cars should be 0")
	}
	place(s, LaneLeftRight, 0, 0)
	place(s, LaneUpDown, -1000, 320)
	_, m := mustStep(t, s, 0.1, LightRed, LightGreen)
	if m.TotalWaitTime != 0.1 {
		t.Fatalf("total wait = %v, want 0.1", m.TotalWaitTime)
	}
	if m.AverageWaitTime != 0.05 {
		t.Fatalf("average wait = %v, want 0.05", m.AverageWaitTime)
	}
}
