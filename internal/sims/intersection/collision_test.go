package intersection

import (
	"bytes"
	"strings"
	"testing"

	"crossroads/internal/logging"
)

func TestCrossTrafficCollision(t *testing.T) {
	s := quiet(newTestSim(t, func(c *Config) { c.RewardFunction = "delta" }))
	a := place(s, LaneLeftRight, 300, 320)
	b := place(s, LaneUpDown, 400, 320)

	r, m := mustStep(t, s, 1.0/60, LightGreen, LightGreen)
	if m.NumCrashes != 1 || m.NewCrashes != 1 {
		t.Fatalf("crashes = %d (new %d), want 1", m.NumCrashes, m.NewCrashes)
	}
	if !a.Crashed() || !b.Crashed() {
		t.Fatal("both vehicles should be wrecked")
	}
	if s.Lanes().Total() != 0 {
		t.Fatalf("wrecked vehicles still in lanes: %v", s.Lanes().Counts())
	}
	if got := len(s.Wrecks()); got != 2 {
		t.Fatalf("wrecks = %d, want 2", got)
	}
	if m.CrashRew != -CrashPenalty || r > -CrashPenalty+1 {
		t.Fatalf("crash reward %v total %v", m.CrashRew, r)
	}

	_, m = mustStep(t, s, 1.0/60, LightGreen, LightGreen)
	if m.NumCrashes != 1 || m.NewCrashes != 0 || m.CrashRew != 0 {
		t.Fatalf("wreck counted again: %+v", m)
	}
}

func TestPileupCountsPairsWithAFreshMember(t *testing.T) {
	s := quiet(newTestSim(t, nil))
	place(s, LaneLeftRight, 350, 320)
	place(s, LaneLeftRight, 360, 320)
	place(s, LaneUpDown, 400, 320)

	_, m := mustStep(t, s, 1.0/60, LightGreen, LightGreen)
	// lr/lr and lr/ud wreck all three; the last lr/ud pair has no fresh member.
	if m.NumCrashes != 2 {
		t.Fatalf("crashes = %d, want 2", m.NumCrashes)
	}
	if got := len(s.Wrecks()); got != 3 {
		t.Fatalf("wrecks = %d, want 3", got)
	}
}

func TestBroadPhaseSkipsDistantCenters(t *testing.T) {
	// After one step the boxes overlap with centers about 38 apart in x
	// and 18 apart in y.
	cases := []struct {
		name    string
		reach   float64
		crashes int
	}{
		{"default", 200, 1},
		{"just inside", 40, 1},
		{"too narrow", 10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := quiet(newTestSim(t, func(c *Config) { c.Geometry.BroadPhase = tc.reach }))
			a := place(s, LaneLeftRight, 300, 320)
			b := place(s, LaneUpDown, 400, 320)
			_, m := mustStep(t, s, 1.0/60, LightGreen, LightGreen)
			if !s.geom.Rect(a.lane, a.Distance()).Overlaps(s.geom.Rect(b.lane, b.Distance())) {
				t.Fatal("vehicles should overlap after the step")
			}
			if m.NumCrashes != tc.crashes {
				t.Fatalf("crashes = %d with reach %v, want %d", m.NumCrashes, tc.reach, tc.crashes)
			}
			if a.Crashed() != (tc.crashes > 0) {
				t.Fatalf("crashed = %v, want %v", a.Crashed(), tc.crashes > 0)
			}
		})
	}
}

func TestOffscreenOverlapIgnored(t *testing.T) {
	s := quiet(newTestSim(t, nil))
	place(s, LaneLeftRight, -60, 0)
	place(s, LaneLeftRight, -50, 0)
	_, m := mustStep(t, s, 1.0/60, LightRed, LightRed)
	if m.NumCrashes != 0 {
		t.Fatalf("crashes = %d for vehicles not yet on screen", m.NumCrashes)
	}
}

func TestCrashStopsEpisodeWhenConfigured(t *testing.T) {
	s := quiet(newTestSim(t, func(c *Config) { c.StopOnCrash = true }))
	place(s, LaneRightLeft, 500, 320)
	place(s, LaneUpDown, 380, 320)
	_, m := mustStep(t, s, 1.0/60, LightGreen, LightGreen)
	if m.NumCrashes == 0 {
		t.Fatal("expected a crash")
	}
	if !m.Terminated || !m.Done() {
		t.Fatalf("terminated %v done %v, want true", m.Terminated, m.Done())
	}
	if s.Status() != StatusRunning {
		t.Fatalf("status = %s; termination should not change status", s.Status())
	}
}

func TestWreckRecordsCrashTime(t *testing.T) {
	s := quiet(newTestSim(t, nil))
	mustStep(t, s, 0.5, LightRed, LightRed)
	place(s, LaneDownUp, 450, 0)
	place(s, LaneLeftRight, 350, 0)
	mustStep(t, s, 1.0/60, LightRed, LightRed)
	wrecks := s.Wrecks()
	if len(wrecks) != 2 {
		t.Fatalf("wrecks = %d, want 2", len(wrecks))
	}
	for _, w := range wrecks {
		if w.CrashedAt != 0.5 {
			t.Fatalf("wreck %d CrashedAt = %v, want 0.5", w.ID, w.CrashedAt)
		}
	}
}

func TestCollisionAndTraceLogging(t *testing.T) {
	var buf bytes.Buffer
	s := quiet(newTestSim(t, nil))
	s.SetLogger(logging.NewLogger("trace", &buf))
	place(s, LaneLeftRight, 300, 320)
	place(s, LaneUpDown, 400, 320)
	mustStep(t, s, 1.0/60, LightGreen, LightGreen)

	out := buf.String()
	if !strings.Contains(out, "msg=collision") || !strings.Contains(out, "a_lane=lr") {
		t.Fatalf("collision not logged: %s", out)
	}
	if !strings.Contains(out, "level=TRACE msg=vehicle") {
		t.Fatalf("vehicle trace not logged: %s", out)
	}

	s.SetLogger(nil)
	buf.Reset()
	mustStep(t, s, 1.0/60, LightGreen, LightGreen)
	if buf.Len() != 0 {
		t.Fatalf("nil logger still wrote: %s", buf.String())
	}
}
