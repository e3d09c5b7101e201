package app

import (
	"fmt"
	"log/slog"
	"time"

	"crossroads/internal/controller"
	"crossroads/internal/core"
	"crossroads/internal/logging"
	"crossroads/internal/sims/intersection"
)

// Mode says who drives the lights.
type Mode uint8

const (
	ModeManual Mode = iota
	ModeAuto
)

func (m Mode) String() string {
	if m == ModeAuto {
		return "auto"
	}
	return "manual"
}

// Action is what a key press asked the viewer to do beyond the session.
type Action uint8

const (
	ActionNone Action = iota
	ActionHandled
	ActionQuit
)

// Help is the one-line key reference shown by both viewers.
const Help = "q/w/e vert g/y/r  a/s/d horiz g/y/r  c auto  space pause  n step  +/- speed  r reset  x reseed  esc quit"

const maxSpeedup = 8

// Session is the interactive state shared by the window and terminal
// viewers: one simulation, a manual controller, an automatic controller and
// pause/step/reset handling. Episodes restart automatically when done.
type Session struct {
	sim    *intersection.Sim
	manual *controller.Manual
	auto   controller.Controller
	log    *slog.Logger
	now    func() time.Time

	mode     Mode
	paused   bool
	tickOnce bool
	speedup  int
	seed     int64
	episode  int

	reward      float64
	totalReward float64
	metrics     intersection.Metrics
}

// NewSession starts the first episode. auto may be nil, in which case the
// automatic mode is unavailable.
func NewSession(sim *intersection.Sim, auto controller.Controller, log *slog.Logger) *Session {
	if log == nil {
		log = logging.Discard()
	}
	s := &Session{
		sim:     sim,
		manual:  controller.NewManual(),
		auto:    auto,
		log:     log,
		now:     time.Now,
		speedup: 1,
		seed:    sim.Seed(),
	}
	if auto != nil {
		s.mode = ModeAuto
	}
	s.restart()
	return s
}

// Sim returns the simulation being viewed.
func (s *Session) Sim() *intersection.Sim { return s.sim }

// Mode reports who drives the lights.
func (s *Session) Mode() Mode { return s.mode }

// Paused reports whether stepping is suspended.
func (s *Session) Paused() bool { return s.paused }

// Speedup is the number of simulation steps taken per frame.
func (s *Session) Speedup() int { return s.speedup }

// Episode counts restarts, starting at 1.
func (s *Session) Episode() int { return s.episode }

// Metrics returns the metrics of the most recent step.
func (s *Session) Metrics() intersection.Metrics { return s.metrics }

// TotalReward is the reward summed over the current episode.
func (s *Session) TotalReward() float64 { return s.totalReward }

// HandleKey applies a key press.
func (s *Session) HandleKey(r rune) Action {
	if s.manual.HandleKey(r) {
		s.mode = ModeManual
		return ActionHandled
	}
	switch r {
	case 'c':
		if s.auto != nil {
			if s.mode == ModeAuto {
				s.mode = ModeManual
			} else {
				s.mode = ModeAuto
				s.auto.Reset()
			}
		}
	case ' ':
		s.paused = !s.paused
	case 'n':
		s.tickOnce = true
	case '+', '=':
		s.speedup = min(s.speedup*2, maxSpeedup)
	case '-', '_':
		s.speedup = max(s.speedup/2, 1)
	case 'r':
		s.restart()
	case 'x':
		s.seed = s.now().UnixNano()
		s.restart()
	case 0x1b:
		return ActionQuit
	default:
		return ActionNone
	}
	return ActionHandled
}

// Update advances the simulation by one frame of dt seconds per step,
// unless paused. A finished episode is logged and restarted.
func (s *Session) Update(dt float64) error {
	if s.paused && !s.tickOnce {
		return nil
	}
	steps := s.speedup
	if s.paused {
		steps = 1
	}
	s.tickOnce = false
	for i := 0; i < steps; i++ {
		horiz, vert := s.lights(dt)
		r, m, err := s.sim.Step(dt, horiz, vert)
		if err != nil {
			return fmt.Errorf("stepping simulation: %w", err)
		}
		s.reward = r
		s.totalReward += r
		s.metrics = m
		if m.Done() {
			s.log.Info("episode finished",
				"episode", s.episode, "seed", s.seed, "time", m.Time,
				"passed", m.CarsPassed, "crashes", m.NumCrashes,
				"avg_wait", m.AverageWaitTime, "reward", s.totalReward)
			s.restart()
			return nil
		}
	}
	return nil
}

func (s *Session) lights(dt float64) (intersection.Light, intersection.Light) {
	if s.mode == ModeAuto && s.auto != nil {
		return s.auto.Lights(dt)
	}
	return s.manual.Lights(dt)
}

func (s *Session) restart() {
	s.sim.Reseed(s.seed)
	s.sim.Reset()
	s.manual.Reset()
	if s.auto != nil {
		s.auto.Reset()
	}
	s.episode++
	s.reward = 0
	s.totalReward = 0
	s.metrics = s.sim.Metrics()
}

// StatusLines summarizes the session for a HUD or status bar.
func (s *Session) StatusLines() []string {
	m := s.metrics
	lights := s.sim.Lights()
	state := s.mode.String()
	if s.paused {
		state += ", paused"
	}
	if s.speedup > 1 {
		state += fmt.Sprintf(", x%d", s.speedup)
	}
	lanes := s.sim.Lanes().Counts()
	return []string{
		fmt.Sprintf("episode %d  seed %d  %s", s.episode, s.seed, s.sim.Config().Scenario),
		fmt.Sprintf("t=%5.1fs  H:%-6s V:%-6s [%s]", m.Time, lights.Horizontal, lights.Vertical, state),
		fmt.Sprintf("passed %d  crashes %d  spawned %d", m.CarsPassed, m.NumCrashes, m.Spawned),
		fmt.Sprintf("wait %.1fs  avg %.2fs", m.TotalWaitTime, m.AverageWaitTime),
		fmt.Sprintf("reward %.1f  total %.1f", s.reward, s.totalReward),
		fmt.Sprintf("lanes lr %d  rl %d  ud %d  du %d",
			lanes[intersection.LaneLeftRight], lanes[intersection.LaneRightLeft],
			lanes[intersection.LaneUpDown], lanes[intersection.LaneDownUp]),
	}
}

// ParameterControls lists the settings a viewer may adjust. Cycle timings
// only appear when the automatic controller is a fixed cycle.
func (s *Session) ParameterControls() []core.ParameterControl {
	controls := []core.ParameterControl{
		{Key: "speedup", Label: "Steps/frame", Type: core.ParamTypeInt, Step: 1, Min: 1, Max: maxSpeedup, HasMin: true, HasMax: true},
	}
	if _, ok := s.auto.(*controller.FixedCycle); ok {
		controls = append(controls,
			core.ParameterControl{Key: "green", Label: "Green (s)", Type: core.ParamTypeFloat, Step: 0.5, Min: 0.5, Max: 60, HasMin: true, HasMax: true},
			core.ParameterControl{Key: "yellow", Label: "Yellow (s)", Type: core.ParamTypeFloat, Step: 0.5, Min: 0, Max: 10, HasMin: true, HasMax: true},
		)
	}
	return controls
}

// Value returns a tunable session setting by key.
func (s *Session) Value(key string) (float64, bool) {
	switch key {
	case "speedup":
		return float64(s.speedup), true
	case "green", "yellow":
		fc, ok := s.auto.(*controller.FixedCycle)
		if !ok {
			return 0, false
		}
		green, yellow := fc.Durations()
		if key == "green" {
			return green, true
		}
		return yellow, true
	}
	return 0, false
}

// Adjust changes a tunable setting by delta and reports whether it changed.
func (s *Session) Adjust(key string, delta float64) bool {
	switch key {
	case "speedup":
		next := s.speedup
		if delta > 0 {
			next = min(s.speedup*2, maxSpeedup)
		} else if delta < 0 {
			next = max(s.speedup/2, 1)
		}
		changed := next != s.speedup
		s.speedup = next
		return changed
	case "green", "yellow":
		fc, ok := s.auto.(*controller.FixedCycle)
		if !ok {
			return false
		}
		green, yellow := fc.Durations()
		if key == "green" {
			green += delta
		} else {
			yellow += delta
		}
		return fc.SetDurations(green, yellow) == nil
	}
	return false
}
