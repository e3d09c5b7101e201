// Package intersection simulates a single four-way intersection of one-way
// approaches. Cars spawn stochastically, follow a braking and car-following
// law that reacts to the light on their axis, and crash when their
// footprints overlap. Each Step returns a reward and a metrics record meant
// to score an external light controller.
package intersection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"crossroads/internal/core"
	"crossroads/internal/logging"
)

// ErrInvalidInput is wrapped by every rejection at the simulation boundary.
var ErrInvalidInput = errors.New("invalid input")

// Sim owns one episode's world: lanes, lights, RNG and counters. It is not
// safe for concurrent use; run one Sim per goroutine.
type Sim struct {
	cfg    Config
	geom   Geometry
	slots  []SpawnSlot
	reward RewardFunc
	rng    *core.RNG
	log    *slog.Logger

	lanes  LaneSet
	lights Lights
	status Status

	totalWait  float64
	numCrashes int
	carsPassed int
	numCars    int
	totalTime  float64
	nextID     uint64

	wrecks  []*Vehicle
	boxes   []collisionBox
	removed []*Vehicle
}

// New builds a simulation from cfg. Both lights start green.
func New(cfg Config) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reward, err := LookupReward(cfg.RewardFunction)
	if err != nil {
		return nil, err
	}
	seed := time.Now().UnixNano()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	return &Sim{
		cfg:    cfg,
		geom:   cfg.Geometry,
		slots:  cfg.Scenario.Slots(),
		reward: reward,
		rng:    core.NewRNG(seed),
		log:    logging.Discard(),
		lights: Lights{Horizontal: LightGreen, Vertical: LightGreen},
	}, nil
}

// SetLogger routes simulation events to l. Nil disables logging.
func (s *Sim) SetLogger(l *slog.Logger) {
	if l == nil {
		l = logging.Discard()
	}
	s.log = l
}

// Config returns the configuration the simulation was built with.
func (s *Sim) Config() Config { return s.cfg }

// Geometry returns the road layout.
func (s *Sim) Geometry() Geometry { return s.geom }

// Status reports the episode state.
func (s *Sim) Status() Status { return s.status }

// Time returns the simulated seconds elapsed this episode.
func (s *Sim) Time() float64 { return s.totalTime }

// Lights returns the colors applied on the most recent step.
func (s *Sim) Lights() Lights { return s.lights }

// Seed returns the seed the spawn RNG stream started from.
func (s *Sim) Seed() int64 { return s.rng.Seed() }

// Lanes exposes the live vehicles. Callers must not mutate it.
func (s *Sim) Lanes() *LaneSet { return &s.lanes }

// Vehicles copies every live vehicle, lane by lane in spawn order.
func (s *Sim) Vehicles() []VehicleState {
	out := make([]VehicleState, 0, s.lanes.Total())
	for _, l := range Lanes {
		for _, v := range s.lanes.Lane(l) {
			out = append(out, v.State())
		}
	}
	return out
}

// Wrecks copies the vehicles that crashed this episode, oldest first.
func (s *Sim) Wrecks() []VehicleState {
	out := make([]VehicleState, len(s.wrecks))
	for i, v := range s.wrecks {
		out[i] = v.State()
	}
	return out
}

// Reset clears the world for a new episode. Both lights turn red. The RNG
// stream continues; use Reseed to restart it.
func (s *Sim) Reset() Observation {
	s.lanes.clear()
	clear(s.wrecks)
	s.wrecks = s.wrecks[:0]
	s.totalWait = 0
	s.numCrashes = 0
	s.carsPassed = 0
	s.numCars = 0
	s.totalTime = 0
	s.lights = Lights{Horizontal: LightRed, Vertical: LightRed}
	s.status = StatusRunning
	return s.Observe()
}

// Reseed restarts the spawn RNG stream from seed.
func (s *Sim) Reseed(seed int64) { s.rng.Reseed(seed) }

// Observe returns the lane occupancy and light state.
func (s *Sim) Observe() Observation {
	return Observation{
		CarsPerLane: s.lanes.Counts(),
		HorizLight:  s.lights.Horizontal,
		VertLight:   s.lights.Vertical,
	}
}

// Step advances the world by dt seconds with the given light colors and
// returns this tick's reward and metrics. Invalid lights or a negative,
// NaN or infinite dt are rejected without changing any state. Stepping past
// the horizon is allowed and keeps accumulating.
func (s *Sim) Step(dt float64, horiz, vert Light) (float64, Metrics, error) {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return 0, Metrics{}, fmt.Errorf("dt %v: %w", dt, ErrInvalidInput)
	}
	lights := Lights{Horizontal: horiz, Vertical: vert}
	if err := lights.validate(); err != nil {
		return 0, Metrics{}, err
	}
	s.lights = lights
	if s.status == StatusIdle {
		s.status = StatusRunning
	}

	prevWait, prevPassed, prevCrashes := s.totalWait, s.carsPassed, s.numCrashes

	s.spawn()
	s.updateVehicles(dt)
	s.cullExited()
	s.numCrashes += s.detectCollisions()

	r := s.reward(RewardInput{
		TotalWaitTime: s.totalWait,
		WaitDiff:      s.totalWait - prevWait,
		CarsPassed:    s.carsPassed,
		PassedDiff:    s.carsPassed - prevPassed,
		NumCrashes:    s.numCrashes,
		NewCrashes:    s.numCrashes - prevCrashes,
	})

	s.totalTime += dt
	if s.status == StatusRunning && s.totalTime >= s.cfg.TrialTime {
		s.status = StatusTruncated
		s.log.Debug("episode truncated",
			"time", s.totalTime, "passed", s.carsPassed, "crashes", s.numCrashes)
	}

	m := s.metrics()
	m.WaitDiff = s.totalWait - prevWait
	m.NewCrashes = s.numCrashes - prevCrashes
	m.PassedDiff = s.carsPassed - prevPassed
	m.WaitingRew = r.Waiting
	m.PassedRew = r.Passed
	m.CrashRew = r.Crash
	return r.Total(), m, nil
}

// Metrics returns the cumulative counters without stepping. Per-tick
// deltas and reward components are zero.
func (s *Sim) Metrics() Metrics { return s.metrics() }

func (s *Sim) metrics() Metrics {
	return Metrics{
		Time:            s.totalTime,
		VertLight:       s.lights.Vertical,
		HorizLight:      s.lights.Horizontal,
		TotalWaitTime:   s.totalWait,
		AverageWaitTime: s.AverageWaitTime(),
		NumCrashes:      s.numCrashes,
		CarsPassed:      s.carsPassed,
		Spawned:         s.numCars,
		CarsPerLane:     s.lanes.Counts(),
		Truncated:       s.status == StatusTruncated,
		Terminated:      s.cfg.StopOnCrash && s.numCrashes > 0,
	}
}

// AverageWaitTime is the total wait divided by cars spawned this episode.
func (s *Sim) AverageWaitTime() float64 {
	if s.numCars == 0 {
		return 0
	}
	return s.totalWait / float64(s.numCars)
}

func (s *Sim) updateVehicles(dt float64) {
	ctx := context.Background()
	trace := s.log.Enabled(ctx, logging.LevelTrace)
	for _, l := range Lanes {
		light := s.lights.For(l)
		var leader *Vehicle
		for _, v := range s.lanes.byDistance(l) {
			s.totalWait += v.Update(dt, light, leader)
			leader = v
			if trace {
				s.log.Log(ctx, logging.LevelTrace, "vehicle",
					"time", s.totalTime, "lane", l.String(), "id", v.id,
					"distance", v.distance, "speed", v.speed)
			}
		}
	}
}

func (s *Sim) cullExited() {
	exit := s.geom.ExitDistance()
	removed := s.removed[:0]
	for _, l := range Lanes {
		removed = s.lanes.compact(l, func(v *Vehicle) bool { return v.distance <= exit }, removed)
	}
	s.carsPassed += len(removed)
	clear(removed)
	s.removed = removed[:0]
}
