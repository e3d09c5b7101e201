package intersection

import (
	"fmt"
	"strings"
)

// Scenario names a spawn-rate and lane-mix preset.
type Scenario uint8

const (
	ScenarioNormal Scenario = iota + 1
	ScenarioRushHour
	ScenarioBigEvent
)

// Scenarios lists every preset in order.
var Scenarios = []Scenario{ScenarioNormal, ScenarioRushHour, ScenarioBigEvent}

func (s Scenario) String() string {
	switch s {
	case ScenarioNormal:
		return "normal"
	case ScenarioRushHour:
		return "rush-hour"
	case ScenarioBigEvent:
		return "big-event"
	}
	return fmt.Sprintf("scenario(%d)", uint8(s))
}

// Valid reports whether s is a known scenario.
func (s Scenario) Valid() bool { return s >= ScenarioNormal && s <= ScenarioBigEvent }

// ParseScenario accepts the scenario names and the legacy numeric codes 1-3.
func ParseScenario(s string) (Scenario, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal", "1":
		return ScenarioNormal, nil
	case "rush-hour", "rush_hour", "rushhour", "2":
		return ScenarioRushHour, nil
	case "big-event", "big_event", "bigevent", "3":
		return ScenarioBigEvent, nil
	}
	return 0, fmt.Errorf("unknown scenario %q: %w", s, ErrInvalidInput)
}

// MarshalText implements encoding.TextMarshaler.
func (s Scenario) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal %s: %w", s, ErrInvalidInput)
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scenario) UnmarshalText(b []byte) error {
	v, err := ParseScenario(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// spawnBuckets is how many equal slices the lane draw is divided into.
const spawnBuckets = 4

// SpawnSlot is one independent Bernoulli draw per tick. When the draw
// exceeds Threshold a second draw picks one of spawnBuckets equal buckets;
// the first len(Lanes) buckets map to Lanes and the rest spawn nothing.
type SpawnSlot struct {
	Threshold float64
	Lanes     []LaneID
}

var scenarioSlots = map[Scenario][]SpawnSlot{
	ScenarioNormal: {
		{Threshold: 0.99, Lanes: []LaneID{LaneLeftRight, LaneRightLeft, LaneUpDown, LaneDownUp}},
	},
	ScenarioRushHour: {
		{Threshold: 0.90, Lanes: []LaneID{LaneLeftRight, LaneRightLeft, LaneUpDown, LaneDownUp}},
	},
	ScenarioBigEvent: {
		{Threshold: 0.99, Lanes: []LaneID{LaneLeftRight, LaneUpDown, LaneDownUp}},
		{Threshold: 0.85, Lanes: []LaneID{LaneRightLeft}},
	},
}

// Slots returns the spawn draws configured for s.
func (s Scenario) Slots() []SpawnSlot { return scenarioSlots[s] }

// ExpectedSpawnRate is the mean number of vehicles spawned per tick.
func (s Scenario) ExpectedSpawnRate() float64 {
	rate := 0.0
	for _, slot := range s.Slots() {
		rate += (1 - slot.Threshold) * float64(len(slot.Lanes)) / spawnBuckets
	}
	return rate
}

// spawn runs this tick's draws and returns how many vehicles were added.
func (s *Sim) spawn() int {
	added := 0
	for _, slot := range s.slots {
		if s.rng.Float64() <= slot.Threshold {
			continue
		}
		bucket := int(s.rng.Float64() * spawnBuckets)
		if bucket >= len(slot.Lanes) {
			continue
		}
		s.addVehicle(slot.Lanes[bucket])
		added++
	}
	return added
}

// spawnDistance staggers a new car behind everything already queued in l.
func (s *Sim) spawnDistance(l LaneID) float64 {
	step := s.geom.QueueStep()
	d := -float64(s.lanes.Len(l))*step - s.geom.SpawnOffset - s.geom.SpawnBack(l)
	if rear, ok := s.lanes.rearmost(l); ok && d > rear-step {
		d = rear - step
	}
	return d
}

func (s *Sim) addVehicle(l LaneID) *Vehicle {
	maxSpeed := s.geom.SpeedLimit - vehicleSpeedMargin
	if s.cfg.MaxSpeedJitter > 0 {
		maxSpeed -= s.rng.Float64() * s.cfg.MaxSpeedJitter
	}
	s.nextID++
	v := NewVehicle(s.nextID, l, s.spawnDistance(l), s.geom, maxSpeed)
	s.lanes.push(v)
	s.numCars++
	return v
}
