package intersection

import (
	"strconv"
	"strings"

	"crossroads/internal/core"
)

// Parameters reports the simulation's configuration for display.
func (s *Sim) Parameters() core.ParameterSnapshot {
	g := s.geom
	slots := make([]string, 0, len(s.slots))
	for _, slot := range s.slots {
		lanes := make([]string, len(slot.Lanes))
		for i, l := range slot.Lanes {
			lanes[i] = l.String()
		}
		slots = append(slots, strings.Join(lanes, "/")+">"+strconv.FormatFloat(slot.Threshold, 'f', -1, 64))
	}
	groups := []core.ParameterGroup{
		{
			Name: "Episode",
			Params: []core.Parameter{
				core.StringParam("scenario", "Scenario", s.cfg.Scenario.String()),
				core.StringParam("reward", "Reward function", s.cfg.RewardFunction),
				core.Int64Param("seed", "Seed", s.rng.Seed()),
				core.FloatParam("trial_time", "Trial time (s)", s.cfg.TrialTime),
				core.BoolParam("stop_on_crash", "Stop on crash", s.cfg.StopOnCrash),
			},
		},
		{
			Name:    "Spawning",
			Summary: strings.Join(slots, " "),
			Params: []core.Parameter{
				core.FloatParam("spawn_rate", "Expected spawns per tick", s.cfg.Scenario.ExpectedSpawnRate()),
				core.FloatParam("spawn_offset", "Spawn offset (px)", g.SpawnOffset),
				core.FloatParam("queue_step", "Queue spacing (px)", g.QueueStep()),
				core.FloatParam("max_speed_jitter", "Max speed jitter (px/s)", s.cfg.MaxSpeedJitter),
			},
		},
		{
			Name: "Kinematics",
			Params: []core.Parameter{
				core.FloatParam("speed_limit", "Speed limit (px/s)", g.SpeedLimit),
				core.FloatParam("max_speed", "Vehicle max speed (px/s)", g.SpeedLimit-vehicleSpeedMargin),
				core.FloatParam("accel", "Acceleration (px/s^2)", g.MaxAccel),
				core.FloatParam("decel", "Braking (px/s^2)", g.MaxDecel+vehicleExtraDecel),
			},
		},
		{
			Name: "Geometry",
			Params: []core.Parameter{
				core.FloatParam("screen_width", "Screen width", g.ScreenWidth),
				core.FloatParam("screen_height", "Screen height", g.ScreenHeight),
				core.FloatParam("lane_width", "Lane width", g.LaneWidth),
				core.FloatParam("car_length", "Car length", g.CarLength),
				core.FloatParam("car_width", "Car width", g.CarWidth),
				core.FloatParam("car_spacing", "Car spacing", g.CarSpacing),
				core.FloatParam("stop_near", "Stop line lr/ud", g.NearStop()),
				core.FloatParam("stop_far", "Stop line rl/du", g.FarStop()),
				core.FloatParam("exit_distance", "Exit distance", g.ExitDistance()),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}
