package intersection

import "math"

// Control-law constants.
const (
	// vehicleSpeedMargin keeps each car's cap just under the posted limit.
	vehicleSpeedMargin = 10.0

	// vehicleExtraDecel is added to the geometry's braking limit per car.
	vehicleExtraDecel = 10.0

	stopCushion     = 5.0
	safeTimeHeadway = 0.6
	gapSlack        = 2.0
	gapGain         = 1.8
	yellowFraction  = 0.25
	speedSnap       = 1e-3
)

// Vehicle is one car's kinematic state. Its lane, limits and stop line are
// fixed at creation; distance and speed only change through Update.
type Vehicle struct {
	id   uint64
	lane LaneID

	distance float64
	speed    float64

	maxSpeed float64
	accel    float64
	decel    float64
	stopPos  float64
	length   float64
	spacing  float64

	crashed   bool
	crashedAt float64
}

// NewVehicle creates a car in lane at distance, cruising at its speed cap.
// maxSpeed overrides the geometry-derived cap when positive.
func NewVehicle(id uint64, lane LaneID, distance float64, g Geometry, maxSpeed float64) *Vehicle {
	if maxSpeed <= 0 {
		maxSpeed = g.SpeedLimit - vehicleSpeedMargin
	}
	return &Vehicle{
		id:       id,
		lane:     lane,
		distance: distance,
		speed:    maxSpeed,
		maxSpeed: maxSpeed,
		accel:    g.MaxAccel,
		decel:    g.MaxDecel + vehicleExtraDecel,
		stopPos:  g.StopPos(lane),
		length:   g.CarLength,
		spacing:  g.CarSpacing,
	}
}

func (v *Vehicle) ID() uint64 { return v.id }
func (v *Vehicle) Lane() LaneID { return v.lane }
func (v *Vehicle) Distance() float64 { return v.distance }
func (v *Vehicle) Speed() float64 { return v.speed }
func (v *Vehicle) MaxSpeed() float64 { return v.maxSpeed }
func (v *Vehicle) StopPos() float64 { return v.stopPos }
func (v *Vehicle) Crashed() bool { return v.crashed }
func (v *Vehicle) CrashedAt() float64 { return v.crashedAt }
func (v *Vehicle) PastStopLine() bool { return v.distance >= v.stopPos }

// StoppingDistance is the braking distance from the current speed. A car
// that cannot brake never stops.
func (v *Vehicle) StoppingDistance() float64 {
	if v.decel <= 0 {
		return math.Inf(1)
	}
	return v.speed * v.speed / (2 * v.decel)
}

// Update advances the car by dt under the given light, following leader
// when one exists. It returns the wait time the car accrued this tick.
// Crashed cars do not move.
func (v *Vehicle) Update(dt float64, light Light, leader *Vehicle) float64 {
	if v.crashed {
		return 0
	}
	waited := 0.0
	if v.distance < v.stopPos && v.speed < v.maxSpeed {
		waited = dt
	}

	target := v.targetSpeed(light, leader)
	if v.speed < target {
		v.speed = min(v.speed+v.accel*dt, target, v.maxSpeed)
	} else {
		v.speed = max(v.speed-v.decel*dt, target, 0)
	}
	if v.speed < speedSnap {
		v.speed = 0
	}

	v.distance += v.speed * dt
	return waited
}

func (v *Vehicle) targetSpeed(light Light, leader *Vehicle) float64 {
	target := v.maxSpeed

	toStop := v.stopPos - v.distance
	if light == LightRed && toStop > 0 && toStop <= v.StoppingDistance()+stopCushion {
		target = 0
	}

	if leader != nil {
		gap := (leader.distance - v.length) - v.distance
		desired := safeTimeHeadway*v.speed + v.spacing
		if gap <= desired+gapSlack {
			target = min(target, leader.speed)
		} else {
			closing := gapGain * (gap - desired)
			target = min(target, v.maxSpeed, leader.speed+closing)
		}
		if leader.distance-v.distance < v.length+v.spacing {
			target = 0
		}
	}

	if light == LightYellow && toStop > 0 && target > v.maxSpeed*yellowFraction {
		target = v.maxSpeed * yellowFraction
	}
	return target
}

// markCrashed flags the car as wrecked. It reports false if it already was.
func (v *Vehicle) markCrashed(at float64) bool {
	if v.crashed {
		return false
	}
	v.crashed = true
	v.crashedAt = at
	return true
}

// VehicleState is a read-only copy of a car for observers.
type VehicleState struct {
	ID        uint64  `json:"id"`
	Lane      LaneID  `json:"lane"`
	Distance  float64 `json:"distance"`
	Speed     float64 `json:"speed"`
	MaxSpeed  float64 `json:"max_speed"`
	Crashed   bool    `json:"crashed"`
	CrashedAt float64 `json:"crashed_at,omitempty"`
}

// State copies the car's observable fields.
func (v *Vehicle) State() VehicleState {
	return VehicleState{
		ID:        v.id,
		Lane:      v.lane,
		Distance:  v.distance,
		Speed:     v.speed,
		MaxSpeed:  v.maxSpeed,
		Crashed:   v.crashed,
		CrashedAt: v.crashedAt,
	}
}
