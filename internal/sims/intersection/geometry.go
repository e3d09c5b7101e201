package intersection

import (
	"fmt"
	"math"
)

// LaneID identifies one of the four one-way approaches.
type LaneID uint8

const (
	LaneLeftRight LaneID = iota
	LaneRightLeft
	LaneUpDown
	LaneDownUp

	// NumLanes is the number of approaches feeding the intersection.
	NumLanes = 4
)

// Lanes lists every approach in the order lane-indexed arrays use.
var Lanes = [NumLanes]LaneID{LaneLeftRight, LaneRightLeft, LaneUpDown, LaneDownUp}

var laneNames = [NumLanes]string{"lr", "rl", "ud", "du"}

func (l LaneID) String() string {
	if int(l) < NumLanes {
		return laneNames[l]
	}
	return fmt.Sprintf("lane(%d)", uint8(l))
}

// Axis is the travel axis of a lane and selects which light governs it.
type Axis uint8

const (
	AxisHorizontal Axis = iota
	AxisVertical
)

func (a Axis) String() string {
	if a == AxisVertical {
		return "vertical"
	}
	return "horizontal"
}

// laneDescriptor drives rectangle construction and spawn placement for one
// approach. sign is +1 when screen coordinates grow with distance. side picks
// which half of the road the lane sits on. nearStop lanes measure distance at
// the rear bumper, so their stop line and spawn point sit one car length back.
type laneDescriptor struct {
	axis     Axis
	sign     float64
	side     float64
	nearStop bool
}

var laneTable = [NumLanes]laneDescriptor{
	LaneLeftRight: {axis: AxisHorizontal, sign: +1, side: +1, nearStop: true},
	LaneRightLeft: {axis: AxisHorizontal, sign: -1, side: -1, nearStop: false},
	LaneUpDown:    {axis: AxisVertical, sign: +1, side: -1, nearStop: true},
	LaneDownUp:    {axis: AxisVertical, sign: -1, side: +1, nearStop: false},
}

// Axis reports the travel axis of the lane.
func (l LaneID) Axis() Axis { return laneTable[l].axis }

// Real-world reference values the pixel geometry is scaled from.
const (
	speedLimitMPH      = 25.0
	averageCarLengthFt = 15.0
	averageAccelFtS2   = 9.8
	averageDecelFtS2   = 23.0
	carSpriteAspect    = 2.0
	carWidthFraction   = 0.9
)

// Geometry holds the static road layout and vehicle kinematic limits, all in
// screen pixels (and pixels per second). It never changes during a
// simulation's lifetime.
type Geometry struct {
	ScreenWidth  float64
	ScreenHeight float64

	LaneWidth        float64
	LineSpacing      float64
	LineThickness    float64
	CrossingWidth    float64
	StopBlockWidth   float64
	StopBlockSpacing float64

	CarWidth   float64
	CarLength  float64
	CarSpacing float64

	SpeedLimit float64
	MaxAccel   float64
	MaxDecel   float64

	// SpawnOffset is how far behind distance zero the first queued car sits.
	SpawnOffset float64

	// BroadPhase is the center distance beyond which pairs are never tested.
	BroadPhase float64
}

// DefaultGeometry returns the 900x900 layout with limits derived from a
// 25 mph speed limit and a 15 ft average car.
func DefaultGeometry() Geometry {
	g := Geometry{
		ScreenWidth:      900,
		ScreenHeight:     900,
		LaneWidth:        75,
		LineSpacing:      4,
		LineThickness:    2,
		CrossingWidth:    30,
		StopBlockWidth:   10,
		StopBlockSpacing: 20,
		CarSpacing:       10,
		SpawnOffset:      300,
		BroadPhase:       200,
	}
	g.CarWidth = g.LaneWidth * carWidthFraction
	g.CarLength = g.CarWidth * carSpriteAspect

	pxPerFt := g.CarLength / averageCarLengthFt
	speedLimitFtS := speedLimitMPH * 5280.0 / 3600.0
	g.SpeedLimit = math.Round(speedLimitFtS * pxPerFt)
	g.MaxAccel = math.Round(averageAccelFtS2 * pxPerFt)
	g.MaxDecel = math.Round(averageDecelFtS2 * pxPerFt)
	return g
}

// Validate rejects layouts the control law and collision test cannot use.
func (g Geometry) Validate() error {
	switch {
	case g.ScreenWidth <= 0 || g.ScreenHeight <= 0:
		return fmt.Errorf("screen size must be positive: %w", ErrInvalidInput)
	case g.CarLength <= 0 || g.CarWidth <= 0:
		return fmt.Errorf("car dimensions must be positive: %w", ErrInvalidInput)
	case g.CarSpacing < 0:
		return fmt.Errorf("car spacing must be non-negative: %w", ErrInvalidInput)
	case g.SpeedLimit <= vehicleSpeedMargin:
		return fmt.Errorf("speed limit %.1f leaves no headroom for vehicles: %w", g.SpeedLimit, ErrInvalidInput)
	case g.MaxAccel <= 0:
		return fmt.Errorf("max acceleration must be positive: %w", ErrInvalidInput)
	}
	return nil
}

// FarStop is the stop line for lanes measured at the front bumper.
func (g Geometry) FarStop() float64 {
	return g.ScreenHeight/2 - g.LaneWidth - g.CrossingWidth - g.StopBlockWidth - g.StopBlockSpacing
}

// NearStop is the stop line for lanes measured at the rear bumper.
func (g Geometry) NearStop() float64 { return g.FarStop() - g.CarLength }

// StopPos returns the stop-line distance for a lane.
func (g Geometry) StopPos(l LaneID) float64 {
	if laneTable[l].nearStop {
		return g.NearStop()
	}
	return g.FarStop()
}

// ExitDistance is the distance past which a vehicle has left the road.
func (g Geometry) ExitDistance() float64 { return g.ScreenHeight + g.CarLength }

// QueueStep is the spacing between consecutively spawned vehicles.
func (g Geometry) QueueStep() float64 { return g.CarLength + g.CarSpacing }

// SpawnBack is the extra offset applied to a lane's spawn point.
func (g Geometry) SpawnBack(l LaneID) float64 {
	if laneTable[l].nearStop {
		return g.CarLength
	}
	return 0
}

func (g Geometry) axisExtent(a Axis) float64 {
	if a == AxisVertical {
		return g.ScreenHeight
	}
	return g.ScreenWidth
}

// lateral returns the cross-axis coordinate of a lane's car rectangle.
func (g Geometry) lateral(l LaneID) float64 {
	d := laneTable[l]
	mid := g.ScreenHeight / 2
	if d.axis == AxisVertical {
		mid = g.ScreenWidth / 2
	}
	if d.side > 0 {
		return mid + g.LaneWidth/2 + g.LineSpacing/2 + g.LineThickness/2 - g.CarWidth/2
	}
	return mid - g.LaneWidth/2 - g.LineSpacing/8 - g.LineThickness/2 - g.CarWidth/2
}

// Rect returns the screen-space footprint of a car in lane l at distance d.
func (g Geometry) Rect(l LaneID, d float64) Rect {
	desc := laneTable[l]
	along := d
	if desc.sign < 0 {
		along = g.axisExtent(desc.axis) - d
	}
	cross := g.lateral(l)
	if desc.axis == AxisHorizontal {
		return Rect{X: along, Y: cross, W: g.CarLength, H: g.CarWidth}
	}
	return Rect{X: cross, Y: along, W: g.CarWidth, H: g.CarLength}
}

// Rect is an axis-aligned rectangle in screen coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Center returns the rectangle midpoint.
func (r Rect) Center() (float64, float64) { return r.X + r.W/2, r.Y + r.H/2 }

// Overlaps reports whether the interiors of r and o intersect. Rectangles
// that only share an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}
