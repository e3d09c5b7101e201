package intersection

import (
	"fmt"
	"strings"
)

// Light is a traffic light color. The zero value is deliberately invalid so
// an unset light is rejected rather than read as red.
type Light uint8

const (
	LightRed Light = iota + 1
	LightYellow
	LightGreen
)

// Valid reports whether l is one of the three colors.
func (l Light) Valid() bool { return l >= LightRed && l <= LightGreen }

func (l Light) String() string {
	switch l {
	case LightRed:
		return "red"
	case LightYellow:
		return "yellow"
	case LightGreen:
		return "green"
	}
	return fmt.Sprintf("light(%d)", uint8(l))
}

// Short returns the single-letter form: r, y or g.
func (l Light) Short() string {
	if !l.Valid() {
		return "?"
	}
	return l.String()[:1]
}

// ParseLight accepts "r"/"red", "y"/"yellow" and "g"/"green" in any case.
func ParseLight(s string) (Light, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r", "red":
		return LightRed, nil
	case "y", "yellow":
		return LightYellow, nil
	case "g", "green":
		return LightGreen, nil
	}
	return 0, fmt.Errorf("unknown light color %q: %w", s, ErrInvalidInput)
}

// MarshalText implements encoding.TextMarshaler.
func (l Light) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("cannot marshal %s: %w", l, ErrInvalidInput)
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Light) UnmarshalText(b []byte) error {
	v, err := ParseLight(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Lights holds the color shown to each travel axis.
type Lights struct {
	Horizontal Light
	Vertical   Light
}

// For returns the color governing lane l.
func (ls Lights) For(l LaneID) Light {
	if l.Axis() == AxisVertical {
		return ls.Vertical
	}
	return ls.Horizontal
}

func (ls Lights) validate() error {
	if !ls.Horizontal.Valid() {
		return fmt.Errorf("horizontal light %s: %w", ls.Horizontal, ErrInvalidInput)
	}
	if !ls.Vertical.Valid() {
		return fmt.Errorf("vertical light %s: %w", ls.Vertical, ErrInvalidInput)
	}
	return nil
}
