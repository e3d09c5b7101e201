package controller

import "crossroads/internal/sims/intersection"

// Manual holds whatever colors the user last picked.
type Manual struct {
	horiz, vert intersection.Light
}

// NewManual starts with both lights red.
func NewManual() *Manual {
	m := &Manual{}
	m.Reset()
	return m
}

func (m *Manual) Reset() {
	m.horiz = intersection.LightRed
	m.vert = intersection.LightRed
}

func (m *Manual) Lights(float64) (intersection.Light, intersection.Light) {
	return m.horiz, m.vert
}

// Set changes both colors. Invalid colors are ignored.
func (m *Manual) Set(horiz, vert intersection.Light) {
	if horiz.Valid() {
		m.horiz = horiz
	}
	if vert.Valid() {
		m.vert = vert
	}
}

// HandleKey applies the keyboard bindings: q/w/e set the vertical light to
// green/yellow/red and a/s/d do the same for the horizontal light. It
// reports whether the key was bound.
func (m *Manual) HandleKey(r rune) bool {
	switch r {
	case 'q':
		m.vert = intersection.LightGreen
	case 'w':
		m.vert = intersection.LightYellow
	case 'e':
		m.vert = intersection.LightRed
	case 'a':
		m.horiz = intersection.LightGreen
	case 's':
		m.horiz = intersection.LightYellow
	case 'd':
		m.horiz = intersection.LightRed
	default:
		return false
	}
	return true
}
