package intersection

import "math"

type collisionBox struct {
	v      *Vehicle
	rect   Rect
	cx, cy float64
}

// detectCollisions tests every on-screen pair of live vehicles, wrecks the
// overlapping ones and returns the number of pairs counted as crashes. A
// pair counts when at least one member was not already wrecked this tick,
// so a three-car pileup usually counts two or three times.
func (s *Sim) detectCollisions() int {
	boxes := s.boxes[:0]
	for _, l := range Lanes {
		for _, v := range s.lanes.Lane(l) {
			if v.crashed || v.distance <= 0 {
				continue
			}
			r := s.geom.Rect(l, v.distance)
			cx, cy := r.Center()
			boxes = append(boxes, collisionBox{v: v, rect: r, cx: cx, cy: cy})
		}
	}
	s.boxes = boxes

	pairs := 0
	reach := s.geom.BroadPhase
	for i := range boxes {
		a := &boxes[i]
		for j := i + 1; j < len(boxes); j++ {
			b := &boxes[j]
			if math.Abs(a.cx-b.cx) > reach || math.Abs(a.cy-b.cy) > reach {
				continue
			}
			if !a.rect.Overlaps(b.rect) {
				continue
			}
			newA := a.v.markCrashed(s.totalTime)
			newB := b.v.markCrashed(s.totalTime)
			if !newA && !newB {
				continue
			}
			pairs++
			s.log.Debug("collision",
				"time", s.totalTime,
				"a_lane", a.v.lane.String(), "a_id", a.v.id,
				"b_lane", b.v.lane.String(), "b_id", b.v.id)
		}
	}
	if pairs == 0 {
		return 0
	}

	removed := s.removed[:0]
	for _, l := range Lanes {
		removed = s.lanes.compact(l, func(v *Vehicle) bool { return !v.crashed }, removed)
	}
	s.wrecks = append(s.wrecks, removed...)
	clear(removed)
	s.removed = removed[:0]
	return pairs
}
