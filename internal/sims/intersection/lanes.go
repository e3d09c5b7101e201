package intersection

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
)

// LaneSet owns the live vehicles of all four approaches. Each lane keeps
// spawn order; leader relationships are derived by distance every tick.
type LaneSet struct {
	lanes   [NumLanes][]*Vehicle
	ordered []*Vehicle
}

// Lane returns the vehicles of lane l in spawn order. The slice is owned by
// the set and is only valid until the next mutation.
func (ls *LaneSet) Lane(l LaneID) []*Vehicle { return ls.lanes[l] }

// Len returns the number of vehicles in lane l.
func (ls *LaneSet) Len(l LaneID) int { return len(ls.lanes[l]) }

// Counts returns the per-lane vehicle counts.
func (ls *LaneSet) Counts() [NumLanes]int {
	var out [NumLanes]int
	for i, lane := range ls.lanes {
		out[i] = len(lane)
	}
	return out
}

// Total returns the number of vehicles across all lanes.
func (ls *LaneSet) Total() int {
	return lo.SumBy(ls.lanes[:], func(lane []*Vehicle) int { return len(lane) })
}

func (ls *LaneSet) push(v *Vehicle) {
	ls.lanes[v.lane] = append(ls.lanes[v.lane], v)
}

func (ls *LaneSet) clear() {
	for i := range ls.lanes {
		clear(ls.lanes[i])
		ls.lanes[i] = ls.lanes[i][:0]
	}
	clear(ls.ordered)
	ls.ordered = ls.ordered[:0]
}

// rearmost returns the smallest distance in lane l.
func (ls *LaneSet) rearmost(l LaneID) (float64, bool) {
	lane := ls.lanes[l]
	if len(lane) == 0 {
		return 0, false
	}
	return lo.MinBy(lane, func(a, b *Vehicle) bool { return a.distance < b.distance }).distance, true
}

// byDistance returns lane l ordered leader first. Ties keep spawn order.
// The returned slice is scratch space reused by the next call.
func (ls *LaneSet) byDistance(l LaneID) []*Vehicle {
	ls.ordered = append(ls.ordered[:0], ls.lanes[l]...)
	slices.SortStableFunc(ls.ordered, func(a, b *Vehicle) int {
		return cmp.Compare(b.distance, a.distance)
	})
	return ls.ordered
}

// compact drops every vehicle of lane l for which keep is false, preserving
// the order of the rest, and appends the dropped ones to removed.
func (ls *LaneSet) compact(l LaneID, keep func(*Vehicle) bool, removed []*Vehicle) []*Vehicle {
	lane := ls.lanes[l]
	n := 0
	for _, v := range lane {
		if keep(v) {
			lane[n] = v
			n++
			continue
		}
		removed = append(removed, v)
	}
	clear(lane[n:])
	ls.lanes[l] = lane[:n]
	return removed
}
