package intersection

// Metrics is the per-tick record returned by Step.
type Metrics struct {
	Time float64 `json:"time"`

	VertLight  Light `json:"vert_light"`
	HorizLight Light `json:"horiz_light"`

	TotalWaitTime   float64 `json:"total_wait_time"`
	AverageWaitTime float64 `json:"average_wait_time"`
	WaitDiff        float64 `json:"wait_diff"`

	NumCrashes int `json:"num_crashes"`
	NewCrashes int `json:"new_crashes"`
	CarsPassed int `json:"cars_passed"`
	PassedDiff int `json:"passed_diff"`
	Spawned    int `json:"spawned"`

	CarsPerLane [NumLanes]int `json:"cars_per_lane"`

	WaitingRew float64 `json:"waiting_rew"`
	PassedRew  float64 `json:"passed_rew"`
	CrashRew   float64 `json:"crash_rew"`

	Truncated  bool `json:"truncated"`
	Terminated bool `json:"terminated"`
}

// Done reports whether the episode should end, either by horizon or by a
// crash under stop-on-crash.
func (m Metrics) Done() bool { return m.Truncated || m.Terminated }

// Observation is the state handed back by Reset.
type Observation struct {
	CarsPerLane [NumLanes]int `json:"cars_per_lane"`
	HorizLight  Light         `json:"horiz_light"`
	VertLight   Light         `json:"vert_light"`
}

// Status is the episode state.
type Status uint8

const (
	StatusIdle Status = iota
	StatusRunning
	StatusTruncated
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusTruncated:
		return "truncated"
	}
	return "idle"
}
