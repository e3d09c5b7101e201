package intersection

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

const (
	// PassReward is paid per car through the intersection.
	PassReward = 50.0

	// CrashPenalty is charged per new crash by rewards that score crashes.
	CrashPenalty = 10000.0
)

// RewardInput carries the cumulative counters and this tick's deltas.
type RewardInput struct {
	TotalWaitTime float64
	WaitDiff      float64
	CarsPassed    int
	PassedDiff    int
	NumCrashes    int
	NewCrashes    int
}

// Reward is a per-tick reward split into its components.
type Reward struct {
	Waiting float64
	Passed  float64
	Crash   float64
}

// Total sums the components.
func (r Reward) Total() float64 { return r.Waiting + r.Passed + r.Crash }

// RewardFunc scores one tick.
type RewardFunc func(in RewardInput) Reward

var rewards = map[string]RewardFunc{}

// RegisterReward adds a reward function under the provided name.
func RegisterReward(name string, f RewardFunc) {
	if name == "" || f == nil {
		return
	}
	rewards[name] = f
}

// LookupReward returns the reward function registered as name.
func LookupReward(name string) (RewardFunc, error) {
	f, ok := rewards[name]
	if !ok {
		return nil, fmt.Errorf("unknown reward function %q (have %s): %w", name, strings.Join(RewardNames(), ", "), ErrInvalidInput)
	}
	return f, nil
}

// RewardNames lists the registered reward functions in sorted order.
func RewardNames() []string {
	names := lo.Keys(rewards)
	slices.Sort(names)
	return names
}

// NormalReward penalizes the cumulative wait time and pays for the
// cumulative pass count. Both terms grow over an episode; trained policies
// depend on this shape.
func NormalReward(in RewardInput) Reward {
	return Reward{
		Waiting: -in.TotalWaitTime,
		Passed:  float64(in.CarsPassed) * PassReward,
	}
}

// DeltaReward scores only what changed this tick and charges for crashes.
func DeltaReward(in RewardInput) Reward {
	return Reward{
		Waiting: -in.WaitDiff,
		Passed:  float64(in.PassedDiff) * PassReward,
		Crash:   -float64(in.NewCrashes) * CrashPenalty,
	}
}

func init() {
	RegisterReward("normal", NormalReward)
	RegisterReward("delta", DeltaReward)
}
