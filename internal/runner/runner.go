// Package runner plays headless episodes: a simulation stepped by a light
// controller until the episode ends, optionally recorded to a store.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"crossroads/internal/config"
	"crossroads/internal/controller"
	"crossroads/internal/logging"
	"crossroads/internal/sims/intersection"
	"crossroads/internal/store"
)

// Recorder receives episode history. *store.Store satisfies it.
type Recorder interface {
	BeginEpisode(ctx context.Context, info store.EpisodeInfo) (int64, error)
	RecordTick(ctx context.Context, episodeID int64, step int, reward float64, m intersection.Metrics) (bool, error)
	FinishEpisode(ctx context.Context, episodeID int64, r store.EpisodeResult) error
}

// Result summarizes one finished episode.
type Result struct {
	Seed        int64
	EpisodeID   int64
	Steps       int
	TotalReward float64
	Metrics     intersection.Metrics

	// Sim is the simulation in its final state.
	Sim *intersection.Sim
}

// Runner plays episodes described by a RunConfig.
type Runner struct {
	cfg *config.RunConfig
	rec Recorder
	log *slog.Logger
	now func() time.Time
}

// New returns a runner. rec and log may be nil.
func New(cfg *config.RunConfig, rec Recorder, log *slog.Logger) *Runner {
	if log == nil {
		log = logging.Discard()
	}
	return &Runner{cfg: cfg, rec: rec, log: log, now: time.Now}
}

// BaseSeed is the configured seed, or the clock when none is set.
func (r *Runner) BaseSeed() int64 {
	if r.cfg.Seed != nil {
		return *r.cfg.Seed
	}
	return r.now().UnixNano()
}

// Run plays cfg.Episodes episodes with consecutive seeds.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	base := r.BaseSeed()
	results := make([]Result, 0, r.cfg.Episodes)
	for i := 0; i < r.cfg.Episodes; i++ {
		res, err := r.Episode(ctx, base+int64(i))
		if err != nil {
			return results, fmt.Errorf("episode %d: %w", i+1, err)
		}
		r.log.Info("episode finished",
			"episode", i+1, "seed", res.Seed, "steps", res.Steps,
			"time", res.Metrics.Time, "passed", res.Metrics.CarsPassed,
			"crashes", res.Metrics.NumCrashes, "avg_wait", res.Metrics.AverageWaitTime,
			"reward", res.TotalReward)
		results = append(results, res)
	}
	return results, nil
}

// Episode plays a single episode from seed until it is truncated or, under
// stop_on_crash, terminated.
func (r *Runner) Episode(ctx context.Context, seed int64) (Result, error) {
	simCfg := r.cfg.Sim()
	simCfg.Seed = intersection.Seed(seed)
	sim, err := intersection.New(simCfg)
	if err != nil {
		return Result{}, err
	}
	sim.SetLogger(r.log)
	ctrl, err := controller.New(r.cfg.ControllerOptions(seed))
	if err != nil {
		return Result{}, err
	}
	sim.Reset()
	ctrl.Reset()

	res := Result{Seed: seed, Sim: sim}
	if r.rec != nil {
		res.EpisodeID, err = r.rec.BeginEpisode(ctx, store.EpisodeInfo{
			Scenario:       simCfg.Scenario,
			RewardFunction: simCfg.RewardFunction,
			Controller:     controllerName(r.cfg.Controller.Kind),
			Seed:           seed,
			TrialTime:      simCfg.TrialTime,
			DT:             r.cfg.DT,
		})
		if err != nil {
			return res, err
		}
	}

	dt := r.cfg.DT
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		horiz, vert := ctrl.Lights(dt)
		reward, m, err := sim.Step(dt, horiz, vert)
		if err != nil {
			return res, err
		}
		if r.rec != nil {
			if _, err := r.rec.RecordTick(ctx, res.EpisodeID, res.Steps, reward, m); err != nil {
				return res, err
			}
		}
		res.Steps++
		res.TotalReward += reward
		res.Metrics = m
		if m.Done() {
			break
		}
	}

	if r.rec != nil {
		err := r.rec.FinishEpisode(ctx, res.EpisodeID, store.EpisodeResult{
			Steps:       res.Steps,
			TotalReward: res.TotalReward,
			Metrics:     res.Metrics,
		})
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func controllerName(k controller.Kind) string {
	if k == "" {
		return string(controller.KindFixed)
	}
	return string(k)
}
