package runner

import (
	"cmp"
	"context"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/samber/lo"

	"crossroads/internal/config"
	"crossroads/internal/sims/intersection"
)

// Job is one cell of a sweep grid.
type Job struct {
	Scenario intersection.Scenario
	Seed     int64
}

// JobResult pairs a job with its outcome.
type JobResult struct {
	Job Job
	Result
	Err error
}

// Jobs builds the scenario x seed grid.
func Jobs(scenarios []intersection.Scenario, seeds []int64) []Job {
	jobs := make([]Job, 0, len(scenarios)*len(seeds))
	for _, sc := range scenarios {
		for _, seed := range seeds {
			jobs = append(jobs, Job{Scenario: sc, Seed: seed})
		}
	}
	return jobs
}

// Sweep plays every job on a pool of workers. Each episode owns its own
// simulation, so workers share nothing but the recorder. Results come back
// in job order.
func Sweep(ctx context.Context, base *config.RunConfig, jobs []Job, workers int, rec Recorder, log *slog.Logger) []JobResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	type indexed struct {
		i   int
		job Job
	}
	work := make(chan indexed)
	results := make([]JobResult, len(jobs))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				cfg := *base
				cfg.Scenario = item.job.Scenario
				res, err := New(&cfg, rec, log).Episode(ctx, item.job.Seed)
				res.Sim = nil
				results[item.i] = JobResult{Job: item.job, Result: res, Err: err}
			}
		}()
	}

	go func() {
		defer close(work)
		for i, job := range jobs {
			select {
			case work <- indexed{i: i, job: job}:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	if err := ctx.Err(); err != nil {
		for i := range results {
			if results[i].Steps == 0 && results[i].Err == nil {
				results[i] = JobResult{Job: jobs[i], Err: err}
			}
		}
	}
	return results
}

// Summary aggregates the successful episodes of one scenario.
type Summary struct {
	Scenario   intersection.Scenario
	Episodes   int
	Failed     int
	MeanReward float64
	MeanWait   float64
	MeanPassed float64
	CrashRate  float64
	Best       JobResult
}

// Summarize groups results by scenario and ranks the groups by mean reward,
// best first.
func Summarize(results []JobResult) []Summary {
	groups := lo.GroupBy(results, func(r JobResult) intersection.Scenario { return r.Job.Scenario })
	out := make([]Summary, 0, len(groups))
	for sc, group := range groups {
		ok, failed := lo.FilterReject(group, func(r JobResult, _ int) bool { return r.Err == nil })
		s := Summary{Scenario: sc, Episodes: len(ok), Failed: len(failed)}
		if len(ok) > 0 {
			n := float64(len(ok))
			s.MeanReward = lo.SumBy(ok, func(r JobResult) float64 { return r.TotalReward }) / n
			s.MeanWait = lo.SumBy(ok, func(r JobResult) float64 { return r.Metrics.AverageWaitTime }) / n
			s.MeanPassed = lo.SumBy(ok, func(r JobResult) float64 { return float64(r.Metrics.CarsPassed) }) / n
			s.CrashRate = float64(lo.CountBy(ok, func(r JobResult) bool { return r.Metrics.NumCrashes > 0 })) / n
			s.Best = lo.MaxBy(ok, func(a, b JobResult) bool { return a.TotalReward > b.TotalReward })
		}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b Summary) int {
		if c := cmp.Compare(b.MeanReward, a.MeanReward); c != 0 {
			return c
		}
		return cmp.Compare(a.Scenario, b.Scenario)
	})
	return out
}
