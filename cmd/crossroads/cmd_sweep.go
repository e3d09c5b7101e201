package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"crossroads/internal/runner"
	"crossroads/internal/sims/intersection"
	"crossroads/internal/store"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run every scenario over a range of seeds in parallel",
		Long: `Run the scenario x seed grid on a pool of workers, one independent
simulation per episode, and print the scenarios ranked by mean reward.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applySimFlags(cmd, cfg); err != nil {
				return err
			}
			names, _ := cmd.Flags().GetStringSlice("scenarios")
			scenarios := intersection.Scenarios
			if len(names) > 0 {
				scenarios = make([]intersection.Scenario, 0, len(names))
				for _, n := range names {
					sc, err := intersection.ParseScenario(n)
					if err != nil {
						return err
					}
					scenarios = append(scenarios, sc)
				}
				scenarios = lo.Uniq(scenarios)
			}
			count, _ := cmd.Flags().GetInt("seeds")
			if count < 1 {
				return fmt.Errorf("--seeds must be at least 1, got %d", count)
			}
			first := int64(1)
			if cfg.Seed != nil {
				first = *cfg.Seed
			}
			seeds := lo.Map(lo.Range(count), func(i int, _ int) int64 { return first + int64(i) })
			workers, _ := cmd.Flags().GetInt("workers")
			log := newLogger(cmd, cfg)

			var rec runner.Recorder
			if path, _ := cmd.Flags().GetString("db"); path != "" {
				st, err := store.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open store: %w", err)
				}
				defer st.Close()
				st.SetSampleEvery(cfg.Store.SampleEvery)
				rec = st
			}

			jobs := runner.Jobs(scenarios, seeds)
			log.Info("sweep started", "jobs", len(jobs), "workers", workers)
			start := time.Now()
			results := runner.Sweep(cmd.Context(), cfg, jobs, workers, rec, log)
			elapsed := time.Since(start)
			summaries := runner.Summarize(results)
			if err := cmd.Context().Err(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				rows := lo.Map(summaries, func(s runner.Summary, _ int) map[string]any {
					return map[string]any{
						"scenario":    s.Scenario.String(),
						"episodes":    s.Episodes,
						"failed":      s.Failed,
						"mean_reward": s.MeanReward,
						"mean_wait":   s.MeanWait,
						"mean_passed": s.MeanPassed,
						"crash_rate":  s.CrashRate,
						"best_seed":   s.Best.Job.Seed,
					}
				})
				return json.NewEncoder(out).Encode(map[string]any{"summaries": rows})
			}

			fmt.Fprintf(out, "Swept %d episodes (%d scenarios x %d seeds) in %s\n",
				len(jobs), len(scenarios), len(seeds), elapsed.Round(time.Millisecond))
			for i, s := range summaries {
				fmt.Fprintf(out, "%2d) %-9s reward=%.1f passed=%.1f wait=%.2fs crash_rate=%.2f best_seed=%d",
					i+1, s.Scenario, s.MeanReward, s.MeanPassed, s.MeanWait, s.CrashRate, s.Best.Job.Seed)
				if s.Failed > 0 {
					fmt.Fprintf(out, " failed=%d", s.Failed)
				}
				fmt.Fprintln(out)
			}
			for _, r := range results {
				if r.Err != nil {
					log.Warn("episode failed", "scenario", r.Job.Scenario, "seed", r.Job.Seed, "error", r.Err)
				}
			}
			return nil
		},
	}
	addSimFlags(cmd)
	cmd.Flags().StringSlice("scenarios", nil, "scenarios to sweep (default all)")
	cmd.Flags().Int("seeds", 8, "number of consecutive seeds per scenario")
	cmd.Flags().Int("workers", runtime.NumCPU(), "number of worker goroutines")
	cmd.Flags().String("db", "", "record every episode to this SQLite file")
	return cmd
}
