package main

import (
	"encoding/json"
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"crossroads/internal/config"
	"crossroads/internal/controller"
	"crossroads/internal/render"
	"crossroads/internal/runner"
	"crossroads/internal/store"
)

// episodeJSON is the --json shape of one episode.
type episodeJSON struct {
	Seed        int64   `json:"seed"`
	EpisodeID   int64   `json:"episode_id,omitempty"`
	Steps       int     `json:"steps"`
	Time        float64 `json:"time"`
	TotalReward float64 `json:"total_reward"`
	CarsPassed  int     `json:"cars_passed"`
	NumCrashes  int     `json:"num_crashes"`
	Spawned     int     `json:"spawned"`
	AverageWait float64 `json:"average_wait"`
	Truncated   bool    `json:"truncated"`
	Terminated  bool    `json:"terminated"`
}

func toEpisodeJSON(r runner.Result) episodeJSON {
	return episodeJSON{
		Seed:        r.Seed,
		EpisodeID:   r.EpisodeID,
		Steps:       r.Steps,
		Time:        r.Metrics.Time,
		TotalReward: r.TotalReward,
		CarsPassed:  r.Metrics.CarsPassed,
		NumCrashes:  r.Metrics.NumCrashes,
		Spawned:     r.Metrics.Spawned,
		AverageWait: r.Metrics.AverageWaitTime,
		Truncated:   r.Metrics.Truncated,
		Terminated:  r.Metrics.Terminated,
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play episodes headless with a light controller",
		Long: `Play one or more episodes with the configured light controller until
each reaches its time horizon, or its first crash with --stop-on-crash.

Episodes use consecutive seeds starting at --seed. With --db every episode
and a sample of its ticks are recorded to SQLite.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("episodes") {
				cfg.Episodes, _ = cmd.Flags().GetInt("episodes")
			}
			if cmd.Flags().Changed("db") {
				cfg.Store.Path, _ = cmd.Flags().GetString("db")
			}
			if cmd.Flags().Changed("sample-every") {
				cfg.Store.SampleEvery, _ = cmd.Flags().GetInt("sample-every")
			}
			if err := applySimFlags(cmd, cfg); err != nil {
				return err
			}
			log := newLogger(cmd, cfg)

			var rec runner.Recorder
			if cfg.Store.Path != "" {
				st, err := store.Open(cfg.Store.Path)
				if err != nil {
					return fmt.Errorf("failed to open store: %w", err)
				}
				defer st.Close()
				st.SetSampleEvery(cfg.Store.SampleEvery)
				rec = st
			}

			results, err := runner.New(cfg, rec, log).Run(cmd.Context())
			if err != nil {
				return err
			}

			if path, _ := cmd.Flags().GetString("snapshot"); path != "" && len(results) > 0 {
				if err := writeSnapshot(path, results[len(results)-1]); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				eps := make([]episodeJSON, len(results))
				for i, r := range results {
					eps[i] = toEpisodeJSON(r)
				}
				return json.NewEncoder(out).Encode(map[string]any{
					"scenario":   cfg.Scenario.String(),
					"controller": controllerName(cfg),
					"episodes":   eps,
				})
			}
			fmt.Fprintf(out, "%s, %s controller, %d episode(s)\n", cfg.Scenario, controllerName(cfg), len(results))
			for i, r := range results {
				fmt.Fprintf(out, "%3d) seed=%d steps=%d passed=%d crashes=%d avg_wait=%.2fs reward=%.1f\n",
					i+1, r.Seed, r.Steps, r.Metrics.CarsPassed, r.Metrics.NumCrashes,
					r.Metrics.AverageWaitTime, r.TotalReward)
			}
			return nil
		},
	}
	addSimFlags(cmd)
	cmd.Flags().Int("episodes", 1, "number of episodes")
	cmd.Flags().String("db", "", "record episodes to this SQLite file")
	cmd.Flags().Int("sample-every", 60, "record one tick row per this many steps")
	cmd.Flags().String("snapshot", "", "write the final frame of the last episode to this PNG file")
	return cmd
}

// writeSnapshot renders the finished simulation at one cell per four world
// pixels.
func writeSnapshot(path string, r runner.Result) error {
	g := r.Sim.Geometry()
	cols, rows := int(g.ScreenWidth/4), int(g.ScreenHeight/4)
	raster := render.NewRasterizer(g, cols, rows)
	img := render.Image(raster.Draw(r.Sim), cols, rows)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return f.Close()
}

func controllerName(cfg *config.RunConfig) string {
	if cfg.Controller.Kind == "" {
		return string(controller.KindFixed)
	}
	return string(cfg.Controller.Kind)
}
