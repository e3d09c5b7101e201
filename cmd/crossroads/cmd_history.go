package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"crossroads/internal/store"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded episodes, newest first",
		Long: `List recorded episodes, newest first.

With --episode, print the sampled ticks of one episode instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path := cfg.Store.Path
			if cmd.Flags().Changed("db") {
				path, _ = cmd.Flags().GetString("db")
			}
			if path == "" {
				return fmt.Errorf("no database: pass --db or set store.path")
			}
			limit, _ := cmd.Flags().GetInt("limit")

			st, err := store.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			if id, _ := cmd.Flags().GetInt64("episode"); id > 0 {
				return printTicks(cmd, st, id)
			}

			eps, err := st.ListEpisodes(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{"episodes": eps, "count": len(eps)})
			}
			if len(eps) == 0 {
				fmt.Fprintln(out, "No episodes recorded.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tSCENARIO\tCONTROLLER\tSEED\tSTEPS\tPASSED\tCRASHES\tAVG WAIT\tREWARD")
			for _, e := range eps {
				if !e.Finished {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t-\t-\t-\t-\t(unfinished)\n",
						e.ID, e.StartedAt.Format(time.DateTime), e.Info.Scenario, e.Info.Controller, e.Info.Seed)
					continue
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%.2f\t%.1f\n",
					e.ID, e.StartedAt.Format(time.DateTime), e.Info.Scenario, e.Info.Controller, e.Info.Seed,
					e.Steps, e.CarsPassed, e.NumCrashes, e.AverageWait, e.TotalReward)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("db", "", "SQLite file written by run --db")
	cmd.Flags().Int("limit", 20, "maximum episodes to list (0 for all)")
	cmd.Flags().Int64("episode", 0, "show the recorded ticks of this episode id")
	return cmd
}

func printTicks(cmd *cobra.Command, st *store.Store, id int64) error {
	ticks, err := st.Ticks(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return json.NewEncoder(out).Encode(map[string]any{"episode": id, "ticks": ticks, "count": len(ticks)})
	}
	if len(ticks) == 0 {
		fmt.Fprintf(out, "No ticks recorded for episode %d.\n", id)
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tTIME\tH\tV\tLR\tRL\tUD\tDU\tWAIT\tPASSED\tCRASHES\tREWARD")
	for _, tk := range ticks {
		lanes := tk.CarsPerLane
		fmt.Fprintf(w, "%d\t%.2f\t%s\t%s\t%d\t%d\t%d\t%d\t%.2f\t%d\t%d\t%.1f\n",
			tk.Step, tk.Time, tk.HorizLight.Short(), tk.VertLight.Short(),
			lanes[0], lanes[1], lanes[2], lanes[3], tk.TotalWait, tk.CarsPassed, tk.NumCrashes, tk.Reward)
	}
	return w.Flush()
}
