package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"crossroads/internal/sims/intersection"
)

func newParamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Print the simulation parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applySimFlags(cmd, cfg); err != nil {
				return err
			}
			sim, err := intersection.New(cfg.Sim())
			if err != nil {
				return err
			}
			snap := sim.Parameters()

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				values := map[string]string{}
				for _, g := range snap.Groups {
					for _, p := range g.Params {
						values[p.Key] = p.Value
					}
				}
				return json.NewEncoder(out).Encode(values)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for i, g := range snap.Groups {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "%s\n", g.Name)
				for _, p := range g.Params {
					fmt.Fprintf(w, "  %s\t%s\t%s\n", p.Key, p.Value, p.Label)
				}
			}
			return w.Flush()
		},
	}
	addSimFlags(cmd)
	return cmd
}
