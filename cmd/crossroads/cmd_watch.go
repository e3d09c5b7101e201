package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crossroads/internal/app"
	"crossroads/internal/controller"
	"crossroads/internal/sims/intersection"
	"crossroads/internal/tui"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the intersection live in the terminal",
		Long: `Draw the intersection in the terminal and step it in real time.

Keys: ` + app.Help,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applySimFlags(cmd, cfg); err != nil {
				return err
			}
			log := newLogger(cmd, cfg)
			sim, err := intersection.New(cfg.Sim())
			if err != nil {
				return err
			}
			// The terminal owns stderr while the viewer runs.
			sim.SetLogger(nil)

			var auto controller.Controller
			if manual, _ := cmd.Flags().GetBool("manual"); !manual {
				auto, err = controller.NewFixedCycle(cfg.Controller.Green, cfg.Controller.Yellow)
				if err != nil {
					return err
				}
			}
			session := app.NewSession(sim, auto, nil)

			cols, _ := cmd.Flags().GetInt("cols")
			rows, _ := cmd.Flags().GetInt("rows")
			tps, _ := cmd.Flags().GetInt("tps")

			screen, err := tui.Open()
			if err != nil {
				return fmt.Errorf("failed to open terminal: %w", err)
			}
			viewer := tui.New(screen, session, cols, rows, tps)
			err = viewer.Run(cmd.Context())
			screen.Fini()
			log.Info("watch finished", "episodes", session.Episode(), "time", session.Metrics().Time)
			return err
		},
	}
	addSimFlags(cmd)
	cmd.Flags().Int("cols", tui.DefaultCols, "raster columns")
	cmd.Flags().Int("rows", tui.DefaultRows, "raster rows")
	cmd.Flags().Int("tps", 60, "ticks per second")
	cmd.Flags().Bool("manual", false, "start with manual lights instead of the fixed cycle")
	return cmd
}
