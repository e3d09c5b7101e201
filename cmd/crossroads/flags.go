package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"crossroads/internal/config"
	"crossroads/internal/controller"
	"crossroads/internal/sims/intersection"
)

// addSimFlags registers the flags that override simulation settings.
func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().String("scenario", "", "spawn preset: normal, rush-hour or big-event")
	cmd.Flags().Int64("seed", 0, "RNG seed (default: config value or clock)")
	cmd.Flags().String("reward", "", "reward function: "+strings.Join(intersection.RewardNames(), ", "))
	cmd.Flags().Float64("trial-time", 0, "episode length in simulated seconds")
	cmd.Flags().Float64("dt", 0, "fixed step in seconds")
	cmd.Flags().Bool("stop-on-crash", false, "end the episode at the first crash")
	cmd.Flags().String("controller", "", "light controller: fixed, manual or random")
	cmd.Flags().Float64("green", 0, "fixed cycle green seconds")
	cmd.Flags().Float64("yellow", 0, "fixed cycle yellow seconds")
}

// applySimFlags copies every changed sim flag into cfg.
func applySimFlags(cmd *cobra.Command, cfg *config.RunConfig) error {
	flags := cmd.Flags()
	if flags.Changed("scenario") {
		v, _ := flags.GetString("scenario")
		sc, err := intersection.ParseScenario(v)
		if err != nil {
			return err
		}
		cfg.Scenario = sc
	}
	if flags.Changed("seed") {
		v, _ := flags.GetInt64("seed")
		cfg.Seed = &v
	}
	if flags.Changed("reward") {
		cfg.RewardFunction, _ = flags.GetString("reward")
	}
	if flags.Changed("trial-time") {
		cfg.TrialTime, _ = flags.GetFloat64("trial-time")
	}
	if flags.Changed("dt") {
		cfg.DT, _ = flags.GetFloat64("dt")
	}
	if flags.Changed("stop-on-crash") {
		cfg.StopOnCrash, _ = flags.GetBool("stop-on-crash")
	}
	if flags.Changed("controller") {
		v, _ := flags.GetString("controller")
		cfg.Controller.Kind = controller.Kind(v)
	}
	if flags.Changed("green") {
		cfg.Controller.Green, _ = flags.GetFloat64("green")
	}
	if flags.Changed("yellow") {
		cfg.Controller.Yellow, _ = flags.GetFloat64("yellow")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
