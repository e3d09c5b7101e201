package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"crossroads/internal/config"
	"crossroads/internal/logging"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "crossroads",
		Short: "Four-way intersection traffic simulation",
		Long: `crossroads simulates a signalized four-way intersection.

Vehicles spawn on four approaches, obey the lights, queue behind each other
and crash when cross traffic overlaps in the junction. Run episodes headless,
sweep scenarios in parallel, inspect recorded history or watch it live in
the terminal.`,
		SilenceUsage: true,
	}

	addGlobalFlags(rootCmd)
	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newSweepCmd(),
		newParamsCmd(),
		newHistoryCmd(),
		newWatchCmd(),
	)
	return rootCmd
}

func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "YAML run configuration file")
	cmd.PersistentFlags().String("log-level", "", "log level: info, debug or trace")
	cmd.PersistentFlags().Bool("json", false, "Output as JSON")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crossroads version %s\n", version)
		},
	}
}

// loadConfig reads --config and the environment, then applies --log-level.
func loadConfig(cmd *cobra.Command) (*config.RunConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, nil
}

// newLogger logs to the command's error stream.
func newLogger(cmd *cobra.Command, cfg *config.RunConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}
