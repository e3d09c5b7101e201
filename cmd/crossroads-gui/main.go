//go:build ebiten

package main

import (
	"errors"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/pflag"

	"crossroads/internal/app"
	"crossroads/internal/config"
	"crossroads/internal/controller"
	"crossroads/internal/logging"
	"crossroads/internal/sims/intersection"
)

func main() {
	view := app.NewViewConfig()
	fs := pflag.NewFlagSet("crossroads-gui", pflag.ExitOnError)
	view.Bind(fs)
	configPath := fs.String("config", "", "YAML run configuration file")
	scenario := fs.String("scenario", "", "spawn preset: normal, rush-hour or big-event")
	seed := fs.Int64("seed", 0, "RNG seed (default: config value or clock)")
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if fs.Changed("scenario") {
		sc, err := intersection.ParseScenario(*scenario)
		if err != nil {
			log.Fatal(err)
		}
		cfg.Scenario = sc
	}
	if fs.Changed("seed") {
		cfg.Seed = seed
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)
	sim, err := intersection.New(cfg.Sim())
	if err != nil {
		log.Fatal(err)
	}
	sim.SetLogger(logger)

	var auto controller.Controller
	if view.Auto {
		auto, err = controller.NewFixedCycle(cfg.Controller.Green, cfg.Controller.Yellow)
		if err != nil {
			log.Fatal(err)
		}
	}
	game := app.New(app.NewSession(sim, auto, logger), view)
	w, h := game.Layout(0, 0)

	ebiten.SetWindowTitle("crossroads - " + cfg.Scenario.String())
	ebiten.SetTPS(view.TPS)
	ebiten.SetWindowSize(w, h)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
