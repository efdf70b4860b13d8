package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"murk/config"
	"murk/sim"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	maxTicks := flag.Int("ticks", 0, "Stop after N ticks (0 = unlimited)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	outputDir := flag.String("out", "", "Output directory for CSV logs and exports")
	loadPath := flag.String("load", "", "Seed the population from an exported blueprint")
	saveBest := flag.Bool("save-best", false, "Export the champion blueprint on exit")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	s, err := sim.New(sim.Options{
		Seed:      rngSeed,
		OutputDir: *outputDir,
		LoadPath:  *loadPath,
		SaveBest:  *saveBest,
	})
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	slog.Info("starting simulation",
		"seed", rngSeed,
		"max_ticks", *maxTicks,
		"population", s.Alive(),
	)

	for {
		select {
		case <-stop:
			slog.Info("interrupted", "tick", s.TickCount())
			return
		default:
		}

		s.Tick()

		if *maxTicks > 0 && s.TickCount() >= *maxTicks {
			slog.Info("max ticks reached", "tick", s.TickCount())
			return
		}
	}
}
