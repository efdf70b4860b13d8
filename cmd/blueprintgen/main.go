// blueprintgen generates founder blueprints and writes them as JSON,
// suitable for seeding a run via the -load flag.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"murk/config"
	"murk/genome"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	kind := flag.String("kind", "random", "Founder kind: sessile, swimmer, hunter, random")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	out := flag.String("out", "", "Output file (empty = stdout)")

	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewPCG(uint64(rngSeed), uint64(rngSeed)>>1))

	var bp *genome.Blueprint
	switch *kind {
	case "sessile":
		bp = genome.NewFounder(genome.FounderSessile, rng)
	case "swimmer":
		bp = genome.NewFounder(genome.FounderSwimmer, rng)
	case "hunter":
		bp = genome.NewFounder(genome.FounderHunter, rng)
	case "random":
		bp = genome.RandomFounder(rng)
	default:
		slog.Error("unknown founder kind", "kind", *kind)
		os.Exit(1)
	}

	data, err := genome.ExportJSON(bp)
	if err != nil {
		slog.Error("export failed", "error", err)
		os.Exit(1)
	}

	if *out == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		slog.Error("write failed", "error", err)
		os.Exit(1)
	}
}
