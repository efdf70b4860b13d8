// Package sim wires the ECS world, environment fields, and systems into
// a headless tick loop.
package sim

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"murk/body"
	"murk/components"
	"murk/config"
	"murk/genome"
	"murk/systems"
	"murk/telemetry"
	"murk/vec"
)

// Options configures a run.
type Options struct {
	Seed      int64
	OutputDir string
	LoadPath  string // Optional exported blueprint to seed from
	SaveBest  bool
}

// Sim is the simulation driver. Systems run in a fixed phase order each
// tick; the driver owns the output stream and champion tracking.
type Sim struct {
	opts   Options
	world  *ecs.World
	shared *systems.Shared

	brainSys    *systems.BrainSystem
	physicsSys  *systems.PhysicsSystem
	interactSys *systems.InteractionSystem
	energySys   *systems.EnergySystem
	agingSys    *systems.AgingSystem
	growthSys   *systems.GrowthSystem
	reproSys    *systems.ReproductionSystem
	cullSys     *systems.CullSystem

	collector *telemetry.Collector
	output    *telemetry.OutputManager

	best      *genome.Blueprint
	bestScore float64
}

// New builds a simulation and seeds the founding population.
func New(opts Options) (*Sim, error) {
	cfg := config.Cfg()

	world := ecs.NewWorld()
	shared := systems.NewShared(world, opts.Seed)

	s := &Sim{
		opts:   opts,
		world:  world,
		shared: shared,

		brainSys:    systems.NewBrainSystem(shared),
		physicsSys:  systems.NewPhysicsSystem(shared),
		interactSys: systems.NewInteractionSystem(shared),
		energySys:   systems.NewEnergySystem(shared),
		agingSys:    systems.NewAgingSystem(shared),
		growthSys:   systems.NewGrowthSystem(shared),
		reproSys:    systems.NewReproductionSystem(shared),
		cullSys:     systems.NewCullSystem(shared),

		collector: telemetry.NewCollector(shared.Tel),
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	s.output = output

	if opts.LoadPath != "" {
		if err := s.seedFromFile(opts.LoadPath, cfg.Population.Initial); err != nil {
			return nil, err
		}
	} else {
		s.cullSys.SpawnFounders(cfg.Population.Initial)
	}
	return s, nil
}

// seedFromFile spawns the initial population from an exported blueprint.
func (s *Sim) seedFromFile(path string, count int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed blueprint: %w", err)
	}
	bp, err := genome.ImportJSON(data)
	if err != nil {
		return fmt.Errorf("importing seed blueprint: %w", err)
	}

	cfg := config.Cfg()
	sh := s.shared
	for i := 0; i < count; i++ {
		spawn := vec.New(sh.RNG.Float64()*cfg.World.Width, sh.RNG.Float64()*cfg.World.Height)
		sb := body.Instantiate(bp.Clone(), spawn, sh.Tel)
		sh.Controller.Initialize(sb)
		c := sb.Centroid()
		sh.Mapper.NewEntity(
			&components.Position{X: c.X, Y: c.Y},
			&components.Creature{Body: sb},
			&components.Lineage{ID: uuid.New()},
		)
		sh.Alive++
	}
	return nil
}

// Tick advances the world one step.
func (s *Sim) Tick() {
	sh := s.shared
	sh.Tick++
	cfg := config.Cfg()

	sh.Pool.Step(sh.Fluid, sh.RNG)
	s.brainSys.Update()
	s.energySys.Update()
	s.physicsSys.Update()
	s.interactSys.Update()
	s.agingSys.Update()
	s.growthSys.Update()
	s.reproSys.Update()
	s.cullSys.Update()

	if cfg.Telemetry.OutputInterval > 0 && sh.Tick%cfg.Telemetry.OutputInterval == 0 {
		s.flushStats()
	}
}

// TickCount returns the current tick.
func (s *Sim) TickCount() int { return s.shared.Tick }

// Alive returns the live creature count.
func (s *Sim) Alive() int { return s.shared.Alive }

// flushStats samples the population, writes the window row, and updates
// the champion blueprint.
func (s *Sim) flushStats() {
	sh := s.shared

	maxGen := 0
	query := sh.Filter.Query()
	for query.Next() {
		_, cr, lin := query.Get()
		sb := cr.Body
		if sb == nil || sb.Unstable {
			continue
		}
		s.collector.SampleCreature(sb.EnergyRatio(), len(sb.Points), sb.RigidSpringFraction())
		if lin.Generation > maxGen {
			maxGen = lin.Generation
		}

		score := float64(lin.Generation)*1000 + float64(len(sb.Points))*sb.EnergyRatio()
		if s.best == nil || score > s.bestScore {
			s.best = sb.Blueprint.Clone()
			s.bestScore = score
		}
	}

	ws := s.collector.Flush(sh.Tick, sh.Alive, sh.Pool.Alive(), maxGen)
	if err := s.output.WriteTelemetry(ws); err != nil {
		slog.Error("telemetry write failed", "error", err)
	}
	slog.Info("window",
		"tick", ws.WindowEndTick,
		"population", ws.Population,
		"births", ws.Births,
		"deaths", ws.Deaths,
		"growth_events", ws.GrowthEvents,
		"energy_mean", ws.EnergyMean,
		"max_generation", ws.MaxGeneration,
	)
}

// Close writes the champion and closes outputs.
func (s *Sim) Close() error {
	if s.opts.SaveBest && s.best != nil {
		data, err := genome.ExportJSON(s.best)
		if err != nil {
			slog.Error("champion export failed", "error", err)
		} else if err := s.output.WriteBestGenome(data); err != nil {
			slog.Error("champion write failed", "error", err)
		}
	}
	return s.output.Close()
}
