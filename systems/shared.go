// Package systems provides the per-tick simulation systems.
package systems

import (
	"math/rand/v2"

	"github.com/mlange-42/ark/ecs"

	"murk/brain"
	"murk/components"
	"murk/config"
	"murk/fluid"
	"murk/particles"
	"murk/resource"
	"murk/spatial"
	"murk/telemetry"
)

// Shared is the state all systems operate on: the ECS world and mappers,
// the environment fields, and the shared counters.
type Shared struct {
	World  *ecs.World
	Mapper *ecs.Map3[components.Position, components.Creature, components.Lineage]
	Filter *ecs.Filter3[components.Position, components.Creature, components.Lineage]

	PosMap      *ecs.Map1[components.Position]
	CreatureMap *ecs.Map1[components.Creature]
	LineageMap  *ecs.Map1[components.Lineage]

	Fluid *fluid.Grid
	Res   *resource.Fields
	Grid  *spatial.Grid
	Pool  *particles.Pool

	Controller brain.Controller

	RNG *rand.Rand
	Tel *telemetry.Counters

	Tick  int
	Alive int
}

// NewShared wires the shared state against a fresh world.
func NewShared(world *ecs.World, seed int64) *Shared {
	cfg := config.Cfg()
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	return &Shared{
		World:  world,
		Mapper: ecs.NewMap3[components.Position, components.Creature, components.Lineage](world),
		Filter: ecs.NewFilter3[components.Position, components.Creature, components.Lineage](world),

		PosMap:      ecs.NewMap1[components.Position](world),
		CreatureMap: ecs.NewMap1[components.Creature](world),
		LineageMap:  ecs.NewMap1[components.Lineage](world),

		Fluid: fluid.New(seed),
		Res:   resource.New(seed),
		Grid:  spatial.NewGrid(cfg.World.Width, cfg.World.Height, cfg.Physics.GridCellSize),
		Pool:  particles.NewPool(),

		Controller: brain.NewNeuralController(brain.NewFallbackPattern(cfg.Brain.FallbackAmplitude), rng),

		RNG: rng,
		Tel: telemetry.NewCounters(),
	}
}
