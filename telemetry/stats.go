package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window, one CSV row
// per window.
type WindowStats struct {
	WindowStartTick int `csv:"-"`
	WindowEndTick   int `csv:"window_end"`

	Population int `csv:"population"`
	Particles  int `csv:"particles"`

	// Events during the window
	Births       int64 `csv:"births"`
	Deaths       int64 `csv:"deaths"`
	DeathsEnergy int64 `csv:"deaths_energy"`
	DeathsPhys   int64 `csv:"deaths_physics"`
	DeathsAge    int64 `csv:"deaths_age"`

	GrowthEvents   int64 `csv:"growth_events"`
	GrowthRejected int64 `csv:"growth_rejected"`
	Extrusions     int64 `csv:"extrusions"`
	Grafts         int64 `csv:"grafts"`

	OffspringPlaced   int64 `csv:"offspring_placed"`
	OffspringRejected int64 `csv:"offspring_rejected"`

	// Population distribution, sampled at window end
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	PointsMean    float64 `csv:"points_mean"`
	RigidFracMean float64 `csv:"rigid_frac_mean"`
	MaxGeneration int     `csv:"max_generation"`
}

// physicsReasons are the first-cause reasons attributed to the physics
// guards rather than the energy economy or aging.
var physicsReasons = []string{
	"non_finite_position",
	"displacement_exceeded",
	"spring_overstretch",
	"span_exceeded",
	"out_of_bounds",
}

// Collector accumulates per-window deltas against the shared counters
// and builds WindowStats rows.
type Collector struct {
	counters *Counters
	prev     Counters
	prevBy   map[string]int64

	windowStart int

	// Per-creature samples, refreshed each window end.
	energySamples []float64
	pointsSamples []float64
	rigidSamples  []float64
}

// NewCollector wraps the shared counter set.
func NewCollector(c *Counters) *Collector {
	return &Collector{
		counters: c,
		prevBy:   make(map[string]int64),
	}
}

// ResetSamples clears the per-creature sample buffers for a new window.
func (col *Collector) ResetSamples() {
	col.energySamples = col.energySamples[:0]
	col.pointsSamples = col.pointsSamples[:0]
	col.rigidSamples = col.rigidSamples[:0]
}

// SampleCreature records one creature's distribution samples.
func (col *Collector) SampleCreature(energyRatio float64, points int, rigidFrac float64) {
	col.energySamples = append(col.energySamples, energyRatio)
	col.pointsSamples = append(col.pointsSamples, float64(points))
	col.rigidSamples = append(col.rigidSamples, rigidFrac)
}

// Flush builds the stats row for the window ending at tick and rolls the
// delta baseline forward.
func (col *Collector) Flush(tick, population, particleCount, maxGeneration int) WindowStats {
	c := col.counters
	ws := WindowStats{
		WindowStartTick: col.windowStart,
		WindowEndTick:   tick,
		Population:      population,
		Particles:       particleCount,

		Births:       c.Births - col.prev.Births,
		Deaths:       c.Deaths - col.prev.Deaths,
		DeathsEnergy: col.reasonDelta("energy_depleted"),
		DeathsAge:    col.reasonDelta("node_old_age_exhaustion"),

		GrowthEvents:   c.GrowthEvents - col.prev.GrowthEvents,
		GrowthRejected: c.GrowthRejected - col.prev.GrowthRejected,
		Extrusions:     c.Extrusions - col.prev.Extrusions,
		Grafts:         c.Grafts - col.prev.Grafts,

		OffspringPlaced:   c.OffspringPlaced - col.prev.OffspringPlaced,
		OffspringRejected: c.OffspringRejected - col.prev.OffspringRejected,

		MaxGeneration: maxGeneration,
	}
	for _, r := range physicsReasons {
		ws.DeathsPhys += col.reasonDelta(r)
	}

	if len(col.energySamples) > 0 {
		sort.Float64s(col.energySamples)
		ws.EnergyMean, ws.EnergyStd = stat.MeanStdDev(col.energySamples, nil)
		ws.EnergyP10 = stat.Quantile(0.1, stat.Empirical, col.energySamples, nil)
		ws.EnergyP50 = stat.Quantile(0.5, stat.Empirical, col.energySamples, nil)
		ws.EnergyP90 = stat.Quantile(0.9, stat.Empirical, col.energySamples, nil)
		ws.PointsMean = stat.Mean(col.pointsSamples, nil)
		ws.RigidFracMean = stat.Mean(col.rigidSamples, nil)
	}

	col.prev = *c
	col.prev.DeathsByReason = nil
	for k, v := range c.DeathsByReason {
		col.prevBy[k] = v
	}
	col.windowStart = tick
	col.ResetSamples()
	return ws
}

func (col *Collector) reasonDelta(reason string) int64 {
	return col.counters.DeathsByReason[reason] - col.prevBy[reason]
}
