// Package telemetry collects per-run counters and windowed population
// statistics, and writes them as CSV.
package telemetry

// Counters aggregates per-run event counts. A single instance is owned by
// the simulation driver and passed by reference into mutation, growth, and
// reproduction calls.
type Counters struct {
	Births            int64
	Deaths            int64
	DeathsByReason    map[string]int64
	NodesAgedOut      int64

	Extrusions        int64 // Triangle-boundary extrusions applied
	ExtrusionFailures int64 // No viable boundary edge / clearance failures
	Grafts            int64 // Donor modules attached
	GraftRollbacks    int64 // Grafts rolled back (no attachment springs)
	GraftNoDonor      int64 // No donor within search radius
	ViabilityFailures int64 // Mutated child blueprints rejected
	ParentFallbacks   int64 // Children reverted to the parent blueprint

	GrowthEvents    int64 // Nodes added by morphogenesis
	GrowthRejected  int64 // Growth attempts rolled back (clearance/capacity)
	ProgramHalts    int64 // Growth programs halted (HALT or loop guard)

	SpringsDropped int64 // Out-of-range spring genes dropped at instantiation

	OffspringPlaced   int64
	OffspringRejected int64 // Placement overlap rejections
	FailedReproAttempts int64
}

// NewCounters returns a zeroed counter set.
func NewCounters() *Counters {
	return &Counters{DeathsByReason: make(map[string]int64)}
}

// RecordDeath counts a creature death by first-cause reason.
func (c *Counters) RecordDeath(reason string) {
	c.Deaths++
	if c.DeathsByReason == nil {
		c.DeathsByReason = make(map[string]int64)
	}
	c.DeathsByReason[reason]++
}
