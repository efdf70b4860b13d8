package systems

import (
	"runtime"
	"sync"

	"murk/body"
	"murk/brain"
)

// parallelThreshold is the minimum creature count for the parallel
// controller phase; below it goroutine overhead dominates.
const parallelThreshold = 16

// brainSnapshot captures read-only sensory state so controllers can run
// concurrently without touching shared fields.
type brainSnapshot struct {
	Body   *body.SoftBody
	Senses brain.Senses
}

// BrainSystem samples senses at each creature's centroid and runs the
// controller over every live creature, in parallel when the population
// is large enough. Controllers write only to their own body.
type BrainSystem struct {
	s         *Shared
	snapshots []brainSnapshot
}

func NewBrainSystem(s *Shared) *BrainSystem {
	return &BrainSystem{s: s, snapshots: make([]brainSnapshot, 0, 256)}
}

func (bs *BrainSystem) Update() {
	s := bs.s
	bs.snapshots = bs.snapshots[:0]

	query := s.Filter.Query()
	for query.Next() {
		pos, cr, _ := query.Get()
		sb := cr.Body
		if sb == nil || sb.Unstable {
			continue
		}
		fx, fy := s.Fluid.VelocityAtWorld(pos.X, pos.Y)
		dr, dg, db := s.Fluid.DensityAtWorld(pos.X, pos.Y)
		bs.snapshots = append(bs.snapshots, brainSnapshot{
			Body: sb,
			Senses: brain.Senses{
				FlowX: fx, FlowY: fy,
				DyeR: dr, DyeG: dg, DyeB: db,
				Nutrient:    s.Res.NutrientAtWorld(pos.X, pos.Y),
				Light:       s.Res.LightAtWorld(pos.X, pos.Y),
				EnergyRatio: sb.EnergyRatio(),
			},
		})
	}

	n := len(bs.snapshots)
	if n == 0 {
		return
	}
	if n < parallelThreshold {
		for i := range bs.snapshots {
			snap := &bs.snapshots[i]
			s.Controller.Process(snap.Body, snap.Senses, s.Tick)
		}
		return
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, n)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				snap := &bs.snapshots[i]
				s.Controller.Process(snap.Body, snap.Senses, s.Tick)
			}
		}(start, end)
	}
	wg.Wait()
}
