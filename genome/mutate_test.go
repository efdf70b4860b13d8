package genome

import (
	"math"
	"reflect"
	"testing"

	"murk/config"
	"murk/telemetry"
)

// smallTriangle is a minimal hand-built mesh for structural mutation
// tests, deliberately tiny so every extrusion candidate violates the
// clearance distance.
func smallTriangle() *Blueprint {
	b := &Blueprint{
		Points: []PointGene{
			{X: 0, Y: 0, Radius: 1, Mass: 1, Type: NodeEater},
			{X: 1, Y: 0, Radius: 1, Mass: 1, Type: NodeEater},
			{X: 0.5, Y: 0.9, Radius: 1, Mass: 1, Type: NodeEater},
		},
	}
	triangle(b, 0, 1, 2)
	return b
}

func TestBoundaryEdges_SingleTriangle(t *testing.T) {
	b := smallTriangle()
	edges := boundaryEdges(b)
	if len(edges) != 3 {
		t.Fatalf("boundary edges = %d, want 3", len(edges))
	}
	for _, e := range edges {
		s := b.Springs[e.spring]
		if e.interior == s.A || e.interior == s.B {
			t.Errorf("edge %d-%d reports endpoint %d as interior", s.A, s.B, e.interior)
		}
	}
}

func TestBoundaryEdges_SharedEdgeIsInterior(t *testing.T) {
	// Two triangles sharing edge 1-2: only the shared edge is interior.
	b := smallTriangle()
	b.Points = append(b.Points, PointGene{X: 1.5, Y: 0.9, Radius: 1, Mass: 1, Type: NodeEater})
	edge(b, 1, 3)
	edge(b, 2, 3)

	edges := boundaryEdges(b)
	if len(edges) != 4 {
		t.Fatalf("boundary edges = %d, want 4", len(edges))
	}
	for _, e := range edges {
		s := b.Springs[e.spring]
		if (s.A == 1 && s.B == 2) || (s.A == 2 && s.B == 1) {
			t.Error("shared edge 1-2 reported as boundary")
		}
	}
}

func TestExtrudeTriangleBoundary_AddsPointAndSprings(t *testing.T) {
	bp := NewFounder(FounderSwimmer, testRNG())
	prePoints, preSprings := len(bp.Points), len(bp.Springs)

	if !extrudeTriangleBoundary(bp, testRNG()) {
		t.Fatal("extrusion failed on a founder mesh")
	}
	if len(bp.Points) != prePoints+1 {
		t.Errorf("points = %d, want %d", len(bp.Points), prePoints+1)
	}
	if len(bp.Springs) != preSprings+2 {
		t.Errorf("springs = %d, want %d", len(bp.Springs), preSprings+2)
	}

	idx := prePoints
	if bp.Points[idx].Movement != MoveNeutral {
		t.Errorf("extruded point movement = %v, want neutral", bp.Points[idx].Movement)
	}
	for _, s := range bp.Springs[preSprings:] {
		if s.B != idx {
			t.Errorf("new spring %d-%d does not reach the extruded point", s.A, s.B)
		}
	}
	if !bp.connected() {
		t.Error("mesh disconnected after extrusion")
	}
}

func TestExtrudeTriangleBoundary_ClearanceBlocks(t *testing.T) {
	b := smallTriangle()
	pre := b.Clone()

	if extrudeTriangleBoundary(b, testRNG()) {
		t.Fatal("extrusion succeeded inside the clearance radius")
	}
	if !reflect.DeepEqual(pre, b) {
		t.Error("failed extrusion modified the blueprint")
	}
}

func TestGraftModule_AttachesDonorModule(t *testing.T) {
	rng := testRNG()
	recip := NewFounder(FounderSessile, rng)
	donor := NewFounder(FounderHunter, rng)
	prePoints, preSprings := len(recip.Points), len(recip.Springs)

	if !graftModule(recip, donor, rng) {
		t.Fatal("graft failed with donor in reach")
	}
	if len(recip.Points) <= prePoints {
		t.Error("graft added no points")
	}
	attach := false
	for _, s := range recip.Springs[preSprings:] {
		if s.A < prePoints && s.B >= prePoints {
			attach = true
		}
	}
	if !attach {
		t.Error("no attachment spring between recipient and module")
	}
	if !recip.connected() {
		t.Error("mesh disconnected after graft")
	}
}

func TestGraftModule_RollbackIsExact(t *testing.T) {
	cfg := config.Cfg()
	orig := cfg.Mutation.GraftAttachRadius
	cfg.Mutation.GraftAttachRadius = 0
	t.Cleanup(func() { cfg.Mutation.GraftAttachRadius = orig })

	rng := testRNG()
	recip := NewFounder(FounderSessile, rng)
	donor := NewFounder(FounderHunter, rng)
	pre := recip.Clone()

	if graftModule(recip, donor, rng) {
		t.Fatal("graft succeeded with zero attachment radius")
	}
	if !reflect.DeepEqual(pre, recip) {
		t.Error("rolled-back graft left residue in the blueprint")
	}
}

func TestSampleModule_ConnectedSubgraph(t *testing.T) {
	donor := NewFounder(FounderSwimmer, testRNG())
	rng := testRNG()

	for trial := 0; trial < 50; trial++ {
		module := sampleModule(donor, 3, rng)
		if len(module) < 1 || len(module) > 3 {
			t.Fatalf("module size = %d, want 1..3", len(module))
		}
		seen := make(map[int]bool)
		for _, pi := range module {
			if pi < 0 || pi >= len(donor.Points) {
				t.Fatalf("module index %d out of range", pi)
			}
			if seen[pi] {
				t.Fatalf("duplicate index %d in module", pi)
			}
			seen[pi] = true
		}
		if len(module) > 1 {
			adj := donor.Adjacency()
			reached := map[int]bool{module[0]: true}
			stack := []int{module[0]}
			for len(stack) > 0 {
				n := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for _, m := range adj[n] {
					if seen[m] && !reached[m] {
						reached[m] = true
						stack = append(stack, m)
					}
				}
			}
			if len(reached) != len(module) {
				t.Fatalf("module %v is not connected", module)
			}
		}
	}
}

func TestJitter_StaysWithinRate(t *testing.T) {
	m := config.Cfg().Mutation
	bound := m.Rate * m.GlobalModifier
	rng := testRNG()

	for i := 0; i < 1000; i++ {
		v := jitter(10, rng)
		if v < 10*(1-bound)-1e-9 || v > 10*(1+bound)+1e-9 {
			t.Fatalf("jitter(10) = %v, outside +/-%v", v, bound)
		}
	}
}

func TestPickStructuralPath_RespectsWeights(t *testing.T) {
	cfg := config.Cfg()
	origE, origG, origN := cfg.Mutation.ExtrusionWeight, cfg.Mutation.GraftWeight, cfg.Mutation.NoneWeight
	t.Cleanup(func() {
		cfg.Mutation.ExtrusionWeight = origE
		cfg.Mutation.GraftWeight = origG
		cfg.Mutation.NoneWeight = origN
	})

	cfg.Mutation.ExtrusionWeight = 0
	cfg.Mutation.GraftWeight = 1
	cfg.Mutation.NoneWeight = 0
	rng := testRNG()
	for i := 0; i < 100; i++ {
		if p := pickStructuralPath(rng); p != pathGraft {
			t.Fatalf("path = %v with graft-only weights", p)
		}
	}

	cfg.Mutation.ExtrusionWeight = 0
	cfg.Mutation.GraftWeight = 0
	cfg.Mutation.NoneWeight = 0
	if p := pickStructuralPath(rng); p != pathExtrusion {
		t.Errorf("degenerate weights should default to extrusion, got %v", p)
	}
}

func TestMutateChild_ViabilityFallbackKeepsParent(t *testing.T) {
	cfg := config.Cfg()
	orig := cfg.Mutation.Viability.MinPoints
	cfg.Mutation.Viability.MinPoints = 1000
	t.Cleanup(func() { cfg.Mutation.Viability.MinPoints = orig })

	parent := NewFounder(FounderSessile, testRNG())
	tel := telemetry.NewCounters()
	child := MutateChild(parent, nil, testRNG(), tel)

	if !reflect.DeepEqual(parent, child) {
		t.Error("fallback child differs from parent")
	}
	if tel.ViabilityFailures != 1 || tel.ParentFallbacks != 1 {
		t.Errorf("counters = %d/%d, want 1/1 viability failure and fallback",
			tel.ViabilityFailures, tel.ParentFallbacks)
	}
}

func TestMutateChild_LeavesParentUntouched(t *testing.T) {
	parent := NewFounder(FounderSwimmer, testRNG())
	snapshot := parent.Clone()
	tel := telemetry.NewCounters()

	rng := testRNG()
	for i := 0; i < 20; i++ {
		child := MutateChild(parent, []*Blueprint{NewFounder(FounderHunter, rng)}, rng, tel)
		if child == parent {
			t.Fatal("child aliases the parent blueprint")
		}
	}
	if !reflect.DeepEqual(snapshot, parent) {
		t.Error("mutation modified the parent blueprint")
	}
}

func TestMutateChild_ChildIsSanitizedAndViable(t *testing.T) {
	parent := NewFounder(FounderSessile, testRNG())
	tel := telemetry.NewCounters()
	rng := testRNG()

	for i := 0; i < 50; i++ {
		child := MutateChild(parent, nil, rng, tel)
		if ok, reason := child.Viable(); !ok {
			t.Fatalf("returned child fails viability gate %q", reason)
		}
		for j := range child.Points {
			p := &child.Points[j]
			if math.IsNaN(p.X) || math.IsNaN(p.Y) || p.Radius <= 0 || p.Mass <= 0 {
				t.Fatalf("child point %d not sanitized: %+v", j, p)
			}
		}
		parent = child
	}
}
