package body

import (
	"math"
	"testing"

	"murk/config"
	"murk/genome"
	"murk/telemetry"
	"murk/vec"
)

func TestGrowthTick_CooldownGate(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSwimmer)
	sb.GrowthCooldown = 5

	sb.GrowthTick(testRNG(), telemetry.NewCounters(), 1)
	if sb.GrowthCooldown != 4 {
		t.Errorf("cooldown = %d, want 4", sb.GrowthCooldown)
	}
	if sb.VM.ExecCount != 0 {
		t.Error("program ran during cooldown")
	}
}

func TestGrowthTick_MaxPointsGate(t *testing.T) {
	cfg := config.Cfg()
	orig := cfg.Growth.MaxPoints
	cfg.Growth.MaxPoints = 4
	t.Cleanup(func() { cfg.Growth.MaxPoints = orig })

	sb := spawnFounder(t, genome.FounderSwimmer)
	sb.GrowthTick(testRNG(), telemetry.NewCounters(), 1)

	if len(sb.Points) != 4 || sb.VM.ExecCount != 0 {
		t.Error("growth ran at the point capacity")
	}
}

func TestGrowthTick_EnergyGate(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSwimmer)
	sb.Blueprint.Growth.Base.MinEnergyRatio = 0.9
	sb.Energy = sb.MaxEnergy * 0.1

	sb.GrowthTick(testRNG(), telemetry.NewCounters(), 1)
	if sb.VM.ExecCount != 0 {
		t.Error("program ran below the energy threshold")
	}
}

func TestGrowthTick_EventuallyCommits(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSwimmer)
	sb.Blueprint.Growth.Base.Chance = 1
	sb.Blueprint.Growth.Base.MinEnergyRatio = 0
	sb.Blueprint.Growth.Program = nil // Ungated growth

	rng := testRNG()
	tel := telemetry.NewCounters()
	pre := len(sb.Points)

	for i := 0; i < 300 && len(sb.Points) == pre; i++ {
		sb.GrowthCooldown = 0
		sb.Energy = sb.MaxEnergy
		sb.GrowthTick(rng, tel, 1)
	}
	if len(sb.Points) == pre {
		t.Fatal("no growth event committed in 300 attempts")
	}

	grown := sb.Points[len(sb.Points)-1]
	if grown.BranchDepth < 1 {
		t.Errorf("grown point branch depth = %d, want >= 1", grown.BranchDepth)
	}
	if len(sb.SpringsOf(grown)) == 0 {
		t.Error("grown point has no springs")
	}
	if sb.MaxEnergy <= float64(pre)*config.Cfg().Energy.MaxPerPoint {
		t.Error("max energy not recomputed after growth")
	}
	if sb.GrowthEvents == 0 || tel.GrowthEvents == 0 {
		t.Error("growth event not counted")
	}
}

func TestGrowthTick_RewardStrategyScalesNoveltyBonus(t *testing.T) {
	run := func(reward genome.RewardStrategy) float64 {
		sb := spawnFounder(t, genome.FounderSwimmer)
		sb.Blueprint.Genes.Reward = reward
		sb.Blueprint.Growth.Base.Chance = 1
		sb.Blueprint.Growth.Base.MinEnergyRatio = 0
		sb.Blueprint.Growth.Program = []genome.Instruction{
			{Op: genome.OpGrow},
			{Op: genome.OpWait},
			{Op: genome.OpGoto, Line: 0},
		}

		rng := testRNG()
		tel := telemetry.NewCounters()
		for i := 0; i < 300 && sb.Ledger.NoveltyGain == 0; i++ {
			sb.GrowthCooldown = 0
			sb.Energy = sb.MaxEnergy
			sb.GrowthTick(rng, tel, 1)
		}
		return sb.Ledger.NoveltyGain
	}

	harvest := run(genome.RewardHarvest)
	explore := run(genome.RewardExplore)
	if harvest <= 0 || explore <= 0 {
		t.Fatalf("no novelty credit: harvest = %v, explore = %v", harvest, explore)
	}
	// Identical seeds and programs, so the gains differ only by the
	// strategy weights (0.5 vs 1.5).
	if math.Abs(explore-3*harvest) > 1e-12 {
		t.Errorf("explore gain = %v, want 3x harvest gain %v", explore, harvest)
	}
}

func TestGrowthTick_ZeroPopScaleNeverGrows(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSwimmer)
	sb.Blueprint.Growth.Base.Chance = 1
	sb.Blueprint.Growth.Base.MinEnergyRatio = 0
	sb.Blueprint.Growth.Program = nil

	rng := testRNG()
	tel := telemetry.NewCounters()
	pre := len(sb.Points)
	for i := 0; i < 100; i++ {
		sb.GrowthCooldown = 0
		sb.GrowthTick(rng, tel, 0)
	}
	if len(sb.Points) != pre {
		t.Error("body grew at the population ceiling")
	}
}

func TestCommitEvent_PhotoEdgeForcedRigid(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSwimmer)
	anchor := sb.Points[0]
	staged := []grownNode{{
		pos:    anchor.Pos.Add(vec.New(12, 0)),
		typ:    genome.NodePhotosynthetic,
		anchor: anchor,
		edge:   genome.EdgeSoft,
		depth:  1,
	}}

	profile := sb.Blueprint.Growth.ActiveProfile(0)
	sb.commitEvent(staged, profile, config.Cfg())

	last := sb.Springs[len(sb.Springs)-1]
	if !last.Rigid {
		t.Error("edge to a photosynthetic point stayed soft")
	}
	if sb.Counts.Photosynthetic != 1 {
		t.Errorf("photosynthetic count = %d, want 1", sb.Counts.Photosynthetic)
	}
}

func TestPlacementClear(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSwimmer)
	p := sb.Points[0]

	if sb.placementClear(p.Pos, nil, 5) {
		t.Error("placement on top of a live point reported clear")
	}
	far := p.Pos.Add(vec.New(500, 0))
	if !sb.placementClear(far, nil, 5) {
		t.Error("distant placement reported blocked")
	}
	staged := []grownNode{{pos: far}}
	if sb.placementClear(far.Add(vec.New(1, 0)), staged, 5) {
		t.Error("placement near a staged node reported clear")
	}
}

func TestPickAnchor_PrefersRequestedType(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSwimmer)
	var want *MassPoint
	for _, p := range sb.Points {
		if p.Type == genome.NodeJet {
			want = p
		}
	}
	if want == nil {
		t.Fatal("founder has no jet point")
	}

	rng := testRNG()
	c := sb.Centroid()
	for i := 0; i < 20; i++ {
		if got := sb.pickAnchor(rng, genome.NodeJet, 0.5, c); got != want {
			t.Fatalf("anchor = %v, want the sole jet point", got.Type)
		}
	}
}

func TestClampInterval(t *testing.T) {
	cfg := config.Cfg()
	if got := clampInterval(0, cfg); got != cfg.Nodes.ActivationIntervalMin {
		t.Errorf("clamp low = %d", got)
	}
	if got := clampInterval(999, cfg); got != cfg.Nodes.ActivationIntervalMax {
		t.Errorf("clamp high = %d", got)
	}
	if got := clampInterval(5, cfg); got != 5 {
		t.Errorf("clamp mid = %d, want 5", got)
	}
}
