package body

import (
	"math"
	"math/rand/v2"
	"os"
	"testing"

	"murk/config"
	"murk/genome"
	"murk/telemetry"
	"murk/vec"
)

func TestMain(m *testing.M) {
	config.MustInit("")
	os.Exit(m.Run())
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func spawnFounder(t *testing.T, kind genome.FounderKind) *SoftBody {
	t.Helper()
	bp := genome.NewFounder(kind, testRNG())
	return Instantiate(bp, vec.New(800, 450), telemetry.NewCounters())
}

// stillFluid is an inert fluid stub for physics and energy tests.
type stillFluid struct{}

func (stillFluid) VelocityAtWorld(x, y float64) (float64, float64)        { return 0, 0 }
func (stillFluid) DensityAtWorld(x, y float64) (float64, float64, float64) { return 0, 0, 0 }
func (stillFluid) AddVelocity(x, y, dx, dy float64)                       {}
func (stillFluid) AddDensity(x, y, r, g, b, amount float64)               {}

// dyeFluid reports a uniform dye density everywhere.
type dyeFluid struct{ r, g, b float64 }

func (f dyeFluid) VelocityAtWorld(x, y float64) (float64, float64)        { return 0, 0 }
func (f dyeFluid) DensityAtWorld(x, y float64) (float64, float64, float64) { return f.r, f.g, f.b }
func (dyeFluid) AddVelocity(x, y, dx, dy float64)                         {}
func (dyeFluid) AddDensity(x, y, r, g, b, amount float64)                 {}

// stubRes reports uniform nutrient and light fields.
type stubRes struct{ nutrient, light float64 }

func (r stubRes) NutrientAtWorld(x, y float64) float64 { return r.nutrient }
func (r stubRes) LightAtWorld(x, y float64) float64    { return r.light }
func (stubRes) DebitNutrient(x, y, amount float64)     {}
func (stubRes) DebitLight(x, y, amount float64)        {}

func TestInstantiate_CompilesBlueprint(t *testing.T) {
	cfg := config.Cfg()
	bp := genome.NewFounder(genome.FounderSessile, testRNG())
	sb := Instantiate(bp, vec.New(800, 450), telemetry.NewCounters())

	if len(sb.Points) != len(bp.Points) {
		t.Fatalf("points = %d, want %d", len(sb.Points), len(bp.Points))
	}
	if len(sb.Springs) != len(bp.Springs) {
		t.Fatalf("springs = %d, want %d", len(sb.Springs), len(bp.Springs))
	}

	c := sb.Centroid()
	if math.Abs(c.X-800) > 1e-9 || math.Abs(c.Y-450) > 1e-9 {
		t.Errorf("centroid = %v, want spawn position", c)
	}

	wantMax := float64(len(sb.Points)) * cfg.Energy.MaxPerPoint
	if sb.MaxEnergy != wantMax {
		t.Errorf("max energy = %v, want %v", sb.MaxEnergy, wantMax)
	}
	if math.Abs(sb.Energy-wantMax*cfg.Energy.InitialRatio) > 1e-9 {
		t.Errorf("initial energy = %v, want %v", sb.Energy, wantMax*cfg.Energy.InitialRatio)
	}

	if sb.Counts.Photosynthetic != 2 || sb.Counts.Eater != 1 || sb.Counts.Emitter != 1 {
		t.Errorf("counts = %+v", sb.Counts)
	}
}

func TestInstantiate_PhotoConstraint(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSessile)
	for i, s := range sb.Springs {
		aPhoto := s.A.Type == genome.NodePhotosynthetic
		bPhoto := s.B.Type == genome.NodePhotosynthetic
		if (aPhoto || bPhoto) && !s.Rigid {
			t.Errorf("spring %d touches a photosynthetic point but is not rigid", i)
		}
		if aPhoto && !bPhoto && s.B.Movement != genome.MoveNeutral {
			t.Errorf("spring %d neighbor movement = %v, want neutral", i, s.B.Movement)
		}
	}
}

func TestInstantiate_PrimaryEye(t *testing.T) {
	sb := spawnFounder(t, genome.FounderHunter)
	if sb.PrimaryEye < 0 || sb.Points[sb.PrimaryEye].Type != genome.NodeEye {
		t.Errorf("primary eye = %d", sb.PrimaryEye)
	}

	sessile := spawnFounder(t, genome.FounderSessile)
	if sessile.PrimaryEye != -1 {
		t.Errorf("eyeless body primary eye = %d, want -1", sessile.PrimaryEye)
	}
}

func TestInstantiate_DropsOutOfRangeSprings(t *testing.T) {
	bp := genome.NewFounder(genome.FounderSwimmer, testRNG())
	good := len(bp.Springs)
	bp.Springs = append(bp.Springs,
		genome.SpringGene{A: 0, B: 99, RestLength: 10},
		genome.SpringGene{A: 2, B: 2, RestLength: 10},
	)

	tel := telemetry.NewCounters()
	sb := Instantiate(bp, vec.New(100, 100), tel)
	if len(sb.Springs) != good {
		t.Errorf("springs = %d, want %d", len(sb.Springs), good)
	}
	if tel.SpringsDropped != 2 {
		t.Errorf("dropped counter = %d, want 2", tel.SpringsDropped)
	}
}

func TestSapEnergy_LatchesDepletion(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSwimmer)
	sb.Energy = 5

	if taken := sb.SapEnergy(8); taken != 5 {
		t.Errorf("taken = %v, want 5", taken)
	}
	if !sb.Unstable || sb.Reason != ReasonEnergyDepleted {
		t.Errorf("reason = %q, want energy depletion latch", sb.Reason)
	}
	if taken := sb.SapEnergy(1); taken != 0 {
		t.Errorf("sap on a latched body took %v, want 0", taken)
	}
}

func TestGainEnergy_ClampsToMax(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSwimmer)
	sb.GainEnergy(sb.MaxEnergy * 10)
	if sb.Energy != sb.MaxEnergy {
		t.Errorf("energy = %v, want clamp at %v", sb.Energy, sb.MaxEnergy)
	}
}

func TestMarkUnstable_FirstCauseWins(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSwimmer)
	sb.MarkUnstable(ReasonSpan, UnstableDetail{Value: 99})
	sb.MarkUnstable(ReasonNonFinite, UnstableDetail{PointIndex: 2})

	if sb.Reason != ReasonSpan || sb.Detail.Value != 99 {
		t.Errorf("latched reason = %q detail %+v, want first cause", sb.Reason, sb.Detail)
	}
}

func TestRemovePointAt_DropsSpringsAndRecounts(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSessile)
	victim := sb.Points[0]
	touching := len(sb.SpringsOf(victim))
	preSprings := len(sb.Springs)
	preMax := sb.MaxEnergy

	sb.RemovePointAt(0)
	if len(sb.Springs) != preSprings-touching {
		t.Errorf("springs = %d, want %d", len(sb.Springs), preSprings-touching)
	}
	for _, s := range sb.Springs {
		if s.Has(victim) {
			t.Error("a spring still references the removed point")
		}
	}
	if sb.MaxEnergy >= preMax {
		t.Errorf("max energy = %v, want reduced below %v", sb.MaxEnergy, preMax)
	}
}

func TestRemovePointAt_EmptyBodyLatches(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSwimmer)
	for len(sb.Points) > 0 {
		sb.RemovePointAt(0)
	}
	if !sb.Unstable || sb.Reason != ReasonNodeOldAge {
		t.Errorf("reason = %q, want old-age exhaustion", sb.Reason)
	}
}

func TestCanReproduce_CooldownScalesWithSize(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSwimmer)
	cool := float64(sb.Blueprint.Genes.ReproCooldown) * (1 + float64(len(sb.Points))*0.05)

	sb.AgeTicks = int(cool)
	if sb.CanReproduce() {
		t.Error("reproduced before the effective cooldown elapsed")
	}
	sb.AgeTicks = int(cool) + 2
	if !sb.CanReproduce() {
		t.Error("cannot reproduce after the cooldown elapsed")
	}

	sb.MarkUnstable(ReasonSpan, UnstableDetail{})
	if sb.CanReproduce() {
		t.Error("latched body can reproduce")
	}
}

func TestRigidFractions(t *testing.T) {
	a := &MassPoint{Mass: 1}
	b := &MassPoint{Mass: 1}
	c := &MassPoint{Mass: 1}
	sb := &SoftBody{
		Points: []*MassPoint{a, b, c},
		Springs: []*Spring{
			{A: a, B: b, Rigid: true},
			{A: b, B: c, Rigid: false},
		},
	}

	if got := sb.RigidFraction(a); got != 1 {
		t.Errorf("RigidFraction(a) = %v, want 1", got)
	}
	if got := sb.RigidFraction(b); got != 0.5 {
		t.Errorf("RigidFraction(b) = %v, want 0.5", got)
	}
	if got := sb.RigidSpringFraction(); got != 0.5 {
		t.Errorf("RigidSpringFraction = %v, want 0.5", got)
	}
}

func TestTickActivation_CooldownCycle(t *testing.T) {
	p := &MassPoint{ActivationInterval: 3}
	got := []bool{
		p.TickActivation(ChannelNode),
		p.TickActivation(ChannelNode),
		p.TickActivation(ChannelNode),
		p.TickActivation(ChannelNode),
	}
	want := []bool{true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tick %d activation = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSenescenceScale(t *testing.T) {
	p := &MassPoint{}
	if s := p.SenescenceScale(100, 0.8, 0.2); s != 1 {
		t.Errorf("young scale = %v, want 1", s)
	}
	p.AgeTicks = 90
	if s := p.SenescenceScale(100, 0.8, 0.2); math.Abs(s-0.6) > 1e-9 {
		t.Errorf("mid-senescence scale = %v, want 0.6", s)
	}
	p.AgeTicks = 200
	if s := p.SenescenceScale(100, 0.8, 0.2); s != 0.2 {
		t.Errorf("end-of-life scale = %v, want floor 0.2", s)
	}
}

func TestAgeTick_RemovesExhaustedPoints(t *testing.T) {
	cfg := config.Cfg()
	sb := spawnFounder(t, genome.FounderSwimmer)
	tel := telemetry.NewCounters()

	sb.Points[1].AgeTicks = cfg.Nodes.MaxAgeTicks
	pre := len(sb.Points)

	sb.AgeTick(tel)
	if len(sb.Points) != pre-1 {
		t.Errorf("points = %d, want %d", len(sb.Points), pre-1)
	}
	if tel.NodesAgedOut != 1 {
		t.Errorf("aged-out counter = %d, want 1", tel.NodesAgedOut)
	}
	if sb.AgeTicks != 1 {
		t.Errorf("body age = %d, want 1", sb.AgeTicks)
	}
}
