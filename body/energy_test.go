package body

import (
	"math"
	"testing"

	"murk/config"
	"murk/genome"
)

func TestEnergyTick_ChargesBaseAndUpkeep(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSwimmer)
	before := sb.Energy

	sb.EnergyTick(stillFluid{}, stubRes{nutrient: 1, light: 0})

	spent := before - sb.Energy
	want := sb.Ledger.BaseCost + sb.Ledger.ActuationCost
	if math.Abs(spent-want) > 1e-9 {
		t.Errorf("spent = %v, ledger total = %v", spent, want)
	}
	if sb.Ledger.BaseCost != config.Cfg().Energy.BaseCost*float64(len(sb.Points)) {
		t.Errorf("base cost = %v with ample nutrient", sb.Ledger.BaseCost)
	}
}

func TestEnergyTick_ScarcityRaisesBaseCost(t *testing.T) {
	ample := spawnFounder(t, genome.FounderSwimmer)
	starved := spawnFounder(t, genome.FounderSwimmer)

	ample.EnergyTick(stillFluid{}, stubRes{nutrient: 1})
	starved.EnergyTick(stillFluid{}, stubRes{nutrient: 0})

	if starved.Ledger.BaseCost <= ample.Ledger.BaseCost {
		t.Errorf("starved base = %v, ample base = %v; want scarcity surcharge",
			starved.Ledger.BaseCost, ample.Ledger.BaseCost)
	}
	// Zero nutrient clamps to the floor, so the surcharge is 1/floor.
	want := ample.Ledger.BaseCost / config.Cfg().Energy.ScarcityNutrientFloor
	if math.Abs(starved.Ledger.BaseCost-want) > 1e-9 {
		t.Errorf("zero nutrient base = %v, want %v", starved.Ledger.BaseCost, want)
	}
}

func TestEnergyTick_ScarcityIsReciprocal(t *testing.T) {
	half := spawnFounder(t, genome.FounderSwimmer)
	half.EnergyTick(stillFluid{}, stubRes{nutrient: 0.5})

	flat := config.Cfg().Energy.BaseCost * float64(len(half.Points))
	if math.Abs(half.Ledger.BaseCost-2*flat) > 1e-9 {
		t.Errorf("base at nutrient 0.5 = %v, want 1/0.5 scaling %v", half.Ledger.BaseCost, 2*flat)
	}
}

func TestEnergyTick_ActivationSurcharge(t *testing.T) {
	idle := spawnFounder(t, genome.FounderSwimmer)
	active := spawnFounder(t, genome.FounderSwimmer)
	for _, p := range active.Points {
		p.Activated = true
		p.Exertion = 1
	}

	idle.EnergyTick(stillFluid{}, stubRes{nutrient: 1})
	active.EnergyTick(stillFluid{}, stubRes{nutrient: 1})

	if active.Ledger.ActuationCost <= idle.Ledger.ActuationCost {
		t.Errorf("active actuation = %v, idle = %v; want surcharge on activation ticks",
			active.Ledger.ActuationCost, idle.Ledger.ActuationCost)
	}
}

func TestEnergyTick_PhotosynthesisCredit(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSessile)
	sb.Energy = sb.MaxEnergy * 0.2
	before := sb.Energy

	sb.EnergyTick(stillFluid{}, stubRes{nutrient: 1, light: 0.5})

	if sb.Ledger.PhotoGain <= 0 {
		t.Fatal("photosynthetic body gained no energy in light")
	}
	net := sb.Energy - before
	wantNet := sb.Ledger.PhotoGain - sb.Ledger.BaseCost - sb.Ledger.ActuationCost
	if math.Abs(net-wantNet) > 1e-9 {
		t.Errorf("net = %v, ledger net = %v", net, wantNet)
	}
}

func TestEnergyTick_GreenDyeBoostsPhotosynthesis(t *testing.T) {
	plain := spawnFounder(t, genome.FounderSessile)
	dyed := spawnFounder(t, genome.FounderSessile)

	plain.EnergyTick(stillFluid{}, stubRes{nutrient: 1, light: 0.5})
	dyed.EnergyTick(dyeFluid{g: 1}, stubRes{nutrient: 1, light: 0.5})

	if dyed.Ledger.PhotoGain <= plain.Ledger.PhotoGain {
		t.Errorf("dyed gain = %v, plain gain = %v; want green dye affinity boost",
			dyed.Ledger.PhotoGain, plain.Ledger.PhotoGain)
	}
}

func TestEnergyTick_DyeOverexposureScalesWithGain(t *testing.T) {
	cfg := config.Cfg()
	low := spawnFounder(t, genome.FounderSwimmer)
	high := spawnFounder(t, genome.FounderSwimmer)
	low.Blueprint.Genes.DyeGain = 0.5
	high.Blueprint.Genes.DyeGain = 1.0

	dye := dyeFluid{r: 1, g: 1, b: 1}
	low.EnergyTick(dye, stubRes{nutrient: 1})
	high.EnergyTick(dye, stubRes{nutrient: 1})

	want := cfg.Energy.OverexposureRate * 0.5 * (3 - cfg.Energy.OverexposureThreshold) * float64(len(low.Points))
	if math.Abs(low.Ledger.OverexposureCost-want) > 1e-9 {
		t.Errorf("overexposure cost = %v, want %v", low.Ledger.OverexposureCost, want)
	}
	if math.Abs(high.Ledger.OverexposureCost-2*low.Ledger.OverexposureCost) > 1e-9 {
		t.Errorf("cost at gain 1.0 = %v, want double the gain 0.5 cost %v",
			high.Ledger.OverexposureCost, 2*low.Ledger.OverexposureCost)
	}
}

func TestEnergyTick_NoOverexposureBelowThreshold(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSwimmer)
	sb.EnergyTick(stillFluid{}, stubRes{nutrient: 1, light: 1})
	if sb.Ledger.OverexposureCost != 0 {
		t.Errorf("overexposure cost = %v in clear water", sb.Ledger.OverexposureCost)
	}
}

func TestEnergyTick_PhotosynthesisScalesWithNodeSize(t *testing.T) {
	small := spawnFounder(t, genome.FounderSessile)
	large := spawnFounder(t, genome.FounderSessile)
	cfg := config.Cfg()
	for _, p := range small.Points {
		if p.Type == genome.NodePhotosynthetic {
			p.Radius = cfg.Nodes.RadiusMin
		}
	}
	for _, p := range large.Points {
		if p.Type == genome.NodePhotosynthetic {
			p.Radius = 2 * cfg.Nodes.RadiusMin
		}
	}

	small.EnergyTick(stillFluid{}, stubRes{nutrient: 1, light: 0.5})
	large.EnergyTick(stillFluid{}, stubRes{nutrient: 1, light: 0.5})

	if math.Abs(large.Ledger.PhotoGain-2*small.Ledger.PhotoGain) > 1e-9 {
		t.Errorf("gain at doubled radius = %v, want %v", large.Ledger.PhotoGain, 2*small.Ledger.PhotoGain)
	}
}

func TestEnergyTick_RedDyePoison(t *testing.T) {
	cfg := config.Cfg()
	sb := spawnFounder(t, genome.FounderSwimmer)

	sb.EnergyTick(dyeFluid{r: 1}, stubRes{nutrient: 1})
	want := cfg.Energy.PoisonRedRate * float64(len(sb.Points))
	if math.Abs(sb.Ledger.PoisonCost-want) > 1e-9 {
		t.Errorf("poison cost = %v, want %v", sb.Ledger.PoisonCost, want)
	}
}

func TestEnergyTick_DepletionLatches(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSwimmer)
	sb.Energy = 1e-6

	sb.EnergyTick(stillFluid{}, stubRes{nutrient: 1})
	if !sb.Unstable || sb.Reason != ReasonEnergyDepleted {
		t.Errorf("reason = %q, want energy depletion", sb.Reason)
	}
}

func TestEnergyTick_SkipsLatchedBody(t *testing.T) {
	sb := spawnFounder(t, genome.FounderSwimmer)
	sb.MarkUnstable(ReasonSpan, UnstableDetail{})
	before := sb.Energy

	sb.EnergyTick(stillFluid{}, stubRes{nutrient: 1})
	if sb.Energy != before {
		t.Error("latched body was charged upkeep")
	}
}
