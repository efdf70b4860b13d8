package body

import (
	"murk/config"
	"murk/genome"
	"murk/vec"
)

// typeUpkeep returns the per-tick upkeep cost for a node type beyond the
// shared base cost.
func typeUpkeep(t genome.NodeType, cfg *config.Config) float64 {
	switch t {
	case genome.NodePredator:
		return cfg.Energy.PredatorCost
	case genome.NodeEater:
		return cfg.Energy.EaterCost
	case genome.NodeSwimmer:
		return cfg.Energy.SwimmerCost
	case genome.NodeEmitter:
		return cfg.Energy.EmitterCost
	case genome.NodeJet:
		return cfg.Energy.JetCost
	case genome.NodeAttractor:
		return cfg.Energy.AttractorCost
	case genome.NodeRepulsor:
		return cfg.Energy.RepulsorCost
	case genome.NodeNeuron:
		return cfg.Energy.NeuronCost
	case genome.NodeEye:
		return cfg.Energy.EyeCost
	default:
		return 0
	}
}

// EnergyTick charges metabolic and actuation upkeep, credits
// photosynthesis, and applies red-dye poisoning and dye overexposure. A
// balance reaching zero latches the creature unstable.
func (sb *SoftBody) EnergyTick(fl Fluid, res Resources) {
	if sb.Unstable {
		return
	}
	cfg := config.Cfg()
	genes := &sb.Blueprint.Genes

	c := sb.Centroid()
	nutrient := res.NutrientAtWorld(c.X, c.Y)

	// Base metabolic rate scales with 1/nutrient, floored to keep the
	// surcharge bounded and capped so abundance is free, not paid.
	scarcity := 1.0
	if floor := cfg.Energy.ScarcityNutrientFloor; floor > 0 {
		scarcity = 1 / vec.Clamp(nutrient, floor, 1)
	}
	base := cfg.Energy.BaseCost * float64(len(sb.Points)) * scarcity
	sb.Ledger.BaseCost += base
	cost := base

	var gain float64
	for _, p := range sb.Points {
		upkeep := typeUpkeep(p.Type, cfg)
		if upkeep > 0 {
			passive := upkeep * (1 - cfg.Energy.UpkeepFraction)
			active := upkeep * cfg.Energy.UpkeepFraction
			charge := passive
			if p.Activated {
				charge += active * p.Exertion * p.Exertion
			}
			sb.Ledger.ActuationCost += charge
			cost += charge
		}

		r, g, b := fl.DensityAtWorld(p.Pos.X, p.Pos.Y)

		if p.Type == genome.NodePhotosynthetic {
			light := res.LightAtWorld(p.Pos.X, p.Pos.Y)
			sen := p.SenescenceScale(cfg.Nodes.MaxAgeTicks, cfg.Nodes.SenescenceStart, cfg.Nodes.SenescenceFloor)
			affinity := 1 + genes.DyeAffinity.G*g
			credit := cfg.Energy.PhotosynthesisEfficiency * light * p.Radius * affinity * sen
			if credit > 0 {
				sb.Ledger.PhotoGain += credit
				gain += credit
			}
		}

		// Saturated dye is caustic; the drain scales with the
		// creature's heritable dye-response gain.
		if intensity := r + g + b; intensity > cfg.Energy.OverexposureThreshold {
			over := cfg.Energy.OverexposureRate * genes.DyeGain * (intensity - cfg.Energy.OverexposureThreshold)
			if over > 0 {
				sb.Ledger.OverexposureCost += over
				cost += over
			}
		}

		if r > 0 && cfg.Energy.PoisonRedRate > 0 {
			poison := cfg.Energy.PoisonRedRate * r
			sb.Ledger.PoisonCost += poison
			cost += poison
		}
	}

	sb.GainEnergy(gain)
	sb.SapEnergy(cost)
}
