package systems

// EnergySystem runs the per-creature energy economy and the resource
// field regrowth.
type EnergySystem struct {
	s *Shared
}

func NewEnergySystem(s *Shared) *EnergySystem {
	return &EnergySystem{s: s}
}

func (es *EnergySystem) Update() {
	s := es.s
	s.Res.Step()

	query := s.Filter.Query()
	for query.Next() {
		_, cr, _ := query.Get()
		if cr.Body == nil {
			continue
		}
		cr.Body.EnergyTick(s.Fluid, s.Res)
	}
}
