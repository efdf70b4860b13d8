package systems

// AgingSystem advances creature and point ages and retires exhausted
// points.
type AgingSystem struct {
	s *Shared
}

func NewAgingSystem(s *Shared) *AgingSystem {
	return &AgingSystem{s: s}
}

func (as *AgingSystem) Update() {
	s := as.s
	query := s.Filter.Query()
	for query.Next() {
		_, cr, _ := query.Get()
		if cr.Body == nil {
			continue
		}
		cr.Body.AgeTick(s.Tel)
	}
}
