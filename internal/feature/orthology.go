package feature

// OrthologyStore holds the per-protein orthology prior used as the
// restart distribution of propagation.
type OrthologyStore struct {
	scores map[string]float64
}

// NewOrthologyStore creates an empty store.
func NewOrthologyStore() *OrthologyStore {
	return &OrthologyStore{scores: make(map[string]float64)}
}

// Set records the prior for a protein.
func (s *OrthologyStore) Set(id string, score float64) {
	s.scores[id] = score
}

// Prior returns the prior for a protein, or 0 if it has none.
func (s *OrthologyStore) Prior(id string) float64 {
	if s == nil {
		return 0
	}
	return s.scores[id]
}

// Len returns the number of proteins with a prior.
func (s *OrthologyStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.scores)
}
