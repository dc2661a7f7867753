package feature

import "sort"

// LocalizationStore maps proteins to subcellular location labels and
// derives a prior per label from how often it is assigned.
type LocalizationStore struct {
	labels map[string]map[string]struct{}
	counts map[string]int
	total  int
}

// NewLocalizationStore creates an empty store.
func NewLocalizationStore() *LocalizationStore {
	return &LocalizationStore{
		labels: make(map[string]map[string]struct{}),
		counts: make(map[string]int),
	}
}

// Add assigns label to protein id. Repeated assignments of the same
// label to the same protein count once.
func (s *LocalizationStore) Add(id, label string) {
	set, ok := s.labels[id]
	if !ok {
		set = make(map[string]struct{})
		s.labels[id] = set
	}
	if _, dup := set[label]; dup {
		return
	}
	set[label] = struct{}{}
	s.counts[label]++
	s.total++
}

// Labels returns the labels of a protein, sorted.
func (s *LocalizationStore) Labels(id string) []string {
	if s == nil {
		return nil
	}
	set := s.labels[id]
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Overlap returns the sizes of the intersection and union of the label
// sets of u and v.
func (s *LocalizationStore) Overlap(u, v string) (inter, union int) {
	if s == nil {
		return 0, 0
	}
	lu, lv := s.labels[u], s.labels[v]
	for l := range lu {
		if _, ok := lv[l]; ok {
			inter++
		}
	}
	return inter, len(lu) + len(lv) - inter
}

// Prior returns the fraction of all protein-label assignments that carry
// label. Priors over all labels sum to 1.
func (s *LocalizationStore) Prior(label string) float64 {
	if s == nil || s.total == 0 {
		return 0
	}
	return float64(s.counts[label]) / float64(s.total)
}

// SScore is the sum of the priors of a protein's labels; 0 for a protein
// without labels.
func (s *LocalizationStore) SScore(id string) float64 {
	if s == nil {
		return 0
	}
	var score float64
	for l := range s.labels[id] {
		score += s.Prior(l)
	}
	return score
}

// Len returns the number of proteins with at least one label.
func (s *LocalizationStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.labels)
}

// LabelCount returns the number of distinct labels.
func (s *LocalizationStore) LabelCount() int {
	if s == nil {
		return 0
	}
	return len(s.counts)
}
