package feature

import (
	"fmt"
	"strings"

	"github.com/papapumpkin/proteo/internal/ppi"
)

// Aspect names one of the three gene ontology branches.
type Aspect string

const (
	AspectBP Aspect = "BP" // biological process
	AspectMF Aspect = "MF" // molecular function
	AspectCC Aspect = "CC" // cellular component
)

// Aspects lists every supported aspect in canonical order.
var Aspects = []Aspect{AspectBP, AspectMF, AspectCC}

// ParseAspect accepts BP, MF or CC in any case.
func ParseAspect(s string) (Aspect, error) {
	a := Aspect(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Aspects {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown ontology aspect %q (want BP, MF or CC)", s)
}

// OntologyStore is a symmetric lookup of precomputed GO similarity per
// protein pair and aspect.
type OntologyStore struct {
	sims map[ppi.PairKey]map[Aspect]float64
}

// NewOntologyStore creates an empty store.
func NewOntologyStore() *OntologyStore {
	return &OntologyStore{sims: make(map[ppi.PairKey]map[Aspect]float64)}
}

// Set records the similarity of u and v under aspect. The pair is
// unordered.
func (s *OntologyStore) Set(u, v string, aspect Aspect, value float64) {
	key := ppi.NewPairKey(u, v)
	m, ok := s.sims[key]
	if !ok {
		m = make(map[Aspect]float64, len(Aspects))
		s.sims[key] = m
	}
	m[aspect] = value
}

// Similarity returns the similarity of u and v under aspect, or 0 if the
// pair or aspect is unknown.
func (s *OntologyStore) Similarity(u, v string, aspect Aspect) float64 {
	if s == nil {
		return 0
	}
	return s.sims[ppi.NewPairKey(u, v)][aspect]
}

// Len returns the number of pairs with at least one similarity.
func (s *OntologyStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.sims)
}
