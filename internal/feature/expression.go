// Package feature holds the per-protein biological data that the edge
// weights are derived from: expression profiles, subcellular
// localization, orthology priors and precomputed ontology similarity.
//
// Every store answers lookups for unknown proteins with a neutral value
// instead of an error, so a protein without auxiliary data simply
// contributes nothing to the weights that need it.
package feature

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// IsSummaryColumn reports whether an expression table column holds a
// per-row summary (mean or std) rather than a measurement.
func IsSummaryColumn(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mean", "std":
		return true
	}
	return false
}

// Profile is one protein's expression measurements. Missing or
// non-numeric measurements are NaN.
type Profile struct {
	Values []float64
	Mean   float64
	Std    float64 // sample standard deviation; 0 when fewer than 2 values
	Valid  int     // number of finite measurements

	active      []bool
	activeCount int
}

// NewProfile builds a profile and derives its statistics and active
// time points.
func NewProfile(values []float64) *Profile {
	p := &Profile{Values: values}

	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	p.Valid = len(finite)

	switch {
	case p.Valid == 0:
		return p
	case p.Valid == 1:
		p.Mean = finite[0]
	default:
		p.Mean, p.Std = stat.MeanStdDev(finite, nil)
	}

	threshold := p.ActivityThreshold()
	p.active = make([]bool, len(values))
	for i, v := range values {
		if v > threshold {
			p.active[i] = true
			p.activeCount++
		}
	}
	return p
}

// Volatility is 1/(1+std^2).
func (p *Profile) Volatility() float64 {
	return 1 / (1 + p.Std*p.Std)
}

// ActivityThreshold is mean + 2*std*volatility. A time point whose value
// is strictly above it is active.
func (p *Profile) ActivityThreshold() float64 {
	return p.Mean + 2*p.Std*p.Volatility()
}

// Active reports whether time point i is active.
func (p *Profile) Active(i int) bool {
	return i >= 0 && i < len(p.active) && p.active[i]
}

// ActivePoints returns the indices of all active time points.
func (p *Profile) ActivePoints() []int {
	out := make([]int, 0, p.activeCount)
	for i, a := range p.active {
		if a {
			out = append(out, i)
		}
	}
	return out
}

// ActiveCount returns the number of active time points.
func (p *Profile) ActiveCount() int {
	return p.activeCount
}

// ExpressionStore maps protein IDs to expression profiles measured over
// a shared set of columns.
type ExpressionStore struct {
	columns  []string
	profiles map[string]*Profile
}

// NewExpressionStore creates a store whose profiles are measured over the
// given columns. Summary columns must already be excluded.
func NewExpressionStore(columns []string) *ExpressionStore {
	return &ExpressionStore{
		columns:  columns,
		profiles: make(map[string]*Profile),
	}
}

// Add stores the measurements for a protein. Values beyond the column
// count are dropped and missing trailing values are treated as NaN. A
// later Add for the same protein replaces the earlier one.
func (s *ExpressionStore) Add(id string, values []float64) {
	row := make([]float64, len(s.columns))
	for i := range row {
		if i < len(values) {
			row[i] = values[i]
		} else {
			row[i] = math.NaN()
		}
	}
	s.profiles[id] = NewProfile(row)
}

// Profile returns the profile for a protein.
func (s *ExpressionStore) Profile(id string) (*Profile, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.profiles[id]
	return p, ok
}

// Columns returns the measurement column names.
func (s *ExpressionStore) Columns() []string {
	return s.columns
}

// Len returns the number of proteins with a profile.
func (s *ExpressionStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.profiles)
}
