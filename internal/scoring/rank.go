package scoring

import (
	"math"
	"sort"
)

// Ranked is one protein and its final score.
type Ranked struct {
	Protein string  `json:"protein"`
	Score   float64 `json:"score"`
}

// RankOptions controls tie handling.
type RankOptions struct {
	// TieBreakByID orders equal scores by protein ID ascending. When false
	// equal scores keep their input order.
	TieBreakByID bool
}

// Sanitize replaces NaN and ±Inf with 0 in place and returns how many
// values it replaced.
func Sanitize(values []float64) int {
	var n int
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			values[i] = 0
			n++
		}
	}
	return n
}

// Rank pairs order[i] with values[i] and sorts by score descending. The
// sort is stable so ties keep input order unless TieBreakByID is set.
func Rank(order []string, values []float64, opts RankOptions) []Ranked {
	out := make([]Ranked, len(order))
	for i, id := range order {
		out[i] = Ranked{Protein: id}
		if i < len(values) {
			out[i].Score = values[i]
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if opts.TieBreakByID {
			return out[i].Protein < out[j].Protein
		}
		return false
	})
	return out
}

// Proteins returns the protein IDs of a ranking in order.
func Proteins(ranking []Ranked) []string {
	out := make([]string, len(ranking))
	for i, r := range ranking {
		out[i] = r.Protein
	}
	return out
}
