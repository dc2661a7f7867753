// Package evaluate compares a protein ranking against a gold-standard
// set of known essential proteins.
package evaluate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// DefaultCutoffs are the top-N sizes reported when none are given.
var DefaultCutoffs = []int{100, 200, 300, 400, 500, 600}

// GoldStandard is a set of essential protein IDs.
type GoldStandard map[string]struct{}

// NewGoldStandard builds a set from ids.
func NewGoldStandard(ids ...string) GoldStandard {
	gs := make(GoldStandard, len(ids))
	for _, id := range ids {
		gs[id] = struct{}{}
	}
	return gs
}

// Contains reports whether id is essential.
func (gs GoldStandard) Contains(id string) bool {
	_, ok := gs[id]
	return ok
}

// Len returns the number of essential proteins.
func (gs GoldStandard) Len() int {
	return len(gs)
}

// LoadGoldStandard reads a gold-standard CSV file.
func LoadGoldStandard(path string) (GoldStandard, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading gold standard %s: %w", path, err)
	}
	defer f.Close()
	gs, err := ReadGoldStandard(f)
	if err != nil {
		return nil, fmt.Errorf("loading gold standard %s: %w", path, err)
	}
	return gs, nil
}

// ReadGoldStandard collects every non-empty, non-numeric cell below the
// header row, in any column.
func ReadGoldStandard(r io.Reader) (GoldStandard, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	gs := make(GoldStandard)
	header := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		for _, cell := range rec {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err == nil {
				continue
			}
			gs[cell] = struct{}{}
		}
	}
	return gs, nil
}

// TopN counts the essential proteins among the first n entries of
// ranking. n larger than the ranking covers the whole ranking.
func TopN(ranking []string, gs GoldStandard, n int) int {
	n = min(max(n, 0), len(ranking))
	hits := 0
	for _, id := range ranking[:n] {
		if gs.Contains(id) {
			hits++
		}
	}
	return hits
}

// Point is one cutoff of an evaluation curve.
type Point struct {
	N         int     `json:"n"`
	Hits      int     `json:"hits"`
	Precision float64 `json:"precision"`
}

// Curve evaluates ranking at every cutoff, sorted ascending. Precision is
// hits divided by the effective cutoff (the cutoff capped at the ranking
// length); it is 0 for an empty prefix.
func Curve(ranking []string, gs GoldStandard, cutoffs []int) []Point {
	cs := append([]int(nil), cutoffs...)
	sort.Ints(cs)
	out := make([]Point, 0, len(cs))
	for _, n := range cs {
		if n <= 0 {
			continue
		}
		hits := TopN(ranking, gs, n)
		eff := min(n, len(ranking))
		p := Point{N: n, Hits: hits}
		if eff > 0 {
			p.Precision = float64(hits) / float64(eff)
		}
		out = append(out, p)
	}
	return out
}

// ParseCutoffs parses a comma-separated list of positive integers.
func ParseCutoffs(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return append([]int(nil), DefaultCutoffs...), nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid cutoff %q: want a positive integer", part)
		}
		out = append(out, n)
	}
	return out, nil
}
