// Package report renders scoring results for people and for files.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/papapumpkin/proteo/internal/evaluate"
	"github.com/papapumpkin/proteo/internal/scoring"
)

// WriteCSV writes ranking as a Protein,Score table.
func WriteCSV(w io.Writer, ranking []scoring.Ranked) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Protein", "Score"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range ranking {
		row := []string{r.Protein, strconv.FormatFloat(r.Score, 'g', -1, 64)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %s: %w", r.Protein, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Strategy renders one view of a scoring result.
type Strategy interface {
	Render(res *scoring.Result) string
}

// RankingStrategy lists the highest-scoring proteins.
type RankingStrategy struct {
	Top int // 0 or less lists every protein
}

// Render produces a numbered list of the top proteins.
func (s RankingStrategy) Render(res *scoring.Result) string {
	if res == nil || len(res.Ranking) == 0 {
		return "No proteins ranked."
	}
	n := len(res.Ranking)
	if s.Top > 0 && s.Top < n {
		n = s.Top
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Ranking (%s)\n\n", res.Method)
	width := len(strconv.Itoa(n))
	for i, r := range res.Ranking[:n] {
		fmt.Fprintf(&b, "%*d. %s  %.6g\n", width, i+1, r.Protein, r.Score)
	}
	if n < len(res.Ranking) {
		fmt.Fprintf(&b, "\n... %d more\n", len(res.Ranking)-n)
	}
	return b.String()
}

// SummaryStrategy reports run statistics without the ranking itself.
type SummaryStrategy struct{}

// Render produces a short key/value summary.
func (SummaryStrategy) Render(res *scoring.Result) string {
	if res == nil {
		return "No result."
	}
	var b strings.Builder
	b.WriteString("# Summary\n\n")
	fmt.Fprintf(&b, "method:     %s (%s)\n", res.Method, res.Mode)
	fmt.Fprintf(&b, "proteins:   %d\n", len(res.Ranking))
	fmt.Fprintf(&b, "total LSG:  %.6g\n", res.TotalLSG)
	if res.Mode == scoring.ModePropagate {
		status := "converged"
		if !res.Converged {
			status = "not converged"
		}
		fmt.Fprintf(&b, "iterations: %d (%s)\n", res.Iterations, status)
		if res.Degenerate {
			b.WriteString("warning:    total LSG is zero, normaliser treated as 1\n")
		}
	}
	if res.Sanitized > 0 {
		fmt.Fprintf(&b, "sanitized:  %d non-finite scores set to 0\n", res.Sanitized)
	}
	fmt.Fprintf(&b, "cache:      %d entries, %d hits, %d misses\n",
		res.Cache.Entries, res.Cache.Hits, res.Cache.Misses)
	if res.RunID != "" {
		fmt.Fprintf(&b, "run:        %s\n", res.RunID)
	}
	return b.String()
}

// EvaluationStrategy reports how many gold-standard proteins appear in
// the top N at each cutoff.
type EvaluationStrategy struct {
	Gold    evaluate.GoldStandard
	Cutoffs []int
}

// Render produces one line per cutoff.
func (s EvaluationStrategy) Render(res *scoring.Result) string {
	if res == nil || len(res.Ranking) == 0 {
		return "No proteins ranked."
	}
	if s.Gold.Len() == 0 {
		return "No gold standard loaded."
	}
	cutoffs := s.Cutoffs
	if len(cutoffs) == 0 {
		cutoffs = evaluate.DefaultCutoffs
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Gold standard (%s, %d essential)\n\n", res.Method, s.Gold.Len())
	for _, p := range evaluate.Curve(scoring.Proteins(res.Ranking), s.Gold, cutoffs) {
		fmt.Fprintf(&b, "top %-5d %5d hits  precision=%.3f\n", p.N, p.Hits, p.Precision)
	}
	return b.String()
}
