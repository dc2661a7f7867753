package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/proteo/internal/dataset"
	"github.com/papapumpkin/proteo/internal/evaluate"
	"github.com/papapumpkin/proteo/internal/scoring"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare methods against the gold standard",
	Long: `Ranks the dataset with several methods and reports how many
gold-standard essential proteins each places in its top N.

Without --methods every scoring method and centrality metric is run.
Methods whose inputs are missing from the dataset are skipped with a
warning.`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().String("methods", "", "comma-separated methods to compare (default: all)")
	compareCmd.Flags().String("cutoffs", "", "comma-separated top-N cutoffs (default 100,200,...,600)")
	rootCmd.AddCommand(compareCmd)
}

// comparison is one method's row of the table.
type comparison struct {
	method string
	points []evaluate.Point
}

func runCompare(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cutoffFlag, _ := cmd.Flags().GetString("cutoffs")
	cutoffs, err := evaluate.ParseCutoffs(cutoffFlag)
	if err != nil {
		return err
	}
	slices.Sort(cutoffs)
	methodFlag, _ := cmd.Flags().GetString("methods")
	names := splitList(methodFlag)
	if len(names) == 0 {
		names = allMethodNames()
	}

	m, err := dataset.LoadManifest(s.cfg.Manifest)
	if err != nil {
		return err
	}
	b, err := dataset.Load(m, s.logger)
	if err != nil {
		return err
	}
	if b.Gold.Len() == 0 {
		return fmt.Errorf("dataset %s has no gold_standard table to compare against", b.Name)
	}

	var rows []comparison
	for _, name := range names {
		res, err := score(ctx, s, b, name)
		if err != nil {
			if errors.Is(err, scoring.ErrPrecondition) {
				s.logger.Warn().Err(err).Str("method", name).Msg("skipping method")
				continue
			}
			return fmt.Errorf("%s: %w", name, err)
		}
		rows = append(rows, comparison{
			method: res.Method,
			points: evaluate.Curve(scoring.Proteins(res.Ranking), b.Gold, cutoffs),
		})
	}
	return writeComparison(cmd.OutOrStdout(), rows, cutoffs)
}

// writeComparison prints one column per cutoff and one row per method.
// cutoffs must be sorted ascending to line up with each row's points.
func writeComparison(w io.Writer, rows []comparison, cutoffs []int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "METHOD")
	for _, n := range cutoffs {
		fmt.Fprintf(tw, "\tTOP %d", n)
	}
	fmt.Fprintln(tw)
	for _, r := range rows {
		fmt.Fprint(tw, r.method)
		for _, p := range r.points {
			fmt.Fprintf(tw, "\t%d", p.Hits)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
