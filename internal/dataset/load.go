package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/papapumpkin/proteo/internal/edge"
	"github.com/papapumpkin/proteo/internal/evaluate"
	"github.com/papapumpkin/proteo/internal/feature"
	"github.com/papapumpkin/proteo/internal/ppi"
	"github.com/papapumpkin/proteo/internal/scoring"
)

// ErrNoColumns is returned when a table has fewer columns than its role
// needs.
var ErrNoColumns = errors.New("too few columns")

// Bundle holds every loaded table. Stores for tables the manifest does
// not name are nil.
type Bundle struct {
	Name         string
	Graph        *ppi.Graph
	Expression   *feature.ExpressionStore
	Localization *feature.LocalizationStore
	Orthology    *feature.OrthologyStore
	Ontology     *feature.OntologyStore
	Gold         evaluate.GoldStandard
}

// Inputs returns the scoring inputs drawn from the bundle.
func (b *Bundle) Inputs() scoring.Inputs {
	return scoring.Inputs{
		Graph: b.Graph,
		Sources: edge.Sources{
			Expression:   b.Expression,
			Localization: b.Localization,
			Ontology:     b.Ontology,
		},
		Orthology: b.Orthology,
	}
}

// Load reads every table named by m. The ppi table is required: a
// manifest without one fails with an error wrapping scoring.ErrEmptyGraph.
// A failure reading any named table is an error.
func Load(m *Manifest, logger zerolog.Logger) (*Bundle, error) {
	if err := m.Validate(); err != nil {
		if errors.Is(err, ErrNoPPI) {
			return nil, fmt.Errorf("%w: %w", scoring.ErrEmptyGraph, err)
		}
		return nil, err
	}
	b := &Bundle{Name: m.Name()}
	for _, role := range m.Roles() {
		if err := b.loadRole(m, role, logger); err != nil {
			return nil, fmt.Errorf("loading %s table %s: %w", role.Name, role.Path, err)
		}
	}
	if b.Ontology == nil && m.Dataset.Ontology == m.Dataset.PPI {
		// The interaction table doubles as the ontology table when it
		// carries GO similarity columns.
		ont, err := withFile(m.Dataset.PPI, ReadOntology)
		if err == nil && ont.Len() > 0 {
			b.Ontology = ont
		}
	}
	logger.Info().
		Str("dataset", b.Name).
		Int("proteins", b.Graph.Len()).
		Int("interactions", b.Graph.EdgeCount()).
		Int("expression", b.Expression.Len()).
		Int("localization", b.Localization.Len()).
		Int("orthology", b.Orthology.Len()).
		Int("ontology_pairs", b.Ontology.Len()).
		Int("gold_standard", b.Gold.Len()).
		Msg("dataset loaded")
	return b, nil
}

// CheckRole reads the single table role names and reports whether it
// parses. Nothing is kept.
func CheckRole(m *Manifest, role Role) error {
	var b Bundle
	return b.loadRole(m, role, zerolog.Nop())
}

func (b *Bundle) loadRole(m *Manifest, role Role, logger zerolog.Logger) error {
	var err error
	switch role.Name {
	case "ppi":
		var skipped int
		b.Graph, err = withFile(role.Path, func(r io.Reader) (*ppi.Graph, error) {
			g, n, err := ReadGraph(r)
			skipped = n
			return g, err
		})
		if skipped > 0 {
			logger.Warn().Int("rows", skipped).Msg("self interactions skipped")
		}
	case "expression":
		b.Expression, err = withFile(role.Path, ReadExpression)
	case "localization":
		b.Localization, err = withFile(role.Path, func(r io.Reader) (*feature.LocalizationStore, error) {
			return ReadLocalization(r, m.Columns.LocalizationLabel)
		})
	case "orthology":
		b.Orthology, err = withFile(role.Path, func(r io.Reader) (*feature.OrthologyStore, error) {
			return ReadOrthology(r, m.Columns.OrthologyScore)
		})
	case "ontology":
		b.Ontology, err = withFile(role.Path, ReadOntology)
	case "gold_standard":
		b.Gold, err = evaluate.LoadGoldStandard(role.Path)
	}
	return err
}

func withFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	return read(f)
}

// readTable reads a headed CSV table. Rows may be ragged.
func readTable(r io.Reader) (header []string, rows [][]string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err = cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	rows, err = cr.ReadAll()
	return header, rows, err
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// columnIndex finds name case-insensitively, or returns fallback.
func columnIndex(header []string, name string, fallback int) int {
	for i, h := range header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return fallback
}

// ReadGraph builds the interaction graph from a table whose first two
// columns (or columns named "Protein A" and "Protein B") are the
// interacting proteins. Rows with a missing endpoint are ignored; self
// interactions are skipped and counted.
func ReadGraph(r io.Reader) (*ppi.Graph, int, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return nil, 0, err
	}
	if len(header) < 2 {
		return nil, 0, fmt.Errorf("%w: need 2 protein columns, have %d", ErrNoColumns, len(header))
	}
	a := columnIndex(header, "protein a", 0)
	b := columnIndex(header, "protein b", 1)

	g := ppi.New()
	skipped := 0
	for _, row := range rows {
		u, v := cell(row, a), cell(row, b)
		if u == "" || v == "" {
			continue
		}
		if err := g.AddInteraction(u, v); err != nil {
			if errors.Is(err, ppi.ErrSelfInteraction) {
				g.AddProtein(u)
				skipped++
				continue
			}
			return nil, skipped, err
		}
	}
	return g, skipped, nil
}

// ReadExpression reads an expression table keyed by its first column.
// Trailing mean/std summary columns are excluded from the measurements;
// unparseable cells become NaN.
func ReadExpression(r io.Reader) (*feature.ExpressionStore, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: need an id column and measurements, have %d", ErrNoColumns, len(header))
	}

	var cols []int
	var names []string
	for i, h := range header[1:] {
		if feature.IsSummaryColumn(h) {
			continue
		}
		cols = append(cols, i+1)
		names = append(names, h)
	}

	store := feature.NewExpressionStore(names)
	for _, row := range rows {
		id := cell(row, 0)
		if id == "" {
			continue
		}
		values := make([]float64, len(cols))
		for k, c := range cols {
			values[k] = parseFloat(cell(row, c))
		}
		store.Add(id, values)
	}
	return store, nil
}

// ReadLocalization reads protein (column 0) to location label (column
// labelCol) assignments. Rows missing either value are skipped.
func ReadLocalization(r io.Reader, labelCol int) (*feature.LocalizationStore, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if len(header) <= labelCol {
		return nil, fmt.Errorf("%w: label column %d, have %d", ErrNoColumns, labelCol, len(header))
	}
	store := feature.NewLocalizationStore()
	for _, row := range rows {
		id, label := cell(row, 0), cell(row, labelCol)
		if id == "" || label == "" {
			continue
		}
		store.Add(id, label)
	}
	return store, nil
}

// ReadOrthology reads the orthology prior keyed by the first column. The
// score comes from the column named scoreCol, or the third column when no
// column has that name. Unparseable scores are 0.
func ReadOrthology(r io.Reader, scoreCol string) (*feature.OrthologyStore, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	col := columnIndex(header, scoreCol, 2)
	if col >= len(header) {
		return nil, fmt.Errorf("%w: no %q column and fewer than 3 columns", ErrNoColumns, scoreCol)
	}
	store := feature.NewOrthologyStore()
	for _, row := range rows {
		id := cell(row, 0)
		if id == "" {
			continue
		}
		v := parseFloat(cell(row, col))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		store.Set(id, v)
	}
	return store, nil
}

var aspectColumns = map[feature.Aspect]string{
	feature.AspectBP: "go similarity under bp term",
	feature.AspectMF: "go similarity under mf term",
	feature.AspectCC: "go similarity under cc term",
}

// ReadOntology reads per-pair GO similarity. Protein columns are found by
// the names "Protein A"/"Protein B" or else are the first two; aspect
// columns are found by their "GO similarity under XX term" names or else
// are columns 2, 3 and 4. A table with neither yields an empty store.
func ReadOntology(r io.Reader) (*feature.OntologyStore, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	store := feature.NewOntologyStore()
	if len(header) < 2 {
		return store, nil
	}
	a := columnIndex(header, "protein a", 0)
	b := columnIndex(header, "protein b", 1)

	cols := make(map[feature.Aspect]int, len(feature.Aspects))
	for _, asp := range feature.Aspects {
		if i := columnIndex(header, aspectColumns[asp], -1); i >= 0 {
			cols[asp] = i
		}
	}
	if len(cols) == 0 {
		if len(header) < 5 {
			return store, nil
		}
		cols[feature.AspectBP], cols[feature.AspectMF], cols[feature.AspectCC] = 2, 3, 4
	}

	for _, row := range rows {
		u, v := cell(row, a), cell(row, b)
		if u == "" || v == "" {
			continue
		}
		for asp, c := range cols {
			val := parseFloat(cell(row, c))
			if math.IsNaN(val) || math.IsInf(val, 0) {
				continue
			}
			store.Set(u, v, asp, val)
		}
	}
	return store, nil
}
