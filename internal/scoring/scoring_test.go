package scoring

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapumpkin/proteo/internal/edge"
	"github.com/papapumpkin/proteo/internal/feature"
	"github.com/papapumpkin/proteo/internal/ppi"
	"github.com/papapumpkin/proteo/internal/telemetry"
)

const floatTol = 1e-12

// --- Test fixtures ---

func buildGraph(t *testing.T, edges ...[2]string) *ppi.Graph {
	t.Helper()
	g := ppi.New()
	for _, e := range edges {
		require.NoError(t, g.AddInteraction(e[0], e[1]))
	}
	return g
}

// buildPair creates A-B with both proteins in one compartment, so every
// tgso composite term is symmetric and nonzero.
func buildPair(t *testing.T) Inputs {
	t.Helper()
	loc := feature.NewLocalizationStore()
	loc.Add("A", "nucleus")
	loc.Add("B", "nucleus")
	orth := feature.NewOrthologyStore()
	orth.Set("A", 0.5)
	orth.Set("B", 0.5)
	return Inputs{
		Graph:     buildGraph(t, [2]string{"A", "B"}),
		Sources:   edge.Sources{Localization: loc},
		Orthology: orth,
	}
}

func countingMethod(calls *atomic.Int64) Method {
	return Method{
		Name: "counting",
		Mode: ModeSum,
		Combine: func(e *edge.Engine, u, v string) float64 {
			calls.Add(1)
			return 1
		},
	}
}

// --- Methods ---

func TestLookup(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"tgso", "TEO", " jdc ", "nc"} {
		m, err := Lookup(name, feature.AspectMF)
		require.NoError(t, err, name)
		assert.NotNil(t, m.Combine, name)
	}

	m, err := Lookup("teo", feature.AspectCC)
	require.NoError(t, err)
	assert.Equal(t, "teo:CC", m.Name)
	assert.Equal(t, ModeSum, m.Mode)

	m, err = Lookup("teo", "")
	require.NoError(t, err)
	assert.Equal(t, "teo:BP", m.Name)

	m, err = Lookup("tgso", "")
	require.NoError(t, err)
	assert.Equal(t, ModePropagate, m.Mode)

	_, err = Lookup("pagerank", "")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestMethods_SortedByName(t *testing.T) {
	t.Parallel()
	ms := Methods()
	require.Len(t, ms, 4)
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name
	}
	assert.Equal(t, []string{"jdc", "nc", "teo:BP", "tgso"}, names)
	assert.Equal(t, "propagate", ModePropagate.String())
	assert.Equal(t, "sum", ModeSum.String())
}

// --- Aggregation ---

func TestAggregate_IsolatedNodeIsZero(t *testing.T) {
	t.Parallel()
	g := buildGraph(t, [2]string{"A", "B"}, [2]string{"B", "C"})
	g.AddProtein("lonely")

	var calls atomic.Int64
	e := edge.NewEngine(g, edge.Sources{})
	lsg, err := Aggregate(context.Background(), g, e, countingMethod(&calls), 3)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2, 1, 0}, lsg)
	// One composite evaluation per edge, shared by both endpoints.
	assert.Equal(t, int64(2), calls.Load())
}

func TestAggregate_NeighbourhoodCentralityOnTriangle(t *testing.T) {
	t.Parallel()
	g := buildGraph(t, [2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"A", "C"})
	m, err := Lookup("nc", "")
	require.NoError(t, err)

	lsg, err := Aggregate(context.Background(), g, edge.NewEngine(g, edge.Sources{}), m, 1)
	require.NoError(t, err)
	for i, v := range lsg {
		assert.InDelta(t, 2.0, v, floatTol, "node %d", i)
	}
}

func TestAggregate_TEOUsesSignedCorrelation(t *testing.T) {
	t.Parallel()
	g := buildGraph(t, [2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"A", "C"})
	expr := feature.NewExpressionStore([]string{"t1", "t2", "t3"})
	expr.Add("A", []float64{1, 2, 3})
	expr.Add("B", []float64{1, 2, 3})
	expr.Add("C", []float64{3, 2, 1})
	ont := feature.NewOntologyStore()
	ont.Set("A", "B", feature.AspectBP, 0.5)

	m, err := Lookup("teo", feature.AspectBP)
	require.NoError(t, err)
	e := edge.NewEngine(g, edge.Sources{Expression: expr, Ontology: ont})
	lsg, err := Aggregate(context.Background(), g, e, m, 2)
	require.NoError(t, err)

	// ECC^3 is 1 on every triangle edge.
	// A: (0.5+1) + (0-1) = 0.5; B: (0.5+1) + (0-1) = 0.5; C: -1 + -1 = -2.
	assert.InDelta(t, 0.5, lsg[0], floatTol)
	assert.InDelta(t, 0.5, lsg[1], floatTol)
	assert.InDelta(t, -2.0, lsg[2], floatTol)
}

func TestPartition(t *testing.T) {
	t.Parallel()
	assert.Nil(t, partition(0, 4))
	assert.Equal(t, []span{{0, 3}, {3, 5}}, partition(5, 2))
	assert.Equal(t, []span{{0, 1}, {1, 2}}, partition(2, 10))
}

// --- Ranking ---

func TestSanitize(t *testing.T) {
	t.Parallel()
	v := []float64{1, math.NaN(), math.Inf(1), -2, math.Inf(-1)}
	assert.Equal(t, 3, Sanitize(v))
	assert.Equal(t, []float64{1, 0, 0, -2, 0}, v)
}

func TestRank_StableAndTieBreak(t *testing.T) {
	t.Parallel()
	order := []string{"C", "A", "B", "D"}
	values := []float64{1, 2, 1, 3}

	stable := Rank(order, values, RankOptions{})
	assert.Equal(t, []string{"D", "A", "C", "B"}, Proteins(stable))

	byID := Rank(order, values, RankOptions{TieBreakByID: true})
	assert.Equal(t, []string{"D", "A", "B", "C"}, Proteins(byID))
	assert.InDelta(t, 3.0, byID[0].Score, floatTol)
}

// --- Scorer ---

func TestScorer_TwoNodeGraphRanksEqual(t *testing.T) {
	t.Parallel()
	in := buildPair(t)

	for _, name := range []string{"tgso", "nc"} {
		m, err := Lookup(name, "")
		require.NoError(t, err)
		res, err := NewScorer(m, DefaultOptions(), zerolog.Nop(), nil).Run(context.Background(), in)
		require.NoError(t, err, name)
		require.Len(t, res.Ranking, 2)
		assert.InDelta(t, res.Ranking[0].Score, res.Ranking[1].Score, floatTol, name)
		assert.Equal(t, []string{"A", "B"}, Proteins(res.Ranking), name)
	}
}

func TestScorer_TGSOComposite(t *testing.T) {
	t.Parallel()
	in := buildPair(t)
	m, err := Lookup("tgso", "")
	require.NoError(t, err)
	res, err := NewScorer(m, DefaultOptions(), zerolog.Nop(), nil).Run(context.Background(), in)
	require.NoError(t, err)

	// ADN = 1, CLN = 1*(1+1)/2 = 1, CEN = 0 without expression.
	assert.InDelta(t, 1.0, res.LSG["A"], floatTol)
	assert.InDelta(t, 2.0, res.TotalLSG, floatTol)
	assert.True(t, res.Converged)
	assert.False(t, res.Degenerate)
	assert.Positive(t, res.Iterations)
	// Prior mass 1 is preserved: 0.7*0.5 + 0.3*0.5.
	assert.InDelta(t, 0.5, res.Ranking[0].Score, 1e-9)
}

func TestScorer_DisconnectedGraphKeepsPrior(t *testing.T) {
	t.Parallel()
	g := ppi.New()
	for _, id := range []string{"A", "B", "C"} {
		g.AddProtein(id)
	}
	orth := feature.NewOrthologyStore()
	orth.Set("A", 1)

	m, err := Lookup("tgso", "")
	require.NoError(t, err)
	res, err := NewScorer(m, DefaultOptions(), zerolog.Nop(), nil).Run(context.Background(), Inputs{Graph: g, Orthology: orth})
	require.NoError(t, err)

	assert.True(t, res.Degenerate)
	assert.Zero(t, res.Iterations)
	assert.Equal(t, []Ranked{{"A", 1}, {"B", 0}, {"C", 0}}, res.Ranking)
}

func TestScorer_Preconditions(t *testing.T) {
	t.Parallel()
	tgsoMethod, err := Lookup("tgso", "")
	require.NoError(t, err)
	ncMethod, err := Lookup("nc", "")
	require.NoError(t, err)

	_, err = NewScorer(ncMethod, DefaultOptions(), zerolog.Nop(), nil).Run(context.Background(), Inputs{})
	assert.ErrorIs(t, err, ErrEmptyGraph)
	assert.ErrorIs(t, err, ErrPrecondition)

	in := buildPair(t)
	in.Orthology = nil
	_, err = NewScorer(tgsoMethod, DefaultOptions(), zerolog.Nop(), nil).Run(context.Background(), in)
	assert.True(t, errors.Is(err, ErrNoOrthology))
	assert.ErrorIs(t, err, ErrPrecondition)

	// Sum methods do not need the prior.
	_, err = NewScorer(ncMethod, DefaultOptions(), zerolog.Nop(), nil).Run(context.Background(), in)
	assert.NoError(t, err)
}

func TestScorer_EmitsTelemetry(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "run.jsonl")
	em, err := telemetry.NewEmitter(path)
	require.NoError(t, err)

	m, err := Lookup("tgso", "")
	require.NoError(t, err)
	res, err := NewScorer(m, DefaultOptions(), zerolog.Nop(), em).Run(context.Background(), buildPair(t))
	require.NoError(t, err)
	require.NoError(t, em.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	events, err := telemetry.ReadEvents(f)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(events), 4)
	assert.Equal(t, telemetry.KindRunStart, events[0].Kind)
	assert.Equal(t, telemetry.KindAggregateDone, events[1].Kind)
	assert.Equal(t, telemetry.KindIteration, events[2].Kind)
	assert.Equal(t, telemetry.KindRunDone, events[len(events)-1].Kind)
	assert.Len(t, events, 3+res.Iterations)
	for _, evt := range events {
		assert.Equal(t, res.RunID, evt.RunID)
		assert.Equal(t, "tgso", evt.Method)
	}
}
