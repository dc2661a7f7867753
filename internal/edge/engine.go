// Package edge computes the per-interaction weights that the scoring
// methods combine: topological overlap (ECC, ADN), expression
// correlation (PCC, CEN), co-localization (CLN), ontology similarity (GO)
// and the Jaccard index of active expression time points.
//
// Every weight is symmetric, cached once per unordered pair, and resolves
// to 0 when its inputs are missing or degenerate.
package edge

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/papapumpkin/proteo/internal/feature"
	"github.com/papapumpkin/proteo/internal/ppi"
)

// ECCPolicy selects the exponent applied to the common-neighbour count.
type ECCPolicy int

const (
	// ECCLinear is t / min(d(u)-1, d(v)-1).
	ECCLinear ECCPolicy = iota
	// ECCCubic is t^3 / min(d(u)-1, d(v)-1).
	ECCCubic
)

// String returns the cache name of the policy.
func (p ECCPolicy) String() string {
	if p == ECCCubic {
		return "ecc3"
	}
	return "ecc"
}

// CorrelationMode selects whether PCC-derived weights keep their sign.
type CorrelationMode int

const (
	Signed   CorrelationMode = iota // correlation as computed
	Absolute                        // |correlation|
)

func (m CorrelationMode) apply(r float64) float64 {
	if m == Absolute {
		return math.Abs(r)
	}
	return r
}

// Sources bundles the feature stores an Engine reads. Any store may be
// nil; weights that need it are then 0.
type Sources struct {
	Expression   *feature.ExpressionStore
	Localization *feature.LocalizationStore
	Ontology     *feature.OntologyStore
}

// Composite derives one per-edge value from the engine's base weights.
type Composite func(e *Engine, u, v string) float64

// Engine computes and caches edge weights over a fixed graph and fixed
// stores. It is safe for concurrent use.
type Engine struct {
	graph *ppi.Graph
	src   Sources
	cache *Cache
}

// NewEngine creates an engine with an empty cache.
func NewEngine(g *ppi.Graph, src Sources) *Engine {
	return &Engine{graph: g, src: src, cache: NewCache()}
}

// Graph returns the graph the engine was built over.
func (e *Engine) Graph() *ppi.Graph {
	return e.graph
}

// Stats returns cache statistics.
func (e *Engine) Stats() Stats {
	return e.cache.Stats()
}

// ECC is the edge clustering coefficient of u and v under policy.
func (e *Engine) ECC(u, v string, policy ECCPolicy) float64 {
	if !e.graph.HasEdge(u, v) {
		return 0
	}
	return e.cache.GetOrCompute(policy.String(), u, v, func() float64 {
		m := min(e.graph.Degree(u), e.graph.Degree(v)) - 1
		if m <= 0 {
			return 0
		}
		t := float64(len(e.graph.CommonNeighbors(u, v)))
		if policy == ECCCubic {
			t = t * t * t
		}
		return t / float64(m)
	})
}

// ADN is (|common neighbours| + 1) / min(d(u), d(v)).
func (e *Engine) ADN(u, v string) float64 {
	if !e.graph.HasEdge(u, v) {
		return 0
	}
	return e.cache.GetOrCompute("adn", u, v, func() float64 {
		m := min(e.graph.Degree(u), e.graph.Degree(v))
		if m == 0 {
			return 0
		}
		return float64(len(e.graph.CommonNeighbors(u, v))+1) / float64(m)
	})
}

// PCC is the Pearson correlation of the expression profiles of u and v
// over the time points where both are finite. It is 0 with fewer than
// two paired points, zero variance on either side, or a missing profile.
// Adjacency is not required.
func (e *Engine) PCC(u, v string, mode CorrelationMode) float64 {
	r := e.cache.GetOrCompute("pcc", u, v, func() float64 {
		return e.pearson(u, v)
	})
	return mode.apply(r)
}

func (e *Engine) pearson(u, v string) float64 {
	pu, ok := e.src.Expression.Profile(u)
	if !ok {
		return 0
	}
	pv, ok := e.src.Expression.Profile(v)
	if !ok {
		return 0
	}

	n := min(len(pu.Values), len(pv.Values))
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := range n {
		x, y := pu.Values[i], pv.Values[i]
		if finite(x) && finite(y) {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return 0
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if !finite(r) {
		return 0
	}
	return r
}

// CEN is PCC(u,v) + Σ_w PCC(u,w)*PCC(v,w) over the common neighbours w,
// with mode applied to every correlation term.
func (e *Engine) CEN(u, v string, mode CorrelationMode) float64 {
	if !e.graph.HasEdge(u, v) {
		return 0
	}
	name := "cen"
	if mode == Absolute {
		name = "cen_abs"
	}
	return e.cache.GetOrCompute(name, u, v, func() float64 {
		score := e.PCC(u, v, mode)
		for _, w := range e.graph.CommonNeighbors(u, v) {
			score += e.PCC(u, w, mode) * e.PCC(v, w, mode)
		}
		return score
	})
}

// CLN is the Jaccard index of the location label sets of u and v scaled
// by the mean of their S-scores.
func (e *Engine) CLN(u, v string) float64 {
	loc := e.src.Localization
	if loc == nil {
		return 0
	}
	return e.cache.GetOrCompute("cln", u, v, func() float64 {
		inter, union := loc.Overlap(u, v)
		if union == 0 {
			return 0
		}
		return float64(inter) / float64(union) * (loc.SScore(u) + loc.SScore(v)) / 2
	})
}

// GO is the precomputed ontology similarity of u and v under aspect.
func (e *Engine) GO(u, v string, aspect feature.Aspect) float64 {
	return e.src.Ontology.Similarity(u, v, aspect)
}

// ActivityJaccard is the Jaccard index of the active time-point sets of
// u and v.
func (e *Engine) ActivityJaccard(u, v string) float64 {
	return e.cache.GetOrCompute("jaccard", u, v, func() float64 {
		pu, ok := e.src.Expression.Profile(u)
		if !ok {
			return 0
		}
		pv, ok := e.src.Expression.Profile(v)
		if !ok {
			return 0
		}
		var inter int
		n := min(len(pu.Values), len(pv.Values))
		for i := range n {
			if pu.Active(i) && pv.Active(i) {
				inter++
			}
		}
		union := pu.ActiveCount() + pv.ActiveCount() - inter
		if union == 0 {
			return 0
		}
		return float64(inter) / float64(union)
	})
}

// Weight returns the named composite for u, v, computing it with combine
// on first use. The same name must always be paired with the same
// combine function.
func (e *Engine) Weight(name string, u, v string, combine Composite) float64 {
	return e.cache.GetOrCompute("composite:"+name, u, v, func() float64 {
		return combine(e, u, v)
	})
}

// Precompute fills the named composite for every edge of the graph using
// up to workers goroutines. It stops early when ctx is cancelled.
func (e *Engine) Precompute(ctx context.Context, name string, combine Composite, workers int) error {
	edges := e.graph.Edges()
	if len(edges) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, chunk := range chunks(len(edges), workers) {
		g.Go(func() error {
			for _, ed := range edges[chunk[0]:chunk[1]] {
				if err := ctx.Err(); err != nil {
					return err
				}
				e.Weight(name, ed[0], ed[1], combine)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("precomputing %s: %w", name, err)
	}
	return nil
}

// chunks splits [0, n) into at most parts contiguous half-open ranges.
func chunks(n, parts int) [][2]int {
	if parts > n {
		parts = n
	}
	out := make([][2]int, 0, parts)
	size := (n + parts - 1) / parts
	for lo := 0; lo < n; lo += size {
		out = append(out, [2]int{lo, min(lo+size, n)})
	}
	return out
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
