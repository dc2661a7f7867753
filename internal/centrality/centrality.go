// Package centrality provides the classical topology-only rankings used
// as baselines against the multi-signal methods: degree, betweenness,
// closeness, eigenvector, subgraph and information (current-flow
// betweenness) centrality.
package centrality

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/mat"

	"github.com/papapumpkin/proteo/internal/ppi"
	"github.com/papapumpkin/proteo/internal/scoring"
)

// ErrUnknownMetric is returned by Lookup for an unregistered name.
var ErrUnknownMetric = errors.New("unknown centrality metric")

// ErrEigen is returned when the adjacency spectrum cannot be computed.
var ErrEigen = errors.New("eigendecomposition failed")

// Metric is one classical centrality measure.
type Metric struct {
	Name        string
	Description string
	Compute     func(g *ppi.Graph) (map[string]float64, error)
}

var metrics = []Metric{
	{Name: "bc", Description: "betweenness centrality", Compute: Betweenness},
	{Name: "cc", Description: "closeness centrality", Compute: Closeness},
	{Name: "dc", Description: "degree centrality", Compute: Degree},
	{Name: "ec", Description: "eigenvector centrality", Compute: Eigenvector},
	{Name: "ic", Description: "information centrality (current-flow betweenness, largest component)", Compute: Information},
	{Name: "sc", Description: "subgraph centrality", Compute: Subgraph},
}

// Metrics lists every metric sorted by name.
func Metrics() []Metric {
	out := make([]Metric, len(metrics))
	copy(out, metrics)
	return out
}

// Names lists the metric names sorted.
func Names() []string {
	out := make([]string, len(metrics))
	for i, m := range metrics {
		out[i] = m.Name
	}
	return out
}

// Lookup returns the metric registered under name.
func Lookup(name string) (Metric, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	i := sort.Search(len(metrics), func(i int) bool { return metrics[i].Name >= key })
	if i < len(metrics) && metrics[i].Name == key {
		return metrics[i], nil
	}
	return Metric{}, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// Compute runs the named metric over g.
func Compute(name string, g *ppi.Graph) (map[string]float64, error) {
	m, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if g == nil || g.Len() == 0 {
		return nil, scoring.ErrEmptyGraph
	}
	return m.Compute(g)
}

// Score runs m over g and ranks the result the way the pipeline methods
// are ranked, so both kinds of method can be reported and evaluated
// alike.
func Score(m Metric, g *ppi.Graph, opts scoring.RankOptions) (*scoring.Result, error) {
	if g == nil || g.Len() == 0 {
		return nil, scoring.ErrEmptyGraph
	}
	start := time.Now()
	values, err := m.Compute(g)
	if err != nil {
		return nil, fmt.Errorf("computing %s: %w", m.Name, err)
	}
	nodes := g.Nodes()
	scores := make([]float64, len(nodes))
	for i, id := range nodes {
		scores[i] = values[id]
	}
	res := &scoring.Result{
		Method:    m.Name,
		Mode:      scoring.ModeSum,
		Converged: true,
	}
	res.Sanitized = scoring.Sanitize(scores)
	res.Ranking = scoring.Rank(nodes, scores, opts)
	res.Elapsed = time.Since(start)
	return res, nil
}

// Degree is deg(v)/(n-1). A single-protein graph scores 1.
func Degree(g *ppi.Graph) (map[string]float64, error) {
	n := g.Len()
	out := make(map[string]float64, n)
	for _, id := range g.Nodes() {
		if n <= 1 {
			out[id] = 1
			continue
		}
		out[id] = float64(g.Degree(id)) / float64(n-1)
	}
	return out, nil
}

// Betweenness is shortest-path betweenness normalised by (n-1)(n-2).
// gonum counts ordered pairs, so this matches the usual normalisation
// over unordered pairs.
func Betweenness(g *ppi.Graph) (map[string]float64, error) {
	n := g.Len()
	raw := network.Betweenness(g.Gonum())
	scale := 0.0
	if n > 2 {
		scale = 1 / float64((n-1)*(n-2))
	}
	out := make(map[string]float64, n)
	for _, id := range g.Nodes() {
		idx, _ := g.Index(id)
		out[id] = raw[idx] * scale
	}
	return out, nil
}

// Closeness is (r-1)/Σd scaled by (r-1)/(n-1), where r counts the
// proteins reachable from v including itself. Isolated proteins score 0.
func Closeness(g *ppi.Graph) (map[string]float64, error) {
	n := g.Len()
	all := path.DijkstraAllPaths(g.Gonum())
	nodes := g.Nodes()
	out := make(map[string]float64, n)
	for i, id := range nodes {
		var total float64
		reach := 0
		for j := range nodes {
			if i == j {
				continue
			}
			d := all.Weight(int64(i), int64(j))
			if math.IsInf(d, 1) {
				continue
			}
			total += d
			reach++
		}
		if total == 0 || n <= 1 {
			out[id] = 0
			continue
		}
		r := float64(reach)
		out[id] = r / total * r / float64(n-1)
	}
	return out, nil
}

// Eigenvector is the leading eigenvector of the adjacency matrix with
// unit Euclidean norm and non-negative entries.
func Eigenvector(g *ppi.Graph) (map[string]float64, error) {
	vals, vecs, err := spectrum(g)
	if err != nil {
		return nil, err
	}
	n := g.Len()
	out := make(map[string]float64, n)
	lead := n - 1
	if vals[lead] <= 0 {
		for _, id := range g.Nodes() {
			out[id] = 0
		}
		return out, nil
	}

	col := make([]float64, n)
	var sum, norm float64
	for i := range n {
		col[i] = vecs.At(i, lead)
		sum += col[i]
		norm += col[i] * col[i]
	}
	sign := 1.0
	if sum < 0 {
		sign = -1
	}
	norm = math.Sqrt(norm)
	for i, id := range g.Nodes() {
		out[id] = math.Abs(sign*col[i]) / norm
	}
	return out, nil
}

// Subgraph is Σ_j v_j(i)^2 exp(λ_j), the weighted count of closed walks
// starting and ending at each protein.
func Subgraph(g *ppi.Graph) (map[string]float64, error) {
	vals, vecs, err := spectrum(g)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, g.Len())
	for i, id := range g.Nodes() {
		var s float64
		for j, lambda := range vals {
			v := vecs.At(i, j)
			s += v * v * math.Exp(lambda)
		}
		out[id] = s
	}
	return out, nil
}

// spectrum returns the ascending eigenvalues of the adjacency matrix and
// the matching eigenvectors as columns.
func spectrum(g *ppi.Graph) ([]float64, *mat.Dense, error) {
	n := g.Len()
	adj := mat.NewSymDense(n, nil)
	for _, e := range g.Edges() {
		i, _ := g.Index(e[0])
		j, _ := g.Index(e[1])
		adj.SetSym(int(i), int(j), 1)
	}
	var es mat.EigenSym
	if ok := es.Factorize(adj, true); !ok {
		return nil, nil, ErrEigen
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	return vals, &vecs, nil
}

// Information is current-flow betweenness computed on the largest
// connected component: the average current a unit flow between every
// other pair of proteins pushes through each protein, normalised by
// (n-1)(n-2)/2. Proteins outside the component score 0.
func Information(g *ppi.Graph) (map[string]float64, error) {
	out := make(map[string]float64, g.Len())
	for _, id := range g.Nodes() {
		out[id] = 0
	}
	comp := g.LargestComponent()
	n := len(comp)
	if n < 3 {
		return out, nil
	}

	local := make(map[string]int, n)
	for i, id := range comp {
		local[id] = i
	}
	nbrs := make([][]int, n)
	lj := mat.NewDense(n, n, nil)
	for i, id := range comp {
		for _, w := range g.Neighbors(id) {
			nbrs[i] = append(nbrs[i], local[w])
		}
		for j := range n {
			lj.Set(i, j, 1)
		}
		lj.Set(i, i, 1+float64(len(nbrs[i])))
		for _, j := range nbrs[i] {
			lj.Set(i, j, 0)
		}
	}

	// (L+J)^-1 yields the same potential differences as the Laplacian
	// pseudo-inverse on a connected graph.
	var c mat.Dense
	if err := c.Inverse(lj); err != nil {
		return nil, fmt.Errorf("inverting laplacian: %w", err)
	}

	flow := make([]float64, n)
	pot := make([]float64, n)
	for s := 0; s < n; s++ {
		for t := s + 1; t < n; t++ {
			for v := range n {
				pot[v] = c.At(v, s) - c.At(v, t)
			}
			for v := range n {
				if v == s || v == t {
					continue
				}
				var through float64
				for _, w := range nbrs[v] {
					through += math.Abs(pot[v] - pot[w])
				}
				flow[v] += through / 2
			}
		}
	}

	scale := 2 / float64((n-1)*(n-2))
	for i, id := range comp {
		out[id] = flow[i] * scale
	}
	return out, nil
}
