// Package ppi provides the undirected protein-protein interaction graph
// that every scoring method runs over. Proteins are identified by string
// IDs; internally each protein is a gonum node whose ID is its first-seen
// index, so iteration order is stable across runs.
package ppi

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// ErrSelfInteraction is returned when an interaction names the same
// protein on both ends. The graph stays simple, so the row is skipped.
var ErrSelfInteraction = errors.New("self interaction")

// Graph is a simple undirected PPI network.
type Graph struct {
	g     *simple.UndirectedGraph
	ids   []string
	index map[string]int64
	// adj holds each node's neighbours as sorted gonum IDs.
	adj   [][]int64
	edges int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		g:     simple.NewUndirectedGraph(),
		index: make(map[string]int64),
	}
}

// AddProtein adds a protein with no interactions. Adding an existing
// protein is a no-op. It returns the protein's index.
func (pg *Graph) AddProtein(id string) int64 {
	if idx, ok := pg.index[id]; ok {
		return idx
	}
	idx := int64(len(pg.ids))
	pg.ids = append(pg.ids, id)
	pg.index[id] = idx
	pg.adj = append(pg.adj, nil)
	pg.g.AddNode(simple.Node(idx))
	return idx
}

// AddInteraction adds an undirected edge between u and v, creating
// either protein if needed. Duplicate edges are ignored.
func (pg *Graph) AddInteraction(u, v string) error {
	if u == v {
		return fmt.Errorf("%w: %s", ErrSelfInteraction, u)
	}
	ui := pg.AddProtein(u)
	vi := pg.AddProtein(v)
	if pg.g.HasEdgeBetween(ui, vi) {
		return nil
	}
	pg.g.SetEdge(simple.Edge{F: simple.Node(ui), T: simple.Node(vi)})
	pg.adj[ui] = insertSorted(pg.adj[ui], vi)
	pg.adj[vi] = insertSorted(pg.adj[vi], ui)
	pg.edges++
	return nil
}

// Has reports whether the protein is in the graph.
func (pg *Graph) Has(id string) bool {
	_, ok := pg.index[id]
	return ok
}

// Index returns the first-seen index of a protein.
func (pg *Graph) Index(id string) (int64, bool) {
	idx, ok := pg.index[id]
	return idx, ok
}

// Nodes returns all protein IDs in first-seen order. The returned slice
// is a copy.
func (pg *Graph) Nodes() []string {
	return slices.Clone(pg.ids)
}

// Len returns the number of proteins.
func (pg *Graph) Len() int {
	return len(pg.ids)
}

// EdgeCount returns the number of interactions.
func (pg *Graph) EdgeCount() int {
	return pg.edges
}

// Edges returns every interaction exactly once as {lower, higher} pairs
// ordered by the first-seen index of the lower endpoint, then of the
// higher one.
func (pg *Graph) Edges() [][2]string {
	out := make([][2]string, 0, pg.edges)
	for i, nbrs := range pg.adj {
		for _, j := range nbrs {
			if j > int64(i) {
				out = append(out, [2]string{pg.ids[i], pg.ids[j]})
			}
		}
	}
	return out
}

// Degree returns the number of interaction partners of id, or 0 if the
// protein is unknown.
func (pg *Graph) Degree(id string) int {
	idx, ok := pg.index[id]
	if !ok {
		return 0
	}
	return len(pg.adj[idx])
}

// Neighbors returns the interaction partners of id in first-seen order.
// Returns nil for unknown or isolated proteins.
func (pg *Graph) Neighbors(id string) []string {
	idx, ok := pg.index[id]
	if !ok || len(pg.adj[idx]) == 0 {
		return nil
	}
	out := make([]string, len(pg.adj[idx]))
	for i, j := range pg.adj[idx] {
		out[i] = pg.ids[j]
	}
	return out
}

// HasEdge reports whether u and v interact.
func (pg *Graph) HasEdge(u, v string) bool {
	ui, ok := pg.index[u]
	if !ok {
		return false
	}
	vi, ok := pg.index[v]
	if !ok {
		return false
	}
	return pg.g.HasEdgeBetween(ui, vi)
}

// CommonNeighbors returns the proteins adjacent to both u and v in
// first-seen order. u and v themselves are never included.
func (pg *Graph) CommonNeighbors(u, v string) []string {
	ui, ok := pg.index[u]
	if !ok {
		return nil
	}
	vi, ok := pg.index[v]
	if !ok {
		return nil
	}
	var out []string
	a, b := pg.adj[ui], pg.adj[vi]
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			if a[i] != ui && a[i] != vi {
				out = append(out, pg.ids[a[i]])
			}
			i++
			j++
		}
	}
	return out
}

// Gonum exposes the underlying gonum graph. Node IDs are the first-seen
// indices returned by Index.
func (pg *Graph) Gonum() graph.Undirected {
	return pg.g
}

func insertSorted(s []int64, v int64) []int64 {
	pos, found := slices.BinarySearch(s, v)
	if found {
		return s
	}
	return slices.Insert(s, pos, v)
}
