package ppi

import "sort"

// UnionFind is a disjoint-set over protein indices with path compression
// and union by rank.
type UnionFind struct {
	parent []int64
	rank   []int
}

// NewUnionFind creates n singleton sets, one per index in [0, n).
func NewUnionFind(n int) *UnionFind {
	uf := &UnionFind{
		parent: make([]int64, n),
		rank:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = int64(i)
	}
	return uf
}

// Find returns the representative of the set containing x.
func (uf *UnionFind) Find(x int64) int64 {
	if uf.parent[x] != x {
		uf.parent[x] = uf.Find(uf.parent[x])
	}
	return uf.parent[x]
}

// Union merges the sets containing x and y.
func (uf *UnionFind) Union(x, y int64) {
	rx, ry := uf.Find(x), uf.Find(y)
	if rx == ry {
		return
	}
	switch {
	case uf.rank[rx] < uf.rank[ry]:
		uf.parent[rx] = ry
	case uf.rank[rx] > uf.rank[ry]:
		uf.parent[ry] = rx
	default:
		uf.parent[ry] = rx
		uf.rank[rx]++
	}
}

// Connected reports whether x and y are in the same set.
func (uf *UnionFind) Connected(x, y int64) bool {
	return uf.Find(x) == uf.Find(y)
}

// Components partitions the graph into connected components. Each
// component lists protein IDs in first-seen order; components are sorted
// by size descending, ties broken by the first-seen index of their first
// member.
func (pg *Graph) Components() [][]string {
	uf := NewUnionFind(len(pg.ids))
	for i, nbrs := range pg.adj {
		for _, j := range nbrs {
			uf.Union(int64(i), j)
		}
	}

	groups := make(map[int64][]int64)
	var roots []int64
	for i := range pg.ids {
		r := uf.Find(int64(i))
		if _, seen := groups[r]; !seen {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], int64(i))
	}

	sort.SliceStable(roots, func(a, b int) bool {
		return len(groups[roots[a]]) > len(groups[roots[b]])
	})

	out := make([][]string, 0, len(roots))
	for _, r := range roots {
		members := groups[r]
		ids := make([]string, len(members))
		for k, m := range members {
			ids[k] = pg.ids[m]
		}
		out = append(out, ids)
	}
	return out
}

// LargestComponent returns the members of the largest connected
// component, or nil for an empty graph.
func (pg *Graph) LargestComponent() []string {
	comps := pg.Components()
	if len(comps) == 0 {
		return nil
	}
	return comps[0]
}
