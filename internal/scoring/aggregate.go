package scoring

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/papapumpkin/proteo/internal/edge"
	"github.com/papapumpkin/proteo/internal/ppi"
)

// Aggregate computes each protein's local significance: the sum of the
// method's composite weight over its incident edges. The result is
// indexed like g.Nodes(). Isolated proteins are 0 and never reach the
// engine. Each edge's composite is computed once and shared by both
// endpoints.
func Aggregate(ctx context.Context, g *ppi.Graph, e *edge.Engine, m Method, workers int) ([]float64, error) {
	if workers < 1 {
		workers = 1
	}
	if err := e.Precompute(ctx, m.CacheName(), m.Combine, workers); err != nil {
		return nil, err
	}

	nodes := g.Nodes()
	lsg := make([]float64, len(nodes))
	if len(nodes) == 0 {
		return lsg, nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, span := range partition(len(nodes), workers) {
		eg.Go(func() error {
			for i := span.lo; i < span.hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				u := nodes[i]
				var sum float64
				for _, v := range g.Neighbors(u) {
					sum += e.Weight(m.CacheName(), u, v, m.Combine)
				}
				lsg[i] = sum
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("aggregating %s: %w", m.Name, err)
	}
	return lsg, nil
}

type span struct{ lo, hi int }

// partition splits [0, n) into at most parts contiguous spans.
func partition(n, parts int) []span {
	if n == 0 {
		return nil
	}
	if parts > n {
		parts = n
	}
	size := (n + parts - 1) / parts
	out := make([]span, 0, parts)
	for lo := 0; lo < n; lo += size {
		out = append(out, span{lo: lo, hi: min(lo+size, n)})
	}
	return out
}
