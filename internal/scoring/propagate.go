package scoring

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
)

// PropagationOptions configures the damped fixed-point iteration.
type PropagationOptions struct {
	Alpha         float64 // restart weight in [0, 1]
	MaxIterations int     // upper bound on iterations
	Tolerance     float64 // convergence threshold on the max absolute change
	Workers       int     // goroutines per iteration; < 1 means 1
}

// DefaultPropagationOptions returns alpha 0.3, 100 iterations and a
// tolerance of 1e-6 on a single worker.
func DefaultPropagationOptions() PropagationOptions {
	return PropagationOptions{
		Alpha:         0.3,
		MaxIterations: 100,
		Tolerance:     1e-6,
		Workers:       1,
	}
}

// Validate reports out-of-range options.
func (o PropagationOptions) Validate() error {
	switch {
	case math.IsNaN(o.Alpha) || o.Alpha < 0 || o.Alpha > 1:
		return fmt.Errorf("%w: alpha %v outside [0, 1]", ErrInvalidOptions, o.Alpha)
	case o.MaxIterations < 1:
		return fmt.Errorf("%w: max iterations %d < 1", ErrInvalidOptions, o.MaxIterations)
	case math.IsNaN(o.Tolerance) || o.Tolerance < 0:
		return fmt.Errorf("%w: negative tolerance %v", ErrInvalidOptions, o.Tolerance)
	}
	return nil
}

// Influence is the all-pairs influence function over an LSG vector:
// LSG(i)/total on the diagonal and min(LSG(i), LSG(j))/total elsewhere.
// It is evaluated on demand and never materialised.
type Influence struct {
	lsg        []float64
	total      float64
	degenerate bool
}

// NewInfluence builds the influence function for lsg. A zero total is
// replaced by 1 and flagged as degenerate.
func NewInfluence(lsg []float64) Influence {
	var total float64
	for _, v := range lsg {
		total += v
	}
	in := Influence{lsg: lsg, total: total}
	if total == 0 {
		in.total = 1
		in.degenerate = true
	}
	return in
}

// At returns the influence of protein j on protein i.
func (in Influence) At(i, j int) float64 {
	if i == j {
		return in.lsg[i] / in.total
	}
	return min(in.lsg[i], in.lsg[j]) / in.total
}

// Total returns the normaliser, which is 1 when degenerate.
func (in Influence) Total() float64 {
	return in.total
}

// Degenerate reports whether the LSG total was zero.
func (in Influence) Degenerate() bool {
	return in.degenerate
}

// zero reports whether every entry is exactly zero, in which case the
// influence term vanishes.
func (in Influence) zero() bool {
	for _, v := range in.lsg {
		if v != 0 {
			return false
		}
	}
	return true
}

// Propagation is the outcome of Propagate.
type Propagation struct {
	Scores     []float64
	Iterations int
	Converged  bool
	Degenerate bool
}

// IterationObserver is called after every completed iteration with its
// 1-based number and the max absolute change it produced.
type IterationObserver func(iteration int, maxDiff float64)

// Propagate iterates
//
//	P'(i) = (1-alpha) * Σ_j Influence(i,j) * P(j) + alpha * P0(i)
//
// starting from P = p0 until the max absolute change drops below the
// tolerance or MaxIterations is reached. Every P'(i) of one iteration is
// computed from the same P; workers write disjoint slots of P' and the
// vectors swap only after all of them finish.
//
// When every LSG entry is zero the influence term vanishes and p0 is
// returned unchanged with Degenerate set and no iterations run.
// Exhausting MaxIterations is not an error; the last vector is returned
// with Converged false.
func Propagate(ctx context.Context, lsg, p0 []float64, opts PropagationOptions, observe IterationObserver) (Propagation, error) {
	if err := opts.Validate(); err != nil {
		return Propagation{}, err
	}
	if len(lsg) != len(p0) {
		return Propagation{}, fmt.Errorf("%w: %d LSG values for %d priors", ErrInvalidOptions, len(lsg), len(p0))
	}

	in := NewInfluence(lsg)
	if in.Degenerate() && in.zero() {
		return Propagation{
			Scores:     slices.Clone(p0),
			Converged:  true,
			Degenerate: true,
		}, nil
	}

	n := len(p0)
	workers := max(opts.Workers, 1)
	spans := partition(n, workers)
	spanDiff := make([]float64, len(spans))

	cur := slices.Clone(p0)
	next := make([]float64, n)
	res := Propagation{Degenerate: in.Degenerate()}

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return Propagation{}, err
		}

		var wg sync.WaitGroup
		for s, sp := range spans {
			wg.Go(func() {
				var localMax float64
				for i := sp.lo; i < sp.hi; i++ {
					var sum float64
					for j := range n {
						sum += in.At(i, j) * cur[j]
					}
					next[i] = (1-opts.Alpha)*sum + opts.Alpha*p0[i]
					if d := math.Abs(next[i] - cur[i]); d > localMax {
						localMax = d
					}
				}
				spanDiff[s] = localMax
			})
		}
		wg.Wait()

		maxDiff := 0.0
		for _, d := range spanDiff {
			maxDiff = max(maxDiff, d)
		}

		cur, next = next, cur
		res.Iterations = iter
		if observe != nil {
			observe(iter, maxDiff)
		}
		if maxDiff < opts.Tolerance || maxDiff == 0 {
			res.Converged = true
			break
		}
	}

	res.Scores = cur
	return res, nil
}
