// Package scoring turns edge weights into a protein ranking. A Method
// picks the per-edge composite; Aggregate sums it onto each protein as
// its local significance (LSG); propagating methods then run the damped
// all-pairs iteration seeded by the orthology prior; Rank orders the
// result.
package scoring

import (
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/papapumpkin/proteo/internal/edge"
	"github.com/papapumpkin/proteo/internal/feature"
	"github.com/papapumpkin/proteo/internal/ppi"
	"github.com/papapumpkin/proteo/internal/telemetry"
)

// Options configures a Scorer.
type Options struct {
	Workers     int
	Propagation PropagationOptions
	Ranking     RankOptions
}

// DefaultOptions returns single-worker defaults with ID tie-breaking.
func DefaultOptions() Options {
	return Options{
		Workers:     1,
		Propagation: DefaultPropagationOptions(),
		Ranking:     RankOptions{TieBreakByID: true},
	}
}

// Inputs are the fully loaded data a run reads. Only Graph is required
// for every method; Orthology is required for propagating methods.
type Inputs struct {
	Graph     *ppi.Graph
	Sources   edge.Sources
	Orthology *feature.OrthologyStore
}

// Result is the outcome of one run.
type Result struct {
	RunID      string
	Method     string
	Mode       Mode
	Ranking    []Ranked
	LSG        map[string]float64
	TotalLSG   float64
	Iterations int
	Converged  bool
	Degenerate bool
	Sanitized  int
	Cache      edge.Stats
	Elapsed    time.Duration
}

// Scorer runs one Method over Inputs.
type Scorer struct {
	method  Method
	opts    Options
	logger  zerolog.Logger
	emitter *telemetry.Emitter
}

// NewScorer creates a scorer. emitter may be nil.
func NewScorer(m Method, opts Options, logger zerolog.Logger, emitter *telemetry.Emitter) *Scorer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Propagation.Workers < 1 {
		opts.Propagation.Workers = opts.Workers
	}
	return &Scorer{
		method:  m,
		opts:    opts,
		logger:  logger.With().Str("method", m.Name).Logger(),
		emitter: emitter,
	}
}

// Run scores every protein in in.Graph. A missing graph, or a missing
// orthology store for a propagating method, fails with an error wrapping
// ErrPrecondition. Non-convergence and a degenerate normaliser are
// reported on the Result, not as errors.
func (s *Scorer) Run(ctx context.Context, in Inputs) (*Result, error) {
	if in.Graph == nil || in.Graph.Len() == 0 {
		return nil, ErrEmptyGraph
	}
	if s.method.Mode == ModePropagate {
		if in.Orthology == nil {
			return nil, ErrNoOrthology
		}
		if err := s.opts.Propagation.Validate(); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	res := &Result{
		RunID:     telemetry.NewRunID(),
		Method:    s.method.Name,
		Mode:      s.method.Mode,
		Converged: true,
	}
	log := s.logger.With().Str("run", res.RunID).Logger()
	s.emit(res.RunID, telemetry.KindRunStart, map[string]any{
		"proteins":     in.Graph.Len(),
		"interactions": in.Graph.EdgeCount(),
		"mode":         s.method.Mode.String(),
	})
	log.Info().
		Int("proteins", in.Graph.Len()).
		Int("interactions", in.Graph.EdgeCount()).
		Msg("scoring started")

	engine := edge.NewEngine(in.Graph, in.Sources)
	lsg, err := Aggregate(ctx, in.Graph, engine, s.method, s.opts.Workers)
	if err != nil {
		return nil, err
	}

	nodes := in.Graph.Nodes()
	res.LSG = make(map[string]float64, len(nodes))
	for i, id := range nodes {
		res.LSG[id] = lsg[i]
		res.TotalLSG += lsg[i]
	}
	res.Cache = engine.Stats()
	s.emit(res.RunID, telemetry.KindAggregateDone, map[string]any{
		"total_lsg":    res.TotalLSG,
		"cache_hits":   res.Cache.Hits,
		"cache_misses": res.Cache.Misses,
	})
	log.Debug().
		Float64("total_lsg", res.TotalLSG).
		Int("cache_entries", res.Cache.Entries).
		Msg("aggregation done")

	scores := slices.Clone(lsg)
	if s.method.Mode == ModePropagate {
		p0 := make([]float64, len(nodes))
		for i, id := range nodes {
			p0[i] = in.Orthology.Prior(id)
		}
		prop, err := Propagate(ctx, lsg, p0, s.opts.Propagation, func(iter int, maxDiff float64) {
			s.emit(res.RunID, telemetry.KindIteration, map[string]any{
				"iteration": iter,
				"max_diff":  maxDiff,
			})
			log.Debug().Int("iteration", iter).Float64("max_diff", maxDiff).Msg("propagation step")
		})
		if err != nil {
			return nil, err
		}
		scores = prop.Scores
		res.Iterations = prop.Iterations
		res.Converged = prop.Converged
		res.Degenerate = prop.Degenerate

		if prop.Degenerate {
			log.Warn().Msg("total local significance is zero; normaliser treated as 1")
		}
		if !prop.Converged {
			log.Warn().
				Int("iterations", prop.Iterations).
				Float64("tolerance", s.opts.Propagation.Tolerance).
				Msg("propagation did not converge")
		}
	}

	if n := Sanitize(scores); n > 0 {
		res.Sanitized = n
		log.Warn().Int("count", n).Msg("non-finite scores replaced with 0")
	}
	res.Ranking = Rank(nodes, scores, s.opts.Ranking)
	res.Elapsed = time.Since(start)

	s.emit(res.RunID, telemetry.KindRunDone, map[string]any{
		"iterations": res.Iterations,
		"converged":  res.Converged,
		"degenerate": res.Degenerate,
		"elapsed_ms": res.Elapsed.Milliseconds(),
	})
	log.Info().
		Int("iterations", res.Iterations).
		Bool("converged", res.Converged).
		Dur("elapsed", res.Elapsed).
		Msg("scoring finished")
	return res, nil
}

func (s *Scorer) emit(runID, kind string, data map[string]any) {
	err := s.emitter.Emit(telemetry.Event{
		Kind:   kind,
		RunID:  runID,
		Method: s.method.Name,
		Data:   data,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("kind", kind).Msg("telemetry write failed")
	}
}
