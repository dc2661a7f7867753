package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/papapumpkin/proteo/internal/centrality"
	"github.com/papapumpkin/proteo/internal/dataset"
	"github.com/papapumpkin/proteo/internal/feature"
	"github.com/papapumpkin/proteo/internal/scoring"
	"github.com/papapumpkin/proteo/internal/telemetry"
)

// errUnknown is returned when a name is neither a scoring method nor a
// centrality metric.
var errUnknown = errors.New("unknown method")

// allMethodNames lists every scoring method followed by every centrality
// metric.
func allMethodNames() []string {
	var names []string
	for _, m := range scoring.Methods() {
		names = append(names, m.Name)
	}
	return append(names, centrality.Names()...)
}

// score runs the named scoring method or centrality metric over b.
// "teo:MF" style names select the ontology aspect inline; a bare "teo"
// uses the configured aspect.
func score(ctx context.Context, s *session, b *dataset.Bundle, name string) (*scoring.Result, error) {
	rankOpts := scoring.RankOptions{TieBreakByID: s.cfg.Ranking.TieBreakByID}

	if m, err := centrality.Lookup(name); err == nil {
		runID := telemetry.NewRunID()
		s.emit(runID, m.Name, telemetry.KindRunStart, map[string]any{"mode": "topology"})
		res, err := centrality.Score(m, b.Graph, rankOpts)
		if err != nil {
			return nil, err
		}
		res.RunID = runID
		s.emit(runID, m.Name, telemetry.KindRunDone, map[string]any{
			"elapsed_ms": res.Elapsed.Milliseconds(),
		})
		s.logger.Info().Str("method", m.Name).Dur("elapsed", res.Elapsed).Msg("centrality computed")
		return res, nil
	}

	base, aspectName := splitMethod(name)
	if aspectName == "" {
		aspectName = s.cfg.TEO.Aspect
	}
	aspect, err := feature.ParseAspect(aspectName)
	if err != nil {
		return nil, err
	}
	m, err := scoring.Lookup(base, aspect)
	if err != nil {
		if errors.Is(err, scoring.ErrUnknownMethod) {
			return nil, fmt.Errorf("%w %q (see 'proteo methods')", errUnknown, name)
		}
		return nil, err
	}

	opts := scoring.Options{
		Workers: s.cfg.Workers,
		Propagation: scoring.PropagationOptions{
			Alpha:         s.cfg.Propagation.Alpha,
			MaxIterations: s.cfg.Propagation.MaxIterations,
			Tolerance:     s.cfg.Propagation.Tolerance,
			Workers:       s.cfg.Workers,
		},
		Ranking: rankOpts,
	}
	return scoring.NewScorer(m, opts, s.logger, s.emitter).Run(ctx, b.Inputs())
}

// splitMethod splits "teo:BP" into "teo" and "BP".
func splitMethod(name string) (base, aspect string) {
	base, aspect, _ = strings.Cut(name, ":")
	return base, aspect
}
