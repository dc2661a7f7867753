package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/proteo/internal/dataset"
	"github.com/papapumpkin/proteo/internal/report"
	"github.com/papapumpkin/proteo/internal/scoring"
	"github.com/papapumpkin/proteo/internal/telemetry"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score and rank every protein of a dataset",
	Long: `Loads the dataset named by the manifest, scores every protein with the
chosen method and prints the highest-ranked proteins.

With --out the full ranking is written as a Protein,Score CSV. With
--watch the dataset is re-ranked whenever the manifest or one of its
tables changes.`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringP("method", "m", "", "scoring method or centrality metric (see 'proteo methods')")
	rankCmd.Flags().StringP("out", "o", "", "write the full ranking to this CSV file")
	rankCmd.Flags().Int("top", 0, "number of proteins to print (0 prints all)")
	rankCmd.Flags().Float64("alpha", 0, "propagation damping factor in [0, 1]")
	rankCmd.Flags().Int("max-iterations", 0, "propagation iteration limit")
	rankCmd.Flags().Float64("tolerance", 0, "propagation convergence tolerance")
	rankCmd.Flags().String("aspect", "", "GO aspect for teo: BP, MF or CC")
	rankCmd.Flags().Bool("watch", false, "re-rank when the dataset changes")

	_ = viper.BindPFlag("method", rankCmd.Flags().Lookup("method"))
	_ = viper.BindPFlag("output", rankCmd.Flags().Lookup("out"))
	_ = viper.BindPFlag("top", rankCmd.Flags().Lookup("top"))
	_ = viper.BindPFlag("propagation.alpha", rankCmd.Flags().Lookup("alpha"))
	_ = viper.BindPFlag("propagation.max_iterations", rankCmd.Flags().Lookup("max-iterations"))
	_ = viper.BindPFlag("propagation.tolerance", rankCmd.Flags().Lookup("tolerance"))
	_ = viper.BindPFlag("teo.aspect", rankCmd.Flags().Lookup("aspect"))

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	m, err := dataset.LoadManifest(s.cfg.Manifest)
	if err != nil {
		return err
	}
	if err := rankOnce(ctx, cmd, s, m); err != nil {
		return err
	}

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		return nil
	}
	return watchDataset(ctx, cmd, s, m)
}

// rankOnce loads the dataset, scores it and writes every requested view.
func rankOnce(ctx context.Context, cmd *cobra.Command, s *session, m *dataset.Manifest) error {
	b, err := dataset.Load(m, s.logger)
	if err != nil {
		return err
	}
	res, err := score(ctx, s, b, s.cfg.Method)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, report.RankingStrategy{Top: s.cfg.Top}.Render(res))
	if b.Gold.Len() > 0 {
		fmt.Fprintln(out, report.EvaluationStrategy{Gold: b.Gold}.Render(res))
	}
	fmt.Fprintln(cmd.ErrOrStderr(), report.SummaryStrategy{}.Render(res))

	if s.cfg.Output != "" {
		if err := writeRanking(s.cfg.Output, res.Ranking); err != nil {
			return err
		}
		s.logger.Info().Str("path", s.cfg.Output).Int("proteins", len(res.Ranking)).Msg("ranking written")
	}
	return nil
}

func writeRanking(path string, ranking []scoring.Ranked) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := report.WriteCSV(f, ranking); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// watchDataset re-ranks on every debounced change until ctx is done. A
// change to the manifest itself reloads it and rebuilds the watcher so
// newly named tables are watched too. A failed re-rank is logged and the
// watch continues.
func watchDataset(ctx context.Context, cmd *cobra.Command, s *session, m *dataset.Manifest) error {
	manifestPath, err := filepath.Abs(s.cfg.Manifest)
	if err != nil {
		return err
	}

	for {
		w, err := dataset.NewWatcher(manifestPath, m)
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}
		if err := w.Start(); err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		s.logger.Info().Int("files", len(m.Files())+1).Msg("watching dataset for changes")

		next := watchLoop(ctx, cmd, s, w, manifestPath, m)
		w.Stop()
		if next == nil {
			return nil
		}
		m = next
	}
}

// watchLoop returns a reloaded manifest when the manifest file changes,
// or nil when ctx is done.
func watchLoop(ctx context.Context, cmd *cobra.Command, s *session, w *dataset.Watcher, manifestPath string, m *dataset.Manifest) *dataset.Manifest {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ch, ok := <-w.Changes:
			if !ok {
				return nil
			}
			emitRerun(s, ch)
			s.logger.Info().Str("file", ch.File).Bool("removed", ch.Removed).Msg("dataset changed, re-ranking")

			if ch.File == manifestPath {
				next, err := dataset.LoadManifest(manifestPath)
				if err != nil {
					s.logger.Error().Err(err).Msg("reloading manifest")
					continue
				}
				if err := rankOnce(ctx, cmd, s, next); err != nil {
					s.logger.Error().Err(err).Msg("re-rank failed")
				}
				return next
			}
			if err := rankOnce(ctx, cmd, s, m); err != nil {
				s.logger.Error().Err(err).Msg("re-rank failed")
			}
		}
	}
}

func emitRerun(s *session, ch dataset.Change) {
	s.emit("", s.cfg.Method, telemetry.KindRerun, map[string]any{
		"file":    ch.File,
		"removed": ch.Removed,
	})
}
