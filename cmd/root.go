package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/proteo/internal/config"
	"github.com/papapumpkin/proteo/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "proteo",
	Short: "Rank proteins by predicted essentiality",
	Long: `Proteo scores every protein of an interaction network by combining
topology with expression, localization, ontology and orthology data, and
ranks them by predicted essentiality.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .proteo.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("manifest", "", "dataset manifest (default dataset.toml)")
	rootCmd.PersistentFlags().Int("workers", 0, "parallel workers (default: number of CPUs)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json")
	rootCmd.PersistentFlags().String("telemetry", "", "append JSONL run events to this file")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("manifest", rootCmd.PersistentFlags().Lookup("manifest"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("telemetry.path", rootCmd.PersistentFlags().Lookup("telemetry"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".proteo")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	config.SetDefaults()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// session bundles what every scoring subcommand needs: the resolved
// config, the logger and an optional telemetry emitter.
type session struct {
	cfg     config.Config
	logger  zerolog.Logger
	emitter *telemetry.Emitter
}

// newSession loads config and opens the telemetry file when one is
// configured. Logs go to logOut so stdout stays clean for results.
func newSession(logOut io.Writer) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	s := &session{cfg: cfg, logger: cfg.NewLogger(logOut)}
	if cfg.Telemetry.Path != "" {
		s.emitter, err = telemetry.NewEmitter(cfg.Telemetry.Path)
		if err != nil {
			return nil, err
		}
		s.logger.Debug().Str("path", cfg.Telemetry.Path).Msg("telemetry enabled")
	}
	return s, nil
}

func (s *session) Close() {
	if err := s.emitter.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("closing telemetry")
	}
}

func (s *session) emit(runID, method, kind string, data map[string]any) {
	err := s.emitter.Emit(telemetry.Event{
		Kind:   kind,
		RunID:  runID,
		Method: method,
		Data:   data,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("kind", kind).Msg("telemetry write failed")
	}
}
