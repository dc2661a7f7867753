package config

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// PropagationConfig holds the damped iteration parameters.
type PropagationConfig struct {
	Alpha         float64 `mapstructure:"alpha"`
	MaxIterations int     `mapstructure:"max_iterations"`
	Tolerance     float64 `mapstructure:"tolerance"`
}

// TEOConfig holds options for the teo method.
type TEOConfig struct {
	Aspect string `mapstructure:"aspect"`
}

// RankingConfig controls tie handling in the final ordering.
type RankingConfig struct {
	TieBreakByID bool `mapstructure:"tie_break_by_id"`
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// TelemetryConfig enables the JSONL event stream when Path is set.
type TelemetryConfig struct {
	Path string `mapstructure:"path"`
}

// Config holds all runtime configuration for a proteo invocation.
// Values are populated from .proteo.yaml, PROTEO_* env vars, and CLI flags.
type Config struct {
	Method      string            `mapstructure:"method"`
	Manifest    string            `mapstructure:"manifest"`
	Output      string            `mapstructure:"output"`
	Top         int               `mapstructure:"top"`
	Workers     int               `mapstructure:"workers"`
	Verbose     bool              `mapstructure:"verbose"`
	Propagation PropagationConfig `mapstructure:"propagation"`
	TEO         TEOConfig         `mapstructure:"teo"`
	Ranking     RankingConfig     `mapstructure:"ranking"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

// SetDefaults registers every built-in default with viper and binds the
// PROTEO_ environment prefix. Nested keys map to env vars with dots
// replaced by underscores (propagation.alpha -> PROTEO_PROPAGATION_ALPHA).
func SetDefaults() {
	viper.SetDefault("method", "tgso")
	viper.SetDefault("manifest", "dataset.toml")
	viper.SetDefault("output", "")
	viper.SetDefault("top", 20)
	viper.SetDefault("workers", runtime.NumCPU())
	viper.SetDefault("verbose", false)
	viper.SetDefault("propagation.alpha", 0.3)
	viper.SetDefault("propagation.max_iterations", 100)
	viper.SetDefault("propagation.tolerance", 1e-6)
	viper.SetDefault("teo.aspect", "BP")
	viper.SetDefault("ranking.tie_break_by_id", true)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("telemetry.path", "")

	viper.SetEnvPrefix("PROTEO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags, and validates it.
func Load() (Config, error) {
	SetDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no run could use.
func (c Config) Validate() error {
	switch {
	case c.Propagation.Alpha < 0 || c.Propagation.Alpha > 1:
		return fmt.Errorf("propagation.alpha must be in [0, 1], got %v", c.Propagation.Alpha)
	case c.Propagation.MaxIterations < 1:
		return fmt.Errorf("propagation.max_iterations must be >= 1, got %d", c.Propagation.MaxIterations)
	case c.Propagation.Tolerance < 0:
		return fmt.Errorf("propagation.tolerance must be >= 0, got %v", c.Propagation.Tolerance)
	case c.Top < 0:
		return fmt.Errorf("top must be >= 0, got %d", c.Top)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// NewLogger builds the process logger. Verbose forces debug level; an
// unknown level falls back to info.
func (c Config) NewLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level))
	if err != nil || c.Logging.Level == "" {
		level = zerolog.InfoLevel
	}
	if c.Verbose {
		level = zerolog.DebugLevel
	}

	out := w
	if strings.ToLower(c.Logging.Format) != "json" {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
		}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "proteo").Logger()
}
