// Package config loads bookkeep settings from ~/.config/bookkeep/config.yaml and
// BOOKKEEP_* environment variables: the SQLite path, logging, statement year
// inference and the review threshold used when classifying.
package config

import (
	"fmt"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/common"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/spf13/viper"
)

// DefaultDatabasePath is used when database.path is not configured.
const DefaultDatabasePath = "$HOME/.local/share/bookkeep/bookkeep.db"

// Config is the full application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Classify ClassifyConfig `mapstructure:"classify"`
	Parser   ParserConfig   `mapstructure:"parser"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ParserConfig fixes the statement year when a statement has no period line.
// Zero values mean "detect from the text".
type ParserConfig struct {
	ReferenceYear int `mapstructure:"reference_year"`
	ClosingMonth  int `mapstructure:"closing_month"`
}

// ClassifyConfig controls rule classification.
type ClassifyConfig struct {
	User            string  `mapstructure:"user"`
	ReviewThreshold float64 `mapstructure:"review_threshold"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{Path: DefaultDatabasePath},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
		Classify: ClassifyConfig{ReviewThreshold: model.DefaultReviewThreshold},
	}
}

// SetDefaults registers Defaults with v so unset keys resolve.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("parser.reference_year", d.Parser.ReferenceYear)
	v.SetDefault("parser.closing_month", d.Parser.ClosingMonth)
	v.SetDefault("classify.review_threshold", d.Classify.ReviewThreshold)
	v.SetDefault("classify.user", d.Classify.User)
}

// Load decodes and validates the configuration held by v. The database path is
// returned expanded.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format must be console or json, got %q", common.ErrInvalidConfig, c.Logging.Format)
	}
	if c.Parser.ClosingMonth != 0 && (c.Parser.ClosingMonth < int(time.January) || c.Parser.ClosingMonth > int(time.December)) {
		return fmt.Errorf("%w: parser.closing_month %d out of range", common.ErrInvalidConfig, c.Parser.ClosingMonth)
	}
	if c.Parser.ReferenceYear < 0 {
		return fmt.Errorf("%w: parser.reference_year %d is negative", common.ErrInvalidConfig, c.Parser.ReferenceYear)
	}
	if c.Classify.ReviewThreshold < 0 || c.Classify.ReviewThreshold > 1 {
		return fmt.Errorf("%w: classify.review_threshold must be within [0, 1]", common.ErrInvalidConfig)
	}
	return nil
}
