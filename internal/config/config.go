// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Functions accept context.Context as the first parameter.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const dateLayout = "2006-01-02"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// PolicyPath points at the ranking-points policy document.
	PolicyPath string `koanf:"policy_path"`

	// RatingsPath optionally points at the scale items quality wins look up.
	RatingsPath string `koanf:"ratings_path"`

	// ResultsPath optionally points at results to publish at startup.
	ResultsPath string `koanf:"results_path"`

	// AsOfDate anchors rolling windows and asOfDate snapshots (YYYY-MM-DD or RFC3339).
	AsOfDate string `koanf:"as_of_date"`

	// AggregationWorkers bounds the per-participant fan-out; 0 uses GOMAXPROCS.
	AggregationWorkers int `koanf:"aggregation_workers"`

	// IncludeProfileName stamps the selected profile name on awards.
	IncludeProfileName bool `koanf:"include_profile_name"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// RankingListName names published standings.
	RankingListName string `koanf:"ranking_list_name"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		PolicyPath:          "policy.yaml",
		MaxLeaderboardLimit: 100,
		RankingListName:     "standings",
	}
}

// AsOf parses AsOfDate. An empty value returns the zero time.
func (c *Config) AsOf() (time.Time, error) {
	s := strings.TrimSpace(c.AsOfDate)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidConfig, "as_of_date %q: want YYYY-MM-DD or RFC3339", c.AsOfDate)
	}
	return t, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return errors.Wrap(ErrInvalidConfig, "addr must not be empty")
	case strings.TrimSpace(c.PolicyPath) == "":
		return errors.Wrap(ErrInvalidConfig, "policy_path must not be empty")
	case c.AggregationWorkers < 0:
		return errors.Wrapf(ErrInvalidConfig, "aggregation_workers %d must not be negative", c.AggregationWorkers)
	case c.MaxLeaderboardLimit < 1:
		return errors.Wrapf(ErrInvalidConfig, "max_leaderboard_limit %d must be positive", c.MaxLeaderboardLimit)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return errors.Wrapf(ErrInvalidConfig, "log_format %q: want text or json", c.LogFormat)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.Wrapf(ErrInvalidConfig, "log_level %q: want debug, info, warn or error", c.LogLevel)
	}
	if _, err := c.AsOf(); err != nil {
		return err
	}
	return nil
}
