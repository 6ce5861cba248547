package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/okian/podium/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"PODIUM_CONFIG",
	"PODIUM_ADDR",
	"PODIUM_LOG_LEVEL",
	"PODIUM_LOG_FORMAT",
	"PODIUM_POLICY_PATH",
	"PODIUM_RATINGS_PATH",
	"PODIUM_RESULTS_PATH",
	"PODIUM_AS_OF_DATE",
	"PODIUM_AGGREGATION_WORKERS",
	"PODIUM_INCLUDE_PROFILE_NAME",
	"PODIUM_MAX_LEADERBOARD_LIMIT",
	"PODIUM_RANKING_LIST_NAME",
}

func clearConfigEnvVars() {
	for _, name := range configEnvVars {
		_ = os.Unsetenv(name)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "podium.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.PolicyPath, convey.ShouldEqual, "policy.yaml")
				convey.So(cfg.AggregationWorkers, convey.ShouldEqual, 0)
				convey.So(cfg.IncludeProfileName, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PODIUM_ADDR", ":8080")
			_ = os.Setenv("PODIUM_POLICY_PATH", "/etc/podium/policy.yaml")
			_ = os.Setenv("PODIUM_RATINGS_PATH", "/etc/podium/ratings.yaml")
			_ = os.Setenv("PODIUM_AGGREGATION_WORKERS", "6")
			_ = os.Setenv("PODIUM_INCLUDE_PROFILE_NAME", "true")
			_ = os.Setenv("PODIUM_AS_OF_DATE", "2024-06-30")
			_ = os.Setenv("PODIUM_LOG_FORMAT", "json")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PolicyPath, convey.ShouldEqual, "/etc/podium/policy.yaml")
				convey.So(cfg.RatingsPath, convey.ShouldEqual, "/etc/podium/ratings.yaml")
				convey.So(cfg.AggregationWorkers, convey.ShouldEqual, 6)
				convey.So(cfg.IncludeProfileName, convey.ShouldBeTrue)
				convey.So(cfg.AsOfDate, convey.ShouldEqual, "2024-06-30")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := createTempConfigFile(t, `
# Ranking service
addr: ":9090"  # Inline comment
policy_path: policies/junior.yaml
results_path: data/results.yaml
max_leaderboard_limit: 500
ranking_list_name: junior-singles
`)
			_ = os.Setenv("PODIUM_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.PolicyPath, convey.ShouldEqual, "policies/junior.yaml")
				convey.So(cfg.ResultsPath, convey.ShouldEqual, "data/results.yaml")
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 500)
				convey.So(cfg.RankingListName, convey.ShouldEqual, "junior-singles")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			})
		})

		convey.Convey("When env and file both set a value", func() {
			path := createTempConfigFile(t, "addr: \":9090\"\n")
			_ = os.Setenv("PODIUM_CONFIG", path)
			_ = os.Setenv("PODIUM_ADDR", ":7070")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("PODIUM_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file is not YAML", func() {
			_ = os.Setenv("PODIUM_CONFIG", createTempConfigFile(t, "addr: [unterminated"))

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a value fails validation", func() {
			_ = os.Setenv("PODIUM_MAX_LEADERBOARD_LIMIT", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then an invalid config error is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a number is malformed", func() {
			_ = os.Setenv("PODIUM_AGGREGATION_WORKERS", "many")

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
