package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/rally/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.DatabasePath, convey.ShouldEqual, "rally.db")
			convey.So(cfg.PrizeSplit, convey.ShouldResemble, []float64{0.6, 0.3, 0.1})
			convey.So(cfg.StartingBalance, convey.ShouldEqual, 10000)
			convey.So(cfg.MaxHistoryLimit, convey.ShouldEqual, 100)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
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
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DefaultTrack, convey.ShouldEqual, "Riga Street Circuit")
				convey.So(cfg.PrizeSplit, convey.ShouldResemble, []float64{0.6, 0.3, 0.1})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RALLY_ADDR", ":9090")
			_ = os.Setenv("RALLY_DATABASE_PATH", "/tmp/race.db")
			_ = os.Setenv("RALLY_RACE_SEED", "42")
			_ = os.Setenv("RALLY_PRIZE_SPLIT", "0.5, 0.5")
			_ = os.Setenv("RALLY_STARTING_BALANCE", "2500.5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DatabasePath, convey.ShouldEqual, "/tmp/race.db")
				convey.So(cfg.RaceSeed, convey.ShouldEqual, 42)
				convey.So(cfg.PrizeSplit, convey.ShouldResemble, []float64{0.5, 0.5})
				convey.So(cfg.StartingBalance, convey.ShouldEqual, 2500.5)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":7070"
database_path: "races.db"
default_track: "Monza"
prize_split: [0.7, 0.3]
max_history_limit: 25
`)
			_ = os.Setenv("RALLY_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.DatabasePath, convey.ShouldEqual, "races.db")
				convey.So(cfg.DefaultTrack, convey.ShouldEqual, "Monza")
				convey.So(cfg.PrizeSplit, convey.ShouldResemble, []float64{0.7, 0.3})
				convey.So(cfg.MaxHistoryLimit, convey.ShouldEqual, 25)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":7070"
default_track: "Monza"
`)
			_ = os.Setenv("RALLY_CONFIG", tmpFile)
			_ = os.Setenv("RALLY_ADDR", ":6060")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
				convey.So(cfg.DefaultTrack, convey.ShouldEqual, "Monza")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("RALLY_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RALLY_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("RALLY_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the prize split pays out more than the pool", func() {
			_ = os.Setenv("RALLY_PRIZE_SPLIT", "0.8,0.3")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "prize_split")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a prize split fraction is negative", func() {
			tmpFile := createTempConfigFile(t, "prize_split: [0.5, -0.1]\n")
			_ = os.Setenv("RALLY_CONFIG", tmpFile)

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("RALLY_MAX_HISTORY_LIMIT", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the history limit is zero", func() {
			_ = os.Setenv("RALLY_MAX_HISTORY_LIMIT", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"RALLY_CONFIG",
		"RALLY_ADDR",
		"RALLY_DATABASE_PATH",
		"RALLY_RACE_SEED",
		"RALLY_PRIZE_SPLIT",
		"RALLY_STARTING_BALANCE",
		"RALLY_MAX_HISTORY_LIMIT",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "rally-config-*.yaml")
	if err != nil {
		t.Fatalf("create temp config: %v", err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("close temp config: %v", err)
	}
	return tmpFile.Name()
}
