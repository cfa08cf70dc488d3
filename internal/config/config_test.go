package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/gamestore/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.DBPath, convey.ShouldEqual, "games.db")
			convey.So(cfg.AssetsDir, convey.ShouldEqual, "gorseller")
			convey.So(cfg.AssetsPrefix, convey.ShouldEqual, "/gorseller/")
			convey.So(cfg.PageSize, convey.ShouldEqual, 20)
			convey.So(cfg.PreloadWorkers, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.WatchDebounce(), convey.ShouldEqual, 500*time.Millisecond)
			convey.So(cfg.ShutdownTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.MetricsRefresh(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad field", t, func() {
		cases := map[string]func(*config.Config){
			"addr":               func(c *config.Config) { c.Addr = "" },
			"db_path":            func(c *config.Config) { c.DBPath = "" },
			"assets_dir":         func(c *config.Config) { c.AssetsDir = "" },
			"assets_prefix":      func(c *config.Config) { c.AssetsPrefix = "gorseller/" },
			"page_size":          func(c *config.Config) { c.PageSize = 0 },
			"preload_workers":    func(c *config.Config) { c.PreloadWorkers = -1 },
			"preload_queue_size": func(c *config.Config) { c.PreloadQueueSize = 0 },
			"watch_debounce_ms":  func(c *config.Config) { c.WatchDebounceMS = -5 },
			"log_format":         func(c *config.Config) { c.LogFormat = "xml" },
			"metrics_refresh_ms": func(c *config.Config) { c.MetricsRefreshMS = 0 },
			"metrics_namespace":  func(c *config.Config) { c.MetricsNamespace = "" },
		}

		for field, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, field)
		}
	})
}
