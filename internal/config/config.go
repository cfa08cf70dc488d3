// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite file holding the games table.
	DBPath string `koanf:"db_path"`

	// AssetsDir is the flat directory of game images.
	AssetsDir string `koanf:"assets_dir"`

	// AssetsPrefix is the URL path the images are served under.
	AssetsPrefix string `koanf:"assets_prefix"`

	// AssetExtensions lists the file extensions treated as images.
	AssetExtensions []string `koanf:"asset_extensions"`

	// PageSize is the number of catalog rows per page.
	PageSize int `koanf:"page_size"`

	// PreloadWorkers and PreloadQueueSize size the asset preload pool.
	PreloadWorkers   int `koanf:"preload_workers"`
	PreloadQueueSize int `koanf:"preload_queue_size"`

	// WatchAssets rebuilds the name index when the asset directory changes.
	WatchAssets     bool `koanf:"watch_assets"`
	WatchDebounceMS int  `koanf:"watch_debounce_ms"`

	// CORSAllowedOrigins is passed to the CORS middleware.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// NameSuffixes overrides the edition phrases cut from game names.
	NameSuffixes []string `koanf:"name_suffixes"`

	// ShutdownTimeoutMS bounds graceful HTTP shutdown.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`

	// Metrics settings. MetricsLabels is only read from the config file.
	MetricsEnabled   bool              `koanf:"metrics_enabled"`
	MetricsNamespace string            `koanf:"metrics_namespace"`
	MetricsRefreshMS int               `koanf:"metrics_refresh_ms"`
	MetricsLabels    map[string]string `koanf:"metrics_labels"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":8080",
		DBPath:             "games.db",
		AssetsDir:          "gorseller",
		AssetsPrefix:       "/gorseller/",
		AssetExtensions:    []string{"jpg", "jpeg", "png", "gif", "svg"},
		PageSize:           20,
		PreloadWorkers:     runtime.NumCPU(),
		PreloadQueueSize:   4096,
		WatchAssets:        true,
		WatchDebounceMS:    500,
		CORSAllowedOrigins: []string{"*"},
		ShutdownTimeoutMS:  10_000,
		MetricsEnabled:     true,
		MetricsNamespace:   "gamestore",
		MetricsRefreshMS:   10_000,
	}
}

// WatchDebounce returns WatchDebounceMS as a duration.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMS) * time.Millisecond
}

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// MetricsRefresh returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.AssetsDir == "":
		return fmt.Errorf("%w: assets_dir must not be empty", ErrInvalidConfig)
	case !strings.HasPrefix(c.AssetsPrefix, "/"):
		return fmt.Errorf("%w: assets_prefix must start with /", ErrInvalidConfig)
	case c.PageSize < 1:
		return fmt.Errorf("%w: page_size must be positive", ErrInvalidConfig)
	case c.PreloadWorkers < 1:
		return fmt.Errorf("%w: preload_workers must be positive", ErrInvalidConfig)
	case c.PreloadQueueSize < 1:
		return fmt.Errorf("%w: preload_queue_size must be positive", ErrInvalidConfig)
	case c.WatchDebounceMS < 0:
		return fmt.Errorf("%w: watch_debounce_ms must not be negative", ErrInvalidConfig)
	case c.ShutdownTimeoutMS < 0:
		return fmt.Errorf("%w: shutdown_timeout_ms must not be negative", ErrInvalidConfig)
	case c.MetricsRefreshMS < 1:
		return fmt.Errorf("%w: metrics_refresh_ms must be positive", ErrInvalidConfig)
	case c.MetricsNamespace == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	case !slices.Contains([]string{"text", "json"}, strings.ToLower(c.LogFormat)):
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	return nil
}
