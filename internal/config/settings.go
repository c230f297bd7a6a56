package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/kelseyhightower/envconfig"

	"github.com/ytget/ytsongs/internal/model"
	"github.com/ytget/ytsongs/internal/platform"
)

// Environment variable prefix
const (
	EnvPrefix = "YTSONGS"
)

// Default values
const (
	DefaultFormat = model.FormatMP3

	// Workers defaults to the CPU count capped at this value
	DefaultWorkerCap = 4
)

// Config holds all application settings. Flags may override individual
// fields after Load.
type Config struct {
	DownloadDir string `envconfig:"DOWNLOAD_DIR"`
	Format      string `envconfig:"FORMAT" default:"mp3"`
	Workers     int    `envconfig:"WORKERS" default:"0"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads configuration from environment variables and fills in the
// platform defaults: the YtSongs music folder and an auto-sized worker
// count (0 means auto).
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if cfg.DownloadDir == "" {
		dir, err := platform.DefaultMusicDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve default music directory: %w", err)
		}
		cfg.DownloadDir = dir
	}

	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// DefaultWorkers returns the worker count used when none is configured:
// the hardware concurrency, capped at DefaultWorkerCap.
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n > DefaultWorkerCap {
		return DefaultWorkerCap
	}
	if n < 1 {
		return 1
	}
	return n
}

// Validate checks the configuration for invalid values. Unknown formats are
// rejected, never silently defaulted.
func (c *Config) Validate() error {
	switch c.Format {
	case model.FormatMP3, model.FormatWAV, model.FormatM4A, model.FormatOpus:
	default:
		return fmt.Errorf("unsupported format %q (allowed: mp3, wav, m4a, opus)", c.Format)
	}

	if c.Workers < 1 {
		return fmt.Errorf("worker count must be positive: %d", c.Workers)
	}

	if c.DownloadDir == "" {
		return fmt.Errorf("download directory cannot be empty")
	}

	return nil
}

// SetupLogger configures the global slog logger based on configuration.
// Supports "json" or "text" formats and log levels: debug, info, warn,
// error.
func SetupLogger(cfg *Config) {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
