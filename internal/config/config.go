// SPDX-License-Identifier: MIT

// Package config loads the daemon configuration from an optional YAML file
// with RENDITIOND_* environment overrides on top.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Redis holds the queue connection settings.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Config is the full daemon configuration.
type Config struct {
	MediaRoot  string `yaml:"mediaRoot"`
	DBPath     string `yaml:"dbPath"`
	Listen     string `yaml:"listen"`
	Workers    int    `yaml:"workers"`
	LogLevel   string `yaml:"logLevel"`
	FFmpegBin  string `yaml:"ffmpegBin"`
	FFprobeBin string `yaml:"ffprobeBin"`
	Redis      Redis  `yaml:"redis"`

	// Job budgets in seconds; transcodes need a generous allowance.
	TranscodeTimeoutSeconds int `yaml:"transcodeTimeoutSeconds"`
	ThumbnailTimeoutSeconds int `yaml:"thumbnailTimeoutSeconds"`
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		DBPath:                  "data/renditiond.db",
		Listen:                  ":8080",
		Workers:                 2,
		LogLevel:                "info",
		FFmpegBin:               "ffmpeg",
		FFprobeBin:              "ffprobe",
		Redis:                   Redis{Addr: "localhost:6379"},
		TranscodeTimeoutSeconds: 7200,
		ThumbnailTimeoutSeconds: 3600,
	}
}

// Load reads path (when non-empty), applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's flag
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants the daemon cannot start without.
func (c Config) Validate() error {
	if c.MediaRoot == "" {
		return fmt.Errorf("mediaRoot is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("dbPath is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.TranscodeTimeoutSeconds < 1 || c.ThumbnailTimeoutSeconds < 1 {
		return fmt.Errorf("job timeouts must be positive")
	}
	return nil
}

// TranscodeTimeout returns the transcode budget as a duration.
func (c Config) TranscodeTimeout() time.Duration {
	return time.Duration(c.TranscodeTimeoutSeconds) * time.Second
}

// ThumbnailTimeout returns the thumbnail budget as a duration.
func (c Config) ThumbnailTimeout() time.Duration {
	return time.Duration(c.ThumbnailTimeoutSeconds) * time.Second
}
