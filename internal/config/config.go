// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

// Package config loads Telecaster's layered configuration: built-in
// defaults, then an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Media    MediaConfig    `koanf:"media"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Playout  PlayoutConfig  `koanf:"playout"`
	Store    StoreConfig    `koanf:"store"`
	Profiles ProfilesConfig `koanf:"profiles"`
	Jobs     JobsConfig     `koanf:"jobs"`
}

// ServerConfig holds process-level settings.
type ServerConfig struct {
	// MetricsAddr is the listen address of the Prometheus exporter. Empty
	// disables the exporter.
	MetricsAddr string `koanf:"metrics_addr"`

	// ShutdownTimeout bounds graceful shutdown of the supervisor tree.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// MediaConfig configures the media-server catalog source. Exactly one of
// URL and CatalogFile should be set; CatalogFile serves file-backed
// catalogs for offline use and tests.
type MediaConfig struct {
	URL         string        `koanf:"url" validate:"omitempty,url"`
	APIKey      string        `koanf:"api_key"`
	Timeout     time.Duration `koanf:"timeout" validate:"min=0"`
	CatalogFile string        `koanf:"catalog_file"`

	// RatePerSec and Burst tune the adapter rate limiter.
	RatePerSec float64 `koanf:"rate_per_sec" validate:"min=0"`
	Burst      int     `koanf:"burst" validate:"min=0"`
}

// CatalogConfig tunes the snapshot cache over the media source.
type CatalogConfig struct {
	// TTL is how long a cached snapshot stays fresh in auto mode.
	TTL time.Duration `koanf:"ttl" validate:"min=0"`

	// RefreshInterval drives the background catalog refresher service.
	// Zero disables background refresh.
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"min=0"`

	// Libraries is the default library set for background refresh.
	Libraries []string `koanf:"libraries"`
}

// PlayoutConfig configures the playout service client.
type PlayoutConfig struct {
	URL     string        `koanf:"url" validate:"omitempty,url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`

	RatePerSec float64 `koanf:"rate_per_sec" validate:"min=0"`
	Burst      int     `koanf:"burst" validate:"min=0"`
}

// StoreConfig configures the BadgerDB result and history store.
type StoreConfig struct {
	// Dir is the on-disk store location. Empty means in-memory (tests,
	// ephemeral runs).
	Dir string `koanf:"dir"`

	// HistoryCap bounds retained terminal job summaries.
	HistoryCap int `koanf:"history_cap" validate:"min=0"`

	// GCInterval drives the Badger value-log GC service. Zero disables it.
	GCInterval time.Duration `koanf:"gc_interval" validate:"min=0"`
}

// ProfilesConfig locates the channel profiles.
type ProfilesConfig struct {
	// Dir is the directory of JSON profile files.
	Dir string `koanf:"dir"`
}

// JobsConfig tunes the job manager and generation defaults.
type JobsConfig struct {
	MaxConcurrent    int           `koanf:"max_concurrent" validate:"min=0"`
	Retention        int           `koanf:"retention" validate:"min=0"`
	ProgressInterval time.Duration `koanf:"progress_interval" validate:"min=0"`
	SubscriberQueue  int           `koanf:"subscriber_queue" validate:"min=0"`
	Grace            time.Duration `koanf:"grace" validate:"min=0"`

	DefaultIterations int           `koanf:"default_iterations" validate:"min=0"`
	DefaultRandomness float64       `koanf:"default_randomness" validate:"gte=0,lte=1"`
	DefaultDeadline   time.Duration `koanf:"default_deadline" validate:"min=0"`

	// StartupProfile triggers a generation job at boot using this profile.
	// Empty disables the startup job.
	StartupProfile string `koanf:"startup_profile"`

	// StartupChannel is the target channel of the startup job. Empty makes
	// the startup generation a preview.
	StartupChannel string `koanf:"startup_channel"`

	// StartupAnalyze additionally scores the channel's current lineup at
	// boot. Requires StartupProfile and StartupChannel.
	StartupAnalyze bool `koanf:"startup_analyze"`
}

// defaultConfig returns the built-in defaults applied before file and env
// layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MetricsAddr:     ":9464",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Media: MediaConfig{
			Timeout:    30 * time.Second,
			RatePerSec: 10,
			Burst:      20,
		},
		Catalog: CatalogConfig{
			TTL:             15 * time.Minute,
			RefreshInterval: 0,
		},
		Playout: PlayoutConfig{
			Timeout:    30 * time.Second,
			RatePerSec: 5,
			Burst:      10,
		},
		Store: StoreConfig{
			Dir:        "/data/telecaster",
			HistoryCap: 500,
			GCInterval: 10 * time.Minute,
		},
		Profiles: ProfilesConfig{
			Dir: "/data/profiles",
		},
		Jobs: JobsConfig{
			MaxConcurrent:     2,
			Retention:         50,
			ProgressInterval:  250 * time.Millisecond,
			SubscriberQueue:   64,
			Grace:             10 * time.Second,
			DefaultIterations: 10,
			DefaultRandomness: 0.3,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for structural and semantic errors.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Media.URL != "" && c.Media.CatalogFile != "" {
		return fmt.Errorf("config: media.url and media.catalog_file are mutually exclusive")
	}
	if c.Catalog.RefreshInterval > 0 && c.Catalog.TTL > 0 && c.Catalog.RefreshInterval > c.Catalog.TTL {
		return fmt.Errorf("config: catalog.refresh_interval %s exceeds catalog.ttl %s",
			c.Catalog.RefreshInterval, c.Catalog.TTL)
	}
	return nil
}
