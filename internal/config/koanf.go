// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order. The
// first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/telecaster/config.yaml",
	"/etc/telecaster/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from layered sources with precedence
// ENV > file > defaults, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env strings.
var sliceConfigPaths = []string{
	"catalog.libraries",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransform maps environment variable names to config paths. Unmapped
// variables are skipped so unrelated environment noise never reaches the
// config.
func envTransform(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"metrics_addr":     "server.metrics_addr",
		"shutdown_timeout": "server.shutdown_timeout",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		"media_url":          "media.url",
		"media_api_key":      "media.api_key",
		"media_timeout":      "media.timeout",
		"media_catalog_file": "media.catalog_file",
		"media_rate":         "media.rate_per_sec",
		"media_burst":        "media.burst",

		"catalog_ttl":              "catalog.ttl",
		"catalog_refresh_interval": "catalog.refresh_interval",
		"catalog_libraries":        "catalog.libraries",

		"playout_url":     "playout.url",
		"playout_api_key": "playout.api_key",
		"playout_timeout": "playout.timeout",
		"playout_rate":    "playout.rate_per_sec",
		"playout_burst":   "playout.burst",

		"store_dir":         "store.dir",
		"store_history_cap": "store.history_cap",
		"store_gc_interval": "store.gc_interval",

		"profiles_dir": "profiles.dir",

		"jobs_max_concurrent":     "jobs.max_concurrent",
		"jobs_retention":          "jobs.retention",
		"jobs_progress_interval":  "jobs.progress_interval",
		"jobs_subscriber_queue":   "jobs.subscriber_queue",
		"jobs_grace":              "jobs.grace",
		"jobs_default_iterations": "jobs.default_iterations",
		"jobs_default_randomness": "jobs.default_randomness",
		"jobs_default_deadline":   "jobs.default_deadline",
		"jobs_startup_profile":    "jobs.startup_profile",
		"jobs_startup_channel":    "jobs.startup_channel",
		"jobs_startup_analyze":    "jobs.startup_analyze",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
