// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 2, cfg.Jobs.MaxConcurrent)
	assert.Equal(t, 50, cfg.Jobs.Retention)
	assert.Equal(t, 250*time.Millisecond, cfg.Jobs.ProgressInterval)
	assert.Equal(t, 10*time.Second, cfg.Jobs.Grace)
	assert.Equal(t, 10, cfg.Jobs.DefaultIterations)
	assert.Equal(t, 0.3, cfg.Jobs.DefaultRandomness)
	assert.Equal(t, 500, cfg.Store.HistoryCap)
	assert.Equal(t, 15*time.Minute, cfg.Catalog.TTL)
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: debug
  format: console
jobs:
  max_concurrent: 4
  default_iterations: 25
store:
  dir: /tmp/telecaster-test
catalog:
  libraries:
    - films
    - shows
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 4, cfg.Jobs.MaxConcurrent)
	assert.Equal(t, 25, cfg.Jobs.DefaultIterations)
	assert.Equal(t, "/tmp/telecaster-test", cfg.Store.Dir)
	assert.Equal(t, []string{"films", "shows"}, cfg.Catalog.Libraries)

	// Unset fields keep their defaults.
	assert.Equal(t, 50, cfg.Jobs.Retention)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600))
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("JOBS_MAX_CONCURRENT", "8")
	t.Setenv("CATALOG_LIBRARIES", "films, shows ,kids")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 8, cfg.Jobs.MaxConcurrent)
	assert.Equal(t, []string{"films", "shows", "kids"}, cfg.Catalog.Libraries)
}

func TestUnmappedEnvVarsAreIgnored(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RANDOM_UNRELATED_VAR", "x")
	t.Setenv("PATH_EXTRA", "y")

	_, err := Load()
	require.NoError(t, err)
}

func TestValidateRejectsBadLevel(t *testing.T) {
	cfg := defaultConfig()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadRandomness(t *testing.T) {
	cfg := defaultConfig()
	cfg.Jobs.DefaultRandomness = 1.5
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsConflictingMediaSources(t *testing.T) {
	cfg := defaultConfig()
	cfg.Media.URL = "http://media.local:8096"
	cfg.Media.CatalogFile = "/data/catalog.json"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsRefreshBeyondTTL(t *testing.T) {
	cfg := defaultConfig()
	cfg.Catalog.TTL = time.Minute
	cfg.Catalog.RefreshInterval = time.Hour
	assert.Error(t, cfg.Validate())
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, defaultConfig().Validate())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging: [\n"), 0o600))
	t.Setenv(ConfigPathEnvVar, path)

	_, err := Load()
	require.Error(t, err)
}
