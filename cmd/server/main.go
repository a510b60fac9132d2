// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

// Command server runs the Telecaster generation server: it wires the
// catalog source, profile store, result store, playout client and job
// manager under a suture supervision tree and runs until SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/jmlagace/telecaster/internal/config"
	"github.com/jmlagace/telecaster/internal/jobs"
	"github.com/jmlagace/telecaster/internal/logging"
	"github.com/jmlagace/telecaster/internal/media"
	"github.com/jmlagace/telecaster/internal/metrics"
	"github.com/jmlagace/telecaster/internal/playout"
	"github.com/jmlagace/telecaster/internal/profile"
	"github.com/jmlagace/telecaster/internal/store"
	"github.com/jmlagace/telecaster/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("configuration load failed")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("server failed")
	}
}

// run wires the server and blocks until ctx is cancelled or the
// supervision tree fails. A cancelled ctx is a clean shutdown.
func run(ctx context.Context, cfg *config.Config) error {
	log := logging.Logger()
	log.Info().Msg("telecaster starting")

	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("store open: %w", err)
	}
	defer func() { _ = db.Close() }()

	results := store.NewResultStore(db)
	history, err := store.NewHistory(db, cfg.Store.HistoryCap, log)
	if err != nil {
		return fmt.Errorf("history store init: %w", err)
	}
	defer func() { _ = history.Close() }()

	source, err := buildMediaSource(cfg, log)
	if err != nil {
		return fmt.Errorf("media source init: %w", err)
	}
	catalog := media.NewCachedSource(source, cfg.Catalog.TTL, log)

	profiles, err := profile.NewFileStore(cfg.Profiles.Dir)
	if err != nil {
		return fmt.Errorf("profile store init (%s): %w", cfg.Profiles.Dir, err)
	}

	sink := buildPlayoutSink(cfg, log)

	manager := jobs.NewManager(jobs.Config{
		MaxConcurrent:    cfg.Jobs.MaxConcurrent,
		Retention:        cfg.Jobs.Retention,
		ProgressInterval: cfg.Jobs.ProgressInterval,
		SubscriberQueue:  cfg.Jobs.SubscriberQueue,
		Grace:            cfg.Jobs.Grace,
	}, log)

	deps := jobs.Deps{
		Manager:  manager,
		Catalog:  catalog,
		Profiles: profiles,
		Results:  results,
		History:  history,
		Sink:     sink,
		Logger:   log,
	}
	genSvc := jobs.NewGenerationService(deps)
	scoreSvc := jobs.NewScoringService(deps)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddJobsService(manager)
	if cfg.Catalog.RefreshInterval > 0 {
		tree.AddJobsService(supervisor.NewCatalogRefresher(
			catalog, cfg.Catalog.Libraries, cfg.Catalog.RefreshInterval, log))
	}
	if cfg.Store.Dir != "" && cfg.Store.GCInterval > 0 {
		tree.AddStorageService(supervisor.NewBadgerGC(db, cfg.Store.GCInterval, log))
	}
	if cfg.Server.MetricsAddr != "" {
		tree.AddTelemetryService(metrics.NewServer(cfg.Server.MetricsAddr, log))
	}

	log.Info().
		Int("max_concurrent", cfg.Jobs.MaxConcurrent).
		Str("store_dir", cfg.Store.Dir).
		Str("profiles_dir", cfg.Profiles.Dir).
		Msg("supervision tree starting")

	errCh := tree.ServeBackground(ctx)

	// Subscribe goes through the manager's control loop, so it must come
	// after the tree has started serving the manager.
	sub, err := manager.Subscribe()
	if err != nil {
		return fmt.Errorf("history subscription: %w", err)
	}
	hookDone := jobs.HistoryHook(sub, history, log)
	defer func() {
		sub.Close()
		<-hookDone
	}()

	submitStartupJobs(ctx, cfg, genSvc, scoreSvc, log)

	if err := <-errCh; err != nil && ctx.Err() == nil {
		return err
	}
	log.Info().Msg("telecaster stopped")
	return nil
}

// submitStartupJobs optionally regenerates and analyzes the configured
// channel at boot.
func submitStartupJobs(ctx context.Context, cfg *config.Config, genSvc *jobs.GenerationService, scoreSvc *jobs.ScoringService, log zerolog.Logger) {
	if cfg.Jobs.StartupProfile == "" {
		return
	}

	opts := jobs.GenerateOptions{
		Iterations:  cfg.Jobs.DefaultIterations,
		Randomness:  cfg.Jobs.DefaultRandomness,
		Deadline:    cfg.Jobs.DefaultDeadline,
		PreviewOnly: cfg.Jobs.StartupChannel == "",
	}
	id, err := genSvc.Generate(ctx, cfg.Jobs.StartupChannel, cfg.Jobs.StartupProfile, opts)
	if err != nil {
		log.Error().Err(err).Msg("startup generation rejected")
	} else {
		log.Info().Str("job_id", id).Str("profile", cfg.Jobs.StartupProfile).Msg("startup generation submitted")
	}

	if cfg.Jobs.StartupAnalyze && cfg.Jobs.StartupChannel != "" {
		id, err := scoreSvc.Analyze(ctx, cfg.Jobs.StartupChannel, cfg.Jobs.StartupProfile, jobs.AnalyzeOptions{
			Deadline: cfg.Jobs.DefaultDeadline,
		})
		if err != nil {
			log.Error().Err(err).Msg("startup analysis rejected")
		} else {
			log.Info().Str("job_id", id).Msg("startup analysis submitted")
		}
	}
}

func openStore(cfg *config.Config) (*badger.DB, error) {
	if cfg.Store.Dir == "" {
		return store.OpenInMemory()
	}
	return store.Open(cfg.Store.Dir)
}

// buildMediaSource picks the catalog backend: a file-backed catalog when
// configured, otherwise the guarded media-server client.
func buildMediaSource(cfg *config.Config, log zerolog.Logger) (media.Source, error) {
	if cfg.Media.CatalogFile != "" {
		return media.LoadCatalogFile(cfg.Media.CatalogFile)
	}
	client := media.NewClient(cfg.Media.URL, cfg.Media.APIKey, cfg.Media.Timeout)
	return media.NewGuardedSource(client, media.GuardConfig{
		RequestsPerSecond: cfg.Media.RatePerSec,
		Burst:             cfg.Media.Burst,
	}, log), nil
}

// buildPlayoutSink returns the guarded playout client, or an in-process
// sink when no playout URL is configured (preview-only deployments).
func buildPlayoutSink(cfg *config.Config, log zerolog.Logger) playout.Sink {
	if cfg.Playout.URL == "" {
		return playout.NewMemorySink()
	}
	client := playout.NewClient(cfg.Playout.URL, cfg.Playout.APIKey, cfg.Playout.Timeout)
	return playout.NewGuardedSink(client, playout.GuardConfig{
		RequestsPerSecond: cfg.Playout.RatePerSec,
		Burst:             cfg.Playout.Burst,
	}, log)
}
