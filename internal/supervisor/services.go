// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package supervisor

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/jmlagace/telecaster/internal/media"
)

// CatalogRefresher periodically refreshes the catalog snapshot cache so
// jobs in auto mode rarely pay the upstream fetch. Implements
// suture.Service.
type CatalogRefresher struct {
	catalog   *media.CachedSource
	libraries []string
	interval  time.Duration
	logger    zerolog.Logger
}

// NewCatalogRefresher builds a refresher for the given library set.
func NewCatalogRefresher(catalog *media.CachedSource, libraries []string, interval time.Duration, logger zerolog.Logger) *CatalogRefresher {
	return &CatalogRefresher{
		catalog:   catalog,
		libraries: libraries,
		interval:  interval,
		logger:    logger.With().Str("component", "catalog-refresher").Logger(),
	}
}

// Serve refreshes on the configured interval until ctx is done.
func (r *CatalogRefresher) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.catalog.Snapshot(ctx, r.libraries, media.CacheRefresh); err != nil {
				r.logger.Warn().Err(err).Msg("catalog refresh failed")
			}
		}
	}
}

// BadgerGC runs Badger's value-log garbage collection on an interval.
// Implements suture.Service.
type BadgerGC struct {
	db       *badger.DB
	interval time.Duration
	logger   zerolog.Logger
}

// NewBadgerGC builds the GC service.
func NewBadgerGC(db *badger.DB, interval time.Duration, logger zerolog.Logger) *BadgerGC {
	return &BadgerGC{
		db:       db,
		interval: interval,
		logger:   logger.With().Str("component", "badger-gc").Logger(),
	}
}

// Serve runs GC cycles until ctx is done. ErrNoRewrite means nothing to
// collect and is not an error.
func (g *BadgerGC) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err := g.db.RunValueLogGC(0.5)
			switch {
			case err == nil:
				g.logger.Debug().Msg("value log GC reclaimed space")
			case errors.Is(err, badger.ErrNoRewrite):
			case errors.Is(err, badger.ErrRejected):
			default:
				g.logger.Warn().Err(err).Msg("value log GC failed")
			}
		}
	}
}
