// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package media

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jmlagace/telecaster/internal/metrics"
)

// CacheMode controls how a job obtains its catalog snapshot.
type CacheMode string

const (
	// CacheAuto serves a cached snapshot when fresh, refreshing otherwise.
	CacheAuto CacheMode = "auto"
	// CacheRefresh always fetches from the underlying source.
	CacheRefresh CacheMode = "refresh"
	// CacheOnly never touches the underlying source; it fails when the
	// cache is empty.
	CacheOnly CacheMode = "cached"
)

// ErrCacheEmpty is returned in CacheOnly mode when no snapshot is cached.
var ErrCacheEmpty = errors.New("media: catalog cache is empty")

// CachedSource layers a TTL cache over a Source. Refreshes are serialized
// (single writer); readers always receive a consistent, already-built
// Snapshot. Safe for concurrent use.
type CachedSource struct {
	source Source
	ttl    time.Duration
	logger zerolog.Logger

	mu        sync.RWMutex
	snapshots map[string]*cachedSnapshot

	// refreshMu serializes cache fills so concurrent jobs with the same
	// library set trigger one upstream fetch.
	refreshMu sync.Mutex
}

type cachedSnapshot struct {
	snapshot  *Snapshot
	fetchedAt time.Time
}

// NewCachedSource creates a CachedSource with the given TTL.
func NewCachedSource(source Source, ttl time.Duration, logger zerolog.Logger) *CachedSource {
	return &CachedSource{
		source:    source,
		ttl:       ttl,
		logger:    logger.With().Str("component", "catalog-cache").Logger(),
		snapshots: make(map[string]*cachedSnapshot),
	}
}

// Snapshot returns an immutable catalog view for the given libraries,
// honoring the cache mode.
func (c *CachedSource) Snapshot(ctx context.Context, libraryIDs []string, mode CacheMode) (*Snapshot, error) {
	key := cacheKey(libraryIDs)

	if mode != CacheRefresh {
		if snap := c.cached(key, mode == CacheOnly); snap != nil {
			return snap, nil
		}
		if mode == CacheOnly {
			return nil, ErrCacheEmpty
		}
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another job may have refreshed while we waited.
	if mode != CacheRefresh {
		if snap := c.cached(key, false); snap != nil {
			return snap, nil
		}
	}

	items, err := c.source.ListItems(ctx, libraryIDs, Filters{})
	if err != nil {
		return nil, fmt.Errorf("list catalog items: %w", err)
	}
	snap := NewSnapshot(items)

	c.mu.Lock()
	c.snapshots[key] = &cachedSnapshot{snapshot: snap, fetchedAt: time.Now()}
	c.mu.Unlock()
	metrics.CatalogRefreshes.Inc()

	c.logger.Debug().
		Str("libraries", key).
		Int("items", snap.Len()).
		Msg("catalog snapshot refreshed")
	return snap, nil
}

// GetItem passes through to the underlying source.
func (c *CachedSource) GetItem(ctx context.Context, id string) (*Item, error) {
	return c.source.GetItem(ctx, id)
}

// Invalidate drops all cached snapshots.
func (c *CachedSource) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = make(map[string]*cachedSnapshot)
}

// cached returns a live snapshot for key, or nil. When ignoreTTL is set the
// snapshot is returned regardless of age (CacheOnly mode).
func (c *CachedSource) cached(key string, ignoreTTL bool) *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.snapshots[key]
	if !ok {
		return nil
	}
	if !ignoreTTL && c.ttl > 0 && time.Since(entry.fetchedAt) > c.ttl {
		return nil
	}
	return entry.snapshot
}

func cacheKey(libraryIDs []string) string {
	if len(libraryIDs) == 0 {
		return "*"
	}
	sorted := make([]string, len(libraryIDs))
	copy(sorted, libraryIDs)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
