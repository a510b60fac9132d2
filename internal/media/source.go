// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package media

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"

	"github.com/goccy/go-json"
)

// ErrItemNotFound is returned by GetItem when no item has the requested ID.
var ErrItemNotFound = errors.New("media: item not found")

// Filters narrows a ListItems call. Zero-valued fields do not filter.
type Filters struct {
	// Kinds restricts results to the given kinds.
	Kinds []Kind

	// MinDurationSec and MaxDurationSec bound the runtime. Zero means
	// unbounded.
	MinDurationSec int
	MaxDurationSec int
}

func (f Filters) matches(item Item) bool {
	if len(f.Kinds) > 0 {
		ok := false
		for _, k := range f.Kinds {
			if item.Kind == k {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.MinDurationSec > 0 && item.DurationSec < f.MinDurationSec {
		return false
	}
	if f.MaxDurationSec > 0 && item.DurationSec > f.MaxDurationSec {
		return false
	}
	return true
}

// Source is the read-only interface over the external media server's
// enriched catalog. Implementations must return items with every field
// populated or zero-valued, never partially hydrated.
type Source interface {
	// ListItems returns the items of the given libraries matching the
	// filters. An empty libraryIDs slice means all libraries.
	ListItems(ctx context.Context, libraryIDs []string, f Filters) ([]Item, error)

	// GetItem returns a single item by ID, or ErrItemNotFound.
	GetItem(ctx context.Context, id string) (*Item, error)
}

// MemorySource is an in-memory Source, used in tests and as the backing for
// file-loaded catalogs.
type MemorySource struct {
	mu    sync.RWMutex
	items map[string]Item
}

// NewMemorySource creates a MemorySource seeded with the given items.
func NewMemorySource(items []Item) *MemorySource {
	m := &MemorySource{items: make(map[string]Item, len(items))}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

// ListItems implements Source.
func (m *MemorySource) ListItems(_ context.Context, libraryIDs []string, f Filters) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	libs := make(map[string]struct{}, len(libraryIDs))
	for _, id := range libraryIDs {
		libs[id] = struct{}{}
	}

	out := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		if len(libs) > 0 {
			if _, ok := libs[it.LibraryID]; !ok {
				continue
			}
		}
		if f.matches(it) {
			out = append(out, it)
		}
	}
	// Stable order for deterministic snapshots.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetItem implements Source.
func (m *MemorySource) GetItem(_ context.Context, id string) (*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	return &it, nil
}

// Put inserts or replaces an item.
func (m *MemorySource) Put(item Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
}

// LoadCatalogFile reads a JSON catalog file (an array of items) and returns
// a MemorySource over its contents.
func LoadCatalogFile(path string) (*MemorySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return NewMemorySource(items), nil
}
