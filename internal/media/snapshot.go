// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package media

import "sort"

// Snapshot is an immutable, deterministically ordered view of the catalog
// taken at job start. Two jobs never share mutable catalog state; each holds
// its own Snapshot. Items are ordered by ID so that seeded random selection
// over the snapshot is reproducible.
type Snapshot struct {
	items []Item
	byID  map[string]int
}

// NewSnapshot builds a Snapshot from items. The input slice is copied and
// sorted by ID; duplicate IDs keep the last occurrence.
func NewSnapshot(items []Item) *Snapshot {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[string]int, len(sorted))
	for i, it := range sorted {
		byID[it.ID] = i
	}
	return &Snapshot{items: sorted, byID: byID}
}

// Len returns the number of items.
func (s *Snapshot) Len() int {
	return len(s.items)
}

// Items returns the ordered item slice. Callers must not mutate it.
func (s *Snapshot) Items() []Item {
	return s.items
}

// Get returns the item with the given ID.
func (s *Snapshot) Get(id string) (Item, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Item{}, false
	}
	return s.items[i], true
}
