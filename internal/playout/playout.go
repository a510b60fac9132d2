// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

// Package playout abstracts the external IPTV playout service. The core
// only needs two operations: push a generated playlist to a channel, and
// read back a channel's current lineup for analysis. Transport details live
// behind the Sink interface.
package playout

import (
	"context"
	"errors"
	"sync"

	"github.com/jmlagace/telecaster/internal/generator"
	"github.com/jmlagace/telecaster/internal/media"
)

// ErrChannelNotFound is returned when the playout service knows no channel
// with the requested ID.
var ErrChannelNotFound = errors.New("playout: channel not found")

// Sink is the narrow interface to the playout service. Apply must be
// idempotent with respect to identical inputs; a failed Apply never mutates
// job state retroactively.
type Sink interface {
	Apply(ctx context.Context, channelID string, pl *generator.Playlist) error
	Current(ctx context.Context, channelID string) ([]media.Item, error)
}

// MemorySink is an in-process Sink holding the last applied playlist per
// channel. Used in tests and as the preview target.
type MemorySink struct {
	mu       sync.RWMutex
	channels map[string]*generator.Playlist
}

// NewMemorySink builds an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{channels: make(map[string]*generator.Playlist)}
}

// Apply implements Sink.
func (m *MemorySink) Apply(_ context.Context, channelID string, pl *generator.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[channelID] = pl
	return nil
}

// Current implements Sink.
func (m *MemorySink) Current(_ context.Context, channelID string) ([]media.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pl, ok := m.channels[channelID]
	if !ok {
		return nil, ErrChannelNotFound
	}
	items := make([]media.Item, len(pl.Items))
	for i := range pl.Items {
		items[i] = pl.Items[i].Item
	}
	return items, nil
}

// Applied returns the last playlist applied to a channel.
func (m *MemorySink) Applied(channelID string) (*generator.Playlist, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pl, ok := m.channels[channelID]
	return pl, ok
}
