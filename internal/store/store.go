// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

// Package store persists generation results and job history in BadgerDB.
// Results are immutable blobs keyed by ID; history keeps the most recent
// terminal summaries with FIFO pruning.
package store

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Open opens the BadgerDB at dir. The Badger-internal logger is silenced in
// favor of our own.
func Open(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", dir, err)
	}
	return db, nil
}

// OpenInMemory opens an ephemeral in-memory BadgerDB, used in tests.
func OpenInMemory() (*badger.DB, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory store: %w", err)
	}
	return db, nil
}

// componentLogger returns the store sub-logger.
func componentLogger(logger zerolog.Logger) zerolog.Logger {
	return logger.With().Str("component", "store").Logger()
}
