// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/jmlagace/telecaster/internal/generator"
)

const resultKeyPrefix = "result:"

// ErrResultNotFound is returned when no result has the requested ID.
var ErrResultNotFound = errors.New("store: result not found")

// Result is the immutable archival blob of one completed generation or
// analysis: the playlist with full per-item score detail plus run metadata.
type Result struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	ProfileID string    `json:"profile_id"`
	ChannelID string    `json:"channel_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Playlist *generator.Playlist `json:"playlist"`
	Stats    generator.RunStats  `json:"stats"`

	// Preview marks results that were never pushed to the playout service.
	Preview bool `json:"preview,omitempty"`
}

// ResultStore persists and loads immutable result blobs.
type ResultStore interface {
	Save(result *Result) (string, error)
	Load(id string) (*Result, error)
}

// BadgerResultStore is the BadgerDB-backed ResultStore.
type BadgerResultStore struct {
	db *badger.DB
}

// NewResultStore wraps db as a ResultStore.
func NewResultStore(db *badger.DB) *BadgerResultStore {
	return &BadgerResultStore{db: db}
}

// Save assigns the result an ID if it has none and writes it. Results are
// write-once; saving under an existing ID overwrites with identical content
// by construction.
func (s *BadgerResultStore) Save(result *Result) (string, error) {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(resultKeyPrefix+result.ID), data)
	})
	if err != nil {
		return "", fmt.Errorf("save result %s: %w", result.ID, err)
	}
	return result.ID, nil
}

// Load returns the result with the given ID.
func (s *BadgerResultStore) Load(id string) (*Result, error) {
	var result Result
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(resultKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrResultNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("get result: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &result)
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
