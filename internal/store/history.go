// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package store

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	historyKeyPrefix  = "history:"
	historySeqKey     = "history_seq"
	defaultHistoryCap = 500
)

// HistoryEntry is the persisted terminal summary of one job.
type HistoryEntry struct {
	JobID       string    `json:"job_id"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	ProfileID   string    `json:"profile_id,omitempty"`
	ChannelID   string    `json:"channel_id,omitempty"`
	BestScore   float64   `json:"best_score"`
	ResultID    string    `json:"result_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// HistoryRecorder records terminal job states.
type HistoryRecorder interface {
	Record(entry *HistoryEntry) error
}

// History is the BadgerDB-backed HistoryRecorder. Entries are keyed by a
// monotonic sequence so iteration order is insertion order; entries beyond
// the cap are pruned oldest-first.
type History struct {
	db     *badger.DB
	seq    *badger.Sequence
	cap    int
	logger zerolog.Logger
}

// NewHistory builds a History with the given retention cap (0 means the
// default of 500).
func NewHistory(db *badger.DB, retainMax int, logger zerolog.Logger) (*History, error) {
	if retainMax <= 0 {
		retainMax = defaultHistoryCap
	}
	seq, err := db.GetSequence([]byte(historySeqKey), 64)
	if err != nil {
		return nil, fmt.Errorf("history sequence: %w", err)
	}
	return &History{
		db:     db,
		seq:    seq,
		cap:    retainMax,
		logger: componentLogger(logger),
	}, nil
}

// Close releases the sequence lease.
func (h *History) Close() error {
	return h.seq.Release()
}

// Record appends a terminal summary and prunes beyond the cap.
func (h *History) Record(entry *HistoryEntry) error {
	if entry.CompletedAt.IsZero() {
		entry.CompletedAt = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	n, err := h.seq.Next()
	if err != nil {
		return fmt.Errorf("history sequence next: %w", err)
	}
	key := fmt.Sprintf("%s%020d", historyKeyPrefix, n)

	err = h.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("record history for job %s: %w", entry.JobID, err)
	}

	if err := h.prune(); err != nil {
		h.logger.Warn().Err(err).Msg("history prune failed")
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (h *History) Recent(limit int) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := h.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(historyKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek key past the prefix range.
		seek := append([]byte(historyKeyPrefix), 0xff)
		for it.Seek(seek); it.ValidForPrefix([]byte(historyKeyPrefix)); it.Next() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var entry HistoryEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// prune deletes the oldest entries beyond the cap.
func (h *History) prune() error {
	return h.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(historyKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		var keys [][]byte
		for it.Rewind(); it.ValidForPrefix([]byte(historyKeyPrefix)); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for i := 0; i < len(keys)-h.cap; i++ {
			if err := txn.Delete(keys[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
