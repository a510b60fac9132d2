// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

// Package generator builds playlists by iterative randomized construction:
// each iteration walks the horizon placing weighted-random candidates, the
// best-scoring iteration wins, and optional optimizer passes clean it up.
package generator

import (
	"fmt"
	"time"

	"github.com/jmlagace/telecaster/internal/media"
	"github.com/jmlagace/telecaster/internal/scoring"
)

// ScheduledItem is one placed item: the catalog item plus its timeline slot,
// assigned block occurrence, and computed score.
type ScheduledItem struct {
	Item      media.Item    `json:"item"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	BlockName string        `json:"block_name,omitempty"`
	Score     scoring.Score `json:"score"`

	// ReplacedTitle and ReplacedReason record an optimizer swap.
	ReplacedTitle  string `json:"replaced_title,omitempty"`
	ReplacedReason string `json:"replaced_reason,omitempty"`
}

// Playlist is a contiguous, chronologically ordered item sequence covering
// the horizon, with its aggregate metrics.
type Playlist struct {
	Items         []ScheduledItem `json:"items"`
	TotalScore    float64         `json:"total_score"`
	AverageScore  float64         `json:"average_score"`
	TotalDuration time.Duration   `json:"total_duration"`
	Iteration     int             `json:"iteration"`
}

// recomputeAggregates re-derives totals from item scores.
func (p *Playlist) recomputeAggregates() {
	p.TotalScore = 0
	p.TotalDuration = 0
	for i := range p.Items {
		p.TotalScore += p.Items[i].Score.Final
		p.TotalDuration += p.Items[i].Item.Duration()
	}
	if len(p.Items) > 0 {
		p.AverageScore = p.TotalScore / float64(len(p.Items))
	} else {
		p.AverageScore = 0
	}
}

// CheckContiguity verifies that every item starts exactly where the previous
// one ends. A violation is a programmer error surfaced as internal-invariant.
func (p *Playlist) CheckContiguity() error {
	for i := 1; i < len(p.Items); i++ {
		prev, cur := &p.Items[i-1], &p.Items[i]
		if !prev.End.Equal(cur.Start) {
			return fmt.Errorf("playlist not contiguous at index %d: %s ends %s, next starts %s",
				i, prev.Item.ID, prev.End.Format(time.RFC3339), cur.Start.Format(time.RFC3339))
		}
	}
	return nil
}
