// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

// Package timeblock maps wall-clock instants to the profile's named time
// blocks across a multi-day horizon, including blocks that cross midnight.
// The resolver is pure given the block list; the same instant always maps to
// the same occurrence.
package timeblock

import (
	"fmt"
	"sort"
	"time"

	"github.com/jmlagace/telecaster/internal/profile"
)

const day = 24 * time.Hour

// UnblockedName is the name of the synthetic block returned for instants no
// configured block covers.
const UnblockedName = "unblocked"

// Occurrence is one concrete appearance of a block on the timeline: the
// block (nil for synthetic occurrences) plus the exact start and end
// instants of this appearance, with day arithmetic already applied.
type Occurrence struct {
	Name      string
	Start     time.Time
	End       time.Time
	Block     *profile.TimeBlock
	Synthetic bool
}

// Key identifies this occurrence on the timeline. Two items share a Key iff
// they fall in the same appearance of the same block.
func (o Occurrence) Key() string {
	return fmt.Sprintf("%s@%d", o.Name, o.Start.Unix())
}

type resolvedBlock struct {
	block         *profile.TimeBlock
	startMin      int
	endMin        int
	spansMidnight bool
}

// Resolver maps instants to block occurrences.
type Resolver struct {
	blocks []resolvedBlock
}

// NewResolver builds a Resolver over the profile's blocks, sorted by
// start time of day.
func NewResolver(blocks []profile.TimeBlock) (*Resolver, error) {
	resolved := make([]resolvedBlock, 0, len(blocks))
	for i := range blocks {
		b := &blocks[i]
		startMin, err := profile.ParseClock(b.Start)
		if err != nil {
			return nil, fmt.Errorf("block %q: %w", b.Name, err)
		}
		endMin, err := profile.ParseClock(b.End)
		if err != nil {
			return nil, fmt.Errorf("block %q: %w", b.Name, err)
		}
		resolved = append(resolved, resolvedBlock{
			block:         b,
			startMin:      startMin,
			endMin:        endMin,
			spansMidnight: endMin <= startMin,
		})
	}
	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].startMin < resolved[j].startMin
	})
	return &Resolver{blocks: resolved}, nil
}

// Resolve returns the occurrence covering instant. When no configured block
// covers it, a synthetic unblocked occurrence spanning to the next block
// boundary is returned.
func (r *Resolver) Resolve(instant time.Time) Occurrence {
	midnight := dayStart(instant)

	for i := range r.blocks {
		b := &r.blocks[i]
		start := midnight.Add(time.Duration(b.startMin) * time.Minute)

		if !b.spansMidnight {
			end := midnight.Add(time.Duration(b.endMin) * time.Minute)
			if !instant.Before(start) && instant.Before(end) {
				return Occurrence{Name: b.block.Name, Start: start, End: end, Block: b.block}
			}
			continue
		}

		// Overnight: today's occurrence ends tomorrow.
		end := midnight.Add(day).Add(time.Duration(b.endMin) * time.Minute)
		if !instant.Before(start) && instant.Before(end) {
			return Occurrence{Name: b.block.Name, Start: start, End: end, Block: b.block}
		}

		// Wrap from the previous day: the occurrence that started yesterday
		// still covers the early hours of today.
		prevStart := start.Add(-day)
		prevEnd := midnight.Add(time.Duration(b.endMin) * time.Minute)
		if !instant.Before(prevStart) && instant.Before(prevEnd) {
			return Occurrence{Name: b.block.Name, Start: prevStart, End: prevEnd, Block: b.block}
		}
	}

	return r.unblocked(instant, midnight)
}

// unblocked builds the synthetic occurrence for uncovered time: from the
// latest covered boundary at or before instant to the next one after it.
func (r *Resolver) unblocked(instant, midnight time.Time) Occurrence {
	start := midnight
	end := midnight.Add(day)

	for i := range r.blocks {
		b := &r.blocks[i]
		for dayOffset := -1; dayOffset <= 1; dayOffset++ {
			base := midnight.Add(time.Duration(dayOffset) * day)
			bStart := base.Add(time.Duration(b.startMin) * time.Minute)
			bEnd := base.Add(time.Duration(b.endMin) * time.Minute)
			if b.spansMidnight {
				bEnd = bEnd.Add(day)
			}
			// A block end at or before the instant bounds the gap start.
			if !bEnd.After(instant) && bEnd.After(start) {
				start = bEnd
			}
			// A block start after the instant bounds the gap end.
			if bStart.After(instant) && bStart.Before(end) {
				end = bStart
			}
		}
	}

	return Occurrence{Name: UnblockedName, Start: start, End: end, Synthetic: true}
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
