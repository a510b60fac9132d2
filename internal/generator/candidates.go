// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package generator

import (
	"time"

	"github.com/jmlagace/telecaster/internal/match"
	"github.com/jmlagace/telecaster/internal/media"
	"github.com/jmlagace/telecaster/internal/profile"
)

// Relaxation rungs, tried in order when filtering yields no candidates.
const (
	rungStrict = iota
	rungDropOverflow
	rungDropPreferred
	rungDropAllowed
	rungAnyNonForbidden
)

type candidateFilter struct {
	criteria *profile.BlockCriteria
	blockEnd time.Time
	recent   map[string]struct{}
}

// filterCandidates applies the hard constraints at the given relaxation
// rung. Forbidden constraints are never relaxed.
func (f *candidateFilter) filter(items []media.Item, cursor time.Time, rung int) []media.Item {
	c := f.criteria
	out := make([]media.Item, 0, len(items))

	for i := range items {
		item := &items[i]

		if forbidden(item, c) {
			continue
		}
		if rung < rungAnyNonForbidden {
			if _, reused := f.recent[item.ID]; reused {
				continue
			}
		}
		if rung >= rungDropAllowed {
			out = append(out, *item)
			continue
		}

		if kindIn(item.Kind, c.ExcludedKinds) {
			continue
		}
		if len(c.AllowedKinds) > 0 && !kindIn(item.Kind, c.AllowedKinds) && !kindIn(item.Kind, c.PreferredKinds) {
			continue
		}
		if len(c.AllowedGenres) > 0 && len(item.Genres) > 0 &&
			!match.AnyMember(item.Genres, c.AllowedGenres) && !match.AnyMember(item.Genres, c.PreferredGenres) {
			continue
		}

		if rung < rungDropPreferred && !preferredMatch(item, c) {
			continue
		}
		if rung < rungDropOverflow && f.overflows(item, cursor) {
			continue
		}
		out = append(out, *item)
	}
	return out
}

// forbidden reports a hard forbidden violation: genre, studio, or metadata
// keyword.
func forbidden(item *media.Item, c *profile.BlockCriteria) bool {
	return match.AnyMember(item.Genres, c.ForbiddenGenres) ||
		match.AnyMember(item.Studios, c.ForbiddenStudios) ||
		match.AnyMember(item.Keywords, c.ExcludeKeywords)
}

// preferredMatch reports whether the item matches the configured preferred
// kind or genre sets. With no preferences configured everything matches.
func preferredMatch(item *media.Item, c *profile.BlockCriteria) bool {
	if len(c.PreferredKinds) == 0 && len(c.PreferredGenres) == 0 {
		return true
	}
	if len(c.PreferredKinds) > 0 && kindIn(item.Kind, c.PreferredKinds) {
		return true
	}
	if len(c.PreferredGenres) > 0 && match.AnyMember(item.Genres, c.PreferredGenres) {
		return true
	}
	return false
}

// overflows reports whether placing the item at cursor would run past the
// block end by more than the forbidden timing threshold.
func (f *candidateFilter) overflows(item *media.Item, cursor time.Time) bool {
	end := cursor.Add(item.Duration())
	overflow := end.Sub(f.blockEnd).Minutes()
	return overflow > f.criteria.Timing.ForbiddenMin
}

func kindIn(k media.Kind, kinds []media.Kind) bool {
	for _, v := range kinds {
		if v == k {
			return true
		}
	}
	return false
}
