// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package criteria

import (
	"github.com/jmlagace/telecaster/internal/match"
	"github.com/jmlagace/telecaster/internal/media"
	"github.com/jmlagace/telecaster/internal/profile"
)

// strategyEvaluator applies the positional strategy toggles from a baseline
// of 100.
type strategyEvaluator struct{}

func (strategyEvaluator) Name() profile.CriterionName { return profile.CriterionStrategy }

func (strategyEvaluator) Evaluate(item *media.Item, ctx *Context) Outcome {
	s := ctx.Criteria.Strategy
	score := 100.0
	var applied []string

	if s.MaintainSequence && item.Kind == media.KindMovie {
		score -= 5
		applied = append(applied, "maintain_sequence")
	}
	if s.MaximizeVariety && introducesNewGenre(item.Genres, ctx.RecentGenres) {
		score += 5
		applied = append(applied, "maximize_variety")
	}
	if s.MarathonMode && item.Collection != "" && ctx.CollectionCounts[match.Normalize(item.Collection)] > 0 {
		score += 10
		applied = append(applied, "marathon_mode")
	}
	if s.FillerInsertion && item.Kind == media.KindFiller {
		score += 5
		applied = append(applied, "filler_insertion")
	}

	return Outcome{
		Score:  clamp(score, 0, 100),
		Detail: map[string]any{"adjustments": applied},
	}
}

// introducesNewGenre reports whether any of the item's genres is absent from
// the recent genre sets.
func introducesNewGenre(genres []string, recent [][]string) bool {
	if len(genres) == 0 {
		return false
	}
	seen := make(map[string]struct{})
	for _, set := range recent {
		for _, g := range set {
			seen[match.Normalize(g)] = struct{}{}
		}
	}
	for _, g := range genres {
		if _, ok := seen[match.Normalize(g)]; !ok {
			return true
		}
	}
	return false
}
