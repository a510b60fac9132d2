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

// genreEvaluator scores genre overlap with the block's preferred genres and
// raises forbidden-detected on any forbidden-genre match. The forbidden
// match leaves the base untouched; the engine clamps.
type genreEvaluator struct{}

func (genreEvaluator) Name() profile.CriterionName { return profile.CriterionGenre }

func (genreEvaluator) Evaluate(item *media.Item, ctx *Context) Outcome {
	c := ctx.Criteria
	out := Outcome{
		Values: item.Genres,
		Detail: map[string]any{"genres": item.Genres},
	}

	if len(item.Genres) == 0 {
		out.Score = 50
		out.Detail["no_metadata"] = true
		return out
	}

	if match.Overlap(item.Genres, c.ForbiddenGenres) > 0 {
		out.Flags = append(out.Flags, FlagForbiddenDetected)
	}

	if len(c.PreferredGenres) == 0 {
		out.Score = 70
		return out
	}

	overlap := match.Overlap(item.Genres, c.PreferredGenres)
	out.Detail["preferred_overlap"] = overlap
	if overlap == 0 {
		out.Score = 65
		return out
	}
	// 75 baseline for a preferred match, up to +25 as overlap grows.
	n := float64(overlap)
	if n > 3 {
		n = 3
	}
	out.Score = clamp(75+25*(n/3), 0, 100)
	return out
}
