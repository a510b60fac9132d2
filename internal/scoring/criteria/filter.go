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

// filterEvaluator scores metadata keyword and studio matches. Exclude
// keywords here act on enrichment keyword metadata, not titles; the title
// keyword multiplier is a separate engine step.
type filterEvaluator struct{}

func (filterEvaluator) Name() profile.CriterionName { return profile.CriterionFilter }

func (filterEvaluator) Evaluate(item *media.Item, ctx *Context) Outcome {
	c := ctx.Criteria
	out := Outcome{
		Values: append(append([]string{}, item.Keywords...), item.Studios...),
		Detail: map[string]any{},
	}

	if match.Overlap(item.Keywords, c.ExcludeKeywords) > 0 ||
		match.Overlap(item.Studios, c.ForbiddenStudios) > 0 {
		out.Score = 0
		out.Flags = append(out.Flags, FlagForbiddenDetected)
		out.Detail["forbidden_match"] = true
		return out
	}

	score := 50.0
	if len(item.Keywords) > 0 || len(item.Studios) > 0 {
		score = 75
	} else {
		out.Detail["no_metadata"] = true
	}

	if n := match.Overlap(item.Keywords, c.IncludeKeywords); n > 0 {
		bonus := clamp(float64(n)*5, 0, 15)
		score += bonus
		out.Detail["keyword_bonus"] = bonus
	}
	if n := match.Overlap(item.Studios, c.PreferredStudios); n > 0 {
		bonus := clamp(float64(n)*5, 0, 10)
		score += bonus
		out.Detail["studio_bonus"] = bonus
	}

	out.Score = clamp(score, 0, 100)
	return out
}
