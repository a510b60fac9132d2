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

// ageEvaluator scores the item's certification severity against the block's
// allowed maximum. The maximum comes from max_age_level when configured,
// otherwise it is derived from the allowed_age_ratings list.
type ageEvaluator struct{}

func (ageEvaluator) Name() profile.CriterionName { return profile.CriterionAge }

func (ageEvaluator) Evaluate(item *media.Item, ctx *Context) Outcome {
	c := ctx.Criteria
	out := Outcome{
		Values: []string{item.AgeRating},
		Detail: map[string]any{"age_rating": item.AgeRating},
	}

	if item.AgeRating == "" {
		out.Score = 75
		out.Detail["no_metadata"] = true
		return out
	}

	level, known := match.AgeLevel(item.AgeRating)
	out.Detail["level"] = level
	if known {
		out.Detail["level_name"] = match.AgeLevelName(level)
	}

	maxLevel, restricted := effectiveMaxAgeLevel(c)
	if !restricted {
		out.Score = 80
		return out
	}
	if !known {
		// Unknown certification under a restriction: treat as unrated
		// metadata rather than a violation.
		out.Score = 75
		out.Detail["unknown_code"] = true
		return out
	}

	out.Detail["max_level"] = maxLevel
	switch {
	case level < maxLevel:
		out.Score = 100
	case level == maxLevel:
		out.Score = 90
	default:
		out.Score = 0
		out.Flags = append(out.Flags, FlagForbiddenDetected)
	}
	return out
}

func effectiveMaxAgeLevel(c *profile.BlockCriteria) (int, bool) {
	if c.MaxAgeLevel != nil {
		return *c.MaxAgeLevel, true
	}
	if len(c.AllowedAgeRatings) > 0 {
		if lvl, ok := match.MaxAgeLevel(c.AllowedAgeRatings); ok {
			return lvl, true
		}
	}
	return 0, false
}
