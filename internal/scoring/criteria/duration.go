// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package criteria

import (
	"github.com/jmlagace/telecaster/internal/media"
	"github.com/jmlagace/telecaster/internal/profile"
)

const durationNeutral = 75

// durationEvaluator scores runtime fit against the block's minute bounds.
// Rule membership uses duration categories, not raw minutes.
type durationEvaluator struct{}

func (durationEvaluator) Name() profile.CriterionName { return profile.CriterionDuration }

func (durationEvaluator) Evaluate(item *media.Item, ctx *Context) Outcome {
	c := ctx.Criteria
	d := item.DurationMinutes()
	out := Outcome{
		Values: []string{item.DurationCategory()},
		Detail: map[string]any{
			"minutes":  d,
			"category": item.DurationCategory(),
		},
	}

	lo, hi := c.MinDurationMin, c.MaxDurationMin
	switch {
	case lo == 0 && hi == 0:
		out.Score = durationNeutral
	case d < lo:
		out.Score = d / lo * 50
	case hi > 0 && d > hi:
		out.Score = 100 - clamp((d-hi)/hi, 0, 1)*50
	case hi == 0:
		// Only a lower bound is configured and the item clears it.
		out.Score = 100
	default:
		// In range: linear 70 at the edges, 100 at the midpoint.
		mid := (lo + hi) / 2
		half := (hi - lo) / 2
		if half == 0 {
			out.Score = 100
		} else {
			dist := d - mid
			if dist < 0 {
				dist = -dist
			}
			out.Score = 100 - dist/half*30
		}
	}
	return out
}
