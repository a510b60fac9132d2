// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package criteria

import (
	"github.com/jmlagace/telecaster/internal/media"
	"github.com/jmlagace/telecaster/internal/profile"
)

// Rating thresholds used when the block configures none.
const (
	defaultMinRating       = 5.0
	defaultPreferredRating = 7.5
)

// ratingEvaluator scores the external rating against the block's minimum and
// preferred thresholds, with a confidence penalty for thin vote counts.
type ratingEvaluator struct{}

func (ratingEvaluator) Name() profile.CriterionName { return profile.CriterionRating }

func (ratingEvaluator) Evaluate(item *media.Item, ctx *Context) Outcome {
	c := ctx.Criteria
	out := Outcome{
		Detail: map[string]any{},
	}
	if cat := item.RatingCategory(); cat != "" {
		out.Values = []string{cat}
		out.Detail["category"] = cat
	}

	if item.Rating == nil {
		out.Score = 50
		out.Detail["no_metadata"] = true
		return out
	}
	r := *item.Rating
	out.Detail["rating"] = r

	m := defaultMinRating
	if c.MinRating != nil {
		m = *c.MinRating
	}
	p := defaultPreferredRating
	if c.PreferredRating != nil {
		p = *c.PreferredRating
	}

	var score float64
	switch {
	case r >= p:
		// p == 10 leaves no headroom above preferred; only a perfect
		// rating lands here and it scores 100.
		if p >= 10 {
			score = 100
		} else {
			score = clamp(70+(r-p)/(10-p)*30, 0, 100)
		}
	case r >= m:
		if p == m {
			score = 90
		} else {
			score = 50 + (r-m)/(p-m)*40
		}
	default:
		if m > 0 {
			score = r / m * 40
		}
	}

	if c.MinVoteCount > 0 && item.VoteCount < c.MinVoteCount {
		shortfall := float64(c.MinVoteCount-item.VoteCount) / float64(c.MinVoteCount)
		penalty := 30 * shortfall
		score -= penalty
		out.Detail["confidence_penalty"] = penalty
	}

	out.Score = clamp(score, 0, 100)
	return out
}
