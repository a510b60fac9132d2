// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package criteria

import (
	"github.com/jmlagace/telecaster/internal/media"
	"github.com/jmlagace/telecaster/internal/profile"
)

// typeEvaluator scores the item's kind against the block's preferred,
// allowed and excluded kind lists.
type typeEvaluator struct{}

func (typeEvaluator) Name() profile.CriterionName { return profile.CriterionType }

func (typeEvaluator) Evaluate(item *media.Item, ctx *Context) Outcome {
	c := ctx.Criteria
	out := Outcome{
		Values: []string{string(item.Kind)},
		Detail: map[string]any{"kind": string(item.Kind)},
	}

	if kindIn(item.Kind, c.PreferredKinds) {
		out.Score = 100
		return out
	}
	// An explicit allowed entry wins over an excluded entry for the same
	// kind; exclusion only applies when no allowed list names it.
	if kindIn(item.Kind, c.AllowedKinds) {
		out.Score = 75
		return out
	}
	if len(c.AllowedKinds) == 0 && !kindIn(item.Kind, c.ExcludedKinds) {
		out.Score = 75
		return out
	}
	out.Score = 0
	return out
}

func kindIn(k media.Kind, kinds []media.Kind) bool {
	for _, v := range kinds {
		if v == k {
			return true
		}
	}
	return false
}
