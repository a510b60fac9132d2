// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package criteria

import (
	"github.com/jmlagace/telecaster/internal/media"
	"github.com/jmlagace/telecaster/internal/profile"
)

// timingEvaluator scores how well an edge item respects its block boundary.
// Skipped for any item that is neither first nor last in its block
// occurrence, so interior items carry no timing contribution at all.
type timingEvaluator struct{}

func (timingEvaluator) Name() profile.CriterionName { return profile.CriterionTiming }

func (timingEvaluator) Evaluate(_ *media.Item, ctx *Context) Outcome {
	if !ctx.First && !ctx.Last {
		return Outcome{Skipped: true, Detail: map[string]any{"skipped": true}}
	}

	var offset float64
	edge := ""
	if ctx.First {
		late := ctx.Start.Sub(ctx.BlockStart).Minutes()
		if late > offset {
			offset = late
		}
		edge = "first"
	}
	if ctx.Last {
		overflow := ctx.End.Sub(ctx.BlockEnd).Minutes()
		if overflow > offset {
			offset = overflow
		}
		if edge == "first" {
			edge = "both"
		} else {
			edge = "last"
		}
	}
	if offset < 0 {
		offset = 0
	}

	t := ctx.Criteria.Timing
	return Outcome{
		Score: timingScore(offset, t),
		Detail: map[string]any{
			"offset_min": offset,
			"edge":       edge,
		},
	}
}

// timingScore is the piecewise-linear boundary score over thresholds
// P <= M <= F: 100 at offset 0, 85 at P, 50 at M, 5 at F, 0 beyond.
func timingScore(offset float64, t profile.TimingThresholds) float64 {
	p, m, f := t.PreferredMin, t.MandatoryMin, t.ForbiddenMin
	switch {
	case offset <= 0:
		return 100
	case offset <= p:
		return 100 - (offset/p)*15
	case offset <= m:
		return 85 - (offset-p)/(m-p)*35
	case offset <= f:
		return 50 - (offset-m)/(f-m)*45
	default:
		return 0
	}
}
