// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package scoring

import (
	"fmt"

	"github.com/jmlagace/telecaster/internal/match"
	"github.com/jmlagace/telecaster/internal/media"
	"github.com/jmlagace/telecaster/internal/profile"
	"github.com/jmlagace/telecaster/internal/scoring/criteria"
)

// Title keyword multipliers. Exclude takes precedence over include.
const (
	excludeKeywordMultiplier = 0.5
	includeKeywordMultiplier = 1.1
)

// Engine scores items against one profile. It is stateless beyond the
// profile reference and safe for concurrent use.
type Engine struct {
	profile    *profile.Profile
	evaluators []criteria.Evaluator
	weights    profile.Weights
}

// NewEngine builds an engine over the profile's effective weights.
func NewEngine(p *profile.Profile) *Engine {
	return &Engine{
		profile:    p,
		evaluators: criteria.All(),
		weights:    p.EffectiveWeights(),
	}
}

// Score evaluates one item at one position and returns the full verdict.
func (e *Engine) Score(item *media.Item, ctx *criteria.Context) Score {
	policy := e.profile.EffectivePolicy(ctx.Criteria)

	score := Score{
		Breakdown:         make(map[profile.CriterionName]CriterionDetail, len(e.evaluators)),
		KeywordMultiplier: 1.0,
	}

	var numerator, denominator float64
	var aggMet, aggMissed, aggForbidden int

	for _, ev := range e.evaluators {
		name := ev.Name()
		out := ev.Evaluate(item, ctx)
		weight := e.weights.Get(name)
		multiplier := e.profile.EffectiveMultiplier(ctx.Criteria, name)

		detail := CriterionDetail{
			Weight:     weight,
			Multiplier: multiplier,
			Detail:     out.Detail,
		}

		if out.Skipped {
			detail.Skipped = true
			score.Breakdown[name] = detail
			continue
		}

		rules := ctx.Criteria.EffectiveRules(name)
		flags := applyRules(name, &out, rules)

		adjusted := out.Score
		for _, flag := range flags {
			v := adjustmentFor(flag, rules, policy)
			adjusted += v
			detail.Adjustments = append(detail.Adjustments, RuleAdjustment{Flag: flag, Value: v})

			switch flag {
			case criteria.FlagMandatoryMet:
				aggMet++
				score.MandatoryMet = true
			case criteria.FlagMandatoryMissed:
				aggMissed++
				score.Violations = append(score.Violations, fmt.Sprintf("%s:mandatory_missed", name))
			case criteria.FlagForbiddenDetected:
				aggForbidden++
				score.ForbiddenViolated = true
				score.Violations = append(score.Violations, fmt.Sprintf("%s:forbidden", name))
			}
		}

		detail.Base = out.Score
		detail.Adjusted = clampScore(adjusted)
		detail.Flags = flags
		score.Breakdown[name] = detail

		numerator += detail.Adjusted * weight * multiplier
		denominator += weight * multiplier
	}

	avg := 0.0
	if denominator > 0 {
		avg = numerator / denominator
	}
	score.Average = avg

	final := avg
	if aggMet > 0 {
		v := policy.MandatoryMatchedBonus * float64(aggMet)
		final += v
		score.Bonuses = append(score.Bonuses, fmt.Sprintf("mandatory_matched(%+.1f)", v))
	}
	if aggMissed > 0 {
		v := policy.MandatoryMissedPenalty * float64(aggMissed)
		final += v
		score.Penalties = append(score.Penalties, fmt.Sprintf("mandatory_missed(%+.1f)", v))
	}
	if aggForbidden > 0 {
		v := policy.ForbiddenDetectedPenalty * float64(aggForbidden)
		final += v
		score.Penalties = append(score.Penalties, fmt.Sprintf("forbidden_detected(%+.1f)", v))
	}

	// Title keyword multiplier, applied before the final clamp and the hard
	// forbidden clamp. Exclude wins over include.
	switch {
	case match.ContainsAny(item.Title, e.profile.ExcludeKeywords):
		score.KeywordMultiplier = excludeKeywordMultiplier
	case match.ContainsAny(item.Title, e.profile.IncludeKeywords):
		score.KeywordMultiplier = includeKeywordMultiplier
	}
	final *= score.KeywordMultiplier

	final = clampScore(final)
	if score.ForbiddenViolated && e.profile.HardForbidEnabled() {
		final = 0
	}
	score.Final = final
	return score
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
