// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

// Package scoring aggregates the nine criterion outcomes into a final item
// score: rule bonuses and penalties, weighted averaging, policy adjustments,
// the title keyword multiplier, and the hard forbidden clamp. Scoring is
// fully deterministic; all randomness lives in the generator.
package scoring

import (
	"github.com/jmlagace/telecaster/internal/profile"
	"github.com/jmlagace/telecaster/internal/scoring/criteria"
)

// RuleAdjustment records one bonus or penalty applied to a criterion's base
// score.
type RuleAdjustment struct {
	Flag  criteria.Flag `json:"flag"`
	Value float64       `json:"value"`
}

// CriterionDetail is the full per-criterion record in a score breakdown.
type CriterionDetail struct {
	// Base is the evaluator's raw score before rule adjustments.
	Base float64 `json:"base"`

	// Adjusted is the post-rule, clamped score entering the weighted sum.
	Adjusted float64 `json:"adjusted"`

	// Weight and Multiplier are the values used in the weighted sum.
	Weight     float64 `json:"weight"`
	Multiplier float64 `json:"multiplier"`

	// Skipped marks criteria excluded from numerator and denominator.
	Skipped bool `json:"skipped,omitempty"`

	Adjustments []RuleAdjustment `json:"adjustments,omitempty"`
	Flags       []criteria.Flag  `json:"flags,omitempty"`
	Detail      map[string]any   `json:"detail,omitempty"`
}

// Score is the final scoring verdict for one item at one position.
type Score struct {
	// Final is the clamped final score in [0, 100].
	Final float64 `json:"final"`

	// Average is the weighted criterion average before policy adjustments
	// and the keyword multiplier.
	Average float64 `json:"average"`

	// Breakdown maps criterion names to their full detail.
	Breakdown map[profile.CriterionName]CriterionDetail `json:"breakdown"`

	// Bonuses and Penalties list the applied aggregate adjustments.
	Bonuses   []string `json:"bonuses,omitempty"`
	Penalties []string `json:"penalties,omitempty"`

	// Violations lists criteria that raised forbidden or mandatory-missed
	// flags, as "criterion:flag" strings.
	Violations []string `json:"violations,omitempty"`

	MandatoryMet      bool `json:"mandatory_met"`
	ForbiddenViolated bool `json:"forbidden_violated"`

	// KeywordMultiplier is the title multiplier applied (1.0 when none).
	KeywordMultiplier float64 `json:"keyword_multiplier"`
}

// SubScore returns a criterion's adjusted sub-score and whether it was
// skipped.
func (s *Score) SubScore(name profile.CriterionName) (float64, bool) {
	d, ok := s.Breakdown[name]
	if !ok || d.Skipped {
		return 0, false
	}
	return d.Adjusted, true
}
