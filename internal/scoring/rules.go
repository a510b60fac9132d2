// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package scoring

import (
	"github.com/jmlagace/telecaster/internal/match"
	"github.com/jmlagace/telecaster/internal/profile"
	"github.com/jmlagace/telecaster/internal/scoring/criteria"
)

// applyRules runs the shared membership rule tests for one criterion and
// resolves the flag set. Evaluator-raised flags are kept; membership flags
// from the effective rule set are added. Forbidden-detected dominates: when
// it is present, mandatory-met and preferred-matched are suppressed.
func applyRules(name profile.CriterionName, out *criteria.Outcome, rules *profile.RuleSet) []criteria.Flag {
	flags := append([]criteria.Flag(nil), out.Flags...)

	if !rules.Empty() {
		if len(rules.Mandatory) > 0 {
			if memberAny(name, out.Values, rules.Mandatory) {
				flags = append(flags, criteria.FlagMandatoryMet)
			} else {
				flags = append(flags, criteria.FlagMandatoryMissed)
			}
		}
		if memberAny(name, out.Values, rules.Forbidden) {
			flags = append(flags, criteria.FlagForbiddenDetected)
		}
		if memberAny(name, out.Values, rules.Preferred) {
			flags = append(flags, criteria.FlagPreferredMatched)
		}
	}

	if hasFlag(flags, criteria.FlagForbiddenDetected) {
		kept := flags[:0]
		for _, f := range flags {
			if f != criteria.FlagMandatoryMet && f != criteria.FlagPreferredMatched {
				kept = append(kept, f)
			}
		}
		flags = dedupFlags(kept)
	} else {
		flags = dedupFlags(flags)
	}
	return flags
}

// memberAny tests membership of any item value in a rule list. Age-rating
// values compare by certification equivalence level, everything else by
// normalized string equality.
func memberAny(name profile.CriterionName, values, rule []string) bool {
	if len(values) == 0 || len(rule) == 0 {
		return false
	}
	if name == profile.CriterionAge {
		for _, v := range values {
			for _, r := range rule {
				if match.AgeEquivalent(v, r) {
					return true
				}
			}
		}
		return false
	}
	return match.AnyMember(values, rule)
}

// adjustmentFor resolves the bonus/penalty for a flag: the rule set's
// per-criterion override when present, otherwise the policy value.
func adjustmentFor(flag criteria.Flag, rules *profile.RuleSet, policy profile.RulePolicy) float64 {
	switch flag {
	case criteria.FlagMandatoryMet:
		if rules != nil && rules.MandatoryBonus != nil {
			return *rules.MandatoryBonus
		}
		return policy.MandatoryMatchedBonus
	case criteria.FlagMandatoryMissed:
		if rules != nil && rules.MandatoryPenalty != nil {
			return *rules.MandatoryPenalty
		}
		return policy.MandatoryMissedPenalty
	case criteria.FlagForbiddenDetected:
		if rules != nil && rules.ForbiddenPenalty != nil {
			return *rules.ForbiddenPenalty
		}
		return policy.ForbiddenDetectedPenalty
	case criteria.FlagPreferredMatched:
		if rules != nil && rules.PreferredBonus != nil {
			return *rules.PreferredBonus
		}
		return policy.PreferredMatchedBonus
	default:
		return 0
	}
}

func hasFlag(flags []criteria.Flag, want criteria.Flag) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

func dedupFlags(flags []criteria.Flag) []criteria.Flag {
	if len(flags) < 2 {
		return flags
	}
	seen := make(map[criteria.Flag]struct{}, len(flags))
	out := flags[:0]
	for _, f := range flags {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
