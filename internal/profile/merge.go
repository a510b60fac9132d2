// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package profile

// EffectiveCriteria merges the profile-level default criteria with a block's
// overrides. Block fields win when set; list fields replace rather than
// append, mirroring how overrides behave everywhere else in the profile.
// Computed once at job start; nil block yields the defaults (uncovered time
// carries no block-specific criteria beyond them).
func (p *Profile) EffectiveCriteria(block *TimeBlock) BlockCriteria {
	eff := p.Defaults
	if block == nil {
		if eff.Timing.IsZero() {
			eff.Timing = DefaultTimingThresholds()
		}
		return eff
	}

	o := block.Criteria
	if len(o.PreferredKinds) > 0 {
		eff.PreferredKinds = o.PreferredKinds
	}
	if len(o.AllowedKinds) > 0 {
		eff.AllowedKinds = o.AllowedKinds
	}
	if len(o.ExcludedKinds) > 0 {
		eff.ExcludedKinds = o.ExcludedKinds
	}
	if len(o.PreferredGenres) > 0 {
		eff.PreferredGenres = o.PreferredGenres
	}
	if len(o.AllowedGenres) > 0 {
		eff.AllowedGenres = o.AllowedGenres
	}
	if len(o.ForbiddenGenres) > 0 {
		eff.ForbiddenGenres = o.ForbiddenGenres
	}
	if o.MinDurationMin > 0 {
		eff.MinDurationMin = o.MinDurationMin
	}
	if o.MaxDurationMin > 0 {
		eff.MaxDurationMin = o.MaxDurationMin
	}
	if o.MaxAgeLevel != nil {
		eff.MaxAgeLevel = o.MaxAgeLevel
	}
	if len(o.AllowedAgeRatings) > 0 {
		eff.AllowedAgeRatings = o.AllowedAgeRatings
	}
	if o.MinRating != nil {
		eff.MinRating = o.MinRating
	}
	if o.PreferredRating != nil {
		eff.PreferredRating = o.PreferredRating
	}
	if o.MinVoteCount > 0 {
		eff.MinVoteCount = o.MinVoteCount
	}
	if len(o.IncludeKeywords) > 0 {
		eff.IncludeKeywords = o.IncludeKeywords
	}
	if len(o.ExcludeKeywords) > 0 {
		eff.ExcludeKeywords = o.ExcludeKeywords
	}
	if len(o.PreferredStudios) > 0 {
		eff.PreferredStudios = o.PreferredStudios
	}
	if len(o.ForbiddenStudios) > 0 {
		eff.ForbiddenStudios = o.ForbiddenStudios
	}
	if !o.Timing.IsZero() {
		eff.Timing = o.Timing
	}
	if o.Strategy != (StrategyFlags{}) {
		eff.Strategy = o.Strategy
	}
	if len(o.Rules) > 0 {
		merged := make(CriterionRules, len(eff.Rules)+len(o.Rules))
		for name, rs := range eff.Rules {
			merged[name] = rs
		}
		for name, rs := range o.Rules {
			merged[name] = rs
		}
		eff.Rules = merged
	}
	if o.Policy != nil {
		eff.Policy = o.Policy
	}
	if len(o.Multipliers) > 0 {
		eff.Multipliers = o.Multipliers
	}

	if eff.Timing.IsZero() {
		eff.Timing = DefaultTimingThresholds()
	}
	return eff
}

// EffectivePolicy resolves the rule policy for a set of effective criteria:
// block policy, then profile policy, then the built-in defaults.
func (p *Profile) EffectivePolicy(criteria *BlockCriteria) RulePolicy {
	if criteria != nil && criteria.Policy != nil {
		return *criteria.Policy
	}
	if p.Policy != (RulePolicy{}) {
		return p.Policy
	}
	return DefaultRulePolicy()
}

// EffectiveMultiplier resolves a criterion's multiplier: block override,
// then profile-level, then 1.0.
func (p *Profile) EffectiveMultiplier(criteria *BlockCriteria, name CriterionName) float64 {
	if criteria != nil && criteria.Multipliers != nil {
		if v, ok := criteria.Multipliers[name]; ok {
			return v
		}
	}
	return p.Multipliers.Get(name)
}

// EffectiveRules resolves the rule set for a criterion within effective
// criteria. Block rules were already merged over profile defaults by
// EffectiveCriteria; this accessor only hides the nil map.
func (c *BlockCriteria) EffectiveRules(name CriterionName) *RuleSet {
	if c == nil || c.Rules == nil {
		return nil
	}
	return c.Rules[name]
}

// EffectiveWeights returns the profile weights, falling back to the default
// set when none are configured.
func (p *Profile) EffectiveWeights() Weights {
	if p.Weights.IsZero() {
		return DefaultWeights()
	}
	return p.Weights
}
