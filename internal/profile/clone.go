// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package profile

import "github.com/jmlagace/telecaster/internal/media"

// Clone returns a deep copy of the profile. Jobs clone the profile at start
// so external edits never affect a running generation.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.Libraries = cloneStrings(p.Libraries)
	out.ExcludeKeywords = cloneStrings(p.ExcludeKeywords)
	out.IncludeKeywords = cloneStrings(p.IncludeKeywords)
	out.Multipliers = cloneMultipliers(p.Multipliers)
	out.Defaults = cloneCriteria(p.Defaults)
	if p.HardForbid != nil {
		v := *p.HardForbid
		out.HardForbid = &v
	}
	out.Blocks = make([]TimeBlock, len(p.Blocks))
	for i := range p.Blocks {
		out.Blocks[i] = p.Blocks[i]
		out.Blocks[i].Criteria = cloneCriteria(p.Blocks[i].Criteria)
	}
	return &out
}

func cloneCriteria(c BlockCriteria) BlockCriteria {
	out := c
	out.PreferredKinds = cloneKinds(c.PreferredKinds)
	out.AllowedKinds = cloneKinds(c.AllowedKinds)
	out.ExcludedKinds = cloneKinds(c.ExcludedKinds)
	out.PreferredGenres = cloneStrings(c.PreferredGenres)
	out.AllowedGenres = cloneStrings(c.AllowedGenres)
	out.ForbiddenGenres = cloneStrings(c.ForbiddenGenres)
	out.AllowedAgeRatings = cloneStrings(c.AllowedAgeRatings)
	out.IncludeKeywords = cloneStrings(c.IncludeKeywords)
	out.ExcludeKeywords = cloneStrings(c.ExcludeKeywords)
	out.PreferredStudios = cloneStrings(c.PreferredStudios)
	out.ForbiddenStudios = cloneStrings(c.ForbiddenStudios)
	out.Multipliers = cloneMultipliers(c.Multipliers)
	if c.MaxAgeLevel != nil {
		v := *c.MaxAgeLevel
		out.MaxAgeLevel = &v
	}
	if c.MinRating != nil {
		v := *c.MinRating
		out.MinRating = &v
	}
	if c.PreferredRating != nil {
		v := *c.PreferredRating
		out.PreferredRating = &v
	}
	if c.Policy != nil {
		v := *c.Policy
		out.Policy = &v
	}
	if c.Rules != nil {
		out.Rules = make(CriterionRules, len(c.Rules))
		for name, rs := range c.Rules {
			out.Rules[name] = cloneRuleSet(rs)
		}
	}
	return out
}

func cloneRuleSet(r *RuleSet) *RuleSet {
	if r == nil {
		return nil
	}
	out := &RuleSet{
		Mandatory: cloneStrings(r.Mandatory),
		Forbidden: cloneStrings(r.Forbidden),
		Preferred: cloneStrings(r.Preferred),
	}
	out.MandatoryBonus = cloneFloatPtr(r.MandatoryBonus)
	out.MandatoryPenalty = cloneFloatPtr(r.MandatoryPenalty)
	out.ForbiddenPenalty = cloneFloatPtr(r.ForbiddenPenalty)
	out.PreferredBonus = cloneFloatPtr(r.PreferredBonus)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneKinds(in []media.Kind) []media.Kind {
	if in == nil {
		return nil
	}
	out := make([]media.Kind, len(in))
	copy(out, in)
	return out
}

func cloneMultipliers(in Multipliers) Multipliers {
	if in == nil {
		return nil
	}
	out := make(Multipliers, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneFloatPtr(in *float64) *float64 {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
