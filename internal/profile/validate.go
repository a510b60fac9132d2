// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package profile

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the profile for structural and semantic errors. It is run
// on load and again at job submission; an invalid profile never reaches a
// running job.
func (p *Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("profile %s: %w", p.ID, err)
	}

	if p.SchemaVersion > SchemaVersion {
		return fmt.Errorf("profile %s: schema version %d newer than supported %d",
			p.ID, p.SchemaVersion, SchemaVersion)
	}
	if p.DefaultIterations < 0 {
		return fmt.Errorf("profile %s: default_iterations must be >= 0", p.ID)
	}

	seen := make(map[string]struct{}, len(p.Blocks))
	for i := range p.Blocks {
		b := &p.Blocks[i]
		if _, dup := seen[b.Name]; dup {
			return fmt.Errorf("profile %s: duplicate block name %q", p.ID, b.Name)
		}
		seen[b.Name] = struct{}{}

		if _, err := ParseClock(b.Start); err != nil {
			return fmt.Errorf("profile %s block %q: %w", p.ID, b.Name, err)
		}
		if _, err := ParseClock(b.End); err != nil {
			return fmt.Errorf("profile %s block %q: %w", p.ID, b.Name, err)
		}
		if err := validateCriteria(&b.Criteria); err != nil {
			return fmt.Errorf("profile %s block %q: %w", p.ID, b.Name, err)
		}
	}

	if err := validateCriteria(&p.Defaults); err != nil {
		return fmt.Errorf("profile %s defaults: %w", p.ID, err)
	}
	return nil
}

func validateCriteria(c *BlockCriteria) error {
	if c.MinDurationMin < 0 || c.MaxDurationMin < 0 {
		return fmt.Errorf("duration bounds must be non-negative")
	}
	if c.MinDurationMin > 0 && c.MaxDurationMin > 0 && c.MinDurationMin > c.MaxDurationMin {
		return fmt.Errorf("min_duration_min %.1f exceeds max_duration_min %.1f",
			c.MinDurationMin, c.MaxDurationMin)
	}
	if c.MaxAgeLevel != nil && (*c.MaxAgeLevel < 0 || *c.MaxAgeLevel > 4) {
		return fmt.Errorf("max_age_level %d out of range 0-4", *c.MaxAgeLevel)
	}
	if c.MinRating != nil && (*c.MinRating < 0 || *c.MinRating > 10) {
		return fmt.Errorf("min_rating %.1f out of range 0-10", *c.MinRating)
	}
	if c.PreferredRating != nil && (*c.PreferredRating < 0 || *c.PreferredRating > 10) {
		return fmt.Errorf("preferred_rating %.1f out of range 0-10", *c.PreferredRating)
	}
	if c.MinRating != nil && c.PreferredRating != nil && *c.MinRating > *c.PreferredRating {
		return fmt.Errorf("min_rating %.1f exceeds preferred_rating %.1f",
			*c.MinRating, *c.PreferredRating)
	}

	t := c.Timing
	if t.PreferredMin < 0 || t.MandatoryMin < 0 || t.ForbiddenMin < 0 {
		return fmt.Errorf("timing thresholds must be non-negative")
	}
	if !t.IsZero() && (t.PreferredMin > t.MandatoryMin || t.MandatoryMin > t.ForbiddenMin) {
		return fmt.Errorf("timing thresholds must satisfy preferred <= mandatory <= forbidden")
	}

	for name := range c.Rules {
		if !knownCriterion(name) {
			return fmt.Errorf("unknown criterion %q in rules", name)
		}
	}
	for name := range c.Multipliers {
		if !knownCriterion(name) {
			return fmt.Errorf("unknown criterion %q in multipliers", name)
		}
		if c.Multipliers[name] < 0 {
			return fmt.Errorf("multiplier for %q must be non-negative", name)
		}
	}
	return nil
}

func knownCriterion(name CriterionName) bool {
	for _, n := range CriterionNames {
		if n == name {
			return true
		}
	}
	return false
}
