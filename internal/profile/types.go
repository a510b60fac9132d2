// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package profile

import (
	"fmt"

	"github.com/jmlagace/telecaster/internal/media"
)

// CriterionName identifies one of the nine scoring criteria.
type CriterionName string

// The nine criteria.
const (
	CriterionType     CriterionName = "type"
	CriterionDuration CriterionName = "duration"
	CriterionGenre    CriterionName = "genre"
	CriterionTiming   CriterionName = "timing"
	CriterionStrategy CriterionName = "strategy"
	CriterionAge      CriterionName = "age"
	CriterionRating   CriterionName = "rating"
	CriterionFilter   CriterionName = "filter"
	CriterionBonus    CriterionName = "bonus"
)

// CriterionNames lists all criteria in canonical order. Iteration over
// criteria always uses this slice so breakdown serialization is stable.
var CriterionNames = []CriterionName{
	CriterionType, CriterionDuration, CriterionGenre, CriterionTiming,
	CriterionStrategy, CriterionAge, CriterionRating, CriterionFilter,
	CriterionBonus,
}

// RuleSet attaches mandatory/forbidden/preferred membership rules to a
// criterion. The optional bonus/penalty fields override the rule policy for
// this criterion only.
type RuleSet struct {
	Mandatory []string `json:"mandatory,omitempty"`
	Forbidden []string `json:"forbidden,omitempty"`
	Preferred []string `json:"preferred,omitempty"`

	// Per-criterion overrides of the rule policy. Nil means use the policy
	// value.
	MandatoryBonus   *float64 `json:"mandatory_bonus,omitempty"`
	MandatoryPenalty *float64 `json:"mandatory_penalty,omitempty"`
	ForbiddenPenalty *float64 `json:"forbidden_penalty,omitempty"`
	PreferredBonus   *float64 `json:"preferred_bonus,omitempty"`
}

// Empty reports whether the rule set has no membership rules.
func (r *RuleSet) Empty() bool {
	return r == nil || (len(r.Mandatory) == 0 && len(r.Forbidden) == 0 && len(r.Preferred) == 0)
}

// CriterionRules maps criteria to their rule sets.
type CriterionRules map[CriterionName]*RuleSet

// RulePolicy holds the four policy numbers applied when rule flags fire.
// Penalties are negative.
type RulePolicy struct {
	MandatoryMatchedBonus    float64 `json:"mandatory_matched_bonus" koanf:"mandatory_matched_bonus"`
	MandatoryMissedPenalty   float64 `json:"mandatory_missed_penalty" koanf:"mandatory_missed_penalty"`
	ForbiddenDetectedPenalty float64 `json:"forbidden_detected_penalty" koanf:"forbidden_detected_penalty"`
	PreferredMatchedBonus    float64 `json:"preferred_matched_bonus" koanf:"preferred_matched_bonus"`
}

// DefaultRulePolicy returns the policy used when a profile configures none.
func DefaultRulePolicy() RulePolicy {
	return RulePolicy{
		MandatoryMatchedBonus:    10,
		MandatoryMissedPenalty:   -30,
		ForbiddenDetectedPenalty: -100,
		PreferredMatchedBonus:    5,
	}
}

// Multipliers maps criteria to weight amplification factors. Missing entries
// default to 1.0.
type Multipliers map[CriterionName]float64

// Get returns the multiplier for a criterion, defaulting to 1.0.
func (m Multipliers) Get(name CriterionName) float64 {
	if m == nil {
		return 1.0
	}
	if v, ok := m[name]; ok {
		return v
	}
	return 1.0
}

// Weights holds the per-criterion importance used in the weighted average.
type Weights struct {
	Type     float64 `json:"type"`
	Duration float64 `json:"duration"`
	Genre    float64 `json:"genre"`
	Timing   float64 `json:"timing"`
	Strategy float64 `json:"strategy"`
	Age      float64 `json:"age"`
	Rating   float64 `json:"rating"`
	Filter   float64 `json:"filter"`
	Bonus    float64 `json:"bonus"`
}

// DefaultWeights returns the default weights (sum 110).
func DefaultWeights() Weights {
	return Weights{
		Type:     15,
		Duration: 10,
		Genre:    20,
		Timing:   15,
		Strategy: 5,
		Age:      10,
		Rating:   15,
		Filter:   10,
		Bonus:    10,
	}
}

// Get returns the weight for a criterion.
func (w Weights) Get(name CriterionName) float64 {
	switch name {
	case CriterionType:
		return w.Type
	case CriterionDuration:
		return w.Duration
	case CriterionGenre:
		return w.Genre
	case CriterionTiming:
		return w.Timing
	case CriterionStrategy:
		return w.Strategy
	case CriterionAge:
		return w.Age
	case CriterionRating:
		return w.Rating
	case CriterionFilter:
		return w.Filter
	case CriterionBonus:
		return w.Bonus
	default:
		return 0
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Type + w.Duration + w.Genre + w.Timing + w.Strategy +
		w.Age + w.Rating + w.Filter + w.Bonus
}

// IsZero reports whether no weight is configured.
func (w Weights) IsZero() bool {
	return w.Sum() == 0
}

// TimingThresholds are the three non-negative minute thresholds P <= M <= F
// of the timing criterion's piecewise-linear score.
type TimingThresholds struct {
	PreferredMin float64 `json:"preferred_min"`
	MandatoryMin float64 `json:"mandatory_min"`
	ForbiddenMin float64 `json:"forbidden_min"`
}

// DefaultTimingThresholds returns the thresholds used when a block sets none.
func DefaultTimingThresholds() TimingThresholds {
	return TimingThresholds{PreferredMin: 10, MandatoryMin: 30, ForbiddenMin: 60}
}

// IsZero reports whether no threshold is configured.
func (t TimingThresholds) IsZero() bool {
	return t.PreferredMin == 0 && t.MandatoryMin == 0 && t.ForbiddenMin == 0
}

// StrategyFlags toggles the positional strategy adjustments.
type StrategyFlags struct {
	MaintainSequence bool `json:"maintain_sequence,omitempty"`
	MaximizeVariety  bool `json:"maximize_variety,omitempty"`
	MarathonMode     bool `json:"marathon_mode,omitempty"`
	FillerInsertion  bool `json:"filler_insertion,omitempty"`
}

// BlockCriteria describes desired content characteristics. All fields are
// optional; zero values do not constrain.
type BlockCriteria struct {
	PreferredKinds []media.Kind `json:"preferred_kinds,omitempty"`
	AllowedKinds   []media.Kind `json:"allowed_kinds,omitempty"`
	ExcludedKinds  []media.Kind `json:"excluded_kinds,omitempty"`

	PreferredGenres []string `json:"preferred_genres,omitempty"`
	AllowedGenres   []string `json:"allowed_genres,omitempty"`
	ForbiddenGenres []string `json:"forbidden_genres,omitempty"`

	// Duration bounds in minutes. Zero means unbounded.
	MinDurationMin float64 `json:"min_duration_min,omitempty"`
	MaxDurationMin float64 `json:"max_duration_min,omitempty"`

	// MaxAgeLevel is the highest allowed age-rating severity level (0-4).
	// Nil means no restriction from the level side.
	MaxAgeLevel *int `json:"max_age_level,omitempty"`

	// AllowedAgeRatings restricts items to certifications equivalent to one
	// of these codes.
	AllowedAgeRatings []string `json:"allowed_age_ratings,omitempty"`

	// Rating thresholds on the external 0-10 scale.
	MinRating       *float64 `json:"min_rating,omitempty"`
	PreferredRating *float64 `json:"preferred_rating,omitempty"`

	// MinVoteCount is the confidence floor for the rating criterion.
	MinVoteCount int `json:"min_vote_count,omitempty"`

	// Keyword and studio filters, matched against enrichment metadata.
	IncludeKeywords  []string `json:"include_keywords,omitempty"`
	ExcludeKeywords  []string `json:"exclude_keywords,omitempty"`
	PreferredStudios []string `json:"preferred_studios,omitempty"`
	ForbiddenStudios []string `json:"forbidden_studios,omitempty"`

	// Timing holds the P/M/F minute thresholds.
	Timing TimingThresholds `json:"timing,omitempty"`

	// Strategy toggles positional adjustments.
	Strategy StrategyFlags `json:"strategy,omitempty"`

	// Rules holds per-criterion membership rule sets.
	Rules CriterionRules `json:"rules,omitempty"`

	// Policy overrides the profile rule policy for this block.
	Policy *RulePolicy `json:"policy,omitempty"`

	// Multipliers overrides profile multipliers for this block.
	Multipliers Multipliers `json:"multipliers,omitempty"`
}

// TimeBlock is a named wall-clock window within each day of the horizon.
// End may be lexicographically <= Start, in which case the block spans
// midnight.
type TimeBlock struct {
	// Name is the display name, unique within a profile.
	Name string `json:"name" validate:"required"`

	// Start and End are times of day in HH:MM form.
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`

	// Criteria are the block-level overrides merged over the profile
	// defaults.
	Criteria BlockCriteria `json:"criteria"`
}

// SpansMidnight reports whether the block crosses the day boundary.
func (b *TimeBlock) SpansMidnight() bool {
	startMin, err1 := ParseClock(b.Start)
	endMin, err2 := ParseClock(b.End)
	if err1 != nil || err2 != nil {
		return false
	}
	return endMin <= startMin
}

// SchemaVersion is the current profile schema version.
const SchemaVersion = 2

// Profile is the declarative scoring configuration for one channel.
type Profile struct {
	ID            string `json:"id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	SchemaVersion int    `json:"schema_version"`

	// Libraries lists the source library IDs on the media server.
	Libraries []string `json:"libraries" validate:"min=1"`

	// Blocks is the ordered time-block list. Blocks need not cover the
	// whole day; uncovered time carries no block-specific criteria.
	Blocks []TimeBlock `json:"blocks" validate:"min=1,dive"`

	// Defaults are the profile-level criteria blocks inherit from.
	Defaults BlockCriteria `json:"defaults"`

	// Policy is the profile-level rule policy, overridable per block.
	Policy RulePolicy `json:"policy"`

	// Multipliers are the profile-level per-criterion multipliers.
	Multipliers Multipliers `json:"multipliers,omitempty"`

	// Weights are the nine criterion weights.
	Weights Weights `json:"weights"`

	// DefaultIterations and DefaultRandomness seed generation options when
	// the caller supplies none.
	DefaultIterations int     `json:"default_iterations"`
	DefaultRandomness float64 `json:"default_randomness" validate:"gte=0,lte=1"`

	// ExcludeKeywords and IncludeKeywords drive the title keyword
	// multiplier (exclude x0.5 takes precedence over include x1.1).
	ExcludeKeywords []string `json:"exclude_keywords,omitempty"`
	IncludeKeywords []string `json:"include_keywords,omitempty"`

	// HardForbid zeroes the final score of any item with a forbidden
	// violation. Nil means true.
	HardForbid *bool `json:"hard_forbid,omitempty"`
}

// HardForbidEnabled reports the effective hard-forbid setting (default true).
func (p *Profile) HardForbidEnabled() bool {
	return p.HardForbid == nil || *p.HardForbid
}

// Block returns the named block.
func (p *Profile) Block(name string) (*TimeBlock, error) {
	for i := range p.Blocks {
		if p.Blocks[i].Name == name {
			return &p.Blocks[i], nil
		}
	}
	return nil, fmt.Errorf("profile %s: no block named %q", p.ID, name)
}
