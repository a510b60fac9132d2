// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmlagace/telecaster/internal/media"
	"github.com/jmlagace/telecaster/internal/profile"
	"github.com/jmlagace/telecaster/internal/scoring/criteria"
)

func f64(v float64) *float64 { return &v }

func testProfile() *profile.Profile {
	return &profile.Profile{
		ID:        "p1",
		Name:      "Test",
		Libraries: []string{"films"},
		Blocks: []profile.TimeBlock{
			{Name: "evening", Start: "20:00", End: "23:00"},
		},
		Weights: profile.DefaultWeights(),
	}
}

func testItem() *media.Item {
	return &media.Item{
		ID:          "i1",
		Title:       "The Long Voyage",
		Kind:        media.KindMovie,
		DurationSec: 90 * 60,
		Year:        2024,
		AgeRating:   "PG-13",
		Rating:      f64(7.8),
		VoteCount:   12000,
		Genres:      []string{"Drama", "Adventure"},
		Keywords:    []string{"sea", "journey"},
		Studios:     []string{"A24"},
	}
}

func testContext(p *profile.Profile) *criteria.Context {
	eff := p.EffectiveCriteria(&p.Blocks[0])
	start := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	return &criteria.Context{
		Criteria:   &eff,
		Start:      start,
		End:        start.Add(90 * time.Minute),
		BlockStart: start,
		BlockEnd:   start.Add(3 * time.Hour),
		First:      true,
		Now:        start,
	}
}

func TestScoreDeterminism(t *testing.T) {
	p := testProfile()
	engine := NewEngine(p)
	ctx := testContext(p)
	item := testItem()

	a := engine.Score(item, ctx)
	b := engine.Score(item, ctx)
	assert.Equal(t, a, b)
}

func TestScoreWithinBounds(t *testing.T) {
	p := testProfile()
	engine := NewEngine(p)
	s := engine.Score(testItem(), testContext(p))

	assert.GreaterOrEqual(t, s.Final, 0.0)
	assert.LessOrEqual(t, s.Final, 100.0)
	require.Len(t, s.Breakdown, 9)
	for name, d := range s.Breakdown {
		if d.Skipped {
			continue
		}
		assert.GreaterOrEqual(t, d.Adjusted, 0.0, "criterion %s", name)
		assert.LessOrEqual(t, d.Adjusted, 100.0, "criterion %s", name)
	}
}

func TestForbiddenHardClamp(t *testing.T) {
	p := testProfile()
	p.Blocks[0].Criteria.ForbiddenGenres = []string{"Horror"}
	engine := NewEngine(p)

	item := testItem()
	item.Genres = []string{"Horror", "Thriller"}

	s := engine.Score(item, testContext(p))
	assert.True(t, s.ForbiddenViolated)
	assert.Equal(t, 0.0, s.Final)
	assert.Contains(t, s.Violations, "genre:forbidden")
}

func TestForbiddenWithoutHardClamp(t *testing.T) {
	off := false
	p := testProfile()
	p.HardForbid = &off
	p.Blocks[0].Criteria.ForbiddenGenres = []string{"Horror"}
	engine := NewEngine(p)

	item := testItem()
	item.Genres = []string{"Horror"}

	s := engine.Score(item, testContext(p))
	assert.True(t, s.ForbiddenViolated)
	// The -100 aggregate penalty drags the score to the floor, but the
	// zero comes from the clamp, not the hard-forbid override.
	assert.GreaterOrEqual(t, s.Final, 0.0)
	assert.Less(t, s.Final, s.Average)
}

func TestSkippedTimingContributesNothing(t *testing.T) {
	p := testProfile()
	engine := NewEngine(p)

	ctx := testContext(p)
	ctx.First, ctx.Last = false, false
	s := engine.Score(testItem(), ctx)

	d := s.Breakdown[profile.CriterionTiming]
	assert.True(t, d.Skipped)
	_, ok := s.SubScore(profile.CriterionTiming)
	assert.False(t, ok, "skipped criterion must not report a sub-score")

	// Average must equal the weighted mean over the eight non-skipped
	// criteria; recompute it independently.
	var num, den float64
	for name, cd := range s.Breakdown {
		if cd.Skipped {
			continue
		}
		w := p.Weights.Get(name)
		num += cd.Adjusted * w
		den += w
	}
	assert.InDelta(t, num/den, s.Average, 0.0001)
}

func TestSubScoreReportsAdjustedValue(t *testing.T) {
	p := testProfile()
	p.Blocks[0].Criteria.PreferredGenres = []string{"Drama"}
	s := NewEngine(p).Score(testItem(), testContext(p))

	got, ok := s.SubScore(profile.CriterionGenre)
	require.True(t, ok)
	assert.Equal(t, s.Breakdown[profile.CriterionGenre].Adjusted, got)

	_, ok = s.SubScore(profile.CriterionName("bogus"))
	assert.False(t, ok)
}

func TestMandatoryMissedPenalizesButDoesNotExclude(t *testing.T) {
	p := testProfile()
	p.Blocks[0].Criteria.Rules = profile.CriterionRules{
		profile.CriterionGenre: {Mandatory: []string{"Animation"}},
	}
	engine := NewEngine(p)

	missed := engine.Score(testItem(), testContext(p))
	assert.False(t, missed.MandatoryMet)
	assert.Contains(t, missed.Violations, "genre:mandatory_missed")
	assert.Greater(t, missed.Final, 0.0)

	matched := testItem()
	matched.Genres = []string{"Animation"}
	met := engine.Score(matched, testContext(p))
	assert.True(t, met.MandatoryMet)
	assert.Greater(t, met.Final, missed.Final)
}

func TestPerCriterionOverrideBeatsPolicy(t *testing.T) {
	p := testProfile()
	p.Blocks[0].Criteria.Rules = profile.CriterionRules{
		profile.CriterionGenre: {
			Preferred:      []string{"Drama"},
			PreferredBonus: f64(25),
		},
	}
	engine := NewEngine(p)

	s := engine.Score(testItem(), testContext(p))
	d := s.Breakdown[profile.CriterionGenre]
	require.NotEmpty(t, d.Adjustments)
	assert.Equal(t, criteria.FlagPreferredMatched, d.Adjustments[0].Flag)
	assert.Equal(t, 25.0, d.Adjustments[0].Value)
}

func TestAgeRuleUsesEquivalence(t *testing.T) {
	p := testProfile()
	p.Blocks[0].Criteria.Rules = profile.CriterionRules{
		// TV-14 is level-equivalent to the item's PG-13.
		profile.CriterionAge: {Forbidden: []string{"TV-14"}},
	}
	engine := NewEngine(p)

	s := engine.Score(testItem(), testContext(p))
	assert.True(t, s.ForbiddenViolated)
	assert.Contains(t, s.Violations, "age:forbidden")
}

func TestForbiddenDominatesMandatoryOnSameCriterion(t *testing.T) {
	p := testProfile()
	p.Blocks[0].Criteria.Rules = profile.CriterionRules{
		profile.CriterionGenre: {
			Mandatory: []string{"Drama"},
			Forbidden: []string{"Drama"},
		},
	}
	engine := NewEngine(p)

	s := engine.Score(testItem(), testContext(p))
	assert.True(t, s.ForbiddenViolated)
	assert.False(t, s.MandatoryMet)
}

func TestTitleKeywordMultiplier(t *testing.T) {
	t.Run("exclude halves", func(t *testing.T) {
		p := testProfile()
		p.ExcludeKeywords = []string{"voyage"}
		s := NewEngine(p).Score(testItem(), testContext(p))
		assert.Equal(t, 0.5, s.KeywordMultiplier)
	})

	t.Run("include boosts", func(t *testing.T) {
		p := testProfile()
		p.IncludeKeywords = []string{"voyage"}
		s := NewEngine(p).Score(testItem(), testContext(p))
		assert.Equal(t, 1.1, s.KeywordMultiplier)
	})

	t.Run("exclude wins over include", func(t *testing.T) {
		p := testProfile()
		p.ExcludeKeywords = []string{"long"}
		p.IncludeKeywords = []string{"voyage"}
		s := NewEngine(p).Score(testItem(), testContext(p))
		assert.Equal(t, 0.5, s.KeywordMultiplier)
	})

	t.Run("no match leaves 1.0", func(t *testing.T) {
		p := testProfile()
		s := NewEngine(p).Score(testItem(), testContext(p))
		assert.Equal(t, 1.0, s.KeywordMultiplier)
	})
}

func TestMultiplierAmplifiesWeight(t *testing.T) {
	// Boost the genre criterion; with a preferred-genre match the boosted
	// run must score at least as high, and the breakdown must record the
	// multiplier used.
	base := testProfile()
	base.Blocks[0].Criteria.PreferredGenres = []string{"Drama"}

	boosted := testProfile()
	boosted.Blocks[0].Criteria.PreferredGenres = []string{"Drama"}
	boosted.Multipliers = profile.Multipliers{profile.CriterionGenre: 3.0}

	sBase := NewEngine(base).Score(testItem(), testContext(base))
	sBoost := NewEngine(boosted).Score(testItem(), testContext(boosted))

	assert.Equal(t, 3.0, sBoost.Breakdown[profile.CriterionGenre].Multiplier)
	assert.GreaterOrEqual(t, sBoost.Average, sBase.Average)
}
