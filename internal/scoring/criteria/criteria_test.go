// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package criteria

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jmlagace/telecaster/internal/media"
	"github.com/jmlagace/telecaster/internal/profile"
)

func f64(v float64) *float64 { return &v }

func emptyCtx() *Context {
	return &Context{
		Criteria: &profile.BlockCriteria{Timing: profile.DefaultTimingThresholds()},
		Now:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestTypeEvaluator(t *testing.T) {
	tests := []struct {
		name     string
		kind     media.Kind
		criteria profile.BlockCriteria
		want     float64
	}{
		{"preferred kind", media.KindMovie,
			profile.BlockCriteria{PreferredKinds: []media.Kind{media.KindMovie}}, 100},
		{"allowed kind", media.KindEpisode,
			profile.BlockCriteria{AllowedKinds: []media.Kind{media.KindEpisode}}, 75},
		{"no lists at all", media.KindFiller, profile.BlockCriteria{}, 75},
		{"excluded kind", media.KindFiller,
			profile.BlockCriteria{ExcludedKinds: []media.Kind{media.KindFiller}}, 0},
		{"not in allowed list", media.KindFiller,
			profile.BlockCriteria{AllowedKinds: []media.Kind{media.KindMovie}}, 0},
		{"allowed wins over excluded", media.KindEpisode,
			profile.BlockCriteria{
				AllowedKinds:  []media.Kind{media.KindEpisode},
				ExcludedKinds: []media.Kind{media.KindEpisode},
			}, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := emptyCtx()
			ctx.Criteria = &tt.criteria
			out := typeEvaluator{}.Evaluate(&media.Item{Kind: tt.kind}, ctx)
			assert.Equal(t, tt.want, out.Score)
			assert.Equal(t, []string{string(tt.kind)}, out.Values)
		})
	}
}

func TestDurationEvaluator(t *testing.T) {
	criteria := profile.BlockCriteria{MinDurationMin: 60, MaxDurationMin: 120}

	tests := []struct {
		name    string
		minutes float64
		want    float64
	}{
		{"midpoint scores 100", 90, 100},
		{"lower edge scores 70", 60, 70},
		{"upper edge scores 70", 120, 70},
		{"below minimum scales down", 30, 25}, // 30/60*50
		{"above maximum loses up to 50", 180, 75},
		{"far above maximum floors at 50", 400, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := emptyCtx()
			ctx.Criteria = &criteria
			item := &media.Item{DurationSec: int(tt.minutes * 60)}
			out := durationEvaluator{}.Evaluate(item, ctx)
			assert.InDelta(t, tt.want, out.Score, 0.001)
		})
	}

	t.Run("no bounds is neutral", func(t *testing.T) {
		out := durationEvaluator{}.Evaluate(&media.Item{DurationSec: 5400}, emptyCtx())
		assert.Equal(t, 75.0, out.Score)
	})

	t.Run("category is exposed for rules", func(t *testing.T) {
		out := durationEvaluator{}.Evaluate(&media.Item{DurationSec: 90 * 60}, emptyCtx())
		assert.Equal(t, []string{media.DurationStandard}, out.Values)
	})
}

func TestGenreEvaluator(t *testing.T) {
	t.Run("no metadata is neutral 50", func(t *testing.T) {
		out := genreEvaluator{}.Evaluate(&media.Item{}, emptyCtx())
		assert.Equal(t, 50.0, out.Score)
	})

	t.Run("no preferences stays in 65..75", func(t *testing.T) {
		out := genreEvaluator{}.Evaluate(&media.Item{Genres: []string{"Drama"}}, emptyCtx())
		assert.GreaterOrEqual(t, out.Score, 65.0)
		assert.LessOrEqual(t, out.Score, 75.0)
	})

	t.Run("preferred overlap raises score", func(t *testing.T) {
		ctx := emptyCtx()
		ctx.Criteria = &profile.BlockCriteria{PreferredGenres: []string{"Drama", "Comedy", "Action"}}

		none := genreEvaluator{}.Evaluate(&media.Item{Genres: []string{"Horror"}}, ctx)
		one := genreEvaluator{}.Evaluate(&media.Item{Genres: []string{"Drama"}}, ctx)
		all := genreEvaluator{}.Evaluate(&media.Item{Genres: []string{"Drama", "Comedy", "Action"}}, ctx)

		assert.Equal(t, 65.0, none.Score)
		assert.Greater(t, one.Score, 75.0)
		assert.Equal(t, 100.0, all.Score)
	})

	t.Run("forbidden genre raises flag without touching base", func(t *testing.T) {
		ctx := emptyCtx()
		ctx.Criteria = &profile.BlockCriteria{ForbiddenGenres: []string{"Horror"}}
		out := genreEvaluator{}.Evaluate(&media.Item{Genres: []string{"Horror", "Drama"}}, ctx)
		assert.Contains(t, out.Flags, FlagForbiddenDetected)
		assert.Equal(t, 70.0, out.Score)
	})

	t.Run("accent-insensitive matching", func(t *testing.T) {
		ctx := emptyCtx()
		ctx.Criteria = &profile.BlockCriteria{PreferredGenres: []string{"Comédie"}}
		out := genreEvaluator{}.Evaluate(&media.Item{Genres: []string{"comedie"}}, ctx)
		assert.Greater(t, out.Score, 75.0)
	})
}

func TestTimingEvaluator(t *testing.T) {
	base := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	blockEnd := time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC)

	newCtx := func(first, last bool, start, end time.Time) *Context {
		ctx := emptyCtx()
		ctx.First, ctx.Last = first, last
		ctx.Start, ctx.End = start, end
		ctx.BlockStart, ctx.BlockEnd = base, blockEnd
		return ctx
	}

	t.Run("interior item is skipped", func(t *testing.T) {
		out := timingEvaluator{}.Evaluate(&media.Item{}, newCtx(false, false, base, base))
		assert.True(t, out.Skipped)
	})

	t.Run("on-time first item scores 100", func(t *testing.T) {
		out := timingEvaluator{}.Evaluate(&media.Item{}, newCtx(true, false, base, base.Add(30*time.Minute)))
		assert.Equal(t, 100.0, out.Score)
	})

	t.Run("overnight overflow measured against next-day end", func(t *testing.T) {
		// 05:50 start, 20 min duration: overflows 06:00 by 10 minutes.
		start := time.Date(2026, 3, 11, 5, 50, 0, 0, time.UTC)
		out := timingEvaluator{}.Evaluate(&media.Item{}, newCtx(false, true, start, start.Add(20*time.Minute)))
		assert.InDelta(t, 85.0, out.Score, 0.001) // offset 10 = P threshold
		assert.Equal(t, 10.0, out.Detail["offset_min"])
	})

	t.Run("both first and last takes worse offset", func(t *testing.T) {
		// Late by 5 (score 92.5 alone), overflow 40 (dominates).
		start := base.Add(5 * time.Minute)
		end := blockEnd.Add(40 * time.Minute)
		out := timingEvaluator{}.Evaluate(&media.Item{}, newCtx(true, true, start, end))
		assert.InDelta(t, 35.0, out.Score, 0.001) // 50 - 10/30*45
		assert.Equal(t, "both", out.Detail["edge"])
	})

	t.Run("beyond forbidden threshold scores zero", func(t *testing.T) {
		end := blockEnd.Add(90 * time.Minute)
		out := timingEvaluator{}.Evaluate(&media.Item{}, newCtx(false, true, base, end))
		assert.Equal(t, 0.0, out.Score)
	})

	t.Run("zero preferred threshold with zero offset scores 100", func(t *testing.T) {
		ctx := newCtx(true, false, base, base.Add(time.Hour))
		ctx.Criteria = &profile.BlockCriteria{Timing: profile.TimingThresholds{PreferredMin: 0, MandatoryMin: 30, ForbiddenMin: 60}}
		out := timingEvaluator{}.Evaluate(&media.Item{}, ctx)
		assert.Equal(t, 100.0, out.Score)
	})
}

func TestStrategyEvaluator(t *testing.T) {
	t.Run("no flags keeps baseline", func(t *testing.T) {
		out := strategyEvaluator{}.Evaluate(&media.Item{Kind: media.KindMovie}, emptyCtx())
		assert.Equal(t, 100.0, out.Score)
	})

	t.Run("maintain sequence penalizes movies", func(t *testing.T) {
		ctx := emptyCtx()
		ctx.Criteria = &profile.BlockCriteria{Strategy: profile.StrategyFlags{MaintainSequence: true}}
		movie := strategyEvaluator{}.Evaluate(&media.Item{Kind: media.KindMovie}, ctx)
		episode := strategyEvaluator{}.Evaluate(&media.Item{Kind: media.KindEpisode}, ctx)
		assert.Equal(t, 95.0, movie.Score)
		assert.Equal(t, 100.0, episode.Score)
	})

	t.Run("variety rewards unseen genres only", func(t *testing.T) {
		ctx := emptyCtx()
		ctx.Criteria = &profile.BlockCriteria{Strategy: profile.StrategyFlags{MaximizeVariety: true}}
		ctx.RecentGenres = [][]string{{"Drama"}, {"Comedy"}}

		fresh := strategyEvaluator{}.Evaluate(&media.Item{Genres: []string{"Action"}}, ctx)
		seen := strategyEvaluator{}.Evaluate(&media.Item{Genres: []string{"Drama"}}, ctx)
		assert.Equal(t, 100.0, fresh.Score) // clamped at 100
		assert.Contains(t, fresh.Detail["adjustments"], "maximize_variety")
		assert.NotContains(t, seen.Detail["adjustments"], "maximize_variety")
	})

	t.Run("marathon mode needs the collection elsewhere", func(t *testing.T) {
		ctx := emptyCtx()
		ctx.Criteria = &profile.BlockCriteria{Strategy: profile.StrategyFlags{MarathonMode: true}}
		item := &media.Item{Collection: "Alien"}

		alone := strategyEvaluator{}.Evaluate(item, ctx)
		assert.NotContains(t, alone.Detail["adjustments"], "marathon_mode")

		ctx.CollectionCounts = map[string]int{"alien": 2}
		within := strategyEvaluator{}.Evaluate(item, ctx)
		assert.Contains(t, within.Detail["adjustments"], "marathon_mode")
	})
}

func TestAgeEvaluator(t *testing.T) {
	maxTeen := 2

	tests := []struct {
		name     string
		rating   string
		criteria profile.BlockCriteria
		want     float64
		flagged  bool
	}{
		{"below maximum", "PG", profile.BlockCriteria{MaxAgeLevel: &maxTeen}, 100, false},
		{"at maximum", "PG-13", profile.BlockCriteria{MaxAgeLevel: &maxTeen}, 90, false},
		{"over maximum is forbidden", "TV-MA", profile.BlockCriteria{MaxAgeLevel: &maxTeen}, 0, true},
		{"no restriction", "R", profile.BlockCriteria{}, 80, false},
		{"missing metadata", "", profile.BlockCriteria{MaxAgeLevel: &maxTeen}, 75, false},
		{"equivalence across systems", "TV-14",
			profile.BlockCriteria{AllowedAgeRatings: []string{"PG-13"}}, 90, false},
		{"derived max from allowed list", "+18",
			profile.BlockCriteria{AllowedAgeRatings: []string{"PG", "PG-13"}}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := emptyCtx()
			ctx.Criteria = &tt.criteria
			out := ageEvaluator{}.Evaluate(&media.Item{AgeRating: tt.rating}, ctx)
			assert.Equal(t, tt.want, out.Score)
			if tt.flagged {
				assert.Contains(t, out.Flags, FlagForbiddenDetected)
			} else {
				assert.Empty(t, out.Flags)
			}
		})
	}

	t.Run("known code exposes level name", func(t *testing.T) {
		out := ageEvaluator{}.Evaluate(&media.Item{AgeRating: "PG-13"}, emptyCtx())
		assert.Equal(t, 2, out.Detail["level"])
		assert.Equal(t, "teen", out.Detail["level_name"])
	})
}

func TestRatingEvaluator(t *testing.T) {
	t.Run("missing rating is neutral 50", func(t *testing.T) {
		out := ratingEvaluator{}.Evaluate(&media.Item{}, emptyCtx())
		assert.Equal(t, 50.0, out.Score)
	})

	t.Run("default thresholds", func(t *testing.T) {
		tests := []struct {
			rating float64
			want   float64
		}{
			{10.0, 100},
			{7.5, 70},
			{8.75, 85},  // 70 + 1.25/2.5*30
			{6.25, 70},  // 50 + 1.25/2.5*40
			{5.0, 50},
			{2.5, 20},   // 2.5/5*40
		}
		for _, tt := range tests {
			out := ratingEvaluator{}.Evaluate(&media.Item{Rating: f64(tt.rating)}, emptyCtx())
			assert.InDelta(t, tt.want, out.Score, 0.001, "rating %.2f", tt.rating)
		}
	})

	t.Run("preferred of 10 still yields 100 for a perfect rating", func(t *testing.T) {
		ctx := emptyCtx()
		ctx.Criteria = &profile.BlockCriteria{PreferredRating: f64(10)}
		perfect := ratingEvaluator{}.Evaluate(&media.Item{Rating: f64(10)}, ctx)
		near := ratingEvaluator{}.Evaluate(&media.Item{Rating: f64(9.5)}, ctx)
		assert.Equal(t, 100.0, perfect.Score)
		assert.Less(t, near.Score, 100.0)
	})

	t.Run("vote count shortfall penalizes proportionally", func(t *testing.T) {
		ctx := emptyCtx()
		ctx.Criteria = &profile.BlockCriteria{MinVoteCount: 1000}
		half := ratingEvaluator{}.Evaluate(&media.Item{Rating: f64(7.5), VoteCount: 500}, ctx)
		full := ratingEvaluator{}.Evaluate(&media.Item{Rating: f64(7.5), VoteCount: 1000}, ctx)
		assert.InDelta(t, 55.0, half.Score, 0.001) // 70 - 30*0.5
		assert.Equal(t, 70.0, full.Score)
	})

	t.Run("category exposed for rules", func(t *testing.T) {
		out := ratingEvaluator{}.Evaluate(&media.Item{Rating: f64(8.2)}, emptyCtx())
		assert.Equal(t, []string{"excellent"}, out.Values)
	})
}

func TestFilterEvaluator(t *testing.T) {
	t.Run("no metadata is neutral 50", func(t *testing.T) {
		out := filterEvaluator{}.Evaluate(&media.Item{}, emptyCtx())
		assert.Equal(t, 50.0, out.Score)
	})

	t.Run("metadata baseline is 75", func(t *testing.T) {
		out := filterEvaluator{}.Evaluate(&media.Item{Keywords: []string{"space"}}, emptyCtx())
		assert.Equal(t, 75.0, out.Score)
	})

	t.Run("keyword and studio bonuses are capped", func(t *testing.T) {
		ctx := emptyCtx()
		ctx.Criteria = &profile.BlockCriteria{
			IncludeKeywords:  []string{"space", "alien", "robot", "future", "mars"},
			PreferredStudios: []string{"A24", "Pixar", "Ghibli"},
		}
		item := &media.Item{
			Keywords: []string{"space", "alien", "robot", "future", "mars"},
			Studios:  []string{"A24", "Pixar", "Ghibli"},
		}
		out := filterEvaluator{}.Evaluate(item, ctx)
		assert.Equal(t, 100.0, out.Score) // 75 + 15 + 10
		assert.Equal(t, 15.0, out.Detail["keyword_bonus"])
		assert.Equal(t, 10.0, out.Detail["studio_bonus"])
	})

	t.Run("forbidden studio zeroes and flags", func(t *testing.T) {
		ctx := emptyCtx()
		ctx.Criteria = &profile.BlockCriteria{ForbiddenStudios: []string{"BadCo"}}
		out := filterEvaluator{}.Evaluate(&media.Item{Studios: []string{"BadCo"}}, ctx)
		assert.Equal(t, 0.0, out.Score)
		assert.Contains(t, out.Flags, FlagForbiddenDetected)
	})
}

func TestBonusEvaluator(t *testing.T) {
	t.Run("recent blockbuster accumulates", func(t *testing.T) {
		ctx := emptyCtx() // Now = 2026-03-10
		item := &media.Item{
			Year:      2025,
			Budget:    100,
			Revenue:   400,
			VoteCount: 20000,
		}
		out := bonusEvaluator{}.Evaluate(item, ctx)
		assert.Equal(t, 45.0, out.Score) // 20 recent + 15 box office + 10 votes
	})

	t.Run("old title penalized but floored at zero", func(t *testing.T) {
		out := bonusEvaluator{}.Evaluate(&media.Item{Year: 1980}, emptyCtx())
		assert.Equal(t, 0.0, out.Score)
	})

	t.Run("collection bonus doubles when elsewhere in playlist", func(t *testing.T) {
		ctx := emptyCtx()
		item := &media.Item{Collection: "Rocky"}
		alone := bonusEvaluator{}.Evaluate(item, ctx)
		ctx.CollectionCounts = map[string]int{"rocky": 1}
		within := bonusEvaluator{}.Evaluate(item, ctx)
		assert.Equal(t, 5.0, alone.Score)
		assert.Equal(t, 10.0, within.Score)
	})

	t.Run("holiday keywords only apply in season", func(t *testing.T) {
		item := &media.Item{Title: "A Christmas Carol"}

		march := emptyCtx()
		out := bonusEvaluator{}.Evaluate(item, march)
		assert.Equal(t, 0.0, out.Score)

		december := emptyCtx()
		december.Now = time.Date(2026, 12, 10, 12, 0, 0, 0, time.UTC)
		out = bonusEvaluator{}.Evaluate(item, december)
		assert.Equal(t, 15.0, out.Score)
	})
}
