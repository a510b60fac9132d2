// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package criteria

import (
	"time"

	"github.com/jmlagace/telecaster/internal/match"
	"github.com/jmlagace/telecaster/internal/media"
	"github.com/jmlagace/telecaster/internal/profile"
)

// holidayKeywords matched against item keywords and title during the
// October-December window.
var holidayKeywords = []string{
	"christmas", "santa", "holiday", "noel", "new year", "thanksgiving", "halloween",
}

// bonusEvaluator accumulates contextual bonuses from a base of zero:
// recency, box-office performance, franchise membership, vote volume, and
// seasonal keywords.
type bonusEvaluator struct{}

func (bonusEvaluator) Name() profile.CriterionName { return profile.CriterionBonus }

func (bonusEvaluator) Evaluate(item *media.Item, ctx *Context) Outcome {
	now := ctx.Now
	if now.IsZero() {
		now = ctx.Start
	}
	year := now.Year()

	score := 0.0
	var applied []string
	add := func(v float64, label string) {
		score += v
		applied = append(applied, label)
	}

	if item.Year > 0 {
		switch {
		case item.Year >= year-2:
			add(20, "recent_release")
		case item.Year >= year-5:
			add(10, "modern_release")
		case item.Year < year-20:
			add(-5, "older_release")
		}
	}

	if item.Budget > 0 && item.Revenue > 0 {
		switch {
		case item.Revenue > 3*item.Budget:
			add(15, "box_office_hit")
		case item.Revenue > 2*item.Budget:
			add(10, "box_office_success")
		}
	}

	if item.Collection != "" {
		add(5, "collection_member")
		if ctx.CollectionCounts[match.Normalize(item.Collection)] > 0 {
			add(5, "collection_in_playlist")
		}
	}

	switch {
	case item.VoteCount > 10000:
		add(10, "highly_voted")
	case item.VoteCount > 5000:
		add(5, "well_voted")
	}

	if isHolidaySeason(now) && matchesHoliday(item) {
		add(15, "holiday_season")
	}

	return Outcome{
		Score:  clamp(score, 0, 100),
		Values: applied,
		Detail: map[string]any{"bonuses": applied},
	}
}

func isHolidaySeason(t time.Time) bool {
	return t.Month() >= time.October
}

func matchesHoliday(item *media.Item) bool {
	if match.Overlap(item.Keywords, holidayKeywords) > 0 {
		return true
	}
	return match.ContainsAny(item.Title, holidayKeywords)
}
