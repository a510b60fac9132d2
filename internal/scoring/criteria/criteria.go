// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

// Package criteria implements the nine criterion evaluators. Each evaluator
// is a pure function of an item and its position context, producing a 0-100
// sub-score (or a skipped marker) plus structured detail and any rule flags
// it raises itself. Rule bonus/penalty application happens in the scoring
// engine, not here.
package criteria

import (
	"time"

	"github.com/jmlagace/telecaster/internal/media"
	"github.com/jmlagace/telecaster/internal/profile"
)

// Flag is a rule flag raised during evaluation.
type Flag string

// Rule flags.
const (
	FlagMandatoryMet      Flag = "mandatory_met"
	FlagMandatoryMissed   Flag = "mandatory_missed"
	FlagForbiddenDetected Flag = "forbidden_detected"
	FlagPreferredMatched  Flag = "preferred_matched"
)

// Context carries everything positional an evaluator may need. Evaluators
// never mutate it.
type Context struct {
	// Criteria are the effective block criteria for the item's position.
	Criteria *profile.BlockCriteria

	// Start and End are the item's placement instants.
	Start time.Time
	End   time.Time

	// BlockStart and BlockEnd are the exact instants of the covering block
	// occurrence, with overnight day arithmetic already applied.
	BlockStart time.Time
	BlockEnd   time.Time

	// First and Last mark the item's position within its block occurrence.
	// Last may be speculative during construction.
	First bool
	Last  bool

	// RecentGenres holds the genre sets of the most recent placed items,
	// newest last, used by the variety strategy.
	RecentGenres [][]string

	// CollectionCounts maps collection names to how many other playlist
	// items share them.
	CollectionCounts map[string]int

	// Now anchors recency bonuses. Injected so scoring stays deterministic.
	Now time.Time
}

// Outcome is one evaluator's verdict.
type Outcome struct {
	// Score is the base sub-score in [0, 100]. Meaningless when Skipped.
	Score float64

	// Skipped excludes this criterion from the weighted average entirely.
	Skipped bool

	// Values are the item's membership values for this criterion, used by
	// the engine for mandatory/forbidden/preferred rule tests.
	Values []string

	// Flags raised by the evaluator itself (forbidden genre, age over
	// limit, forbidden keyword/studio).
	Flags []Flag

	// Detail is structured per-criterion information surfaced in the score
	// breakdown.
	Detail map[string]any
}

// Evaluator scores one criterion.
type Evaluator interface {
	Name() profile.CriterionName
	Evaluate(item *media.Item, ctx *Context) Outcome
}

// All returns the nine evaluators in canonical criterion order.
func All() []Evaluator {
	return []Evaluator{
		typeEvaluator{},
		durationEvaluator{},
		genreEvaluator{},
		timingEvaluator{},
		strategyEvaluator{},
		ageEvaluator{},
		ratingEvaluator{},
		filterEvaluator{},
		bonusEvaluator{},
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
