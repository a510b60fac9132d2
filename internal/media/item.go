// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package media

import "time"

// Kind classifies a playable unit.
type Kind string

const (
	// KindMovie is a feature-length film.
	KindMovie Kind = "movie"
	// KindEpisode is a single series episode.
	KindEpisode Kind = "episode"
	// KindFiller is short interstitial content used to pad gaps.
	KindFiller Kind = "filler"
)

// Duration category boundaries in minutes. Rule membership tests on the
// duration criterion use these categories rather than raw minutes.
const (
	DurationShortMaxMin    = 60
	DurationStandardMaxMin = 120
	DurationLongMaxMin     = 180
)

// Duration category names.
const (
	DurationShort    = "short"
	DurationStandard = "standard"
	DurationLong     = "long"
	DurationVeryLong = "very_long"
)

// Item is one playable unit from the catalog. Fields that the upstream
// metadata cache could not populate are zero-valued (or nil for Rating),
// never missing. Items are immutable within a job.
type Item struct {
	// ID is the stable opaque identifier assigned by the media server.
	ID string `json:"id"`

	// Title is the display title.
	Title string `json:"title"`

	// Kind is movie, episode, or filler.
	Kind Kind `json:"kind"`

	// DurationSec is the runtime in seconds. Always > 0 for valid items.
	DurationSec int `json:"duration_sec"`

	// Year is the release year, 0 when unknown.
	Year int `json:"year,omitempty"`

	// AgeRating is the certification code (PG-13, TV-MA, +16, ...), empty
	// when unknown.
	AgeRating string `json:"age_rating,omitempty"`

	// Rating is the external (TMDB) rating on a 0.0-10.0 scale, nil when
	// unknown.
	Rating *float64 `json:"rating,omitempty"`

	// VoteCount is the number of votes behind Rating.
	VoteCount int `json:"vote_count,omitempty"`

	// Genres, Keywords and Studios are enrichment metadata sets.
	Genres   []string `json:"genres,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Studios  []string `json:"studios,omitempty"`

	// Collection is the collection/franchise name, empty when the item does
	// not belong to one.
	Collection string `json:"collection,omitempty"`

	// Budget and Revenue are in whole currency units, 0 when unknown.
	Budget  int64 `json:"budget,omitempty"`
	Revenue int64 `json:"revenue,omitempty"`

	// LibraryID identifies the source library on the media server.
	LibraryID string `json:"library_id"`
}

// Duration returns the runtime as a time.Duration.
func (i Item) Duration() time.Duration {
	return time.Duration(i.DurationSec) * time.Second
}

// DurationMinutes returns the runtime in fractional minutes.
func (i Item) DurationMinutes() float64 {
	return float64(i.DurationSec) / 60.0
}

// DurationCategory returns the duration category name for rule membership.
func (i Item) DurationCategory() string {
	m := i.DurationMinutes()
	switch {
	case m < DurationShortMaxMin:
		return DurationShort
	case m <= DurationStandardMaxMin:
		return DurationStandard
	case m <= DurationLongMaxMin:
		return DurationLong
	default:
		return DurationVeryLong
	}
}

// RatingCategory returns the rating category name for rule membership, or
// empty when the item has no rating.
func (i Item) RatingCategory() string {
	if i.Rating == nil {
		return ""
	}
	switch r := *i.Rating; {
	case r >= 8.0:
		return "excellent"
	case r >= 7.0:
		return "good"
	case r >= 5.0:
		return "average"
	default:
		return "poor"
	}
}
