// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

// Package profile defines the typed, versioned programming profile: time
// blocks, per-block criteria, criterion rule sets, rule policies, weights and
// multipliers.
//
// A profile is declarative configuration. Jobs take a deep copy at start
// (Clone) and compute effective per-block criteria once, by merging the
// profile-level defaults with block overrides (EffectiveCriteria). Unknown
// fields on load are rejected by the validation pass rather than silently
// dropped.
package profile
