// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

// Package match provides the single normalization and membership helper used
// by every criterion rule comparison in the scoring engine.
//
// All rule values (genres, keywords, studios, kinds, categories) are compared
// case-insensitively and accent-insensitively: "Comédie" matches "comedie".
// Age-rating codes are compared through a fixed equivalence table that maps
// certification systems (MPAA, TV, French CSA) onto five severity levels.
package match
