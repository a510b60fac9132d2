// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents decomposes to NFD and removes combining marks, so that
// "Noël" and "Noel" normalize to the same string.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize returns the canonical comparison form of s: accent-stripped,
// lowercased, and with surrounding whitespace removed.
func Normalize(s string) string {
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the raw string.
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// Equal reports whether a and b are equal after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Member reports whether value is present in set, comparing normalized forms.
func Member(value string, set []string) bool {
	nv := Normalize(value)
	for _, s := range set {
		if Normalize(s) == nv {
			return true
		}
	}
	return false
}

// AnyMember reports whether any element of values is present in set.
func AnyMember(values, set []string) bool {
	if len(values) == 0 || len(set) == 0 {
		return false
	}
	normalized := make(map[string]struct{}, len(set))
	for _, s := range set {
		normalized[Normalize(s)] = struct{}{}
	}
	for _, v := range values {
		if _, ok := normalized[Normalize(v)]; ok {
			return true
		}
	}
	return false
}

// Overlap returns how many elements of values are present in set.
func Overlap(values, set []string) int {
	if len(values) == 0 || len(set) == 0 {
		return 0
	}
	normalized := make(map[string]struct{}, len(set))
	for _, s := range set {
		normalized[Normalize(s)] = struct{}{}
	}
	n := 0
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		nv := Normalize(v)
		if _, dup := seen[nv]; dup {
			continue
		}
		seen[nv] = struct{}{}
		if _, ok := normalized[nv]; ok {
			n++
		}
	}
	return n
}

// ContainsAny reports whether the normalized form of text contains the
// normalized form of any needle as a substring. Used for title keyword
// multipliers.
func ContainsAny(text string, needles []string) bool {
	if text == "" || len(needles) == 0 {
		return false
	}
	nt := Normalize(text)
	for _, needle := range needles {
		nn := Normalize(needle)
		if nn != "" && strings.Contains(nt, nn) {
			return true
		}
	}
	return false
}
