// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package match

// Age-rating severity levels. The equivalence table below is normative:
// scoring behavior and serialized results depend on these exact mappings.
const (
	AgeLevelAll      = 0 // G, TV-G, TV-Y, TP, U, Tous publics
	AgeLevelGuidance = 1 // PG, TV-PG
	AgeLevelTeen     = 2 // PG-13, TV-14, +12, 12A
	AgeLevelMature   = 3 // R, TV-MA, +16
	AgeLevelAdult    = 4 // NC-17, +18
)

// ageLevels maps normalized certification codes to severity levels.
var ageLevels = map[string]int{
	"g":             AgeLevelAll,
	"tv-g":          AgeLevelAll,
	"tv-y":          AgeLevelAll,
	"tp":            AgeLevelAll,
	"u":             AgeLevelAll,
	"tous publics":  AgeLevelAll,
	"pg":            AgeLevelGuidance,
	"tv-pg":         AgeLevelGuidance,
	"pg-13":         AgeLevelTeen,
	"tv-14":         AgeLevelTeen,
	"+12":           AgeLevelTeen,
	"12a":           AgeLevelTeen,
	"r":             AgeLevelMature,
	"tv-ma":         AgeLevelMature,
	"+16":           AgeLevelMature,
	"nc-17":         AgeLevelAdult,
	"+18":           AgeLevelAdult,
}

// AgeLevel returns the severity level for a certification code.
// The second return value is false when the code is unknown.
func AgeLevel(code string) (int, bool) {
	level, ok := ageLevels[Normalize(code)]
	return level, ok
}

// AgeEquivalent reports whether two certification codes map to the same
// severity level. Unknown codes only match themselves after normalization.
func AgeEquivalent(a, b string) bool {
	la, oka := AgeLevel(a)
	lb, okb := AgeLevel(b)
	if oka && okb {
		return la == lb
	}
	return Normalize(a) == Normalize(b)
}

// AgeLevelName returns a stable name for a severity level, used in score
// detail payloads.
func AgeLevelName(level int) string {
	switch level {
	case AgeLevelAll:
		return "all"
	case AgeLevelGuidance:
		return "guidance"
	case AgeLevelTeen:
		return "teen"
	case AgeLevelMature:
		return "mature"
	case AgeLevelAdult:
		return "adult"
	default:
		return "unknown"
	}
}

// MaxAgeLevel returns the highest severity level among the given codes.
// Unknown codes are ignored; the second return value is false when no code
// was recognized.
func MaxAgeLevel(codes []string) (int, bool) {
	maxLevel, found := 0, false
	for _, c := range codes {
		if level, ok := AgeLevel(c); ok {
			if !found || level > maxLevel {
				maxLevel = level
			}
			found = true
		}
	}
	return maxLevel, found
}
