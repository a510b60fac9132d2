// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package generator

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"
)

// iterationSeed derives a per-iteration seed from the base seed, so
// iterations are independent yet reproducible from (base, index).
func iterationSeed(base int64, iteration int) int64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(base))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(iteration))
	h.Write(buf[:])
	return int64(h.Sum64())
}

func newRNG(base int64, iteration int) *rand.Rand {
	return rand.New(rand.NewSource(iterationSeed(base, iteration)))
}

// selectionAlpha maps randomness in [0,1] to the exponent of the selection
// weight: 8 at rho=0 (almost greedy), 0.5 at rho=1 (nearly uniform).
func selectionAlpha(rho float64) float64 {
	return 8*(1-rho) + 0.5*rho
}
