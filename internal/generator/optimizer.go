// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package generator

import (
	"time"

	"github.com/jmlagace/telecaster/internal/match"
	"github.com/jmlagace/telecaster/internal/media"
	"github.com/jmlagace/telecaster/internal/scoring"
	"github.com/jmlagace/telecaster/internal/scoring/criteria"
)

// improveDurationTolerance bounds the runtime difference allowed in an
// improve-best swap.
const improveDurationTolerance = 2 * time.Minute

// ReplaceForbidden scans the playlist for items with a forbidden violation
// and swaps each with the highest-scoring clean candidate of the same or
// smaller duration that fits the same block. Returns the number of swaps.
func (g *Generator) ReplaceForbidden(pl *Playlist) int {
	replaced := 0
	for i := range pl.Items {
		it := &pl.Items[i]
		if !it.Score.ForbiddenViolated {
			continue
		}

		occ := g.resolver.Resolve(it.Start)
		eff := g.profile.EffectiveCriteria(occ.Block)

		bestIdx := -1
		bestFinal := -1.0
		for ci := range g.items {
			cand := &g.items[ci]
			if cand.ID == it.Item.ID || cand.Duration() > it.Item.Duration() {
				continue
			}
			if forbidden(cand, &eff) {
				continue
			}
			sc := g.scoreAt(pl, i, cand)
			if sc.ForbiddenViolated {
				continue
			}
			if sc.Final > bestFinal {
				bestFinal = sc.Final
				bestIdx = ci
			}
		}
		if bestIdx < 0 {
			g.logger.Warn().Str("item", it.Item.ID).Msg("no clean replacement found")
			continue
		}

		original := it.Item.Title
		cand := g.items[bestIdx]
		delta := cand.Duration() - it.Item.Duration()
		it.Item = cand
		it.End = it.Start.Add(cand.Duration())
		it.ReplacedTitle = original
		it.ReplacedReason = "forbidden"
		shiftFrom(pl, i+1, delta)
		replaced++
	}

	if replaced > 0 {
		g.Rescore(pl)
	}
	return replaced
}

// maxImprovePasses bounds the fixpoint loop of ImproveBest.
const maxImprovePasses = 5

// ImproveBest attempts, for each interior position, a swap with a catalog
// candidate of near-identical duration that scores strictly higher without
// introducing violations, worsening either neighbor, or lowering the
// playlist average. Greedy passes repeat until a pass makes no swap, so
// running the operation twice yields the same playlist as running it once.
func (g *Generator) ImproveBest(pl *Playlist) int {
	total := 0
	for pass := 0; pass < maxImprovePasses; pass++ {
		swaps := g.improvePass(pl)
		total += swaps
		if swaps == 0 {
			break
		}
	}
	return total
}

func (g *Generator) improvePass(pl *Playlist) int {
	swaps := 0
	for i := 1; i < len(pl.Items)-1; i++ {
		cur := &pl.Items[i]

		bestIdx := -1
		bestFinal := cur.Score.Final
		for ci := range g.items {
			cand := &g.items[ci]
			if cand.ID == cur.Item.ID {
				continue
			}
			diff := cand.Duration() - cur.Item.Duration()
			if diff < -improveDurationTolerance || diff > improveDurationTolerance {
				continue
			}
			sc := g.scoreAt(pl, i, cand)
			if sc.ForbiddenViolated || len(sc.Violations) > len(cur.Score.Violations) {
				continue
			}
			if sc.Final > bestFinal {
				bestFinal = sc.Final
				bestIdx = ci
			}
		}
		if bestIdx < 0 {
			continue
		}

		backup := append([]ScheduledItem(nil), pl.Items...)
		prevFinal := pl.Items[i-1].Score.Final
		nextFinal := pl.Items[i+1].Score.Final
		curFinal := cur.Score.Final
		avgBefore := pl.AverageScore

		cand := g.items[bestIdx]
		delta := cand.Duration() - cur.Item.Duration()
		cur.Item = cand
		cur.End = cur.Start.Add(cand.Duration())
		shiftFrom(pl, i+1, delta)
		g.Rescore(pl)

		if pl.Items[i].Score.Final <= curFinal ||
			pl.Items[i-1].Score.Final < prevFinal ||
			pl.Items[i+1].Score.Final < nextFinal ||
			pl.AverageScore < avgBefore {
			pl.Items = backup
			pl.recomputeAggregates()
			continue
		}
		swaps++
	}
	return swaps
}

// scoreAt scores a candidate as if it occupied position i of the playlist,
// using the settled first/last facts of that position.
func (g *Generator) scoreAt(pl *Playlist, i int, item *media.Item) scoring.Score {
	at := &pl.Items[i]
	occ := g.resolver.Resolve(at.Start)
	eff := g.profile.EffectiveCriteria(occ.Block)

	first := i == 0 || !sameOccurrence(&pl.Items[i-1], at, g.resolver)
	last := i == len(pl.Items)-1 || !sameOccurrence(at, &pl.Items[i+1], g.resolver)

	sctx := criteria.Context{
		Criteria:         &eff,
		Start:            at.Start,
		End:              at.Start.Add(item.Duration()),
		BlockStart:       occ.Start,
		BlockEnd:         occ.End,
		First:            first,
		Last:             last,
		RecentGenres:     genresBefore(pl.Items, i),
		CollectionCounts: playlistCollections(pl, i),
	}
	return g.engine.Score(item, &sctx)
}

// playlistCollections counts collections across the playlist excluding
// position i.
func playlistCollections(pl *Playlist, skip int) map[string]int {
	counts := make(map[string]int)
	for j := range pl.Items {
		if j == skip {
			continue
		}
		if c := pl.Items[j].Item.Collection; c != "" {
			counts[match.Normalize(c)]++
		}
	}
	return counts
}

func shiftFrom(pl *Playlist, i int, delta time.Duration) {
	if delta == 0 {
		return
	}
	for ; i < len(pl.Items); i++ {
		pl.Items[i].Start = pl.Items[i].Start.Add(delta)
		pl.Items[i].End = pl.Items[i].End.Add(delta)
	}
}
