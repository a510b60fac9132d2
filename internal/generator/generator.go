// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package generator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jmlagace/telecaster/internal/match"
	"github.com/jmlagace/telecaster/internal/media"
	"github.com/jmlagace/telecaster/internal/profile"
	"github.com/jmlagace/telecaster/internal/scoring"
	"github.com/jmlagace/telecaster/internal/scoring/criteria"
	"github.com/jmlagace/telecaster/internal/timeblock"
)

// ErrEmptyCatalog is returned when the snapshot has no items at all.
var ErrEmptyCatalog = errors.New("generator: empty catalog")

// ErrNoFeasibleSchedule is returned when every iteration failed to cover the
// horizon.
var ErrNoFeasibleSchedule = errors.New("generator: no feasible schedule")

// ErrInvalidItemDuration is returned when the snapshot carries an item with
// a non-positive duration; such an item would never advance the cursor.
var ErrInvalidItemDuration = errors.New("generator: item duration must be positive")

// errIterationInfeasible marks a single failed iteration; the run continues.
var errIterationInfeasible = errors.New("iteration infeasible")

const (
	defaultIterations  = 10
	defaultReuseWindow = 8
	defaultWorkers     = 4
	selectionEpsilon   = 1e-6
	recentGenreWindow  = 3
)

// Options parameterize one generation run.
type Options struct {
	// Start is the horizon start instant.
	Start time.Time

	// DurationDays is the horizon length; the playlist covers
	// [Start, Start + DurationDays*24h).
	DurationDays int

	// Iterations is the number of stochastic constructions. Zero falls back
	// to the profile default, then to 10.
	Iterations int

	// Randomness in [0,1]: 0 is almost greedy, 1 nearly uniform.
	Randomness float64

	// Seed is the base seed; iteration i derives its own RNG from (Seed, i).
	Seed int64

	// Workers bounds parallel iterations. Results are independent of the
	// worker count.
	Workers int

	// ReuseWindow forbids re-picking an item placed within the last K
	// positions. Zero means the default of 8.
	ReuseWindow int

	// Progress, when set, is called after each finished iteration with the
	// number done, the total, and the best average so far.
	Progress func(done, total int, bestAvg float64)
}

// RunStats summarizes a generation run.
type RunStats struct {
	Iterations int `json:"iterations"`
	Failures   int `json:"failures"`
}

// Generator builds playlists for one profile over one catalog snapshot.
type Generator struct {
	profile  *profile.Profile
	engine   *scoring.Engine
	resolver *timeblock.Resolver
	items    []media.Item
	logger   zerolog.Logger
}

// New builds a Generator. The snapshot must be non-empty.
func New(p *profile.Profile, snapshot *media.Snapshot, logger zerolog.Logger) (*Generator, error) {
	if snapshot.Len() == 0 {
		return nil, ErrEmptyCatalog
	}
	items := snapshot.Items()
	for i := range items {
		if items[i].DurationSec <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidItemDuration, items[i].ID)
		}
	}
	resolver, err := timeblock.NewResolver(p.Blocks)
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	return &Generator{
		profile:  p,
		engine:   scoring.NewEngine(p),
		resolver: resolver,
		items:    items,
		logger:   logger.With().Str("component", "generator").Logger(),
	}, nil
}

// Run executes the iteration loop and returns the best playlist. On
// cancellation the best playlist completed so far is returned alongside the
// context error, so callers can still persist it.
func (g *Generator) Run(ctx context.Context, opts Options) (*Playlist, RunStats, error) {
	opts = g.withDefaults(opts)
	total := opts.Iterations
	stats := RunStats{Iterations: total}

	results := make([]*Playlist, total)
	var mu sync.Mutex
	done, failures := 0, 0

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(opts.Workers)

	for i := 0; i < total; i++ {
		grp.Go(func() error {
			pl, err := g.buildIteration(gctx, i, opts)

			mu.Lock()
			defer mu.Unlock()
			done++
			switch {
			case errors.Is(err, errIterationInfeasible):
				failures++
				g.logger.Debug().Int("iteration", i).Msg("iteration infeasible")
			case err != nil:
				return err
			default:
				results[i] = pl
			}
			if opts.Progress != nil {
				opts.Progress(done, total, bestAverage(results))
			}
			return nil
		})
	}

	runErr := grp.Wait()
	stats.Failures = failures

	best := bestPlaylist(results)
	if runErr != nil {
		return best, stats, runErr
	}
	if best == nil {
		return nil, stats, ErrNoFeasibleSchedule
	}
	g.logger.Info().
		Int("iteration", best.Iteration).
		Float64("average", best.AverageScore).
		Int("failures", failures).
		Msg("generation complete")
	return best, stats, nil
}

func (g *Generator) withDefaults(opts Options) Options {
	if opts.Iterations <= 0 {
		opts.Iterations = g.profile.DefaultIterations
	}
	if opts.Iterations <= 0 {
		opts.Iterations = defaultIterations
	}
	if opts.Randomness <= 0 {
		opts.Randomness = g.profile.DefaultRandomness
	}
	if opts.DurationDays <= 0 {
		opts.DurationDays = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.ReuseWindow <= 0 {
		opts.ReuseWindow = defaultReuseWindow
	}
	return opts
}

// buildIteration constructs one candidate playlist.
func (g *Generator) buildIteration(ctx context.Context, iteration int, opts Options) (*Playlist, error) {
	rng := newRNG(opts.Seed, iteration)
	alpha := selectionAlpha(opts.Randomness)
	horizonEnd := opts.Start.Add(time.Duration(opts.DurationDays) * 24 * time.Hour)

	pl := &Playlist{Iteration: iteration}
	reuse := newReuseWindow(opts.ReuseWindow)
	occCounts := make(map[string]int)
	collections := make(map[string]int)
	var recentGenres [][]string

	cursor := opts.Start
	for cursor.Before(horizonEnd) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		occ := g.resolver.Resolve(cursor)
		eff := g.profile.EffectiveCriteria(occ.Block)
		filter := &candidateFilter{criteria: &eff, blockEnd: occ.End, recent: reuse.set}

		var candidates []media.Item
		for rung := rungStrict; rung <= rungAnyNonForbidden; rung++ {
			candidates = filter.filter(g.items, cursor, rung)
			if len(candidates) > 0 {
				break
			}
		}
		if len(candidates) == 0 {
			// Nothing placeable even fully relaxed: mark the hole with a
			// synthetic gap item and abandon the iteration.
			pl.Items = append(pl.Items, gapItem(cursor, occ.End, horizonEnd, occ.Name))
			return pl, errIterationInfeasible
		}

		first := occCounts[occ.Key()] == 0
		scores := make([]scoring.Score, len(candidates))
		weights := make([]float64, len(candidates))
		for ci := range candidates {
			item := &candidates[ci]
			end := cursor.Add(item.Duration())
			sctx := criteria.Context{
				Criteria:         &eff,
				Start:            cursor,
				End:              end,
				BlockStart:       occ.Start,
				BlockEnd:         occ.End,
				First:            first,
				Last:             speculativeLast(candidates, occ.End, end),
				RecentGenres:     recentGenres,
				CollectionCounts: collections,
			}
			scores[ci] = g.engine.Score(item, &sctx)
			weights[ci] = math.Max(selectionEpsilon, math.Pow(scores[ci].Final/100, alpha))
		}

		pick := weightedPick(rng, weights)
		chosen := candidates[pick]
		end := cursor.Add(chosen.Duration())

		pl.Items = append(pl.Items, ScheduledItem{
			Item:      chosen,
			Start:     cursor,
			End:       end,
			BlockName: occ.Name,
			Score:     scores[pick],
		})

		occCounts[occ.Key()]++
		reuse.add(chosen.ID)
		recentGenres = appendGenreWindow(recentGenres, chosen.Genres)
		if chosen.Collection != "" {
			collections[match.Normalize(chosen.Collection)]++
		}
		cursor = end
	}

	// Positions are settled now; rescore so first/last timing facts and
	// collection counts reflect the final layout.
	g.Rescore(pl)
	if err := pl.CheckContiguity(); err != nil {
		return nil, fmt.Errorf("internal-invariant: %w", err)
	}
	return pl, nil
}

// Rescore recomputes every item's score from its settled position and
// re-derives playlist aggregates. Shared by construction, the optimizer and
// the analysis path.
func (g *Generator) Rescore(pl *Playlist) {
	collections := make(map[string]int)
	for i := range pl.Items {
		if c := pl.Items[i].Item.Collection; c != "" {
			collections[match.Normalize(c)]++
		}
	}

	for i := range pl.Items {
		it := &pl.Items[i]
		occ := g.resolver.Resolve(it.Start)
		eff := g.profile.EffectiveCriteria(occ.Block)

		first := i == 0 || !sameOccurrence(&pl.Items[i-1], it, g.resolver)
		last := i == len(pl.Items)-1 || !sameOccurrence(it, &pl.Items[i+1], g.resolver)

		// Exclude the item itself from its collection count.
		counts := collections
		if c := it.Item.Collection; c != "" {
			counts = cloneCounts(collections)
			counts[match.Normalize(c)]--
		}

		sctx := criteria.Context{
			Criteria:         &eff,
			Start:            it.Start,
			End:              it.End,
			BlockStart:       occ.Start,
			BlockEnd:         occ.End,
			First:            first,
			Last:             last,
			RecentGenres:     genresBefore(pl.Items, i),
			CollectionCounts: counts,
		}
		it.BlockName = occ.Name
		it.Score = g.engine.Score(&it.Item, &sctx)
	}
	pl.recomputeAggregates()
}

// speculativeLast reports whether no candidate could still follow within the
// block after end.
func speculativeLast(candidates []media.Item, blockEnd, end time.Time) bool {
	remaining := blockEnd.Sub(end)
	if remaining <= 0 {
		return true
	}
	for i := range candidates {
		if candidates[i].Duration() <= remaining {
			return false
		}
	}
	return true
}

func sameOccurrence(a, b *ScheduledItem, r *timeblock.Resolver) bool {
	return r.Resolve(a.Start).Key() == r.Resolve(b.Start).Key()
}

// fillerGapID marks the synthetic item recorded where an infeasible
// iteration could place nothing.
const fillerGapID = "filler-gap"

func gapItem(start, blockEnd, horizonEnd time.Time, blockName string) ScheduledItem {
	end := blockEnd
	if end.After(horizonEnd) {
		end = horizonEnd
	}
	return ScheduledItem{
		Item: media.Item{
			ID:          fillerGapID,
			Title:       "Filler Gap",
			Kind:        media.KindFiller,
			DurationSec: int(end.Sub(start).Seconds()),
		},
		Start:     start,
		End:       end,
		BlockName: blockName,
	}
}

// appendGenreWindow slides the recent-genre window forward, keeping the
// genre lists of the last recentGenreWindow placements.
func appendGenreWindow(window [][]string, genres []string) [][]string {
	window = append(window, genres)
	if len(window) > recentGenreWindow {
		window = window[len(window)-recentGenreWindow:]
	}
	return window
}

func genresBefore(items []ScheduledItem, i int) [][]string {
	lo := i - recentGenreWindow
	if lo < 0 {
		lo = 0
	}
	out := make([][]string, 0, i-lo)
	for j := lo; j < i; j++ {
		out = append(out, items[j].Item.Genres)
	}
	return out
}

func cloneCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// weightedPick draws an index proportional to the weights.
func weightedPick(rng interface{ Float64() float64 }, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	x := rng.Float64() * total
	for i, w := range weights {
		x -= w
		if x < 0 {
			return i
		}
	}
	return len(weights) - 1
}

func bestPlaylist(results []*Playlist) *Playlist {
	var best *Playlist
	for _, pl := range results {
		if pl == nil {
			continue
		}
		if best == nil || pl.AverageScore > best.AverageScore {
			best = pl
		}
	}
	return best
}

func bestAverage(results []*Playlist) float64 {
	if best := bestPlaylist(results); best != nil {
		return best.AverageScore
	}
	return 0
}

// reuseWindow tracks the last K placed item IDs.
type reuseWindow struct {
	k     int
	order []string
	set   map[string]struct{}
}

func newReuseWindow(k int) *reuseWindow {
	return &reuseWindow{k: k, set: make(map[string]struct{}, k)}
}

func (w *reuseWindow) add(id string) {
	w.order = append(w.order, id)
	w.set[id] = struct{}{}
	if len(w.order) > w.k {
		evicted := w.order[0]
		w.order = w.order[1:]
		stillHeld := false
		for _, v := range w.order {
			if v == evicted {
				stillHeld = true
				break
			}
		}
		if !stillHeld {
			delete(w.set, evicted)
		}
	}
}
