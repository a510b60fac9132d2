// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jmlagace/telecaster/internal/generator"
	"github.com/jmlagace/telecaster/internal/media"
	"github.com/jmlagace/telecaster/internal/metrics"
	"github.com/jmlagace/telecaster/internal/playout"
	"github.com/jmlagace/telecaster/internal/profile"
	"github.com/jmlagace/telecaster/internal/store"
)

// JobService is the job-control surface the transport layer consumes.
type JobService interface {
	Submit(spec Spec) (string, error)
	Cancel(id string) error
	Get(id string) (*Job, error)
	ListActive() ([]*Job, error)
	ClearCompleted() (int, error)
	Subscribe() (*Subscription, error)
}

// ResultReader is the read-only passthrough to the result store.
type ResultReader interface {
	Load(id string) (*store.Result, error)
}

// Deps bundles the collaborators the generation and scoring services need.
type Deps struct {
	Manager  *Manager
	Catalog  *media.CachedSource
	Profiles profile.Source
	Results  store.ResultStore
	History  store.HistoryRecorder
	Sink     playout.Sink
	Logger   zerolog.Logger
}

// GenerateOptions parameterize one generation request. Zero values fall
// back to profile, then server defaults.
type GenerateOptions struct {
	Iterations   int
	Randomness   float64
	DurationDays int
	Start        time.Time
	Seed         int64

	CacheMode   media.CacheMode
	PreviewOnly bool

	ReplaceForbidden bool
	ImproveBest      bool

	Deadline time.Duration
}

// GenerationService submits generation jobs.
type GenerationService struct {
	deps   Deps
	logger zerolog.Logger
}

// NewGenerationService builds a GenerationService.
func NewGenerationService(deps Deps) *GenerationService {
	return &GenerationService{
		deps:   deps,
		logger: deps.Logger.With().Str("component", "generation").Logger(),
	}
}

// Generate validates inputs synchronously and submits a generation job.
// Returns the job ID immediately.
func (s *GenerationService) Generate(ctx context.Context, channelID, profileID string, opts GenerateOptions) (string, error) {
	prof, err := s.resolveProfile(ctx, profileID)
	if err != nil {
		return "", err
	}
	if channelID == "" && !opts.PreviewOnly {
		return "", fmt.Errorf("jobs: channel required unless preview_only")
	}
	if opts.Start.IsZero() {
		opts.Start = time.Now().UTC().Truncate(time.Minute)
	}
	if opts.DurationDays <= 0 {
		opts.DurationDays = 1
	}
	if opts.CacheMode == "" {
		opts.CacheMode = media.CacheAuto
	}
	if opts.Iterations <= 0 {
		opts.Iterations = prof.DefaultIterations
	}
	if opts.Randomness == 0 {
		opts.Randomness = prof.DefaultRandomness
	}

	kind := KindGenerate
	if opts.PreviewOnly {
		kind = KindPreview
	}
	spec := Spec{
		Kind:      kind,
		ProfileID: profileID,
		ChannelID: channelID,
		Deadline:  opts.Deadline,
		Run: func(ctx context.Context, rep Reporter) (*Outcome, error) {
			return s.runGeneration(ctx, rep, prof.Clone(), channelID, opts)
		},
	}
	return s.deps.Manager.Submit(spec)
}

// runGeneration is the worker body of a generate/preview job.
func (s *GenerationService) runGeneration(ctx context.Context, rep Reporter, prof *profile.Profile, channelID string, opts GenerateOptions) (*Outcome, error) {
	rep.Phase("catalog")
	snap, err := s.deps.Catalog.Snapshot(ctx, prof.Libraries, opts.CacheMode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ReasonEmptyCatalog, err)
	}
	if snap.Len() == 0 {
		return nil, errors.New(ReasonEmptyCatalog)
	}

	gen, err := generator.New(prof, snap, s.logger)
	if err != nil {
		return nil, wrapGeneratorErr(err)
	}

	rep.Phase("generate")
	genOpts := generator.Options{
		Start:        opts.Start,
		DurationDays: opts.DurationDays,
		Iterations:   opts.Iterations,
		Randomness:   opts.Randomness,
		Seed:         opts.Seed,
		Progress: func(done, total int, bestAvg float64) {
			metrics.IterationsTotal.Inc()
			rep.Progress(float64(done)/float64(total)*90, done, total, bestAvg)
		},
	}

	best, stats, runErr := gen.Run(ctx, genOpts)
	metrics.IterationFailures.Add(float64(stats.Failures))

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		if errors.Is(runErr, generator.ErrNoFeasibleSchedule) {
			return nil, fmt.Errorf("%s: %w", ReasonNoFeasibleSchedule, runErr)
		}
		return nil, runErr
	}
	if best == nil {
		// Cancelled before any iteration finished.
		return nil, runErr
	}

	if runErr == nil {
		rep.Phase("optimize")
		if opts.ReplaceForbidden {
			gen.ReplaceForbidden(best)
		}
		if opts.ImproveBest {
			gen.ImproveBest(best)
		}
	}

	rep.Phase("persist")
	outcome, persistErr := s.persist(rep, best, stats, prof, channelID, opts)
	if persistErr != nil {
		return nil, persistErr
	}
	if runErr != nil {
		// Cooperative cancellation: best-so-far is persisted, the job
		// still terminates as cancelled.
		return outcome, runErr
	}

	if !opts.PreviewOnly {
		rep.Phase("apply")
		if err := s.deps.Sink.Apply(ctx, channelID, best); err != nil {
			// Playout failure does not undo a completed generation; it is
			// surfaced as a post-completion action result.
			s.logger.Warn().Err(err).Str("channel", channelID).Msg("playout apply failed")
		}
	}

	rep.Progress(100, 0, 0, best.AverageScore)
	return outcome, nil
}

func (s *GenerationService) persist(_ Reporter, best *generator.Playlist, stats generator.RunStats, prof *profile.Profile, channelID string, opts GenerateOptions) (*Outcome, error) {
	result := &store.Result{
		ProfileID: prof.ID,
		ChannelID: channelID,
		Playlist:  best,
		Stats:     stats,
		Preview:   opts.PreviewOnly,
	}
	id, err := s.deps.Results.Save(result)
	if err != nil {
		return nil, fmt.Errorf("persist result: %w", err)
	}
	return &Outcome{ResultID: id, BestScore: best.AverageScore}, nil
}

// wrapGeneratorErr maps generator construction failures onto the stable
// failure reasons surfaced on terminal jobs.
func wrapGeneratorErr(err error) error {
	switch {
	case errors.Is(err, generator.ErrEmptyCatalog):
		return fmt.Errorf("%s: %w", ReasonEmptyCatalog, err)
	case errors.Is(err, generator.ErrInvalidItemDuration):
		return fmt.Errorf("%s: %w", ReasonInternalInvariant, err)
	}
	return err
}

func (s *GenerationService) resolveProfile(ctx context.Context, profileID string) (*profile.Profile, error) {
	prof, err := s.deps.Profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if err := prof.Validate(); err != nil {
		return nil, err
	}
	return prof, nil
}

// ScoringService submits analysis jobs: an existing channel lineup is
// fetched and scored with the same engine paths as generation.
type ScoringService struct {
	deps   Deps
	gen    *GenerationService
	logger zerolog.Logger
}

// NewScoringService builds a ScoringService.
func NewScoringService(deps Deps) *ScoringService {
	return &ScoringService{
		deps:   deps,
		gen:    NewGenerationService(deps),
		logger: deps.Logger.With().Str("component", "scoring-service").Logger(),
	}
}

// AnalyzeOptions parameterize an analysis request.
type AnalyzeOptions struct {
	// Start anchors the laid-out timeline. Zero means now.
	Start time.Time

	CacheMode media.CacheMode
	Deadline  time.Duration
}

// Analyze submits a job that scores the channel's current lineup against
// the profile.
func (s *ScoringService) Analyze(ctx context.Context, channelID, profileID string, opts AnalyzeOptions) (string, error) {
	prof, err := s.gen.resolveProfile(ctx, profileID)
	if err != nil {
		return "", err
	}
	if channelID == "" {
		return "", fmt.Errorf("jobs: channel required")
	}
	if opts.Start.IsZero() {
		opts.Start = time.Now().UTC().Truncate(time.Minute)
	}

	spec := Spec{
		Kind:      KindAnalyze,
		ProfileID: profileID,
		ChannelID: channelID,
		Deadline:  opts.Deadline,
		Run: func(ctx context.Context, rep Reporter) (*Outcome, error) {
			return s.runAnalysis(ctx, rep, prof.Clone(), channelID, opts)
		},
	}
	return s.deps.Manager.Submit(spec)
}

func (s *ScoringService) runAnalysis(ctx context.Context, rep Reporter, prof *profile.Profile, channelID string, opts AnalyzeOptions) (*Outcome, error) {
	rep.Phase("fetch")
	lineup, err := s.deps.Sink.Current(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("fetch channel lineup: %w", err)
	}
	if len(lineup) == 0 {
		return nil, errors.New(ReasonEmptyCatalog)
	}

	gen, err := generator.New(prof, media.NewSnapshot(lineup), s.logger)
	if err != nil {
		return nil, wrapGeneratorErr(err)
	}

	rep.Phase("score")
	pl := &generator.Playlist{}
	cursor := opts.Start
	for _, item := range lineup {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := cursor.Add(item.Duration())
		pl.Items = append(pl.Items, generator.ScheduledItem{Item: item, Start: cursor, End: end})
		cursor = end
	}
	gen.Rescore(pl)

	rep.Phase("persist")
	result := &store.Result{
		ProfileID: prof.ID,
		ChannelID: channelID,
		Playlist:  pl,
	}
	id, err := s.deps.Results.Save(result)
	if err != nil {
		return nil, fmt.Errorf("persist analysis: %w", err)
	}

	rep.Progress(100, 0, 0, pl.AverageScore)
	return &Outcome{ResultID: id, BestScore: pl.AverageScore}, nil
}

// HistoryHook starts a subscriber goroutine that records terminal events
// into the history store. The returned channel closes once the subscription
// drains; callers must wait on it after closing the subscription and before
// closing the underlying store.
func HistoryHook(sub *Subscription, history store.HistoryRecorder, logger zerolog.Logger) <-chan struct{} {
	log := logger.With().Str("component", "history").Logger()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range sub.Events() {
			if ev.Job == nil || !ev.Job.Status.Terminal() {
				continue
			}
			if ev.Job.Kind == KindPreview {
				continue
			}
			entry := &store.HistoryEntry{
				JobID:     ev.Job.ID,
				Kind:      string(ev.Job.Kind),
				Status:    string(ev.Job.Status),
				ProfileID: ev.Job.ProfileID,
				ChannelID: ev.Job.ChannelID,
				BestScore: ev.Job.BestScore,
				ResultID:  ev.Job.ResultID,
				Error:     ev.Job.Error,
			}
			if err := history.Record(entry); err != nil {
				log.Warn().Err(err).Str("job_id", ev.Job.ID).Msg("history record failed")
			}
		}
	}()
	return done
}
