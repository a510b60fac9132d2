// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jmlagace/telecaster/internal/metrics"
)

// Config tunes the job manager.
type Config struct {
	// MaxConcurrent bounds running jobs; further submissions queue as
	// pending. Default 2.
	MaxConcurrent int

	// Retention caps retained terminal jobs; older ones are evicted FIFO.
	// Default 50.
	Retention int

	// ProgressInterval is the minimum spacing of job_progress events per
	// job. Default 250ms (4 Hz).
	ProgressInterval time.Duration

	// SubscriberQueue is the per-subscriber event buffer. Default 64.
	SubscriberQueue int

	// Grace is how long after a deadline-triggered cancel a job may keep
	// running before it is forcibly marked failed. Default 10s.
	Grace time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 2
	}
	if c.Retention <= 0 {
		c.Retention = 50
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = 250 * time.Millisecond
	}
	if c.Grace <= 0 {
		c.Grace = 10 * time.Second
	}
	return c
}

// jobRecord is the manager-private mutable state of one job. Only the
// control loop touches it.
type jobRecord struct {
	job    Job
	spec   Spec
	cancel context.CancelFunc

	lastProgressEvent time.Time
	deadlineFired     bool
}

// command is one registry mutation, executed on the control loop.
type command func(m *Manager)

// Manager is the single owner of the job registry. It runs as a
// suture.Service; all state changes flow through its inbox so no lock
// guards the registry.
type Manager struct {
	cfg    Config
	logger zerolog.Logger
	broker *broker

	inbox chan command
	done  chan struct{}

	// Control-loop state. Never touched outside Serve.
	jobs     map[string]*jobRecord
	order    []string // insertion order, for retention
	pending  []string
	running  int
	workCtx  context.Context
	stopWork context.CancelFunc
}

// NewManager builds a Manager.
func NewManager(cfg Config, logger zerolog.Logger) *Manager {
	cfg = cfg.withDefaults()
	log := logger.With().Str("component", "jobs").Logger()
	return &Manager{
		cfg:    cfg,
		logger: log,
		broker: newBroker(cfg.SubscriberQueue, log),
		inbox:  make(chan command, 64),
		done:   make(chan struct{}),
		jobs:   make(map[string]*jobRecord),
	}
}

// Serve runs the control loop until ctx is done. Implements
// suture.Service.
func (m *Manager) Serve(ctx context.Context) error {
	m.workCtx, m.stopWork = context.WithCancel(context.Background())
	defer m.stopWork()

	for {
		select {
		case <-ctx.Done():
			close(m.done)
			m.broker.closeAll()
			return ctx.Err()
		case cmd := <-m.inbox:
			cmd(m)
		}
	}
}

// do runs a command on the control loop and waits for it.
func (m *Manager) do(cmd command) error {
	doneCh := make(chan struct{})
	wrapped := func(m *Manager) {
		cmd(m)
		close(doneCh)
	}
	select {
	case m.inbox <- wrapped:
	case <-m.done:
		return ErrManagerStopped
	}
	select {
	case <-doneCh:
		return nil
	case <-m.done:
		return ErrManagerStopped
	}
}

// send queues a command without waiting, used from worker goroutines.
func (m *Manager) send(cmd command) {
	select {
	case m.inbox <- cmd:
	case <-m.done:
	}
}

// Submit validates and enqueues a job, returning its ID immediately.
func (m *Manager) Submit(spec Spec) (string, error) {
	if spec.Run == nil {
		return "", fmt.Errorf("jobs: spec has no run function")
	}
	id := uuid.NewString()

	err := m.do(func(m *Manager) {
		rec := &jobRecord{
			job: Job{
				ID:        id,
				Kind:      spec.Kind,
				Status:    StatusPending,
				ProfileID: spec.ProfileID,
				ChannelID: spec.ChannelID,
				CreatedAt: time.Now().UTC(),
			},
			spec: spec,
		}
		m.jobs[id] = rec
		m.order = append(m.order, id)
		m.pending = append(m.pending, id)
		metrics.JobsPending.Inc()

		m.publish(EventJobCreated, rec)
		m.dispatch()
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Cancel requests cooperative cancellation. The job transitions to
// cancelled at its next checkpoint.
func (m *Manager) Cancel(id string) error {
	var found bool
	err := m.do(func(m *Manager) {
		rec, ok := m.jobs[id]
		if !ok {
			return
		}
		found = true
		switch rec.job.Status {
		case StatusPending:
			// Never started: cancel immediately.
			m.removePending(id)
			m.finish(rec, nil, context.Canceled)
		case StatusRunning:
			rec.cancel()
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return nil
}

// Get returns a snapshot of one job.
func (m *Manager) Get(id string) (*Job, error) {
	var out *Job
	err := m.do(func(m *Manager) {
		if rec, ok := m.jobs[id]; ok {
			out = rec.snapshot()
		}
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return out, nil
}

// ListActive returns snapshots of all pending and running jobs.
func (m *Manager) ListActive() ([]*Job, error) {
	var out []*Job
	err := m.do(func(m *Manager) {
		for _, id := range m.order {
			rec := m.jobs[id]
			if !rec.job.Status.Terminal() {
				out = append(out, rec.snapshot())
			}
		}
	})
	return out, err
}

// ClearCompleted removes all terminal jobs and returns how many were
// removed.
func (m *Manager) ClearCompleted() (int, error) {
	removed := 0
	err := m.do(func(m *Manager) {
		kept := m.order[:0]
		for _, id := range m.order {
			if m.jobs[id].job.Status.Terminal() {
				delete(m.jobs, id)
				removed++
			} else {
				kept = append(kept, id)
			}
		}
		m.order = kept
	})
	return removed, err
}

// Subscribe attaches a new event consumer. The first event on the stream
// is a jobs_state snapshot of every known job.
func (m *Manager) Subscribe() (*Subscription, error) {
	var sub *Subscription
	err := m.do(func(m *Manager) {
		snapshot := Event{Type: EventJobsState}
		for _, id := range m.order {
			snapshot.Jobs = append(snapshot.Jobs, m.jobs[id].snapshot())
		}
		sub = m.broker.subscribe(snapshot)
	})
	return sub, err
}

// dispatch starts pending jobs while worker slots are free. Control-loop
// only.
func (m *Manager) dispatch() {
	for m.running < m.cfg.MaxConcurrent && len(m.pending) > 0 {
		id := m.pending[0]
		m.pending = m.pending[1:]
		metrics.JobsPending.Dec()

		rec, ok := m.jobs[id]
		if !ok || rec.job.Status != StatusPending {
			continue
		}
		m.start(rec)
	}
}

// start transitions a job to running and launches its worker. Control-loop
// only.
func (m *Manager) start(rec *jobRecord) {
	ctx, cancel := context.WithCancel(m.workCtx)
	rec.cancel = cancel

	now := time.Now().UTC()
	rec.job.Status = StatusRunning
	rec.job.StartedAt = &now
	m.running++
	metrics.JobsRunning.Inc()
	m.publish(EventJobStarted, rec)

	if rec.spec.Deadline > 0 {
		m.armDeadline(rec.job.ID, rec.spec.Deadline)
	}

	go m.runWorker(ctx, rec.job.ID, rec.spec)
}

// runWorker executes the job body off the control loop and reports the
// outcome back through the inbox. Panics become job failures; the manager
// itself never dies with a job.
func (m *Manager) runWorker(ctx context.Context, id string, spec Spec) {
	started := time.Now()
	var (
		outcome *Outcome
		runErr  error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error().
					Str("job_id", id).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("job panicked")
				runErr = fmt.Errorf("%s: panic: %v", ReasonInternalInvariant, r)
			}
		}()
		outcome, runErr = spec.Run(ctx, &reporter{manager: m, jobID: id})
	}()

	if spec.Kind == KindGenerate || spec.Kind == KindPreview {
		metrics.GenerationDuration.Observe(time.Since(started).Seconds())
	}

	m.send(func(m *Manager) {
		rec, ok := m.jobs[id]
		if !ok || rec.job.Status.Terminal() {
			// Evicted, or forced failed after the deadline grace; a stale
			// result is not honored.
			return
		}
		m.finish(rec, outcome, runErr)
		m.dispatch()
	})
}

// finish applies a terminal transition. Control-loop only.
func (m *Manager) finish(rec *jobRecord, outcome *Outcome, runErr error) {
	if rec.job.Status == StatusRunning {
		m.running--
		metrics.JobsRunning.Dec()
	}

	now := time.Now().UTC()
	rec.job.FinishedAt = &now
	rec.job.Progress = 100

	switch {
	case runErr == nil:
		rec.job.Status = StatusCompleted
	case errors.Is(runErr, context.Canceled) && rec.deadlineFired:
		rec.job.Status = StatusFailed
		rec.job.Error = ReasonDeadlineExceeded
	case errors.Is(runErr, context.Canceled):
		rec.job.Status = StatusCancelled
	default:
		rec.job.Status = StatusFailed
		rec.job.Error = runErr.Error()
	}
	if outcome != nil {
		rec.job.ResultID = outcome.ResultID
		rec.job.BestScore = outcome.BestScore
		if rec.job.Status == StatusCompleted {
			metrics.BestScore.Set(outcome.BestScore)
		}
	}
	if rec.cancel != nil {
		rec.cancel()
	}

	metrics.JobsTotal.WithLabelValues(string(rec.job.Kind), string(rec.job.Status)).Inc()
	m.logger.Info().
		Str("job_id", rec.job.ID).
		Str("kind", string(rec.job.Kind)).
		Str("status", string(rec.job.Status)).
		Float64("best_score", rec.job.BestScore).
		Msg("job finished")

	m.publish(terminalEventFor(rec.job.Status), rec)
	m.evict()
}

// evict drops the oldest terminal jobs beyond the retention cap.
// Control-loop only.
func (m *Manager) evict() {
	terminal := 0
	for _, id := range m.order {
		if m.jobs[id].job.Status.Terminal() {
			terminal++
		}
	}
	if terminal <= m.cfg.Retention {
		return
	}

	kept := m.order[:0]
	for _, id := range m.order {
		if terminal > m.cfg.Retention && m.jobs[id].job.Status.Terminal() {
			delete(m.jobs, id)
			terminal--
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
}

// armDeadline schedules the deadline cancel and the post-grace forced
// failure.
func (m *Manager) armDeadline(id string, deadline time.Duration) {
	time.AfterFunc(deadline, func() {
		m.send(func(m *Manager) {
			rec, ok := m.jobs[id]
			if !ok || rec.job.Status != StatusRunning {
				return
			}
			rec.deadlineFired = true
			rec.cancel()
			m.logger.Warn().Str("job_id", id).Msg("job deadline reached, cancelling")
		})
	})
	time.AfterFunc(deadline+m.cfg.Grace, func() {
		m.send(func(m *Manager) {
			rec, ok := m.jobs[id]
			if !ok || rec.job.Status.Terminal() {
				return
			}
			m.finish(rec, nil, fmt.Errorf("%s", ReasonDeadlineExceeded))
			m.dispatch()
		})
	})
}

// removePending deletes an ID from the pending queue. Control-loop only.
func (m *Manager) removePending(id string) {
	for i, p := range m.pending {
		if p == id {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			metrics.JobsPending.Dec()
			return
		}
	}
}

// publish emits a per-job event with a fresh snapshot. Control-loop only.
func (m *Manager) publish(t EventType, rec *jobRecord) {
	m.broker.publish(Event{Type: t, Job: rec.snapshot()})
}

func (r *jobRecord) snapshot() *Job {
	j := r.job
	j.Steps = append([]string(nil), r.job.Steps...)
	return &j
}

// reporter relays progress from a worker into the control loop, throttled
// to the configured progress rate.
type reporter struct {
	manager *Manager
	jobID   string
}

// Phase implements Reporter.
func (r *reporter) Phase(label string) {
	r.manager.send(func(m *Manager) {
		rec, ok := m.jobs[r.jobID]
		if !ok || rec.job.Status.Terminal() {
			return
		}
		rec.job.Phase = label
		rec.job.Steps = append(rec.job.Steps, label)
		m.emitProgress(rec, false)
	})
}

// Progress implements Reporter.
func (r *reporter) Progress(pct float64, current, total int, bestScore float64) {
	r.manager.send(func(m *Manager) {
		rec, ok := m.jobs[r.jobID]
		if !ok || rec.job.Status.Terminal() {
			return
		}
		if pct < rec.job.Progress {
			pct = rec.job.Progress
		}
		rec.job.Progress = pct
		rec.job.CurrentIteration = current
		rec.job.TotalIterations = total
		rec.job.BestScore = bestScore
		m.emitProgress(rec, pct >= 100)
	})
}

// emitProgress publishes a job_progress event unless one was published too
// recently. Control-loop only.
func (m *Manager) emitProgress(rec *jobRecord, force bool) {
	now := time.Now()
	if !force && now.Sub(rec.lastProgressEvent) < m.cfg.ProgressInterval {
		return
	}
	rec.lastProgressEvent = now
	m.publish(EventJobProgress, rec)
}
