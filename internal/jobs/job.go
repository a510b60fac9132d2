// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

// Package jobs owns the lifecycle of long-running generation and analysis
// tasks: a single-owner manager serializes all registry mutations through
// its inbox, workers run the actual work on a bounded pool, and an event
// broker fans job state out to subscribers with a drop-slow policy.
package jobs

import (
	"context"
	"errors"
	"time"
)

// Kind classifies a job.
type Kind string

const (
	KindGenerate   Kind = "generate"
	KindAnalyze    Kind = "analyze"
	KindPreview    Kind = "preview"
	KindSync       Kind = "sync"
	KindAIGenerate Kind = "ai-generate"
)

// Status is a job lifecycle state. Transitions only move forward:
// pending -> running -> (completed | failed | cancelled).
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Failure reasons surfaced on terminal job state.
const (
	ReasonEmptyCatalog       = "empty-catalog"
	ReasonNoFeasibleSchedule = "no-feasible-schedule"
	ReasonDeadlineExceeded   = "deadline-exceeded"
	ReasonInternalInvariant  = "internal-invariant"
)

// ErrJobNotFound is returned for unknown job IDs.
var ErrJobNotFound = errors.New("jobs: job not found")

// ErrManagerStopped is returned when the manager's control loop is not
// running.
var ErrManagerStopped = errors.New("jobs: manager stopped")

// Job is an immutable snapshot of one job's state. The manager hands out
// copies; mutating one has no effect.
type Job struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	Status   Status  `json:"status"`
	Progress float64 `json:"progress"`
	Phase    string  `json:"phase,omitempty"`

	// Steps is the ordered list of phase labels the job has passed through.
	Steps []string `json:"steps,omitempty"`

	CurrentIteration int     `json:"current_iteration,omitempty"`
	TotalIterations  int     `json:"total_iterations,omitempty"`
	BestScore        float64 `json:"best_score,omitempty"`

	ProfileID string `json:"profile_id,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	ResultID string `json:"result_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Outcome is what a job's work function hands back on completion (or on
// cancellation, for the best-so-far result).
type Outcome struct {
	ResultID  string
	BestScore float64
}

// Reporter lets a running job publish progress. Calls are cheap; the
// manager throttles event fan-out.
type Reporter interface {
	// Phase records a new phase label.
	Phase(label string)

	// Progress updates completion percentage and iteration counters.
	Progress(pct float64, current, total int, bestScore float64)
}

// RunFunc is the work body of a job. It must honor ctx cancellation at its
// checkpoints; on cancellation it should persist its best-so-far outcome
// and return it alongside ctx.Err().
type RunFunc func(ctx context.Context, rep Reporter) (*Outcome, error)

// Spec describes a job at submission time.
type Spec struct {
	Kind      Kind
	ProfileID string
	ChannelID string

	// Deadline bounds the job's runtime. Zero means none.
	Deadline time.Duration

	Run RunFunc
}
