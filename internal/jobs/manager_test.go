// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 5 * time.Second
	tick    = 5 * time.Millisecond
)

func startManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	m := NewManager(cfg, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go m.Serve(ctx) //nolint:errcheck
	t.Cleanup(cancel)

	// Serve registered its inbox once a no-op command round-trips.
	require.Eventually(t, func() bool {
		return m.do(func(*Manager) {}) == nil
	}, waitFor, tick)
	return m
}

func quickSpec(kind Kind) Spec {
	return Spec{
		Kind: kind,
		Run: func(ctx context.Context, rep Reporter) (*Outcome, error) {
			return &Outcome{ResultID: "r", BestScore: 80}, nil
		},
	}
}

// blockingSpec runs until release is closed, honoring ctx.
func blockingSpec(started chan<- string, release <-chan struct{}) Spec {
	return Spec{
		Kind: KindGenerate,
		Run: func(ctx context.Context, rep Reporter) (*Outcome, error) {
			if started != nil {
				started <- "started"
			}
			select {
			case <-release:
				return &Outcome{ResultID: "done"}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
}

func waitStatus(t *testing.T, m *Manager, id string, want Status) *Job {
	t.Helper()
	var job *Job
	require.Eventually(t, func() bool {
		j, err := m.Get(id)
		if err != nil {
			return false
		}
		job = j
		return j.Status == want
	}, waitFor, tick, "job %s never reached %s", id, want)
	return job
}

func TestSubmitRunsToCompletion(t *testing.T) {
	m := startManager(t, Config{})

	id, err := m.Submit(quickSpec(KindGenerate))
	require.NoError(t, err)

	job := waitStatus(t, m, id, StatusCompleted)
	assert.Equal(t, "r", job.ResultID)
	assert.Equal(t, 80.0, job.BestScore)
	assert.Equal(t, 100.0, job.Progress)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.FinishedAt)
}

func TestSubmitWithoutRunFails(t *testing.T) {
	m := startManager(t, Config{})
	_, err := m.Submit(Spec{Kind: KindGenerate})
	require.Error(t, err)
}

func TestConcurrencyLimitQueuesExcessJobs(t *testing.T) {
	m := startManager(t, Config{MaxConcurrent: 2})

	started := make(chan string, 4)
	release := make(chan struct{})
	var ids []string
	for i := 0; i < 4; i++ {
		id, err := m.Submit(blockingSpec(started, release))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	<-started
	<-started
	select {
	case <-started:
		t.Fatal("third job started despite max_concurrent=2")
	case <-time.After(100 * time.Millisecond):
	}

	waitStatus(t, m, ids[0], StatusRunning)
	waitStatus(t, m, ids[1], StatusRunning)
	waitStatus(t, m, ids[2], StatusPending)
	waitStatus(t, m, ids[3], StatusPending)

	active, err := m.ListActive()
	require.NoError(t, err)
	assert.Len(t, active, 4)

	close(release)
	for _, id := range ids {
		waitStatus(t, m, id, StatusCompleted)
	}
}

func TestCancelPendingJob(t *testing.T) {
	m := startManager(t, Config{MaxConcurrent: 1})

	release := make(chan struct{})
	defer close(release)
	blocker, err := m.Submit(blockingSpec(nil, release))
	require.NoError(t, err)
	waitStatus(t, m, blocker, StatusRunning)

	queued, err := m.Submit(blockingSpec(nil, release))
	require.NoError(t, err)
	waitStatus(t, m, queued, StatusPending)

	require.NoError(t, m.Cancel(queued))
	job := waitStatus(t, m, queued, StatusCancelled)
	assert.Nil(t, job.StartedAt)
}

func TestCancelRunningPreservesBestSoFar(t *testing.T) {
	m := startManager(t, Config{})
	sub, err := m.Subscribe()
	require.NoError(t, err)
	defer sub.Close()

	started := make(chan string, 1)
	spec := Spec{
		Kind: KindGenerate,
		Run: func(ctx context.Context, rep Reporter) (*Outcome, error) {
			started <- "started"
			<-ctx.Done()
			// Persist best-so-far and report it alongside the cancellation.
			return &Outcome{ResultID: "partial", BestScore: 42.5}, ctx.Err()
		},
	}
	id, err := m.Submit(spec)
	require.NoError(t, err)
	<-started

	require.NoError(t, m.Cancel(id))
	job := waitStatus(t, m, id, StatusCancelled)
	assert.Equal(t, "partial", job.ResultID)
	assert.Equal(t, 42.5, job.BestScore)

	// The terminal event carries the best-so-far outcome too.
	deadline := time.After(waitFor)
	for {
		select {
		case ev := <-sub.Events():
			if ev.Type == EventJobCancelled && ev.Job != nil && ev.Job.ID == id {
				assert.Equal(t, "partial", ev.Job.ResultID)
				assert.Equal(t, 42.5, ev.Job.BestScore)
				return
			}
		case <-deadline:
			t.Fatal("no job_cancelled event received")
		}
	}
}

func TestCancelUnknownJob(t *testing.T) {
	m := startManager(t, Config{})
	err := m.Cancel("nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestGetUnknownJob(t *testing.T) {
	m := startManager(t, Config{})
	_, err := m.Get("nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestSubscribeSnapshotArrivesFirst(t *testing.T) {
	m := startManager(t, Config{})

	a, err := m.Submit(quickSpec(KindGenerate))
	require.NoError(t, err)
	b, err := m.Submit(quickSpec(KindAnalyze))
	require.NoError(t, err)
	waitStatus(t, m, a, StatusCompleted)
	waitStatus(t, m, b, StatusCompleted)

	sub, err := m.Subscribe()
	require.NoError(t, err)
	defer sub.Close()

	first := <-sub.Events()
	require.Equal(t, EventJobsState, first.Type)
	require.Len(t, first.Jobs, 2)
	assert.Equal(t, a, first.Jobs[0].ID)
	assert.Equal(t, b, first.Jobs[1].ID)

	// Events published after subscription are incremental, never another
	// snapshot.
	c, err := m.Submit(quickSpec(KindGenerate))
	require.NoError(t, err)
	waitStatus(t, m, c, StatusCompleted)

	sawCreated := false
	deadline := time.After(waitFor)
	for !sawCreated {
		select {
		case ev := <-sub.Events():
			require.NotEqual(t, EventJobsState, ev.Type)
			if ev.Type == EventJobCreated && ev.Job.ID == c {
				sawCreated = true
			}
		case <-deadline:
			t.Fatal("no job_created event for the third job")
		}
	}
}

func TestPanicBecomesJobFailure(t *testing.T) {
	m := startManager(t, Config{})

	id, err := m.Submit(Spec{
		Kind: KindGenerate,
		Run: func(ctx context.Context, rep Reporter) (*Outcome, error) {
			panic("boom")
		},
	})
	require.NoError(t, err)

	job := waitStatus(t, m, id, StatusFailed)
	assert.Contains(t, job.Error, ReasonInternalInvariant)
	assert.Contains(t, job.Error, "boom")

	// The manager survives the panic.
	next, err := m.Submit(quickSpec(KindGenerate))
	require.NoError(t, err)
	waitStatus(t, m, next, StatusCompleted)
}

func TestDeadlineCancelsCooperativeJob(t *testing.T) {
	m := startManager(t, Config{Grace: 30 * time.Second})

	id, err := m.Submit(Spec{
		Kind:     KindGenerate,
		Deadline: 20 * time.Millisecond,
		Run: func(ctx context.Context, rep Reporter) (*Outcome, error) {
			<-ctx.Done()
			return &Outcome{ResultID: "partial", BestScore: 12}, ctx.Err()
		},
	})
	require.NoError(t, err)

	job := waitStatus(t, m, id, StatusFailed)
	assert.Equal(t, ReasonDeadlineExceeded, job.Error)
	assert.Equal(t, "partial", job.ResultID)
}

func TestDeadlineGraceForcesStuckJobFailed(t *testing.T) {
	m := startManager(t, Config{Grace: 20 * time.Millisecond})

	release := make(chan struct{})
	defer close(release)
	id, err := m.Submit(Spec{
		Kind:     KindGenerate,
		Deadline: 20 * time.Millisecond,
		Run: func(ctx context.Context, rep Reporter) (*Outcome, error) {
			// Ignores ctx entirely.
			<-release
			return &Outcome{ResultID: "late"}, nil
		},
	})
	require.NoError(t, err)

	job := waitStatus(t, m, id, StatusFailed)
	assert.Equal(t, ReasonDeadlineExceeded, job.Error)
	assert.Empty(t, job.ResultID)
}

func TestStaleWorkerResultIgnoredAfterForcedFailure(t *testing.T) {
	m := startManager(t, Config{Grace: 20 * time.Millisecond})

	release := make(chan struct{})
	id, err := m.Submit(Spec{
		Kind:     KindGenerate,
		Deadline: 20 * time.Millisecond,
		Run: func(ctx context.Context, rep Reporter) (*Outcome, error) {
			<-release
			return &Outcome{ResultID: "stale", BestScore: 99}, nil
		},
	})
	require.NoError(t, err)
	waitStatus(t, m, id, StatusFailed)

	close(release)
	time.Sleep(50 * time.Millisecond)

	job, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Empty(t, job.ResultID)
}

func TestRetentionEvictsOldestTerminalJobs(t *testing.T) {
	m := startManager(t, Config{MaxConcurrent: 1, Retention: 3})

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := m.Submit(quickSpec(KindGenerate))
		require.NoError(t, err)
		ids = append(ids, id)
		waitStatus(t, m, id, StatusCompleted)
	}

	for _, id := range ids[:2] {
		_, err := m.Get(id)
		assert.ErrorIs(t, err, ErrJobNotFound, "oldest jobs should be evicted")
	}
	for _, id := range ids[2:] {
		_, err := m.Get(id)
		assert.NoError(t, err)
	}
}

func TestClearCompleted(t *testing.T) {
	m := startManager(t, Config{})

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := m.Submit(quickSpec(KindGenerate))
		require.NoError(t, err)
		ids = append(ids, id)
		waitStatus(t, m, id, StatusCompleted)
	}

	release := make(chan struct{})
	defer close(release)
	running, err := m.Submit(blockingSpec(nil, release))
	require.NoError(t, err)
	waitStatus(t, m, running, StatusRunning)

	removed, err := m.ClearCompleted()
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	for _, id := range ids {
		_, err := m.Get(id)
		assert.ErrorIs(t, err, ErrJobNotFound)
	}
	_, err = m.Get(running)
	assert.NoError(t, err)
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	m := startManager(t, Config{SubscriberQueue: 1})

	sub, err := m.Subscribe()
	require.NoError(t, err)

	// The snapshot fills the queue; the next publish overflows it and the
	// subscription is closed.
	id, err := m.Submit(quickSpec(KindGenerate))
	require.NoError(t, err)
	waitStatus(t, m, id, StatusCompleted)

	first, ok := <-sub.Events()
	require.True(t, ok)
	assert.Equal(t, EventJobsState, first.Type)

	require.Eventually(t, func() bool {
		select {
		case _, open := <-sub.Events():
			return !open
		default:
			return false
		}
	}, waitFor, tick, "subscription channel never closed")
}

func TestProgressThrottling(t *testing.T) {
	m := startManager(t, Config{ProgressInterval: time.Hour})

	sub, err := m.Subscribe()
	require.NoError(t, err)
	defer sub.Close()

	id, err := m.Submit(Spec{
		Kind: KindGenerate,
		Run: func(ctx context.Context, rep Reporter) (*Outcome, error) {
			for i := 1; i <= 20; i++ {
				rep.Progress(float64(i), i, 20, 50)
			}
			return &Outcome{ResultID: "r"}, nil
		},
	})
	require.NoError(t, err)
	waitStatus(t, m, id, StatusCompleted)

	progress := 0
	deadline := time.After(500 * time.Millisecond)
drain:
	for {
		select {
		case ev := <-sub.Events():
			if ev.Type == EventJobProgress {
				progress++
			}
			if ev.Type == EventJobCompleted {
				break drain
			}
		case <-deadline:
			break drain
		}
	}
	// With an hour-long interval at most the first update passes the
	// throttle.
	assert.LessOrEqual(t, progress, 1)
}

func TestProgressIsMonotonic(t *testing.T) {
	m := startManager(t, Config{ProgressInterval: time.Nanosecond})

	id, err := m.Submit(Spec{
		Kind: KindGenerate,
		Run: func(ctx context.Context, rep Reporter) (*Outcome, error) {
			rep.Progress(60, 6, 10, 70)
			rep.Progress(30, 3, 10, 70)
			return &Outcome{ResultID: "r"}, nil
		},
	})
	require.NoError(t, err)

	var sawRegression atomic.Bool
	var last float64
	require.Eventually(t, func() bool {
		j, err := m.Get(id)
		if err != nil {
			return false
		}
		if j.Progress < last {
			sawRegression.Store(true)
		}
		last = j.Progress
		return j.Status == StatusCompleted
	}, waitFor, tick)
	assert.False(t, sawRegression.Load())
}

func TestPhaseStepsAccumulate(t *testing.T) {
	m := startManager(t, Config{})

	id, err := m.Submit(Spec{
		Kind: KindGenerate,
		Run: func(ctx context.Context, rep Reporter) (*Outcome, error) {
			rep.Phase("catalog")
			rep.Phase("generate")
			rep.Phase("persist")
			return &Outcome{ResultID: "r"}, nil
		},
	})
	require.NoError(t, err)

	job := waitStatus(t, m, id, StatusCompleted)
	assert.Equal(t, []string{"catalog", "generate", "persist"}, job.Steps)
	assert.Equal(t, "persist", job.Phase)
}

func TestManagerStoppedRejectsSubmissions(t *testing.T) {
	m := NewManager(Config{}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan struct{})
	go func() {
		m.Serve(ctx) //nolint:errcheck
		close(serveDone)
	}()
	require.Eventually(t, func() bool {
		return m.do(func(*Manager) {}) == nil
	}, waitFor, tick)

	cancel()
	<-serveDone

	_, err := m.Submit(quickSpec(KindGenerate))
	assert.ErrorIs(t, err, ErrManagerStopped)
}

func TestShutdownClosesSubscribers(t *testing.T) {
	m := NewManager(Config{}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan struct{})
	go func() {
		m.Serve(ctx) //nolint:errcheck
		close(serveDone)
	}()
	require.Eventually(t, func() bool {
		return m.do(func(*Manager) {}) == nil
	}, waitFor, tick)

	sub, err := m.Subscribe()
	require.NoError(t, err)

	cancel()
	<-serveDone

	require.Eventually(t, func() bool {
		for {
			select {
			case _, open := <-sub.Events():
				if !open {
					return true
				}
			default:
				return false
			}
		}
	}, waitFor, tick)
}

func TestTerminalEventMapping(t *testing.T) {
	cases := []struct {
		status Status
		want   EventType
	}{
		{StatusCompleted, EventJobCompleted},
		{StatusFailed, EventJobFailed},
		{StatusCancelled, EventJobCancelled},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.want, terminalEventFor(tc.status))
		})
	}
}

func TestErrorReasonsAreStable(t *testing.T) {
	// Reasons appear in API responses; renaming them is a breaking change.
	assert.Equal(t, "empty-catalog", ReasonEmptyCatalog)
	assert.Equal(t, "no-feasible-schedule", ReasonNoFeasibleSchedule)
	assert.Equal(t, "deadline-exceeded", ReasonDeadlineExceeded)
	assert.Equal(t, "internal-invariant", ReasonInternalInvariant)
}

func TestFailureErrorIsSurfaced(t *testing.T) {
	m := startManager(t, Config{})

	id, err := m.Submit(Spec{
		Kind: KindGenerate,
		Run: func(ctx context.Context, rep Reporter) (*Outcome, error) {
			return nil, fmt.Errorf("%s: catalog returned nothing", ReasonEmptyCatalog)
		},
	})
	require.NoError(t, err)

	job := waitStatus(t, m, id, StatusFailed)
	assert.Contains(t, job.Error, ReasonEmptyCatalog)
	assert.False(t, errors.Is(errors.New(job.Error), context.Canceled))
}
