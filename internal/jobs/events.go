// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package jobs

// EventType names a job event on the wire.
type EventType string

const (
	// EventJobsState is the initial snapshot delivered to a new subscriber.
	EventJobsState EventType = "jobs_state"

	EventJobCreated   EventType = "job_created"
	EventJobStarted   EventType = "job_started"
	EventJobProgress  EventType = "job_progress"
	EventJobCompleted EventType = "job_completed"
	EventJobFailed    EventType = "job_failed"
	EventJobCancelled EventType = "job_cancelled"
)

// Event is one fan-out message. Snapshot events carry Jobs; per-job events
// carry Job.
type Event struct {
	Type EventType `json:"type"`
	Job  *Job      `json:"job,omitempty"`
	Jobs []*Job    `json:"jobs,omitempty"`
}

// terminalEventFor maps a terminal status to its event type.
func terminalEventFor(status Status) EventType {
	switch status {
	case StatusCompleted:
		return EventJobCompleted
	case StatusFailed:
		return EventJobFailed
	default:
		return EventJobCancelled
	}
}
