// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

// Package metrics exposes Prometheus instrumentation for the job supervisor
// and the generation engine. Collectors are registered once via promauto at
// package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsTotal counts jobs by kind and terminal status.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telecaster_jobs_total",
			Help: "Jobs by kind and terminal status",
		},
		[]string{"kind", "status"},
	)

	// JobsRunning tracks currently running jobs.
	JobsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telecaster_jobs_running",
			Help: "Jobs currently running",
		},
	)

	// JobsPending tracks jobs queued behind the worker pool.
	JobsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telecaster_jobs_pending",
			Help: "Jobs waiting for a worker",
		},
	)

	// IterationsTotal counts generator iterations run.
	IterationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telecaster_generator_iterations_total",
			Help: "Generator iterations executed",
		},
	)

	// IterationFailures counts infeasible iterations.
	IterationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telecaster_generator_iteration_failures_total",
			Help: "Generator iterations that failed to cover the horizon",
		},
	)

	// BestScore records the best average score of the most recent completed
	// generation.
	BestScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telecaster_generation_best_score",
			Help: "Average score of the last completed generation's best iteration",
		},
	)

	// GenerationDuration observes end-to-end generation job duration.
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telecaster_generation_duration_seconds",
			Help:    "Wall-clock duration of generation jobs",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	// EventsPublished counts broker events by type.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telecaster_events_published_total",
			Help: "Job events published to subscribers",
		},
		[]string{"type"},
	)

	// SubscribersDropped counts subscribers disconnected for falling behind.
	SubscribersDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telecaster_event_subscribers_dropped_total",
			Help: "Subscribers dropped because their queue overflowed",
		},
	)

	// CatalogRefreshes counts catalog cache refreshes.
	CatalogRefreshes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telecaster_catalog_refreshes_total",
			Help: "Catalog cache refreshes from the media server",
		},
	)
)
