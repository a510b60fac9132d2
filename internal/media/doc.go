// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

// Package media defines the enriched catalog item model and the read-only
// catalog sources the programming core consumes.
//
// A Source is the thin interface over an external media server (plus its
// metadata cache). Generation jobs never read a Source directly: they take a
// Snapshot, an immutable, deterministically ordered view of the catalog that
// stays stable for the lifetime of the job.
//
// CachedSource layers a TTL cache with single-writer refresh over any Source.
// GuardedSource wraps external adapters with a circuit breaker and a rate
// limiter so upstream outages and burst traffic stay at the adapter boundary.
package media
