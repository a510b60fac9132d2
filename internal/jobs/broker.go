// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package jobs

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/jmlagace/telecaster/internal/metrics"
)

const defaultSubscriberQueue = 64

// Subscription is one consumer's bounded event stream. Events arrives on
// Events(); the channel is closed when the subscriber is dropped for
// falling behind or when the subscription is cancelled.
type Subscription struct {
	ch     chan Event
	once   sync.Once
	broker *broker
}

// Events returns the receive channel.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.broker.remove(s)
}

// broker fans events out to subscribers. Publishing never blocks: a
// subscriber whose queue is full is dropped and its channel closed.
type broker struct {
	mu        sync.Mutex
	subs      map[*Subscription]struct{}
	queueSize int
	logger    zerolog.Logger
}

func newBroker(queueSize int, logger zerolog.Logger) *broker {
	if queueSize <= 0 {
		queueSize = defaultSubscriberQueue
	}
	return &broker{
		subs:      make(map[*Subscription]struct{}),
		queueSize: queueSize,
		logger:    logger.With().Str("component", "jobs-broker").Logger(),
	}
}

// subscribe registers a new subscription with the snapshot event already
// queued, so a subscriber always sees jobs_state before any incremental
// event.
func (b *broker) subscribe(snapshot Event) *Subscription {
	sub := &Subscription{
		ch:     make(chan Event, b.queueSize),
		broker: b,
	}
	sub.ch <- snapshot

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// publish delivers the event to all subscribers, dropping any whose queue
// is full.
func (b *broker) publish(ev Event) {
	metrics.EventsPublished.WithLabelValues(string(ev.Type)).Inc()

	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			delete(b.subs, sub)
			sub.once.Do(func() { close(sub.ch) })
			metrics.SubscribersDropped.Inc()
			b.logger.Warn().Msg("dropped slow subscriber")
		}
	}
}

func (b *broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		sub.once.Do(func() { close(sub.ch) })
	}
}

// closeAll detaches every subscriber, used on manager shutdown.
func (b *broker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		delete(b.subs, sub)
		sub.once.Do(func() { close(sub.ch) })
	}
}
