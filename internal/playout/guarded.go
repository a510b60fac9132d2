// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package playout

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/jmlagace/telecaster/internal/generator"
	"github.com/jmlagace/telecaster/internal/media"
)

// GuardConfig tunes the protection around the playout service client.
type GuardConfig struct {
	Name              string
	RequestsPerSecond float64
	Burst             int
	BreakerTimeout    time.Duration
}

// GuardedSink wraps a Sink with a circuit breaker and a rate limiter, so a
// struggling playout service cannot stall or cascade into the job layer.
type GuardedSink struct {
	sink    Sink
	breaker *gobreaker.CircuitBreaker[any]
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewGuardedSink wraps sink with the given guard configuration.
func NewGuardedSink(sink Sink, cfg GuardConfig, logger zerolog.Logger) *GuardedSink {
	name := cfg.Name
	if name == "" {
		name = "playout"
	}
	timeout := cfg.BreakerTimeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}

	componentLogger := logger.With().Str("component", name).Logger()

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			componentLogger.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &GuardedSink{
		sink:    sink,
		breaker: breaker,
		limiter: limiter,
		logger:  componentLogger,
	}
}

// Apply implements Sink.
func (g *GuardedSink) Apply(ctx context.Context, channelID string, pl *generator.Playlist) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	_, err := g.breaker.Execute(func() (any, error) {
		return nil, g.sink.Apply(ctx, channelID, pl)
	})
	if err != nil {
		return fmt.Errorf("guarded apply to channel %s: %w", channelID, err)
	}
	return nil
}

// Current implements Sink.
func (g *GuardedSink) Current(ctx context.Context, channelID string) ([]media.Item, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	result, err := g.breaker.Execute(func() (any, error) {
		return g.sink.Current(ctx, channelID)
	})
	if err != nil {
		return nil, fmt.Errorf("guarded current lineup for channel %s: %w", channelID, err)
	}
	return result.([]media.Item), nil
}

func (g *GuardedSink) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("playout rate limit: %w", err)
	}
	return nil
}
