// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package media

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// GuardConfig tunes the protection wrapped around an external media-server
// adapter.
type GuardConfig struct {
	// Name labels the circuit breaker in logs.
	Name string

	// RequestsPerSecond caps calls to the upstream server. Zero disables
	// rate limiting.
	RequestsPerSecond float64

	// Burst is the limiter burst size. Defaults to 1 when rate limiting is
	// enabled.
	Burst int

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration
}

// GuardedSource wraps a Source with a circuit breaker and a rate limiter.
// External API pressure and upstream outages are contained here so the job
// layer only ever sees plain errors.
type GuardedSource struct {
	source  Source
	breaker *gobreaker.CircuitBreaker[any]
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewGuardedSource wraps source with the given guard configuration.
func NewGuardedSource(source Source, cfg GuardConfig, logger zerolog.Logger) *GuardedSource {
	name := cfg.Name
	if name == "" {
		name = "media-server"
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

	return &GuardedSource{
		source:  source,
		breaker: breaker,
		limiter: limiter,
		logger:  componentLogger,
	}
}

// ListItems implements Source.
func (g *GuardedSource) ListItems(ctx context.Context, libraryIDs []string, f Filters) ([]Item, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	result, err := g.breaker.Execute(func() (any, error) {
		return g.source.ListItems(ctx, libraryIDs, f)
	})
	if err != nil {
		return nil, fmt.Errorf("guarded list items: %w", err)
	}
	return result.([]Item), nil
}

// GetItem implements Source.
func (g *GuardedSource) GetItem(ctx context.Context, id string) (*Item, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	result, err := g.breaker.Execute(func() (any, error) {
		return g.source.GetItem(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("guarded get item: %w", err)
	}
	return result.(*Item), nil
}

func (g *GuardedSource) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("media rate limit: %w", err)
	}
	return nil
}
