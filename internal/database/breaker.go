// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package database

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/marketrec/internal/config"
	"github.com/tomtom215/marketrec/internal/logging"
	"github.com/tomtom215/marketrec/internal/metrics"
	"github.com/tomtom215/marketrec/internal/recommend"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("data source circuit open")

var _ recommend.DataSource = (*CircuitBreakerSource)(nil)

// CircuitBreakerSource guards a DataSource with a circuit breaker so a
// failing store is not hammered by every rebuild and cold-start lookup.
//
// Context cancellation is not counted as a store failure.
type CircuitBreakerSource struct {
	source recommend.DataSource
	cb     *gobreaker.CircuitBreaker[any]
	name   string
}

// NewCircuitBreakerSource wraps source.
func NewCircuitBreakerSource(source recommend.DataSource, cfg config.BreakerConfig) *CircuitBreakerSource {
	name := "datasource"
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= threshold
			if trip {
				logging.Warn().Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("opening data source circuit")
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &CircuitBreakerSource{source: source, cb: cb, name: name}
}

// State returns the breaker state.
func (s *CircuitBreakerSource) State() gobreaker.State {
	return s.cb.State()
}

// ListActiveItems implements recommend.DataSource.
func (s *CircuitBreakerSource) ListActiveItems(ctx context.Context) ([]recommend.ListingRecord, error) {
	return execute(s, func() ([]recommend.ListingRecord, error) { return s.source.ListActiveItems(ctx) })
}

// ListImplicitFeedback implements recommend.DataSource.
func (s *CircuitBreakerSource) ListImplicitFeedback(ctx context.Context) ([]recommend.ImplicitFeedback, error) {
	return execute(s, func() ([]recommend.ImplicitFeedback, error) { return s.source.ListImplicitFeedback(ctx) })
}

// ListExplicitFeedback implements recommend.DataSource.
func (s *CircuitBreakerSource) ListExplicitFeedback(ctx context.Context) ([]recommend.ExplicitFeedback, error) {
	return execute(s, func() ([]recommend.ExplicitFeedback, error) { return s.source.ListExplicitFeedback(ctx) })
}

// ListPopularActiveItems implements recommend.DataSource.
func (s *CircuitBreakerSource) ListPopularActiveItems(ctx context.Context, limit int) ([]string, error) {
	return execute(s, func() ([]string, error) { return s.source.ListPopularActiveItems(ctx, limit) })
}

func execute[T any](s *CircuitBreakerSource, fn func() (T, error)) (T, error) {
	var zero T
	v, err := s.cb.Execute(func() (any, error) { return fn() })
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(s.name, "rejected").Inc()
			return zero, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(s.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(s.name).Set(float64(s.cb.Counts().ConsecutiveFailures))
		return zero, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(s.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(s.name).Set(0)

	typed, ok := v.(T)
	if !ok && v != nil {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", v)
	}
	return typed, nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
