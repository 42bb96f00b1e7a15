// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package database

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/marketrec/internal/config"
	"github.com/tomtom215/marketrec/internal/recommend"
)

var errDown = errors.New("store down")

type flakySource struct {
	fail  atomic.Bool
	err   error
	calls atomic.Int32
}

func (f *flakySource) result() error {
	f.calls.Add(1)
	if f.fail.Load() {
		if f.err != nil {
			return f.err
		}
		return errDown
	}
	return nil
}

func (f *flakySource) ListActiveItems(context.Context) ([]recommend.ListingRecord, error) {
	if err := f.result(); err != nil {
		return nil, err
	}
	return []recommend.ListingRecord{{ID: "a", Title: "lamp"}}, nil
}

func (f *flakySource) ListImplicitFeedback(context.Context) ([]recommend.ImplicitFeedback, error) {
	return nil, f.result()
}

func (f *flakySource) ListExplicitFeedback(context.Context) ([]recommend.ExplicitFeedback, error) {
	return nil, f.result()
}

func (f *flakySource) ListPopularActiveItems(_ context.Context, limit int) ([]string, error) {
	if err := f.result(); err != nil {
		return nil, err
	}
	return []string{"a"}[:min(limit, 1)], nil
}

func breakerConfig() config.BreakerConfig {
	return config.BreakerConfig{Enabled: true, MaxRequests: 1, Timeout: time.Hour, FailureThreshold: 3}
}

func TestCircuitBreakerSource_PassThrough(t *testing.T) {
	src := &flakySource{}
	cb := NewCircuitBreakerSource(src, breakerConfig())
	ctx := context.Background()

	items, err := cb.ListActiveItems(ctx)
	if err != nil || len(items) != 1 || items[0].ID != "a" {
		t.Errorf("ListActiveItems() = %v, %v", items, err)
	}
	popular, err := cb.ListPopularActiveItems(ctx, 5)
	if err != nil || len(popular) != 1 {
		t.Errorf("ListPopularActiveItems() = %v, %v", popular, err)
	}
	implicit, err := cb.ListImplicitFeedback(ctx)
	if err != nil || implicit != nil {
		t.Errorf("ListImplicitFeedback() = %v, %v", implicit, err)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
}

func TestCircuitBreakerSource_Opens(t *testing.T) {
	src := &flakySource{}
	src.fail.Store(true)
	cb := NewCircuitBreakerSource(src, breakerConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cb.ListExplicitFeedback(ctx); !errors.Is(err, errDown) {
			t.Fatalf("call %d error = %v, want the store error", i, err)
		}
	}
	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open after 3 failures", cb.State())
	}

	before := src.calls.Load()
	_, err := cb.ListActiveItems(ctx)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("error = %v, want ErrCircuitOpen", err)
	}
	if src.calls.Load() != before {
		t.Error("open breaker still called the source")
	}
}

func TestCircuitBreakerSource_CancellationNotCounted(t *testing.T) {
	src := &flakySource{err: context.Canceled}
	src.fail.Store(true)
	cb := NewCircuitBreakerSource(src, breakerConfig())

	for i := 0; i < 5; i++ {
		if _, err := cb.ListImplicitFeedback(context.Background()); !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v", err)
		}
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, cancellations should not open the breaker", cb.State())
	}
}

func TestCircuitBreakerSource_EngineKeepsSnapshot(t *testing.T) {
	src := &flakySource{}
	cb := NewCircuitBreakerSource(src, breakerConfig())

	cfg := recommend.DefaultConfig()
	engine, err := recommend.NewEngine(cfg, cb, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Rebuild(context.Background()); err != nil {
		t.Fatalf("first Rebuild() error = %v", err)
	}

	src.fail.Store(true)
	for i := 0; i < 4; i++ {
		_, err := engine.Rebuild(context.Background())
		if !errors.Is(err, recommend.ErrDataUnavailable) {
			t.Fatalf("Rebuild() error = %v, want ErrDataUnavailable", err)
		}
	}
	if !engine.IsReady() || engine.Status().ModelVersion != 1 {
		t.Errorf("previous snapshot lost: ready=%v version=%d", engine.IsReady(), engine.Status().ModelVersion)
	}
}
