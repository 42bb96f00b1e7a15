// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package recommend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var errStoreDown = errors.New("connection refused")

// memSource is an in-memory DataSource for tests.
type memSource struct {
	mu         sync.Mutex
	listings   []ListingRecord
	implicit   []ImplicitFeedback
	explicit   []ExplicitFeedback
	popular    []string
	err        error
	popularErr error

	// gate, when set, blocks ListActiveItems until closed.
	gate chan struct{}

	loads        atomic.Int32
	popularCalls atomic.Int32
}

func (m *memSource) update(fn func(m *memSource)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m)
}

func (m *memSource) ListActiveItems(ctx context.Context) ([]ListingRecord, error) {
	m.loads.Add(1)

	m.mu.Lock()
	gate := m.gate
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]ListingRecord(nil), m.listings...), nil
}

func (m *memSource) ListImplicitFeedback(_ context.Context) ([]ImplicitFeedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]ImplicitFeedback(nil), m.implicit...), nil
}

func (m *memSource) ListExplicitFeedback(_ context.Context) ([]ExplicitFeedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]ExplicitFeedback(nil), m.explicit...), nil
}

func (m *memSource) ListPopularActiveItems(_ context.Context, limit int) ([]string, error) {
	m.popularCalls.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.popularErr != nil {
		return nil, m.popularErr
	}
	out := m.popular
	if len(out) > limit {
		out = out[:limit]
	}
	return append([]string(nil), out...), nil
}

// stubScorer returns fixed scores, an error, or panics.
type stubScorer struct {
	name   string
	scores map[string]float64
	err    error
	panic  bool
	check  func(snap *Snapshot, userID string)
}

func (s *stubScorer) Name() string { return s.name }

func (s *stubScorer) Score(_ context.Context, snap *Snapshot, userID string) (map[string]float64, error) {
	if s.check != nil {
		s.check(snap, userID)
	}
	if s.panic {
		panic("index out of range")
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]float64, len(s.scores))
	for k, v := range s.scores {
		out[k] = v
	}
	return out, nil
}
