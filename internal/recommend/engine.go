// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Scorer produces raw item scores for one user from a snapshot. Items the
// scorer has no opinion on are simply absent from the map.
type Scorer interface {
	// Name returns the scorer's fusion key.
	Name() string

	// Score returns item id → raw score. Implementations must only read
	// from snap.
	Score(ctx context.Context, snap *Snapshot, userID string) (map[string]float64, error)
}

// Observer receives engine measurements. The metrics package provides the
// Prometheus implementation.
type Observer interface {
	BuildObserver
	ObserveRequest(source Source, duration time.Duration, err error)
	ObserveScorer(name string, duration time.Duration, err error)
}

// Engine serves recommendations from the model cache. It is safe for
// concurrent use.
type Engine struct {
	config   *Config
	logger   zerolog.Logger
	source   DataSource
	cache    *ModelCache
	observer Observer

	scorers  []Scorer
	scorerMu sync.RWMutex

	requestCount   atomic.Int64
	coldStartCount atomic.Int64
	errorCount     atomic.Int64
	scorerFailures atomic.Int64
	builds         atomic.Int64
	failedBuilds   atomic.Int64
	skippedBuilds  atomic.Int64
	lastBuildNanos atomic.Int64
}

// NewEngine creates a recommendation engine reading from source.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, source DataSource, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if source == nil {
		return nil, errors.New("data source is required")
	}

	e := &Engine{
		config: cfg,
		logger: logger.With().Str("component", "recommend").Logger(),
		source: source,
	}
	e.cache = NewModelCache(cfg, source, logger)
	e.cache.SetObserver(e)
	return e, nil
}

// SetObserver installs an observer for requests, scorers and builds.
func (e *Engine) SetObserver(o Observer) {
	e.observer = o
}

// Cache returns the engine's model cache.
func (e *Engine) Cache() *ModelCache {
	return e.cache
}

// RegisterScorer adds a scorer to the ensemble.
func (e *Engine) RegisterScorer(s Scorer) {
	e.scorerMu.Lock()
	defer e.scorerMu.Unlock()

	e.scorers = append(e.scorers, s)
	e.logger.Info().
		Str("scorer", s.Name()).
		Msg("registered scorer")
}

func (e *Engine) registeredScorers() []Scorer {
	e.scorerMu.RLock()
	defer e.scorerMu.RUnlock()
	out := make([]Scorer, len(e.scorers))
	copy(out, e.scorers)
	return out
}

// Recommend returns up to TopK personalized items for userID, or the
// popularity fallback when the user has no interaction history. Any
// failure inside scoring is reported as ErrScoringFailed with no partial
// results.
func (e *Engine) Recommend(ctx context.Context, userID string) (resp *Response, err error) {
	start := time.Now()
	e.requestCount.Add(1)
	logger := e.logger.With().Str("user_id", userID).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("recovered panic while recommending")
			resp = nil
			err = fmt.Errorf("%w: panic: %v", ErrScoringFailed, r)
		}
		if err != nil {
			e.errorCount.Add(1)
		}
		if e.observer != nil {
			source := SourcePersonalized
			if resp != nil {
				source = resp.Source
			}
			e.observer.ObserveRequest(source, time.Since(start), err)
		}
	}()

	snap, err := e.cache.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	resp = &Response{UserID: userID}
	if snap != nil {
		resp.ModelVersion = snap.Version
		resp.BuiltAt = snap.BuiltAt
	}

	if IsAnonymous(userID) || !snap.HasUser(userID) {
		return e.respondColdStart(ctx, snap, resp, start, &logger)
	}

	recs, err := e.personalized(ctx, snap, userID)
	if err != nil {
		logger.Error().Err(err).Msg("scoring failed")
		return nil, err
	}
	if len(recs) == 0 {
		// Known user whose feedback only touches items that left the catalog.
		logger.Debug().Msg("no personalized candidates, using popular items")
		return e.respondColdStart(ctx, snap, resp, start, &logger)
	}
	resp.Recommendations = recs
	resp.Source = SourcePersonalized
	resp.LatencyMS = time.Since(start).Milliseconds()

	logger.Debug().
		Int("returned", len(recs)).
		Int64("latency_ms", resp.LatencyMS).
		Int64("model_version", snap.Version).
		Msg("recommendation complete")

	return resp, nil
}

func (e *Engine) respondColdStart(ctx context.Context, snap *Snapshot, resp *Response, start time.Time, logger *zerolog.Logger) (*Response, error) {
	e.coldStartCount.Add(1)
	recs, err := e.coldStart(ctx, snap)
	if err != nil {
		return nil, err
	}
	resp.Recommendations = recs
	resp.Source = SourceColdStart
	resp.LatencyMS = time.Since(start).Milliseconds()
	logger.Debug().Int("returned", len(recs)).Msg("cold start recommendations")
	return resp, nil
}

// personalized runs every scorer against one snapshot, fuses the results
// and resolves catalog details.
func (e *Engine) personalized(ctx context.Context, snap *Snapshot, userID string) ([]Recommendation, error) {
	scorers := e.registeredScorers()
	results := make([]map[string]float64, len(scorers))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range scorers {
		g.Go(func() (err error) {
			scorerStart := time.Now()
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("scorer %s panicked: %v", s.Name(), r)
				}
				if err != nil {
					e.scorerFailures.Add(1)
				}
				if e.observer != nil {
					e.observer.ObserveScorer(s.Name(), time.Since(scorerStart), err)
				}
			}()

			scores, err := s.Score(gctx, snap, userID)
			if err != nil {
				return fmt.Errorf("scorer %s: %w", s.Name(), err)
			}
			results[i] = scores
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScoringFailed, err)
	}

	byName := make(map[string]map[string]float64, len(scorers))
	for i, s := range scorers {
		byName[s.Name()] = results[i]
	}

	ranked := Fuse(byName, e.config.Weights, e.config.Divisors, e.config.TopK)

	recs := make([]Recommendation, 0, len(ranked))
	for _, r := range ranked {
		item, ok := snap.Catalog.Get(r.ItemID)
		if !ok {
			return nil, fmt.Errorf("%w: item %s is not in the catalog", ErrScoringFailed, r.ItemID)
		}
		recs = append(recs, Recommendation{
			ItemID:   item.ID,
			Title:    item.Title,
			Price:    item.StartPrice,
			ImageURL: item.ImageURL,
			Score:    r.Score,
			Scores:   r.Scores,
		})
	}
	return recs, nil
}

// TriggerRefresh queues an asynchronous model rebuild without blocking.
func (e *Engine) TriggerRefresh() RefreshJob {
	job := e.cache.TriggerRefresh()
	e.logger.Info().
		Str("job_id", job.ID).
		Int("coalesced", job.Coalesced).
		Msg("model refresh requested")
	return job
}

// RefreshJob returns the state of a refresh job.
func (e *Engine) RefreshJob(id string) (RefreshJob, error) {
	return e.cache.Job(id)
}

// Rebuild runs a synchronous model build.
func (e *Engine) Rebuild(ctx context.Context) (BuildResult, error) {
	return e.cache.Rebuild(ctx)
}

// IsReady reports whether at least one build has completed.
func (e *Engine) IsReady() bool {
	return e.cache.IsReady()
}

// Status returns readiness, model sizes and refresh state.
func (e *Engine) Status() Status {
	st := Status{
		Ready:      e.cache.IsReady(),
		Refreshing: e.cache.Refreshing(),
	}
	for _, s := range e.registeredScorers() {
		st.Scorers = append(st.Scorers, s.Name())
	}
	sort.Strings(st.Scorers)

	if snap := e.cache.Current(); snap != nil {
		st.ModelVersion = snap.Version
		st.BuiltAt = snap.BuiltAt
		st.Items = snap.Catalog.Len()
		st.Users = len(snap.Matrix.Users)
		st.Interactions = snap.Interactions.Len()
		st.Features = snap.Features.Features()
	}
	if job, ok := e.cache.LastRefresh(); ok {
		st.LastRefresh = &job
	}
	return st
}

// GetMetrics returns engine counters since startup.
func (e *Engine) GetMetrics() Metrics {
	return Metrics{
		Requests:       e.requestCount.Load(),
		ColdStarts:     e.coldStartCount.Load(),
		Errors:         e.errorCount.Load(),
		Builds:         e.builds.Load(),
		FailedBuilds:   e.failedBuilds.Load(),
		SkippedBuilds:  e.skippedBuilds.Load(),
		LastBuildTime:  time.Duration(e.lastBuildNanos.Load()),
		ScorerFailures: e.scorerFailures.Load(),
	}
}

// ObserveBuild implements BuildObserver for the engine's own cache.
func (e *Engine) ObserveBuild(result string, duration time.Duration, snap *Snapshot) {
	switch result {
	case "success":
		e.builds.Add(1)
		e.lastBuildNanos.Store(int64(duration))
	case "skipped":
		e.skippedBuilds.Add(1)
	default:
		e.failedBuilds.Add(1)
	}
	if e.observer != nil {
		e.observer.ObserveBuild(result, duration, snap)
	}
}
