// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package recommend

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// RefreshState is the lifecycle state of an asynchronous refresh job.
type RefreshState string

const (
	RefreshPending   RefreshState = "pending"
	RefreshRunning   RefreshState = "running"
	RefreshSucceeded RefreshState = "succeeded"
	RefreshSkipped   RefreshState = "skipped"
	RefreshFailed    RefreshState = "failed"
)

// Done reports whether the job has finished.
func (s RefreshState) Done() bool {
	return s == RefreshSucceeded || s == RefreshSkipped || s == RefreshFailed
}

// RefreshJob is a pollable record of one asynchronous rebuild.
type RefreshJob struct {
	ID          string       `json:"id"`
	State       RefreshState `json:"state"`
	RequestedAt time.Time    `json:"requested_at"`
	StartedAt   time.Time    `json:"started_at,omitempty"`
	FinishedAt  time.Time    `json:"finished_at,omitempty"`

	// Coalesced counts extra refresh requests folded into this job while
	// it was pending.
	Coalesced int `json:"coalesced"`

	// Version is the snapshot version the job published, if any.
	Version int64  `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BuildResult describes the outcome of one rebuild.
type BuildResult struct {
	Snapshot *Snapshot
	Skipped  bool
	Duration time.Duration
}

// BuildObserver receives build outcomes. result is one of "success",
// "skipped" or "error".
type BuildObserver interface {
	ObserveBuild(result string, duration time.Duration, snap *Snapshot)
}

// ModelCache holds the current snapshot and runs rebuilds.
//
// Readers never block on a rebuild once a snapshot exists. Rebuilds are
// coalesced: callers that arrive while a build is in flight share its
// result instead of starting another one.
type ModelCache struct {
	config   *Config
	source   DataSource
	logger   zerolog.Logger
	observer BuildObserver

	current atomic.Pointer[Snapshot]
	version atomic.Int64
	builds  singleflight.Group

	jobMu   sync.Mutex
	pending *RefreshJob
	active  *RefreshJob
	last    *RefreshJob
	jobs    map[string]*RefreshJob
	order   []string
	wake    chan struct{}
}

// NewModelCache creates an empty cache.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewModelCache(cfg *Config, source DataSource, logger zerolog.Logger) *ModelCache {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &ModelCache{
		config: cfg,
		source: source,
		logger: logger.With().Str("component", "model_cache").Logger(),
		jobs:   make(map[string]*RefreshJob),
		wake:   make(chan struct{}, 1),
	}
}

// SetObserver installs a build observer. It must be called before the
// first build.
func (c *ModelCache) SetObserver(o BuildObserver) {
	c.observer = o
}

// Current returns the published snapshot, or nil while the cache is empty.
func (c *ModelCache) Current() *Snapshot {
	return c.current.Load()
}

// IsReady reports whether at least one build has completed.
func (c *ModelCache) IsReady() bool {
	return c.current.Load() != nil
}

// Snapshot returns the current snapshot, building it synchronously when the
// cache is empty. The result is nil without error when the build was
// skipped because the catalog is empty.
func (c *ModelCache) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := c.current.Load(); snap != nil {
		return snap, nil
	}
	res, err := c.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	if res.Snapshot != nil {
		return res.Snapshot, nil
	}
	return c.current.Load(), nil
}

// Rebuild runs a full model build and publishes the result. A failed or
// skipped build leaves the previous snapshot in place.
//
// The shared build is detached from ctx and bounded by BuildTimeout only:
// a caller whose ctx ends stops waiting with ctx.Err(), while the build
// completes for everyone else who joined it.
func (c *ModelCache) Rebuild(ctx context.Context) (BuildResult, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.builds.DoChan("build", func() (interface{}, error) {
		return c.build(detached)
	})

	var out singleflight.Result
	select {
	case out = <-ch:
	case <-ctx.Done():
		return BuildResult{}, ctx.Err()
	}

	if out.Err != nil {
		return BuildResult{}, out.Err
	}
	res, ok := out.Val.(BuildResult)
	if !ok {
		return BuildResult{}, fmt.Errorf("unexpected build result type %T", out.Val)
	}
	if out.Shared {
		c.logger.Debug().Msg("joined in-flight model build")
	}
	return res, nil
}

func (c *ModelCache) observe(result string, d time.Duration, snap *Snapshot) {
	if c.observer != nil {
		c.observer.ObserveBuild(result, d, snap)
	}
}

// TriggerRefresh queues an asynchronous rebuild and returns immediately.
// While a job is still pending, further requests join it and receive the
// same job id.
func (c *ModelCache) TriggerRefresh() RefreshJob {
	c.jobMu.Lock()
	defer c.jobMu.Unlock()

	if c.pending != nil {
		c.pending.Coalesced++
		return *c.pending
	}

	job := &RefreshJob{
		ID:          uuid.New().String(),
		State:       RefreshPending,
		RequestedAt: time.Now().UTC(),
	}
	c.pending = job
	c.remember(job)

	select {
	case c.wake <- struct{}{}:
	default:
	}

	return *job
}

// remember records a job for lookup, evicting the oldest finished jobs
// beyond the configured limit. Callers hold jobMu.
func (c *ModelCache) remember(job *RefreshJob) {
	c.jobs[job.ID] = job
	c.order = append(c.order, job.ID)

	for len(c.order) > c.config.RecentJobs {
		oldest := c.jobs[c.order[0]]
		if oldest != nil && !oldest.State.Done() {
			break
		}
		delete(c.jobs, c.order[0])
		c.order = c.order[1:]
	}
}

// Wake is signalled whenever a refresh job becomes pending.
func (c *ModelCache) Wake() <-chan struct{} {
	return c.wake
}

// RunPending executes the pending refresh job, if any. It reports whether
// a job ran.
func (c *ModelCache) RunPending(ctx context.Context) (RefreshJob, bool) {
	c.jobMu.Lock()
	job := c.pending
	if job == nil {
		c.jobMu.Unlock()
		return RefreshJob{}, false
	}
	c.pending = nil
	c.active = job
	job.State = RefreshRunning
	job.StartedAt = time.Now().UTC()
	c.jobMu.Unlock()

	res, err := c.Rebuild(ctx)

	c.jobMu.Lock()
	defer c.jobMu.Unlock()

	job.FinishedAt = time.Now().UTC()
	switch {
	case err != nil:
		job.State = RefreshFailed
		job.Error = err.Error()
	case res.Skipped:
		job.State = RefreshSkipped
	default:
		job.State = RefreshSucceeded
		job.Version = res.Snapshot.Version
	}
	c.active = nil
	c.last = job

	return *job, true
}

// Job returns a refresh job by id.
func (c *ModelCache) Job(id string) (RefreshJob, error) {
	c.jobMu.Lock()
	defer c.jobMu.Unlock()

	job, ok := c.jobs[id]
	if !ok {
		return RefreshJob{}, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	return *job, nil
}

// LastRefresh returns the most recently finished refresh job.
func (c *ModelCache) LastRefresh() (RefreshJob, bool) {
	c.jobMu.Lock()
	defer c.jobMu.Unlock()

	if c.last == nil {
		return RefreshJob{}, false
	}
	return *c.last, true
}

// Refreshing reports whether a refresh job is pending or running.
func (c *ModelCache) Refreshing() bool {
	c.jobMu.Lock()
	defer c.jobMu.Unlock()
	return c.pending != nil || c.active != nil
}
