// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

// Package services adapts Marketrec components to suture.Service.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/marketrec/internal/recommend"
)

// RefreshRunner is the refresh side of the model cache.
type RefreshRunner interface {
	TriggerRefresh() recommend.RefreshJob
	Wake() <-chan struct{}
	RunPending(ctx context.Context) (recommend.RefreshJob, bool)
}

var _ RefreshRunner = (*recommend.ModelCache)(nil)

// RefreshServiceConfig controls scheduling.
type RefreshServiceConfig struct {
	// Interval between scheduled refreshes; 0 disables the schedule.
	Interval time.Duration

	// OnStartup queues a refresh as soon as the service starts.
	OnStartup bool

	// MinInterval is the minimum spacing between two rebuilds. Refresh
	// requests arriving sooner wait and are coalesced meanwhile.
	MinInterval time.Duration
}

// RefreshService executes queued refresh jobs one at a time and queues
// scheduled ones. Readers keep using the published snapshot throughout.
type RefreshService struct {
	runner  RefreshRunner
	config  RefreshServiceConfig
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewRefreshService creates the service.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewRefreshService(runner RefreshRunner, cfg RefreshServiceConfig, logger zerolog.Logger) *RefreshService {
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	return &RefreshService{
		runner:  runner,
		config:  cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.With().Str("service", "refresh").Logger(),
	}
}

// Serve implements suture.Service.
func (s *RefreshService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("on_startup", s.config.OnStartup).
		Dur("interval", s.config.Interval).
		Dur("min_interval", s.config.MinInterval).
		Msg("refresh service starting")

	if s.config.OnStartup {
		s.runner.TriggerRefresh()
	}

	var tick <-chan time.Time
	if s.config.Interval > 0 {
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("refresh service stopping")
			return ctx.Err()

		case <-tick:
			job := s.runner.TriggerRefresh()
			s.logger.Debug().Str("job_id", job.ID).Msg("scheduled refresh queued")

		case <-s.runner.Wake():
			if err := s.limiter.Wait(ctx); err != nil {
				return ctx.Err()
			}
			s.runPending(ctx)
		}
	}
}

func (s *RefreshService) runPending(ctx context.Context) {
	job, ran := s.runner.RunPending(ctx)
	if !ran {
		return
	}

	event := s.logger.Info()
	if job.State == recommend.RefreshFailed {
		event = s.logger.Warn().Str("error", job.Error)
	}
	event.
		Str("job_id", job.ID).
		Str("state", string(job.State)).
		Int64("version", job.Version).
		Int("coalesced", job.Coalesced).
		Dur("duration", job.FinishedAt.Sub(job.StartedAt)).
		Msg("refresh finished")
}

// String implements fmt.Stringer for suture's logs.
func (s *RefreshService) String() string {
	return "refresh-service"
}
