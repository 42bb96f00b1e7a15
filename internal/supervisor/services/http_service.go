// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// defaultShutdownTimeout applies when the configured timeout is not positive.
const defaultShutdownTimeout = 10 * time.Second

// HTTPServer is the lifecycle surface of *http.Server the service drives.
// Tests substitute a fake.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
	Close() error
}

// HTTPServerService runs the recommendation API listener under suture.
//
// ListenAndServe blocks, so Serve runs it in a goroutine and waits for
// either a listener failure or cancellation of the supervisor context.
// On cancellation in-flight recommendation requests get shutdownTimeout to
// drain; connections still open after that are closed forcibly so the
// supervisor tree can finish stopping.
//
//	server := &http.Server{Addr: ":8080", Handler: router}
//	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second, logger))
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// NewHTTPServerService wraps server.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration, logger zerolog.Logger) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		logger:          logger.With().Str("service", "http").Logger(),
	}
}

// Serve implements suture.Service. It returns ctx.Err() after a graceful
// stop and a wrapped error when the listener fails or draining times out.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	h.logger.Info().Msg("http server listening")

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			h.logger.Error().Err(err).Msg("http server failed")
			return fmt.Errorf("http server failed: %w", err)
		}
		// Closed from outside the supervisor.
		return nil

	case <-ctx.Done():
		return h.drain(ctx, errCh)
	}
}

func (h *HTTPServerService) drain(ctx context.Context, errCh <-chan error) error {
	start := time.Now()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.shutdownTimeout)
	defer cancel()

	if err := h.server.Shutdown(shutdownCtx); err != nil {
		h.logger.Warn().
			Err(err).
			Dur("timeout", h.shutdownTimeout).
			Msg("requests still in flight after shutdown timeout, closing connections")
		if closeErr := h.server.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		<-errCh
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	<-errCh
	h.logger.Info().Dur("duration", time.Since(start)).Msg("http server stopped")
	return ctx.Err()
}

// String implements fmt.Stringer for suture's logs.
func (h *HTTPServerService) String() string {
	return "http-server"
}
