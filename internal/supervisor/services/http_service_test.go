// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*HTTPServerService)(nil)

var _ HTTPServer = (*http.Server)(nil)

type fakeServer struct {
	listenErr error
	// stuck makes Shutdown wait for its deadline, as with a slow request.
	stuck bool

	started  chan struct{}
	stop     chan struct{}
	stopOnce sync.Once

	shutdowns atomic.Int32
	closes    atomic.Int32
}

func newFakeServer() *fakeServer {
	return &fakeServer{started: make(chan struct{}, 1), stop: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	f.started <- struct{}{}
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.shutdowns.Add(1)
	if f.stuck {
		<-ctx.Done()
		return ctx.Err()
	}
	f.stopOnce.Do(func() { close(f.stop) })
	return nil
}

func (f *fakeServer) Close() error {
	f.closes.Add(1)
	f.stopOnce.Do(func() { close(f.stop) })
	return nil
}

func serveUntilCanceled(t *testing.T, svc *HTTPServerService, srv *fakeServer) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	<-srv.started
	cancel()

	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return")
		return nil
	}
}

func TestHTTPServerService_GracefulShutdown(t *testing.T) {
	t.Parallel()

	srv := newFakeServer()
	err := serveUntilCanceled(t, NewHTTPServerService(srv, time.Second, zerolog.Nop()), srv)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if srv.shutdowns.Load() != 1 || srv.closes.Load() != 0 {
		t.Errorf("shutdowns = %d, closes = %d", srv.shutdowns.Load(), srv.closes.Load())
	}
}

func TestHTTPServerService_ShutdownTimeoutClosesConnections(t *testing.T) {
	t.Parallel()

	srv := newFakeServer()
	srv.stuck = true
	err := serveUntilCanceled(t, NewHTTPServerService(srv, 20*time.Millisecond, zerolog.Nop()), srv)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want a wrapped deadline error", err)
	}
	if srv.closes.Load() != 1 {
		t.Errorf("Close called %d times, want 1", srv.closes.Load())
	}
}

func TestHTTPServerService_ListenError(t *testing.T) {
	t.Parallel()

	srv := newFakeServer()
	srv.listenErr = errors.New("address already in use")
	svc := NewHTTPServerService(srv, 0, zerolog.Nop())

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, srv.listenErr) {
		t.Errorf("Serve() = %v, want the listen error", err)
	}
	if svc.shutdownTimeout != defaultShutdownTimeout {
		t.Errorf("default shutdown timeout = %v", svc.shutdownTimeout)
	}
	if svc.String() != "http-server" {
		t.Errorf("String() = %q", svc.String())
	}
}
