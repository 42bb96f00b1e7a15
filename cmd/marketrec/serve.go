// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/marketrec/internal/api"
	"github.com/tomtom215/marketrec/internal/logging"
	"github.com/tomtom215/marketrec/internal/supervisor"
	"github.com/tomtom215/marketrec/internal/supervisor/services"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the model refresh service",
		Example: `  # Serve with an in-memory store seeded from a fixture
  DUCKDB_PATH= SEED_FILE=testdata/fixture.json marketrec serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	logger := logging.WithComponent("main")
	logger.Info().Str("version", version).Msg("Starting marketrec with supervisor tree")

	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing database")
		}
	}()
	logger.Info().Str("db_path", cfg.Database.Path).Msg("Database initialized")

	engine, err := newEngine(cfg, db, logging.Logger())
	if err != nil {
		return err
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(logging.WithComponent("supervisor")), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})

	tree.AddModelService(services.NewRefreshService(engine.Cache(), services.RefreshServiceConfig{
		Interval:    cfg.Refresh.Interval,
		OnStartup:   cfg.Refresh.OnStartup,
		MinInterval: cfg.Refresh.MinInterval,
	}, logging.Logger()))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(api.NewHandler(engine), cfg.Server),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logging.Logger()))
	logger.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// errCh carries the tree's single exit error and is never closed.
	errCh := tree.ServeBackground(ctx)

	var treeErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Supervisor shutdown error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Supervisor tree error")
			treeErr = fmt.Errorf("supervisor tree stopped: %w", err)
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logger.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	if treeErr != nil {
		return treeErr
	}
	logger.Info().Msg("Application stopped gracefully")
	return nil
}
