// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marketrec/internal/config"
	"github.com/tomtom215/marketrec/internal/database"
	"github.com/tomtom215/marketrec/internal/metrics"
	"github.com/tomtom215/marketrec/internal/recommend"
	"github.com/tomtom215/marketrec/internal/recommend/algorithms"
)

// openStore opens DuckDB and, when a seed file is configured and the store
// holds no listings, loads the fixture.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*database.DB, error) {
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Database.SeedFile == "" {
		return db, nil
	}

	counts, err := db.Counts(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if counts["listings"] > 0 {
		logger.Debug().Int64("listings", counts["listings"]).Msg("store already populated, skipping seed")
		return db, nil
	}

	res, err := db.SeedFromFile(ctx, cfg.Database.SeedFile)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed %s: %w", cfg.Database.SeedFile, err)
	}
	logger.Info().
		Str("file", cfg.Database.SeedFile).
		Int("listings", res.Listings).
		Int("bids", res.Bids).
		Int("reviews", res.Reviews).
		Msg("store seeded")
	return db, nil
}

// newEngine builds the engine over db with the three scorers registered.
// Reads go through the circuit breaker when it is enabled.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func newEngine(cfg *config.Config, db *database.DB, logger zerolog.Logger) (*recommend.Engine, error) {
	var source recommend.DataSource = db
	if cfg.Breaker.Enabled {
		source = database.NewCircuitBreakerSource(db, cfg.Breaker)
	}

	engine, err := recommend.NewEngine(cfg.Recommend.EngineConfig(), source, logger)
	if err != nil {
		return nil, err
	}
	engine.RegisterScorer(algorithms.NewContentScorer())
	engine.RegisterScorer(algorithms.NewUserCFScorer(cfg.Recommend.UserNeighbors))
	engine.RegisterScorer(algorithms.NewItemCFScorer(cfg.Recommend.ItemNeighbors))
	engine.SetObserver(metrics.RecommendObserver{})

	logger.Info().
		Bool("breaker", cfg.Breaker.Enabled).
		Int("user_neighbors", cfg.Recommend.UserNeighbors).
		Int("item_neighbors", cfg.Recommend.ItemNeighbors).
		Int("top_k", cfg.Recommend.TopK).
		Msg("recommendation engine initialized")
	return engine, nil
}
