// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package recommend

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/marketrec/internal/recommend/matrix"
	"github.com/tomtom215/marketrec/internal/recommend/tfidf"
)

// Snapshot is one fully built, immutable model. Every matrix in it derives
// from the same catalog and interaction table.
type Snapshot struct {
	Catalog        *Catalog
	Features       *tfidf.Matrix
	Interactions   *InteractionTable
	Matrix         *InteractionMatrix
	UserSimilarity *matrix.Dense
	ItemSimilarity *matrix.Dense
	BuiltAt        time.Time
	Version        int64
}

// HasUser reports whether the user has a row in the interaction matrix.
func (s *Snapshot) HasUser(userID string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Matrix.UserIndex(userID)
	return ok
}

type buildData struct {
	listings []ListingRecord
	implicit []ImplicitFeedback
	explicit []ExplicitFeedback
}

// loadBuildData fetches listings and both feedback kinds in parallel.
func loadBuildData(ctx context.Context, source DataSource) (*buildData, error) {
	var data buildData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if data.listings, err = source.ListActiveItems(gctx); err != nil {
			return fmt.Errorf("list active items: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if data.implicit, err = source.ListImplicitFeedback(gctx); err != nil {
			return fmt.Errorf("list implicit feedback: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if data.explicit, err = source.ListExplicitFeedback(gctx); err != nil {
			return fmt.Errorf("list explicit feedback: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, &BuildError{Stage: "load", Err: fmt.Errorf("%w: %w", ErrDataUnavailable, err)}
	}
	return &data, nil
}

// buildSnapshot loads data from source and runs the full model build.
func buildSnapshot(ctx context.Context, source DataSource, cfg *Config, version int64) (*Snapshot, error) {
	data, err := loadBuildData(ctx, source)
	if err != nil {
		return nil, err
	}
	snap, err := BuildSnapshot(ctx, cfg, data.listings, data.implicit, data.explicit)
	if snap != nil {
		snap.Version = version
	}
	return snap, err
}

// BuildSnapshot builds a model from already loaded records. A nil snapshot
// with a nil error means the catalog was empty and the build was skipped.
func BuildSnapshot(ctx context.Context, cfg *Config, listings []ListingRecord, implicit []ImplicitFeedback, explicit []ExplicitFeedback) (*Snapshot, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	catalog := NewCatalog(listings)
	if catalog.Len() == 0 {
		return nil, nil
	}

	features := tfidf.NewVectorizer(cfg.MaxFeatures).FitTransform(catalog.Documents())

	table := Aggregate(implicit, explicit)
	im := BuildInteractionMatrix(table, catalog)

	userSim, err := matrix.RowCosine(ctx, im.Values, cfg.SimilarityWorkers)
	if err != nil {
		return nil, &BuildError{Stage: "similarity", Err: fmt.Errorf("user similarity: %w", err)}
	}
	itemSim, err := matrix.ColumnCosine(ctx, im.Values, cfg.SimilarityWorkers)
	if err != nil {
		return nil, &BuildError{Stage: "similarity", Err: fmt.Errorf("item similarity: %w", err)}
	}

	return &Snapshot{
		Catalog:        catalog,
		Features:       features,
		Interactions:   table,
		Matrix:         im,
		UserSimilarity: userSim,
		ItemSimilarity: itemSim,
		BuiltAt:        time.Now().UTC(),
	}, nil
}
