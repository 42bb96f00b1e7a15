// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

// Package recommend implements the hybrid marketplace recommendation engine.
//
// # Architecture
//
// A model build reads active listings and feedback from a DataSource and
// produces an immutable Snapshot:
//
//   - Catalog: listings in source order with a text-feature string per item
//   - Features: a TF-IDF row per catalog item (see package tfidf)
//   - Interactions: bids (score 4.0) and reviews (their rating) merged by
//     keeping the maximum score per (user, item)
//   - Matrix: users × catalog items, columns aligned to catalog order
//   - UserSimilarity / ItemSimilarity: cosine over matrix rows and columns
//
// Requests score a user with every registered Scorer (content, user-based
// CF and item-based CF live in package algorithms) and fuse the results:
//
//	fused = 0.4·content + 0.3·user_cf/5 + 0.3·item_cf/5
//
// Users without a matrix row receive the popularity fallback instead.
//
// # Usage
//
//	engine, err := recommend.NewEngine(cfg, source, logger)
//	engine.RegisterScorer(algorithms.NewContentScorer())
//	engine.RegisterScorer(algorithms.NewUserCFScorer(10))
//	engine.RegisterScorer(algorithms.NewItemCFScorer(5))
//
//	resp, err := engine.Recommend(ctx, "user-42")
//
// # Thread Safety
//
// Snapshots are published with a single atomic pointer swap. A request loads
// the pointer once and reads only that snapshot, so a rebuild running
// alongside it can never pair an old interaction matrix with new similarity
// matrices. Concurrent builds are coalesced into one.
package recommend
