// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

// Package algorithms implements the scorers fused by the recommendation
// engine.
//
// Each scorer implements recommend.Scorer and reads only from the snapshot
// it is given, so scorers hold no model state and are safe for concurrent
// use.
//
// # Scorers
//
//   - ContentScorer: cosine similarity between the mean TF-IDF vector of the
//     items a user liked (score >= 3.0) and every other item
//   - UserCFScorer: similarity-weighted ratings of the 10 most similar users
//   - ItemCFScorer: for every rated item, its 5 most similar items weighted
//     by the user's rating of the source item
//
// Collaborative scores are raw sums of similarity × rating. They are not
// divided by the total neighbour similarity, so a candidate reached through
// many neighbours scores higher than one reached through a single strong
// neighbour.
//
// # Usage
//
//	engine.RegisterScorer(algorithms.NewContentScorer())
//	engine.RegisterScorer(algorithms.NewUserCFScorer(algorithms.DefaultUserNeighbors))
//	engine.RegisterScorer(algorithms.NewItemCFScorer(algorithms.DefaultItemNeighbors))
package algorithms
