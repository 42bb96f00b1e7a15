// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package algorithms

import (
	"context"

	"github.com/tomtom215/marketrec/internal/recommend"
	"github.com/tomtom215/marketrec/internal/recommend/matrix"
)

// DefaultUserNeighbors is the neighbourhood size for user-based CF.
const DefaultUserNeighbors = 10

// UserCFScorer recommends what the most similar users rated.
type UserCFScorer struct {
	neighbors int
}

// NewUserCFScorer creates a user-based CF scorer over the k most similar
// users. Non-positive k uses DefaultUserNeighbors.
func NewUserCFScorer(k int) *UserCFScorer {
	if k <= 0 {
		k = DefaultUserNeighbors
	}
	return &UserCFScorer{neighbors: k}
}

// Name returns the fusion key.
func (u *UserCFScorer) Name() string {
	return recommend.ScorerUserCF
}

// Score accumulates similarity × rating over each neighbour's rated items
// that the user has not rated.
func (u *UserCFScorer) Score(ctx context.Context, snap *recommend.Snapshot, userID string) (map[string]float64, error) {
	scores := make(map[string]float64)

	idx, target, ok := userRow(snap, userID)
	if !ok || snap.UserSimilarity.IsEmpty() {
		return scores, nil
	}

	for _, n := range matrix.TopNeighbors(snap.UserSimilarity, idx, u.neighbors) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j, rating := range snap.Matrix.Row(n.Index) {
			if rating <= 0 || target[j] > 0 {
				continue
			}
			scores[snap.Catalog.Items[j].ID] += n.Similarity * rating
		}
	}
	return scores, nil
}
