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

// DefaultItemNeighbors is the number of similar items expanded per rated
// item in item-based CF.
const DefaultItemNeighbors = 5

// ItemCFScorer recommends items similar to those the user rated.
type ItemCFScorer struct {
	neighbors int
}

// NewItemCFScorer creates an item-based CF scorer expanding the k most
// similar items of each rated item. Non-positive k uses
// DefaultItemNeighbors.
func NewItemCFScorer(k int) *ItemCFScorer {
	if k <= 0 {
		k = DefaultItemNeighbors
	}
	return &ItemCFScorer{neighbors: k}
}

// Name returns the fusion key.
func (c *ItemCFScorer) Name() string {
	return recommend.ScorerItemCF
}

// Score sums similarity × source rating over the neighbours of every rated
// item, skipping neighbours the user already rated.
func (c *ItemCFScorer) Score(ctx context.Context, snap *recommend.Snapshot, userID string) (map[string]float64, error) {
	scores := make(map[string]float64)

	_, target, ok := userRow(snap, userID)
	if !ok || snap.ItemSimilarity.IsEmpty() {
		return scores, nil
	}

	for j, rating := range target {
		if rating <= 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, n := range matrix.TopNeighbors(snap.ItemSimilarity, j, c.neighbors) {
			if target[n.Index] > 0 {
				continue
			}
			scores[snap.Catalog.Items[n.Index].ID] += n.Similarity * rating
		}
	}
	return scores, nil
}
