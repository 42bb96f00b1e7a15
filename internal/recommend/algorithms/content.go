// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package algorithms

import (
	"context"

	"github.com/tomtom215/marketrec/internal/recommend"
	"github.com/tomtom215/marketrec/internal/recommend/tfidf"
)

// LikedThreshold is the minimum interaction score for an item to shape a
// user's content profile.
const LikedThreshold = 3.0

// ContentScorer ranks items by textual similarity to what a user liked.
type ContentScorer struct{}

// NewContentScorer creates a content scorer.
func NewContentScorer() *ContentScorer {
	return &ContentScorer{}
}

// Name returns the fusion key.
func (c *ContentScorer) Name() string {
	return recommend.ScorerContent
}

// Score averages the TF-IDF rows of the user's liked items into a profile
// and returns its cosine similarity to every catalog item that is not
// liked. Users without liked items get an empty map.
func (c *ContentScorer) Score(ctx context.Context, snap *recommend.Snapshot, userID string) (map[string]float64, error) {
	scores := make(map[string]float64)
	if snap == nil {
		return scores, nil
	}

	history := snap.Interactions.ByUser(userID)
	if len(history) == 0 {
		return scores, nil
	}

	liked := make(map[string]struct{}, len(history))
	rows := make([]int, 0, len(history))
	for _, in := range history {
		if in.Score < LikedThreshold {
			continue
		}
		liked[in.ItemID] = struct{}{}
		// Liked items that left the catalog still count as liked but
		// have no feature row.
		if idx, ok := snap.Catalog.Index(in.ItemID); ok {
			rows = append(rows, idx)
		}
	}
	if len(rows) == 0 {
		return scores, nil
	}

	profile := tfidf.NewProfile(snap.Features.Mean(rows))

	for i := range snap.Catalog.Items {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		id := snap.Catalog.Items[i].ID
		if _, ok := liked[id]; ok {
			continue
		}
		scores[id] = profile.Cosine(snap.Features.Row(i))
	}
	return scores, nil
}
