// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package algorithms

import (
	"github.com/tomtom215/marketrec/internal/recommend"
)

// Compile-time interface checks.
var (
	_ recommend.Scorer = (*ContentScorer)(nil)
	_ recommend.Scorer = (*UserCFScorer)(nil)
	_ recommend.Scorer = (*ItemCFScorer)(nil)
)

// userRow returns the user's interaction-matrix row, or false when the
// snapshot has no collaborative signal for them.
func userRow(snap *recommend.Snapshot, userID string) (int, []float64, bool) {
	if snap == nil || snap.Matrix.IsEmpty() {
		return 0, nil, false
	}
	idx, ok := snap.Matrix.UserIndex(userID)
	if !ok {
		return 0, nil, false
	}
	return idx, snap.Matrix.Row(idx), true
}

// Defaults returns the content, user-CF and item-CF scorers with their
// default neighbourhood sizes.
func Defaults() []recommend.Scorer {
	return []recommend.Scorer{
		NewContentScorer(),
		NewUserCFScorer(DefaultUserNeighbors),
		NewItemCFScorer(DefaultItemNeighbors),
	}
}
