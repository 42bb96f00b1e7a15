// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package recommend

import (
	"context"
	"fmt"
	"strings"
)

// anonymousUsers are placeholder ids sent by clients without a session.
var anonymousUsers = map[string]struct{}{
	"":          {},
	"guest":     {},
	"undefined": {},
	"null":      {},
}

// IsAnonymous reports whether userID identifies no real user.
func IsAnonymous(userID string) bool {
	_, ok := anonymousUsers[strings.ToLower(strings.TrimSpace(userID))]
	return ok
}

// coldStart returns the most popular active items with a score of 0. Item
// details come from snap when it holds the item; otherwise only the id is
// known.
func (e *Engine) coldStart(ctx context.Context, snap *Snapshot) ([]Recommendation, error) {
	ids, err := e.source.ListPopularActiveItems(ctx, e.config.ColdStartLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: list popular items: %w", ErrDataUnavailable, err)
	}
	if len(ids) > e.config.ColdStartLimit {
		ids = ids[:e.config.ColdStartLimit]
	}

	recs := make([]Recommendation, 0, len(ids))
	for _, id := range ids {
		rec := Recommendation{ItemID: id}
		if snap != nil {
			if item, ok := snap.Catalog.Get(id); ok {
				rec.Title = item.Title
				rec.Price = item.StartPrice
				rec.ImageURL = item.ImageURL
			}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
