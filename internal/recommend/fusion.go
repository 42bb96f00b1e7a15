// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package recommend

import "sort"

// ScoredItem is a fused result with its per-scorer raw scores.
type ScoredItem struct {
	ItemID string
	Score  float64
	Scores map[string]float64
}

// Fuse combines per-scorer score maps into one ranking.
//
// Each candidate in the union of all maps receives
//
//	sum over scorers of weight[s] · raw[s] / divisor[s]
//
// where a missing raw score counts as 0 and a missing divisor as 1. Results
// are ordered by fused score descending, then item id ascending, and
// truncated to k.
func Fuse(scores map[string]map[string]float64, weights, divisors map[string]float64, k int) []ScoredItem {
	if k <= 0 {
		return nil
	}

	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	candidates := make(map[string]struct{})
	for _, name := range names {
		for id := range scores[name] {
			candidates[id] = struct{}{}
		}
	}

	items := make([]ScoredItem, 0, len(candidates))
	for id := range candidates {
		breakdown := make(map[string]float64, len(names))
		var fused float64
		for _, name := range names {
			raw := scores[name][id]
			breakdown[name] = raw

			div := divisors[name]
			if div == 0 {
				div = 1
			}
			fused += weights[name] * (raw / div)
		}
		items = append(items, ScoredItem{ItemID: id, Score: fused, Scores: breakdown})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ItemID < items[j].ItemID
	})

	if len(items) > k {
		items = items[:k]
	}
	return items
}
