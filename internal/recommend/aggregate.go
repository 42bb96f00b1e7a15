// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package recommend

import (
	"sort"
	"strings"
)

// InteractionTable is the deduplicated interaction set of one build,
// sorted by user id then item id.
type InteractionTable struct {
	Interactions []Interaction
	byUser       map[string][]Interaction
}

type interactionKey struct {
	user string
	item string
}

// Aggregate merges implicit and explicit feedback into one table. Implicit
// records score ImplicitScore, explicit records score their rating, and
// when a (user, item) pair occurs more than once the maximum score wins.
// References are trimmed; records with an empty user or item are dropped.
func Aggregate(implicit []ImplicitFeedback, explicit []ExplicitFeedback) *InteractionTable {
	best := make(map[interactionKey]float64, len(implicit)+len(explicit))

	keep := func(user, item string, score float64) {
		k := interactionKey{user: strings.TrimSpace(user), item: strings.TrimSpace(item)}
		if k.user == "" || k.item == "" {
			return
		}
		if cur, ok := best[k]; !ok || score > cur {
			best[k] = score
		}
	}

	for _, f := range implicit {
		keep(f.ActorID, f.ItemID, ImplicitScore)
	}
	for _, f := range explicit {
		keep(f.ActorID, f.ItemID, f.Rating)
	}

	interactions := make([]Interaction, 0, len(best))
	for k, score := range best {
		interactions = append(interactions, Interaction{UserID: k.user, ItemID: k.item, Score: score})
	}
	sort.Slice(interactions, func(i, j int) bool {
		if interactions[i].UserID != interactions[j].UserID {
			return interactions[i].UserID < interactions[j].UserID
		}
		return interactions[i].ItemID < interactions[j].ItemID
	})

	return newInteractionTable(interactions)
}

func newInteractionTable(interactions []Interaction) *InteractionTable {
	t := &InteractionTable{
		Interactions: interactions,
		byUser:       make(map[string][]Interaction),
	}
	// Sorted input keeps each user's slice contiguous.
	start := 0
	for i := 1; i <= len(interactions); i++ {
		if i == len(interactions) || interactions[i].UserID != interactions[start].UserID {
			u := interactions[start].UserID
			t.byUser[u] = interactions[start:i:i]
			start = i
		}
	}
	return t
}

// Len returns the number of interactions.
func (t *InteractionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Interactions)
}

// IsEmpty reports whether the table carries no collaborative signal.
func (t *InteractionTable) IsEmpty() bool { return t.Len() == 0 }

// ByUser returns a user's interactions sorted by item id.
func (t *InteractionTable) ByUser(userID string) []Interaction {
	if t == nil {
		return nil
	}
	return t.byUser[userID]
}

// Users returns the distinct user ids in ascending order.
func (t *InteractionTable) Users() []string {
	if t == nil {
		return nil
	}
	users := make([]string, 0, len(t.byUser))
	for u := range t.byUser {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}
