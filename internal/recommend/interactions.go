// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package recommend

import (
	"github.com/tomtom215/marketrec/internal/recommend/matrix"
)

// InteractionMatrix is the dense users × items score matrix of one build.
// Rows are every user of the interaction table in ascending id order;
// column j is always the catalog's item j. Absent pairs are 0.
type InteractionMatrix struct {
	Users     []string
	Values    *matrix.Dense
	userIndex map[string]int
}

// BuildInteractionMatrix pivots the interaction table onto the catalog's
// columns. Interactions on items outside the catalog are dropped, so a user
// whose history is entirely on inactive items keeps an all-zero row.
func BuildInteractionMatrix(table *InteractionTable, catalog *Catalog) *InteractionMatrix {
	users := table.Users()
	m := &InteractionMatrix{
		Users:     users,
		Values:    matrix.NewDense(len(users), catalog.Len()),
		userIndex: make(map[string]int, len(users)),
	}

	for row, u := range users {
		m.userIndex[u] = row
		for _, in := range table.ByUser(u) {
			col, ok := catalog.Index(in.ItemID)
			if !ok {
				continue
			}
			m.Values.Set(row, col, in.Score)
		}
	}

	return m
}

// IsEmpty reports whether the matrix has no user rows.
func (m *InteractionMatrix) IsEmpty() bool {
	return m == nil || len(m.Users) == 0
}

// UserIndex returns the row of a user.
func (m *InteractionMatrix) UserIndex(userID string) (int, bool) {
	if m == nil {
		return 0, false
	}
	i, ok := m.userIndex[userID]
	return i, ok
}

// Row returns a read-only view of a user's row.
func (m *InteractionMatrix) Row(i int) []float64 {
	return m.Values.Row(i)
}
