// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package recommend

import "strings"

// Catalog is the ordered set of active items of one build. Item order
// defines the row order of the feature matrix and the column order of the
// interaction matrix.
type Catalog struct {
	Items []Item
	index map[string]int
}

// NewCatalog converts raw listings into catalog items, preserving source
// order. Records with an empty id and repeated ids are skipped.
func NewCatalog(records []ListingRecord) *Catalog {
	c := &Catalog{
		Items: make([]Item, 0, len(records)),
		index: make(map[string]int, len(records)),
	}

	for i := range records {
		r := &records[i]
		id := strings.TrimSpace(r.ID)
		if id == "" {
			continue
		}
		if _, dup := c.index[id]; dup {
			continue
		}

		c.index[id] = len(c.Items)
		c.Items = append(c.Items, Item{
			ID:           id,
			Title:        r.Title,
			Description:  r.Description,
			Category:     r.Category,
			Condition:    r.Condition,
			TargetTag:    r.TargetTag,
			StartPrice:   r.StartPrice,
			ImageURL:     r.ImageURL,
			TextFeatures: textFeatures(r),
		})
	}

	return c
}

func textFeatures(r *ListingRecord) string {
	return strings.Join([]string{r.Title, r.Description, r.Category, r.Condition}, " ")
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

// Index returns the position of an item id.
func (c *Catalog) Index(id string) (int, bool) {
	if c == nil {
		return 0, false
	}
	i, ok := c.index[id]
	return i, ok
}

// Get returns the item with the given id.
func (c *Catalog) Get(id string) (Item, bool) {
	i, ok := c.Index(id)
	if !ok {
		return Item{}, false
	}
	return c.Items[i], true
}

// IDs returns item ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, c.Len())
	for i := range ids {
		ids[i] = c.Items[i].ID
	}
	return ids
}

// Documents returns the text-feature strings in catalog order.
func (c *Catalog) Documents() []string {
	docs := make([]string, c.Len())
	for i := range docs {
		docs[i] = c.Items[i].TextFeatures
	}
	return docs
}
