// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package database

import (
	"context"
	"fmt"
)

// ListingStatusActive marks listings that can be recommended.
const ListingStatusActive = "active"

var schema = []string{
	`CREATE SEQUENCE IF NOT EXISTS listing_seq START 1`,
	`CREATE TABLE IF NOT EXISTS listings (
		seq BIGINT NOT NULL DEFAULT nextval('listing_seq'),
		id VARCHAR PRIMARY KEY,
		title VARCHAR NOT NULL DEFAULT '',
		description VARCHAR NOT NULL DEFAULT '',
		category VARCHAR NOT NULL DEFAULT '',
		condition VARCHAR NOT NULL DEFAULT '',
		target_tag VARCHAR NOT NULL DEFAULT '',
		start_price DOUBLE NOT NULL DEFAULT 0,
		image_url VARCHAR NOT NULL DEFAULT '',
		status VARCHAR NOT NULL DEFAULT 'active',
		view_count BIGINT NOT NULL DEFAULT 0,
		end_time TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS bids (
		bidder_id VARCHAR NOT NULL,
		listing_id VARCHAR NOT NULL,
		amount DOUBLE NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		reviewer_id VARCHAR NOT NULL,
		listing_id VARCHAR NOT NULL,
		rating DOUBLE NOT NULL CHECK (rating >= 1 AND rating <= 5),
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,
	// Stores created before view counts were tracked.
	`ALTER TABLE listings ADD COLUMN IF NOT EXISTS view_count BIGINT DEFAULT 0`,
	`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status)`,
	`CREATE INDEX IF NOT EXISTS idx_bids_listing ON bids(listing_id)`,
}

func (db *DB) createTables(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
