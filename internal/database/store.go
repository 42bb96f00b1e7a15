// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/marketrec/internal/metrics"
	"github.com/tomtom215/marketrec/internal/recommend"
)

var _ recommend.DataSource = (*DB)(nil)

// ListActiveItems returns active listings in insertion order.
func (db *DB) ListActiveItems(ctx context.Context) ([]recommend.ListingRecord, error) {
	const q = `
		SELECT id, title, description, category, condition, target_tag, start_price, image_url
		FROM listings
		WHERE status = ?
		ORDER BY seq`

	var out []recommend.ListingRecord
	err := db.queryRows(ctx, "listings", q, func(rows *sql.Rows) error {
		var l recommend.ListingRecord
		if err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.Category, &l.Condition, &l.TargetTag, &l.StartPrice, &l.ImageURL); err != nil {
			return err
		}
		out = append(out, l)
		return nil
	}, ListingStatusActive)
	return out, err
}

// ListImplicitFeedback returns one record per bid.
func (db *DB) ListImplicitFeedback(ctx context.Context) ([]recommend.ImplicitFeedback, error) {
	var out []recommend.ImplicitFeedback
	err := db.queryRows(ctx, "bids", `SELECT bidder_id, listing_id FROM bids`, func(rows *sql.Rows) error {
		var f recommend.ImplicitFeedback
		if err := rows.Scan(&f.ActorID, &f.ItemID); err != nil {
			return err
		}
		out = append(out, f)
		return nil
	})
	return out, err
}

// ListExplicitFeedback returns one record per review.
func (db *DB) ListExplicitFeedback(ctx context.Context) ([]recommend.ExplicitFeedback, error) {
	var out []recommend.ExplicitFeedback
	err := db.queryRows(ctx, "reviews", `SELECT reviewer_id, listing_id, rating FROM reviews`, func(rows *sql.Rows) error {
		var f recommend.ExplicitFeedback
		if err := rows.Scan(&f.ActorID, &f.ItemID, &f.Rating); err != nil {
			return err
		}
		out = append(out, f)
		return nil
	})
	return out, err
}

// ListPopularActiveItems returns up to limit active listing ids, most bids
// first, then most viewed. Remaining ties go to the soonest ending listing,
// then by id.
func (db *DB) ListPopularActiveItems(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	const q = `
		SELECT l.id
		FROM listings l
		LEFT JOIN bids b ON b.listing_id = l.id
		WHERE l.status = ?
		GROUP BY l.id, l.view_count, l.end_time
		ORDER BY COUNT(b.listing_id) DESC, l.view_count DESC, l.end_time ASC NULLS LAST, l.id ASC
		LIMIT ?`

	var out []string
	err := db.queryRows(ctx, "listings", q, func(rows *sql.Rows) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		out = append(out, id)
		return nil
	}, ListingStatusActive, limit)
	return out, err
}

// queryRows runs a read query with the store timeout and metrics.
func (db *DB) queryRows(ctx context.Context, table, q string, scan func(*sql.Rows) error, args ...any) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", table, time.Since(start), err) }()

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err = scan(rows); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", table, err)
	}
	return nil
}

// Counts returns row counts per table.
func (db *DB) Counts(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	out := make(map[string]int64, 3)
	for _, table := range []string{"listings", "bids", "reviews"} {
		var n int64
		// table names come from the fixed list above
		if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		out[table] = n
	}
	return out, nil
}
