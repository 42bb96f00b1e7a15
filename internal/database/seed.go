// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marketrec/internal/logging"
)

// Fixture is the JSON seed format.
//
//	{
//	  "listings": [{"id": "l1", "title": "Road bike", "status": "active", "view_count": 12, "end_time": "2026-11-01T12:00:00Z"}],
//	  "bids":     [{"bidder_id": "u1", "listing_id": "l1", "amount": 120}],
//	  "reviews":  [{"reviewer_id": "u2", "listing_id": "l1", "rating": 5}]
//	}
type Fixture struct {
	Listings []FixtureListing `json:"listings"`
	Bids     []FixtureBid     `json:"bids"`
	Reviews  []FixtureReview  `json:"reviews"`
}

// FixtureListing is one listing row. An empty status means active.
type FixtureListing struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Condition   string     `json:"condition"`
	TargetTag   string     `json:"target_tag"`
	StartPrice  float64    `json:"start_price"`
	ImageURL    string     `json:"image_url"`
	Status      string     `json:"status"`
	ViewCount   int64      `json:"view_count"`
	EndTime     *time.Time `json:"end_time,omitempty"`
}

// FixtureBid is one bid row.
type FixtureBid struct {
	BidderID  string  `json:"bidder_id"`
	ListingID string  `json:"listing_id"`
	Amount    float64 `json:"amount"`
}

// FixtureReview is one review row.
type FixtureReview struct {
	ReviewerID string  `json:"reviewer_id"`
	ListingID  string  `json:"listing_id"`
	Rating     float64 `json:"rating"`
}

// SeedResult counts inserted rows.
type SeedResult struct {
	Listings int `json:"listings"`
	Bids     int `json:"bids"`
	Reviews  int `json:"reviews"`
}

// LoadFixture reads a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return &f, nil
}

// SeedFromFile loads path and inserts it with Seed.
func (db *DB) SeedFromFile(ctx context.Context, path string) (SeedResult, error) {
	f, err := LoadFixture(path)
	if err != nil {
		return SeedResult{}, err
	}
	return db.Seed(ctx, f)
}

// Seed inserts a fixture in one transaction. Listings whose id already
// exists are left unchanged.
func (db *DB) Seed(ctx context.Context, f *Fixture) (SeedResult, error) {
	var res SeedResult
	if f == nil {
		return res, nil
	}

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin seed: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Warn().Err(rbErr).Msg("seed rollback failed")
			}
		}
	}()

	for i := range f.Listings {
		l := &f.Listings[i]
		id := strings.TrimSpace(l.ID)
		if id == "" {
			err = fmt.Errorf("listing %d: empty id", i)
			return SeedResult{}, err
		}
		status := l.Status
		if status == "" {
			status = ListingStatusActive
		}
		var r sql.Result
		r, err = tx.ExecContext(ctx, `
			INSERT INTO listings (id, title, description, category, condition, target_tag, start_price, image_url, status, view_count, end_time)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`,
			id, l.Title, l.Description, l.Category, l.Condition, l.TargetTag, l.StartPrice, l.ImageURL, status, l.ViewCount, l.EndTime)
		if err != nil {
			return SeedResult{}, fmt.Errorf("insert listing %s: %w", id, err)
		}
		if n, _ := r.RowsAffected(); n > 0 {
			res.Listings++
		}
	}

	for i, b := range f.Bids {
		if _, err = tx.ExecContext(ctx, `INSERT INTO bids (bidder_id, listing_id, amount) VALUES (?, ?, ?)`,
			b.BidderID, b.ListingID, b.Amount); err != nil {
			return SeedResult{}, fmt.Errorf("insert bid %d: %w", i, err)
		}
		res.Bids++
	}

	for i, r := range f.Reviews {
		if _, err = tx.ExecContext(ctx, `INSERT INTO reviews (reviewer_id, listing_id, rating) VALUES (?, ?, ?)`,
			r.ReviewerID, r.ListingID, r.Rating); err != nil {
			return SeedResult{}, fmt.Errorf("insert review %d: %w", i, err)
		}
		res.Reviews++
	}

	if err = tx.Commit(); err != nil {
		return SeedResult{}, fmt.Errorf("commit seed: %w", err)
	}
	return res, nil
}
