// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package recommend

import (
	"context"
	"time"
)

// ImplicitScore is the preference strength assigned to every implicit
// feedback record (a bid), regardless of its amount.
const ImplicitScore = 4.0

// ListingRecord is a raw active listing as returned by the data source.
// Optional text fields are empty strings when the store has no value.
type ListingRecord struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Condition   string  `json:"condition"`
	TargetTag   string  `json:"target_tag"`
	StartPrice  float64 `json:"start_price"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// ImplicitFeedback is an interest signal such as a bid. The amount is not
// part of the record because it never influences scoring.
type ImplicitFeedback struct {
	ActorID string `json:"actor_id"`
	ItemID  string `json:"item_id"`
}

// ExplicitFeedback is a rating given by a user to an item, expected in [1, 5].
type ExplicitFeedback struct {
	ActorID string  `json:"actor_id"`
	ItemID  string  `json:"item_id"`
	Rating  float64 `json:"rating"`
}

// DataSource is the data-access collaborator the model build reads from.
// It is implemented by the database layer.
type DataSource interface {
	// ListActiveItems returns active listings in a stable order.
	ListActiveItems(ctx context.Context) ([]ListingRecord, error)

	// ListImplicitFeedback returns every implicit feedback record.
	ListImplicitFeedback(ctx context.Context) ([]ImplicitFeedback, error)

	// ListExplicitFeedback returns every explicit rating.
	ListExplicitFeedback(ctx context.Context) ([]ExplicitFeedback, error)

	// ListPopularActiveItems returns up to limit active item ids ordered by
	// bid count descending, then view count descending.
	ListPopularActiveItems(ctx context.Context, limit int) ([]string, error)
}

// Item is a catalog entry with its synthesized text-feature string.
type Item struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	Condition    string  `json:"condition"`
	TargetTag    string  `json:"target_tag"`
	StartPrice   float64 `json:"start_price"`
	ImageURL     string  `json:"image_url,omitempty"`
	TextFeatures string  `json:"-"`
}

// Interaction is a deduplicated (user, item, score) triple.
type Interaction struct {
	UserID string  `json:"user_id"`
	ItemID string  `json:"item_id"`
	Score  float64 `json:"score"`
}

// Recommendation is one entry of a recommendation response.
type Recommendation struct {
	ItemID   string  `json:"item_id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url"`
	Score    float64 `json:"score"`

	// Scores holds the per-strategy breakdown. It is nil for cold start.
	Scores map[string]float64 `json:"scores,omitempty"`
}

// Source identifies which path produced a response.
type Source string

const (
	// SourcePersonalized marks responses produced by the fused scorers.
	SourcePersonalized Source = "personalized"
	// SourceColdStart marks popularity fallback responses.
	SourceColdStart Source = "cold_start"
)

// Response is the result of a recommendation request.
type Response struct {
	UserID          string           `json:"user_id"`
	Recommendations []Recommendation `json:"recommendations"`
	Source          Source           `json:"source"`
	ModelVersion    int64            `json:"model_version"`
	BuiltAt         time.Time        `json:"built_at,omitempty"`
	LatencyMS       int64            `json:"latency_ms"`
}

// Status describes the engine's readiness and refresh state.
type Status struct {
	Ready        bool        `json:"ready"`
	ModelVersion int64       `json:"model_version"`
	BuiltAt      time.Time   `json:"built_at,omitempty"`
	Items        int         `json:"items"`
	Users        int         `json:"users"`
	Interactions int         `json:"interactions"`
	Features     int         `json:"features"`
	Scorers      []string    `json:"scorers"`
	LastRefresh  *RefreshJob `json:"last_refresh,omitempty"`
	Refreshing   bool        `json:"refreshing"`
}

// Metrics tracks engine counters since startup.
type Metrics struct {
	Requests       int64         `json:"requests"`
	ColdStarts     int64         `json:"cold_starts"`
	Errors         int64         `json:"errors"`
	Builds         int64         `json:"builds"`
	FailedBuilds   int64         `json:"failed_builds"`
	SkippedBuilds  int64         `json:"skipped_builds"`
	LastBuildTime  time.Duration `json:"last_build_time"`
	ScorerFailures int64         `json:"scorer_failures"`
}
