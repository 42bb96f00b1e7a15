// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package recommend

import (
	"fmt"
	"time"
)

// Scorer names used as fusion weight keys.
const (
	ScorerContent = "content"
	ScorerUserCF  = "user_cf"
	ScorerItemCF  = "item_cf"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights is the fusion weight per scorer name.
	Weights map[string]float64 `json:"weights"`

	// Divisors scales each scorer's raw output before weighting. Scorers
	// without an entry are used unscaled.
	Divisors map[string]float64 `json:"divisors"`

	// TopK is the maximum number of personalized results.
	// Default: 12.
	TopK int `json:"top_k"`

	// ColdStartLimit is the number of popular items returned to users
	// without history.
	// Default: 5.
	ColdStartLimit int `json:"cold_start_limit"`

	// MaxFeatures caps the TF-IDF vocabulary.
	// Default: 1000.
	MaxFeatures int `json:"max_features"`

	// SimilarityWorkers is the goroutine count for similarity matrices.
	// Zero uses one per CPU.
	SimilarityWorkers int `json:"similarity_workers"`

	// BuildTimeout bounds a single model build.
	// Default: 2m.
	BuildTimeout time.Duration `json:"build_timeout"`

	// RecentJobs is how many finished refresh jobs stay queryable.
	// Default: 32.
	RecentJobs int `json:"recent_jobs"`
}

// DefaultConfig returns a Config with the production fusion weights.
func DefaultConfig() *Config {
	return &Config{
		Weights: map[string]float64{
			ScorerContent: 0.4,
			ScorerUserCF:  0.3,
			ScorerItemCF:  0.3,
		},
		Divisors: map[string]float64{
			ScorerUserCF: 5.0,
			ScorerItemCF: 5.0,
		},
		TopK:              12,
		ColdStartLimit:    5,
		MaxFeatures:       1000,
		SimilarityWorkers: 0,
		BuildTimeout:      2 * time.Minute,
		RecentJobs:        32,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	for name, w := range c.Weights {
		if w < 0 {
			return fmt.Errorf("weights.%s must be non-negative, got %f", name, w)
		}
	}
	for name, d := range c.Divisors {
		if d <= 0 {
			return fmt.Errorf("divisors.%s must be positive, got %f", name, d)
		}
	}
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.ColdStartLimit < 1 {
		return fmt.Errorf("cold_start_limit must be positive, got %d", c.ColdStartLimit)
	}
	if c.MaxFeatures < 1 {
		return fmt.Errorf("max_features must be positive, got %d", c.MaxFeatures)
	}
	if c.SimilarityWorkers < 0 {
		return fmt.Errorf("similarity_workers must be non-negative, got %d", c.SimilarityWorkers)
	}
	if c.BuildTimeout <= 0 {
		return fmt.Errorf("build_timeout must be positive, got %v", c.BuildTimeout)
	}
	if c.RecentJobs < 1 {
		return fmt.Errorf("recent_jobs must be positive, got %d", c.RecentJobs)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Weights = make(map[string]float64, len(c.Weights))
	for k, v := range c.Weights {
		out.Weights[k] = v
	}
	out.Divisors = make(map[string]float64, len(c.Divisors))
	for k, v := range c.Divisors {
		out.Divisors[k] = v
	}
	return &out
}
