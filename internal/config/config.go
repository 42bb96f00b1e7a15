// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

// Package config loads Marketrec configuration.
//
// Values are layered with koanf, lowest precedence first:
//
//  1. built-in defaults (DefaultConfig)
//  2. an optional YAML file (CONFIG_PATH, or config.yaml in the working
//     directory, or /etc/marketrec/config.yaml)
//  3. environment variables, e.g. RECOMMEND_TOP_K=20 or HTTP_PORT=9000
//
// The merged result is validated with go-playground/validator before use.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/marketrec/internal/logging"
	"github.com/tomtom215/marketrec/internal/recommend"
	"github.com/tomtom215/marketrec/internal/validation"
)

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Refresh    RefreshConfig    `koanf:"refresh"`
	Breaker    BreakerConfig    `koanf:"breaker"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs requests per RateLimitWindow are allowed per client IP.
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig configures the DuckDB marketplace store.
type DatabaseConfig struct {
	// Path is the DuckDB file. Empty means an in-memory database.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"gte=0"`

	QueryTimeout time.Duration `koanf:"query_timeout" validate:"gt=0"`

	// SeedFile is a JSON fixture loaded by "serve" when the store is empty.
	SeedFile string `koanf:"seed_file"`
}

// RecommendConfig holds the scoring parameters.
type RecommendConfig struct {
	ContentWeight float64 `koanf:"content_weight" validate:"gte=0"`
	UserCFWeight  float64 `koanf:"user_cf_weight" validate:"gte=0"`
	ItemCFWeight  float64 `koanf:"item_cf_weight" validate:"gte=0"`

	// Collaborative scores are divided by these before weighting.
	UserCFDivisor float64 `koanf:"user_cf_divisor" validate:"gt=0"`
	ItemCFDivisor float64 `koanf:"item_cf_divisor" validate:"gt=0"`

	TopK           int `koanf:"top_k" validate:"gte=1,lte=500"`
	ColdStartLimit int `koanf:"cold_start_limit" validate:"gte=1,lte=500"`
	MaxFeatures    int `koanf:"max_features" validate:"gte=1"`
	UserNeighbors  int `koanf:"user_neighbors" validate:"gte=1"`
	ItemNeighbors  int `koanf:"item_neighbors" validate:"gte=1"`

	// SimilarityWorkers of 0 uses GOMAXPROCS.
	SimilarityWorkers int           `koanf:"similarity_workers" validate:"gte=0"`
	BuildTimeout      time.Duration `koanf:"build_timeout" validate:"gt=0"`
	RecentJobs        int           `koanf:"recent_jobs" validate:"gte=1"`
}

// EngineConfig converts to the engine's configuration.
func (r RecommendConfig) EngineConfig() *recommend.Config {
	cfg := recommend.DefaultConfig()
	cfg.Weights = map[string]float64{
		recommend.ScorerContent: r.ContentWeight,
		recommend.ScorerUserCF:  r.UserCFWeight,
		recommend.ScorerItemCF:  r.ItemCFWeight,
	}
	cfg.Divisors = map[string]float64{
		recommend.ScorerUserCF: r.UserCFDivisor,
		recommend.ScorerItemCF: r.ItemCFDivisor,
	}
	cfg.TopK = r.TopK
	cfg.ColdStartLimit = r.ColdStartLimit
	cfg.MaxFeatures = r.MaxFeatures
	cfg.SimilarityWorkers = r.SimilarityWorkers
	cfg.BuildTimeout = r.BuildTimeout
	cfg.RecentJobs = r.RecentJobs
	return cfg
}

// RefreshConfig drives the background refresh service.
type RefreshConfig struct {
	// Interval between scheduled rebuilds. 0 disables the schedule;
	// triggered refreshes still run.
	Interval  time.Duration `koanf:"interval" validate:"gte=0"`
	OnStartup bool          `koanf:"on_startup"`

	// MinInterval is the minimum spacing between two rebuilds.
	MinInterval time.Duration `koanf:"min_interval" validate:"gte=0"`
}

// BreakerConfig configures the circuit breaker around store reads.
type BreakerConfig struct {
	Enabled bool `koanf:"enabled"`

	// MaxRequests allowed through while half-open.
	MaxRequests uint32 `koanf:"max_requests" validate:"gte=1"`

	// Interval after which closed-state counts reset. 0 never resets.
	Interval time.Duration `koanf:"interval" validate:"gte=0"`

	// Timeout is how long the breaker stays open.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint32 `koanf:"failure_threshold" validate:"gte=1"`
}

// LoggingConfig mirrors logging.Config for the file and env layers.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// LoggerConfig converts to logging.Config.
func (l LoggingConfig) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	cfg.Caller = l.Caller
	return cfg
}

// SupervisorConfig tunes suture restart behaviour.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	engine := recommend.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8085,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Database: DatabaseConfig{
			Path:         "/data/marketrec.duckdb",
			MaxMemory:    "1GB",
			QueryTimeout: 30 * time.Second,
		},
		Recommend: RecommendConfig{
			ContentWeight:  engine.Weights[recommend.ScorerContent],
			UserCFWeight:   engine.Weights[recommend.ScorerUserCF],
			ItemCFWeight:   engine.Weights[recommend.ScorerItemCF],
			UserCFDivisor:  engine.Divisors[recommend.ScorerUserCF],
			ItemCFDivisor:  engine.Divisors[recommend.ScorerItemCF],
			TopK:           engine.TopK,
			ColdStartLimit: engine.ColdStartLimit,
			MaxFeatures:    engine.MaxFeatures,
			UserNeighbors:  10,
			ItemNeighbors:  5,
			BuildTimeout:   engine.BuildTimeout,
			RecentJobs:     engine.RecentJobs,
		},
		Refresh: RefreshConfig{
			Interval:    time.Hour,
			OnStartup:   true,
			MinInterval: 10 * time.Second,
		},
		Breaker: BreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Validate checks field rules and cross-field constraints.
func (c *Config) Validate() error {
	if errs := validation.ValidateStruct(c); errs != nil {
		return fmt.Errorf("invalid configuration: %w", errs)
	}
	r := c.Recommend
	if r.ContentWeight+r.UserCFWeight+r.ItemCFWeight <= 0 {
		return fmt.Errorf("invalid configuration: at least one recommend weight must be positive")
	}
	if !c.Server.RateLimitDisabled && c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("invalid configuration: server.rate_limit_window must be positive when rate limiting is enabled")
	}
	return nil
}
