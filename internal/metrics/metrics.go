// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

// Package metrics defines the Prometheus collectors exported on /metrics.
//
// Collectors are registered with the default registry through promauto.
// The Record* helpers keep label sets consistent across callers.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation requests
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketrec_recommend_requests_total",
			Help: "Recommendation requests by source and result",
		},
		[]string{"source", "result"}, // source: personalized, cold_start; result: ok, error
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketrec_recommend_duration_seconds",
			Help:    "Time to produce a recommendation response",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"source"},
	)

	ScorerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketrec_scorer_duration_seconds",
			Help:    "Per-scorer scoring time",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"scorer"},
	)

	ScorerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketrec_scorer_errors_total",
			Help: "Scorer failures, including recovered panics",
		},
		[]string{"scorer"},
	)

	// Model builds
	ModelBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketrec_model_builds_total",
			Help: "Model builds by result",
		},
		[]string{"result"}, // success, skipped, error
	)

	ModelBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marketrec_model_build_duration_seconds",
			Help:    "Duration of model builds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms .. ~80s
		},
	)

	ModelLastBuildTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketrec_model_last_build_timestamp_seconds",
			Help: "Unix time of the last published snapshot",
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketrec_model_version",
			Help: "Version of the published snapshot",
		},
	)

	ModelSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marketrec_model_size",
			Help: "Dimensions of the published snapshot",
		},
		[]string{"dimension"}, // items, users, interactions, features
	)

	RefreshTriggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketrec_refresh_triggers_total",
			Help: "Refresh requests, split into new jobs and ones joined to a pending job",
		},
		[]string{"outcome"}, // queued, coalesced
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	// Database
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records one finished API request.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}

// RecordDBQuery records a store query.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordRefreshTrigger counts a refresh request.
func RecordRefreshTrigger(coalesced bool) {
	if coalesced {
		RefreshTriggers.WithLabelValues("coalesced").Inc()
		return
	}
	RefreshTriggers.WithLabelValues("queued").Inc()
}
