// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/marketrec/internal/config"
	"github.com/tomtom215/marketrec/internal/logging"
	"github.com/tomtom215/marketrec/internal/metrics"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestIDWithLogging reuses a client supplied X-Request-ID or generates
// one, echoes it back, and stores it in the request context so logging.Ctx
// tags every entry with it.
func RequestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" || len(requestID) > 128 {
				requestID = logging.NewRequestID()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrometheusMetrics records request count, latency and in-flight gauge.
// The endpoint label is the chi route pattern so path parameters do not
// explode label cardinality.
func PrometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordAPIRequest(r.Method, endpoint, status, time.Since(start))
	})
}

// CORS returns the go-chi/cors handler for the configured origins, or a
// pass-through when none are configured.
func CORS(cfg config.ServerConfig) func(http.Handler) http.Handler {
	if len(cfg.CORSOrigins) == 0 {
		return passThrough
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           86400,
	})
}

// RateLimit limits each client IP to cfg.RateLimitReqs per window using
// go-chi/httprate. Rejections use the JSON envelope.
func RateLimit(cfg config.ServerConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled || cfg.RateLimitReqs <= 0 {
		return passThrough
	}
	return httprate.Limit(
		cfg.RateLimitReqs,
		cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Rate limit exceeded", nil)
		}),
	)
}

func passThrough(next http.Handler) http.Handler { return next }
