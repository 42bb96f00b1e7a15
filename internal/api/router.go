// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/marketrec/internal/config"
)

// NewRouter builds the chi router.
//
// Routes:
//
//	GET  /health
//	GET  /metrics
//	GET  /api/v1/recommendations/status
//	POST /api/v1/recommendations/refresh
//	GET  /api/v1/recommendations/refresh/{jobID}
//	GET  /api/v1/recommendations/users/{userID}
func NewRouter(handler *Handler, cfg config.ServerConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(PrometheusMetrics)
	r.Use(chimiddleware.Compress(5, "application/json"))
	r.Use(CORS(cfg))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed", nil)
	})

	// Probes and scrapes are not rate limited.
	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Use(RateLimit(cfg))

		r.Get("/status", handler.GetStatus)
		r.Post("/refresh", handler.TriggerRefresh)
		r.Get("/refresh/{jobID}", handler.GetRefreshJob)
		r.Get("/users/{userID}", handler.GetRecommendations)
	})

	return r
}
