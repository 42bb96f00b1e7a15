// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/marketrec/internal/logging"
	"github.com/tomtom215/marketrec/internal/metrics"
	"github.com/tomtom215/marketrec/internal/recommend"
	"github.com/tomtom215/marketrec/internal/validation"
)

// requestTimeout bounds a recommendation request, including the synchronous
// first build when no model is cached yet.
const requestTimeout = 30 * time.Second

// Recommender is the engine surface the handlers need. *recommend.Engine
// implements it.
type Recommender interface {
	Recommend(ctx context.Context, userID string) (*recommend.Response, error)
	TriggerRefresh() recommend.RefreshJob
	RefreshJob(id string) (recommend.RefreshJob, error)
	Status() recommend.Status
	GetMetrics() recommend.Metrics
	IsReady() bool
}

// Handler serves the recommendation endpoints.
type Handler struct {
	engine Recommender
}

// NewHandler creates a handler backed by engine.
func NewHandler(engine Recommender) *Handler {
	return &Handler{engine: engine}
}

// recommendationRequest is validated before the engine is consulted.
type recommendationRequest struct {
	UserID string `validate:"required,actorid"`
}

// refreshJobRequest identifies a refresh job.
type refreshJobRequest struct {
	JobID string `validate:"required,uuid4"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	ModelsLoaded bool   `json:"models_loaded"`
}

// StatusResponse is the body of GET /api/v1/recommendations/status.
type StatusResponse struct {
	Engine  recommend.Status  `json:"engine"`
	Metrics recommend.Metrics `json:"metrics"`
}

// GetRecommendations handles GET /api/v1/recommendations/users/{userID}.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	req := recommendationRequest{UserID: chi.URLParam(r, "userID")}
	if verrs := validation.ValidateStruct(&req); len(verrs) > 0 {
		apiErr := verrs.ToAPIError()
		respondValidation(w, r, apiErr.Code, "Invalid user id", apiErr.Details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	resp, err := h.engine.Recommend(ctx, req.UserID)
	if err != nil {
		h.recommendError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Debug().
		Str("user_id", sanitizeLogValue(req.UserID)).
		Str("source", string(resp.Source)).
		Int("count", len(resp.Recommendations)).
		Msg("Recommendations served")

	respondJSON(w, r, http.StatusOK, resp, time.Since(start))
}

func (h *Handler) recommendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, ErrCodeTimeout, "Recommendation request timed out", err)
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads this.
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Request canceled", nil)
	case errors.Is(err, recommend.ErrDataUnavailable):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Recommendation data is unavailable", err)
	case errors.Is(err, recommend.ErrScoringFailed):
		respondError(w, r, http.StatusInternalServerError, ErrCodeRecommendation, "Failed to generate recommendations", err)
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", err)
	}
}

// TriggerRefresh handles POST /api/v1/recommendations/refresh. The rebuild
// runs in the background; the job can be polled by id.
func (h *Handler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	job := h.engine.TriggerRefresh()
	metrics.RecordRefreshTrigger(job.Coalesced > 0)

	logging.Ctx(r.Context()).Info().
		Str("job_id", job.ID).
		Int("coalesced", job.Coalesced).
		Msg("Model refresh requested")

	w.Header().Set("Location", "/api/v1/recommendations/refresh/"+job.ID)
	respondJSON(w, r, http.StatusAccepted, job, 0)
}

// GetRefreshJob handles GET /api/v1/recommendations/refresh/{jobID}.
func (h *Handler) GetRefreshJob(w http.ResponseWriter, r *http.Request) {
	req := refreshJobRequest{JobID: chi.URLParam(r, "jobID")}
	if verrs := validation.ValidateStruct(&req); len(verrs) > 0 {
		apiErr := verrs.ToAPIError()
		respondValidation(w, r, apiErr.Code, "Invalid job id", apiErr.Details)
		return
	}

	job, err := h.engine.RefreshJob(req.JobID)
	if errors.Is(err, recommend.ErrUnknownJob) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Refresh job not found", nil)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to load refresh job", err)
		return
	}
	respondJSON(w, r, http.StatusOK, job, 0)
}

// GetStatus handles GET /api/v1/recommendations/status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, StatusResponse{
		Engine:  h.engine.Status(),
		Metrics: h.engine.GetMetrics(),
	}, 0)
}

// Health handles GET /health. It reports healthy as long as the process
// serves; models_loaded tells whether a snapshot is cached.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, HealthResponse{
		Status:       "healthy",
		ModelsLoaded: h.engine.IsReady(),
	}, 0)
}
