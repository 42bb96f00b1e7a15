// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/marketrec/internal/logging"
	"github.com/tomtom215/marketrec/internal/metrics"
)

func TestRequestIDWithLogging(t *testing.T) {
	t.Parallel()

	var seen string
	h := RequestIDWithLogging()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{name: "generated", incoming: "", reuse: false},
		{name: "propagated", incoming: "req-123", reuse: true},
		{name: "oversized replaced", incoming: strings.Repeat("x", 300), reuse: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if seen == "" {
				t.Fatal("no request id in context")
			}
			if got := rec.Header().Get(RequestIDHeader); got != seen {
				t.Errorf("header %q != context %q", got, seen)
			}
			if tt.reuse != (seen == tt.incoming) {
				t.Errorf("request id = %q, incoming %q, reuse %v", seen, tt.incoming, tt.reuse)
			}
		})
	}
}

func TestRequestIDReachesLogs(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	t.Cleanup(func() { logging.SetLogger(prev) })

	router := NewRouter(NewHandler(&fakeEngine{}), testServerConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/refresh", nil)
	req.Header.Set(RequestIDHeader, "trace-me")
	router.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), `"request_id":"trace-me"`) {
		t.Errorf("log output missing request id: %s", buf.String())
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	cfg := testServerConfig()
	cfg.RateLimitDisabled = false
	cfg.RateLimitReqs = 2
	cfg.RateLimitWindow = time.Minute

	router := NewRouter(NewHandler(&fakeEngine{}), cfg)

	for i := 0; i < 2; i++ {
		if rec := serve(t, router, http.MethodGet, "/api/v1/recommendations/status"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}

	rec := serve(t, router, http.MethodGet, "/api/v1/recommendations/status")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("error = %+v", env.Error)
	}

	// Probes stay reachable.
	if rec := serve(t, router, http.MethodGet, "/health"); rec.Code != http.StatusOK {
		t.Errorf("health status = %d while limited", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		origins []string
		want    string
	}{
		{name: "allowed", origins: []string{"https://shop.example"}, want: "https://shop.example"},
		{name: "not configured", origins: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testServerConfig()
			cfg.CORSOrigins = tt.origins
			router := NewRouter(NewHandler(&fakeEngine{}), cfg)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("Origin", "https://shop.example")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrometheusMetrics_UsesRoutePattern(t *testing.T) {
	router := NewRouter(NewHandler(&fakeEngine{}), testServerConfig())

	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/recommendations/refresh/{jobID}", "404")
	before := testutil.ToFloat64(counter)

	serve(t, router, http.MethodGet, "/api/v1/recommendations/refresh/6f1c3a52-1f7e-4c4e-9a7d-3f0d2b6a9e99")

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("counter delta = %v, want 1", got)
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	t.Parallel()

	router := NewRouter(NewHandler(&fakeEngine{}), testServerConfig())
	rec := serve(t, router, http.MethodGet, "/nope")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}

func TestCompression(t *testing.T) {
	t.Parallel()

	router := NewRouter(NewHandler(&fakeEngine{}), testServerConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/status", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", got)
	}
}
