// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

// Package api serves the recommendation engine over HTTP.
//
// Every JSON endpoint answers with the same envelope:
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"...","request_id":"..."}}
//	{"status":"error","error":{"code":"NOT_FOUND","message":"..."},"metadata":{...}}
package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marketrec/internal/logging"
)

// Response is the envelope written by every JSON endpoint.
type Response struct {
	// Status is "success" or "error".
	Status string `json:"status"`

	// Data is the payload; omitted on error.
	Data any `json:"data,omitempty"`

	// Error is set when Status is "error".
	Error *Error `json:"error,omitempty"`

	Metadata Metadata `json:"metadata"`
}

// Error is the error body of the envelope.
type Error struct {
	// Code is machine readable, e.g. SERVICE_UNAVAILABLE.
	Code string `json:"code"`

	// Message is human readable.
	Message string `json:"message"`

	// Details carries structured context such as validation failures.
	Details any `json:"details,omitempty"`
}

// Metadata accompanies every response.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// Error codes
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeRecommendation     = "RECOMMENDATION_ERROR"
	ErrCodeValidation         = "VALIDATION_ERROR"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// respondJSON writes data in a success envelope.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any, queryTime time.Duration) {
	writeEnvelope(w, status, &Response{
		Status: statusSuccess,
		Data:   data,
		Metadata: Metadata{
			Timestamp:   time.Now().UTC(),
			RequestID:   logging.RequestIDFromContext(r.Context()),
			QueryTimeMS: queryTime.Milliseconds(),
		},
	})
}

// respondError writes an error envelope. err, when set, is logged and never
// sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		ev := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			ev = logging.Ctx(r.Context()).Error()
		}
		ev.Str("code", code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}
	writeEnvelope(w, status, &Response{
		Status: statusError,
		Error:  &Error{Code: code, Message: message},
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	})
}

// respondValidation writes a 400 carrying field-level details.
func respondValidation(w http.ResponseWriter, r *http.Request, code, message string, details any) {
	writeEnvelope(w, http.StatusBadRequest, &Response{
		Status: statusError,
		Error:  &Error{Code: code, Message: message, Details: details},
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	})
}

func writeEnvelope(w http.ResponseWriter, status int, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// sanitizeLogValue escapes control characters so client input cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
