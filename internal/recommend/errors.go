// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package recommend

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable indicates the data source could not return items or
	// feedback. The model cache keeps its previous snapshot.
	ErrDataUnavailable = errors.New("recommendation data unavailable")

	// ErrScoringFailed is the single error surfaced for any failure while
	// scoring or assembling a personalized response.
	ErrScoringFailed = errors.New("recommendation scoring failed")

	// ErrUnknownJob is returned when a refresh job id is not known.
	ErrUnknownJob = errors.New("unknown refresh job")
)

// BuildError describes a failed model build.
type BuildError struct {
	// Stage is the build step that failed (load, features, similarity).
	Stage string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("model build failed at %s: %v", e.Stage, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
