// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package metrics

import (
	"time"

	"github.com/tomtom215/marketrec/internal/recommend"
)

var _ recommend.Observer = RecommendObserver{}

// RecommendObserver feeds engine events into the collectors above.
type RecommendObserver struct{}

// ObserveRequest implements recommend.Observer.
func (RecommendObserver) ObserveRequest(source recommend.Source, duration time.Duration, err error) {
	label := string(source)
	if label == "" {
		label = "unknown"
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	RecommendRequests.WithLabelValues(label, result).Inc()
	RecommendDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveScorer implements recommend.Observer.
func (RecommendObserver) ObserveScorer(name string, duration time.Duration, err error) {
	ScorerDuration.WithLabelValues(name).Observe(duration.Seconds())
	if err != nil {
		ScorerErrors.WithLabelValues(name).Inc()
	}
}

// ObserveBuild implements recommend.BuildObserver.
func (RecommendObserver) ObserveBuild(result string, duration time.Duration, snap *recommend.Snapshot) {
	ModelBuilds.WithLabelValues(result).Inc()
	ModelBuildDuration.Observe(duration.Seconds())
	if snap == nil {
		return
	}

	ModelVersion.Set(float64(snap.Version))
	ModelLastBuildTimestamp.Set(float64(snap.BuiltAt.Unix()))
	ModelSize.WithLabelValues("items").Set(float64(snap.Catalog.Len()))
	ModelSize.WithLabelValues("interactions").Set(float64(snap.Interactions.Len()))
	if snap.Matrix != nil {
		ModelSize.WithLabelValues("users").Set(float64(len(snap.Matrix.Users)))
	}
	if snap.Features != nil {
		ModelSize.WithLabelValues("features").Set(float64(snap.Features.Features()))
	}
}
