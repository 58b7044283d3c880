// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

// Package metrics exposes Prometheus instrumentation for the clip
// pipeline, the vector store client and the HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics.

	ClipsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadencia_clips_processed_total",
			Help: "Total clips run through the pipeline by outcome",
		},
		[]string{"outcome"}, // "indexed" or a failure cause
	)

	ClipProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cadencia_clip_processing_duration_seconds",
			Help:    "Duration of one clip's full pipeline run in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ClipQualityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cadencia_clip_quality_score",
			Help:    "Quality score distribution of processed clips",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)

	// Vector store metrics.

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadencia_store_operation_duration_seconds",
			Help:    "Duration of vector store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadencia_store_operation_errors_total",
			Help: "Total vector store operation failures",
		},
		[]string{"operation"},
	)

	DocumentsIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadencia_documents_indexed_total",
			Help: "Total catalog documents successfully indexed",
		},
	)

	StoreBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadencia_store_breaker_state",
			Help: "Vector store circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)

	// Recommendation metrics.

	RecommendationRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadencia_recommendation_requests_total",
			Help: "Total recommendation queries served",
		},
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cadencia_recommendation_duration_seconds",
			Help:    "Duration of recommendation queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cadencia_recommendation_candidates",
			Help:    "Candidate catalog size per recommendation query",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// API metrics.

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadencia_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
)

// RecordClipOutcome tallies one clip's pipeline result.
func RecordClipOutcome(outcome string, duration time.Duration) {
	ClipsProcessed.WithLabelValues(outcome).Inc()
	ClipProcessingDuration.Observe(duration.Seconds())
}

// RecordStoreOperation tallies one store call.
func RecordStoreOperation(operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(operation).Inc()
	}
}

// RecordRecommendation tallies one recommendation query.
func RecordRecommendation(duration time.Duration, candidates int) {
	RecommendationRequests.Inc()
	RecommendationDuration.Observe(duration.Seconds())
	RecommendationCandidates.Observe(float64(candidates))
}

// RecordAPIRequest tallies one HTTP request.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, endpoint, strconv.Itoa(status)).Observe(duration.Seconds())
}
