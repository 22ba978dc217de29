// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

// Package metrics provides Prometheus instrumentation for the engine:
// pipeline latency and strategy usage, matcher contribution counts,
// reference-data reloads, and diagnosis-service circuit breaker state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline Metrics
	PipelineRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathweaver_pipeline_requests_total",
			Help: "Total number of pipeline runs by winning match strategy",
		},
		[]string{"strategy"}, // curated, merged, broadened, taxonomy, none
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pathweaver_pipeline_duration_seconds",
			Help:    "End-to-end pipeline latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PipelineEmptyResults = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pathweaver_pipeline_empty_results_total",
			Help: "Total number of pipeline runs that produced no playable results",
		},
	)

	PipelineReducedConfidence = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pathweaver_pipeline_reduced_confidence_total",
			Help: "Total number of pipeline runs served with a degraded diagnosis",
		},
	)

	// Matcher Metrics
	MatcherResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathweaver_matcher_results_total",
			Help: "Total number of candidate results contributed per matcher",
		},
		[]string{"matcher"}, // lexical, metadata, semantic, taxonomy, curated
	)

	MatcherFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathweaver_matcher_failures_total",
			Help: "Total number of matcher branches that failed and contributed empty",
		},
		[]string{"matcher"},
	)

	// Reference Data Metrics
	SnapshotReloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pathweaver_snapshot_reloads_total",
			Help: "Total number of successful reference-data snapshot reloads",
		},
	)

	SnapshotReloadFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pathweaver_snapshot_reload_failures_total",
			Help: "Total number of failed reference-data snapshot reloads",
		},
	)

	// Diagnosis Client Metrics
	DiagnosisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathweaver_diagnosis_requests_total",
			Help: "Total number of diagnosis-service calls by outcome",
		},
		[]string{"outcome"}, // ok, error, open, rate_limited
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pathweaver_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathweaver_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Feedback Metrics
	FeedbackEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathweaver_feedback_events_total",
			Help: "Total number of recorded feedback events by type",
		},
		[]string{"type"}, // engaged, skipped
	)

	// API Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pathweaver_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)
