package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmaker_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelmaker_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Composition metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmaker_jobs_total",
			Help: "Composition jobs by kind and terminal state",
		},
		[]string{"kind", "result"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelmaker_job_duration_seconds",
			Help:    "Wall-clock duration of composition jobs",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	JobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelmaker_jobs_in_progress",
			Help: "Number of composition jobs currently running",
		},
	)

	StageTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmaker_stage_transitions_total",
			Help: "Pipeline state transitions by target state",
		},
		[]string{"state"},
	)

	ItemsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmaker_items_dropped_total",
			Help: "Input items dropped during normalization, by kind",
		},
		[]string{"kind"},
	)

	OverlayFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelmaker_overlay_fallbacks_total",
			Help: "Audio overlays that failed and fell back to the original video",
		},
	)

	CleanupFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelmaker_cleanup_failures_total",
			Help: "Intermediate files that could not be removed",
		},
	)
)

// Encoder metrics
var (
	EncoderInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmaker_encoder_invocations_total",
			Help: "External encoder invocations by result (success/failure/timeout)",
		},
		[]string{"result"},
	)

	EncoderInvocationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelmaker_encoder_invocation_duration_seconds",
			Help:    "Duration of single external encoder invocations",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)
)

// Copyright check metrics
var (
	FingerprintChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmaker_fingerprint_checks_total",
			Help: "Copyright fingerprint checks by outcome",
		},
		[]string{"outcome"},
	)
)
