// Package observability defines the Prometheus collectors shared by the
// serving runtime. Collectors are package-level and registered once against
// the default registry; recording a sample can never fail a request.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API metrics
var (
	PredictionRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prediction_requests_total",
		Help: "Total number of prediction requests",
	}, []string{"endpoint", "model_version", "status"})

	PredictionLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prediction_latency_seconds",
		Help:    "Prediction request latency in seconds",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"endpoint", "model_version"})

	PredictionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prediction_errors_total",
		Help: "Total number of prediction errors",
	}, []string{"endpoint", "error_type"})
)

// Model metrics
var (
	ModelReloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "model_reload_total",
		Help: "Total number of model reloads (hot-reload events)",
	}, []string{"from_version", "to_version"})

	ModelInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "model_info",
		Help: "Information about the currently loaded model (value is always 1)",
	}, []string{"version", "environment"})
)

// Drift metrics
var (
	DriftScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "drift_score",
		Help: "Drift score for features and predictions",
	}, []string{"model_version", "feature", "metric_type"})

	DriftAlertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drift_alerts_total",
		Help: "Total number of drift alerts triggered",
	}, []string{"model_version", "feature", "drift_type"})

	DriftCheckDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "drift_check_duration_seconds",
		Help:    "Duration of drift detection checks",
		Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
	})
)

// Prediction buffer metrics
var (
	PredictionBufferSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "prediction_buffer_size",
		Help: "Current number of predictions in buffer",
	})

	PredictionBufferUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "prediction_buffer_utilization",
		Help: "Buffer utilization (0-1)",
	})
)

// Validation and rate limiting metrics
var (
	SchemaValidationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schema_validation_errors_total",
		Help: "Total number of schema validation errors",
	}, []string{"model_version", "error_type"})

	RateLimitExceededTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rate limit exceeded responses",
	}, []string{"endpoint"})

	StorageOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_operations_total",
		Help: "Total number of artifact store operations",
	}, []string{"backend", "operation", "status"})
)
