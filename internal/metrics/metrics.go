package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalwatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitalwatch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Ingest metrics
	IngestRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalwatch_ingest_records_total",
			Help: "Total number of measurement records received",
		},
		[]string{"source", "outcome"}, // outcome: stored, duplicate, invalid
	)

	IngestValidationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalwatch_ingest_validation_errors_total",
			Help: "Total number of record validation errors",
		},
		[]string{"error_type"},
	)

	IngestBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vitalwatch_ingest_batch_size",
			Help:    "Size of record batches received over HTTP",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// Evaluation metrics
	EvaluationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vitalwatch_evaluations_total",
			Help: "Total number of per-patient evaluation passes",
		},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vitalwatch_evaluation_duration_seconds",
			Help:    "Time taken to evaluate one patient against all rules",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)

	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalwatch_alerts_total",
			Help: "Total number of alerts emitted, by rule",
		},
		[]string{"rule"},
	)

	EvaluatorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalwatch_evaluator_failures_total",
			Help: "Total number of evaluator faults recovered and skipped",
		},
		[]string{"rule"},
	)

	// Patient store gauge
	PatientsTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vitalwatch_patients_tracked",
			Help: "Number of patients with at least one stored record",
		},
	)

	// Sink metrics
	SinkPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalwatch_sink_publish_total",
			Help: "Total number of alerts handed to a sink",
		},
		[]string{"sink", "status"}, // status: success, failed
	)

	SinkPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vitalwatch_sink_publish_duration_seconds",
			Help:    "Time taken to deliver an alert to the sink",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	SinkPublishRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vitalwatch_sink_publish_retries_total",
			Help: "Total number of sink publish retries",
		},
	)

	// Reader metrics
	ReaderMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalwatch_reader_messages_total",
			Help: "Total number of messages consumed by data readers",
		},
		[]string{"reader", "status"}, // status: parsed, skipped
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalwatch_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
