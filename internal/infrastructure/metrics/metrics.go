package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tdmedia",
			Subsystem: "media",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tdmedia",
			Subsystem: "media",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Upload counters
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tdmedia",
			Subsystem: "media",
			Name:      "uploads_total",
			Help:      "Total file uploads",
		},
		[]string{"kind", "status"},
	)

	// Upload bytes counter
	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tdmedia",
			Subsystem: "media",
			Name:      "upload_bytes_total",
			Help:      "Total bytes uploaded",
		},
		[]string{"kind"},
	)

	// Derivation outcomes by ladder rung
	DerivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tdmedia",
			Subsystem: "media",
			Name:      "derivations_total",
			Help:      "Total derivation runs by thumbnail rung",
		},
		[]string{"kind", "rung", "status"},
	)

	// Derivation duration
	DerivationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tdmedia",
			Subsystem: "media",
			Name:      "derivation_duration_seconds",
			Help:      "Derivation duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)

	// External tool failures
	ToolFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tdmedia",
			Subsystem: "media",
			Name:      "tool_failures_total",
			Help:      "Total external tool invocation failures",
		},
		[]string{"tool"},
	)

	// Stream grants issued
	StreamGrantsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tdmedia",
			Subsystem: "media",
			Name:      "stream_grants_total",
			Help:      "Total stream grants issued",
		},
	)

	// Stream denials by internal reason
	StreamDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tdmedia",
			Subsystem: "media",
			Name:      "stream_denials_total",
			Help:      "Total stream requests denied",
		},
		[]string{"reason"},
	)

	// Streams served
	StreamsServedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tdmedia",
			Subsystem: "media",
			Name:      "streams_served_total",
			Help:      "Total stream requests served",
		},
	)

	// Janitor deletions
	JanitorDeletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tdmedia",
			Subsystem: "media",
			Name:      "janitor_deletions_total",
			Help:      "Total stale thumbnail deletions",
		},
		[]string{"status"},
	)

	// Storage operations counter
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tdmedia",
			Subsystem: "media",
			Name:      "storage_operations_total",
			Help:      "Total storage backend operations",
		},
		[]string{"operation", "status"},
	)

	// Storage operation duration
	StorageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tdmedia",
			Subsystem: "media",
			Name:      "storage_duration_seconds",
			Help:      "Storage backend operation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"operation"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordUpload records a file upload
func RecordUpload(kind, status string, bytes int64) {
	UploadsTotal.WithLabelValues(kind, status).Inc()
	if status == "success" {
		UploadBytesTotal.WithLabelValues(kind).Add(float64(bytes))
	}
}

// RecordDerivation records a derivation run and which rung produced the thumbnail
func RecordDerivation(kind, rung, status string, durationSec float64) {
	DerivationsTotal.WithLabelValues(kind, rung, status).Inc()
	DerivationDuration.WithLabelValues(kind).Observe(durationSec)
}

// RecordToolFailure records one failed external tool invocation
func RecordToolFailure(tool string) {
	ToolFailuresTotal.WithLabelValues(tool).Inc()
}

// RecordGrantIssued records one issued stream grant
func RecordGrantIssued() {
	StreamGrantsTotal.Inc()
}

// RecordStreamDenial records a denied stream request with its internal reason
func RecordStreamDenial(reason string) {
	StreamDenialsTotal.WithLabelValues(reason).Inc()
}

// RecordStreamServed records one successfully served stream
func RecordStreamServed() {
	StreamsServedTotal.Inc()
}

// RecordJanitorDeletion records one stale thumbnail deletion attempt
func RecordJanitorDeletion(status string) {
	JanitorDeletionsTotal.WithLabelValues(status).Inc()
}

// RecordStorageOperation records a storage backend operation
func RecordStorageOperation(operation, status string, durationSec float64) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	StorageDuration.WithLabelValues(operation).Observe(durationSec)
}
