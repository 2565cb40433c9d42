// Package metrics provides Prometheus metrics export for the upload service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "keypoints"

// Exporter exports upload and completion metrics in Prometheus format.
type Exporter struct {
	registry *prometheus.Registry

	// Upload metrics
	uploadRequests *prometheus.CounterVec
	uploadLatency  *prometheus.HistogramVec

	// LLM metrics
	llmTokens  *prometheus.CounterVec
	llmLatency *prometheus.HistogramVec
}

// Config configures the exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64

	// RuntimeCollectors adds the Go runtime and process collectors.
	RuntimeCollectors bool
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}
}

// NewExporter creates a metrics exporter with all collectors registered.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.uploadRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_requests_total",
			Help:      "Total number of upload requests",
		},
		[]string{"kind", "status"},
	)

	e.uploadLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_latency_seconds",
			Help:      "Upload request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"kind"},
	)

	e.llmTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"type"},
	)

	e.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_latency_seconds",
			Help:      "Completion request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"status"},
	)

	registry.MustRegister(
		e.uploadRequests,
		e.uploadLatency,
		e.llmTokens,
		e.llmLatency,
	)

	if cfg.RuntimeCollectors {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return e
}

// RecordUpload records one finished upload request.
func (e *Exporter) RecordUpload(kind string, status int, latency time.Duration) {
	e.uploadRequests.WithLabelValues(kind, statusClass(status)).Inc()
	e.uploadLatency.WithLabelValues(kind).Observe(latency.Seconds())
}

// RecordLLMTokens records LLM token usage.
func (e *Exporter) RecordLLMTokens(tokenType string, count int) {
	if count <= 0 {
		return
	}
	e.llmTokens.WithLabelValues(tokenType).Add(float64(count))
}

// RecordLLMCall records the latency of one completion call.
func (e *Exporter) RecordLLMCall(status string, latency time.Duration) {
	e.llmLatency.WithLabelValues(status).Observe(latency.Seconds())
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{Registry: e.registry})
}

// Registry returns the Prometheus registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// UploadRequests exposes the upload counter for inspection.
func (e *Exporter) UploadRequests() *prometheus.CounterVec { return e.uploadRequests }

// LLMTokens exposes the token counter for inspection.
func (e *Exporter) LLMTokens() *prometheus.CounterVec { return e.llmTokens }

// LLMLatency exposes the completion latency histogram for inspection.
func (e *Exporter) LLMLatency() *prometheus.HistogramVec { return e.llmLatency }

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
