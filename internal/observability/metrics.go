// Package observability provides the prometheus metrics for the pipeline
// and the streaming service, collected behind a single registry.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application metric collectors.
type Metrics struct {
	registry *prometheus.Registry

	AssetsDiscovered   prometheus.Counter
	AssetsProcessed    prometheus.Counter
	PipelineErrors     *prometheus.CounterVec
	AnnotationsWritten prometheus.Counter
	ProcessingDuration prometheus.Histogram

	StreamRequests    *prometheus.CounterVec
	StreamBytesServed prometheus.Counter
}

// NewMetrics creates the metric collectors and registers them on a fresh
// registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		AssetsDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gardeneye_assets_discovered_total",
			Help: "Number of newly registered assets found by discovery scans",
		}),
		AssetsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gardeneye_assets_processed_total",
			Help: "Number of assets fully processed by the annotation pipeline",
		}),
		PipelineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gardeneye_pipeline_errors_total",
			Help: "Pipeline errors by stage",
		}, []string{"stage"}),
		AnnotationsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gardeneye_annotations_written_total",
			Help: "Number of annotation rows written",
		}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gardeneye_asset_processing_duration_seconds",
			Help:    "Wall time spent processing one asset end to end",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		StreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gardeneye_stream_requests_total",
			Help: "Streaming requests by HTTP status",
		}, []string{"status"}),
		StreamBytesServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gardeneye_stream_bytes_served_total",
			Help: "Total bytes streamed to clients",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		m.AssetsDiscovered,
		m.AssetsProcessed,
		m.PipelineErrors,
		m.AnnotationsWritten,
		m.ProcessingDuration,
		m.StreamRequests,
		m.StreamBytesServed,
	)
	return m
}

// Handler returns an http.Handler exposing the registry in the prometheus
// text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
