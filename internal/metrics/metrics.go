// Package metrics exports Prometheus metrics for the corpus manager.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all corpus-manager Prometheus metrics
type Metrics struct {
	// Upload pipeline metrics
	UploadsTotal       *prometheus.CounterVec
	RowsParsed         prometheus.Counter
	SentencesInserted  prometheus.Counter
	DuplicatesDetected prometheus.Counter
	RowErrors          prometheus.Counter
	UploadDuration     prometheus.Histogram

	// Export metrics
	ExportsTotal      *prometheus.CounterVec
	SentencesExported prometheus.Counter

	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
}

// New initializes and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		UploadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "corpus_uploads_total",
			Help: "Total upload attempts by terminal status",
		}, []string{"status"}),

		RowsParsed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corpus_rows_parsed_total",
			Help: "Total data rows parsed from uploaded files",
		}),

		SentencesInserted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corpus_sentences_inserted_total",
			Help: "Total sentences committed to the corpus",
		}),

		DuplicatesDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corpus_duplicates_detected_total",
			Help: "Total candidate rows rejected as duplicates",
		}),

		RowErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corpus_row_errors_total",
			Help: "Total row-level validation and insert errors",
		}),

		UploadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "corpus_upload_duration_seconds",
			Help:    "End-to-end processing time of one upload",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}),

		ExportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "corpus_exports_total",
			Help: "Total session exports by outcome",
		}, []string{"status"}),

		SentencesExported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corpus_sentences_exported_total",
			Help: "Total sentences written to export files",
		}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "corpus_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
