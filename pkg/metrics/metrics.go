package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taxfolio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taxfolio_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Engine metrics
	EngineComputationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taxfolio_engine_computations_total",
			Help: "Total number of engine computations by operation",
		},
		[]string{"operation"},
	)

	EngineComputationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taxfolio_engine_computation_duration_seconds",
			Help:    "Engine computation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	// Quote pipeline metrics
	QuoteRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taxfolio_quote_refresh_total",
			Help: "Total number of scheduled quote refresh runs",
		},
		[]string{"status"},
	)

	QuoteProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taxfolio_quote_provider_call_duration_seconds",
			Help:    "External quote provider call duration in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"status"},
	)

	// Import metrics
	LotsImportedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taxfolio_lots_imported_total",
			Help: "Total number of lots created through CSV import",
		},
	)
)

// ObserveEngineOp records one engine computation. Use with defer:
//
//	defer metrics.ObserveEngineOp("valuation", time.Now())
func ObserveEngineOp(operation string, start time.Time) {
	EngineComputationsTotal.WithLabelValues(operation).Inc()
	EngineComputationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
