package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersTotal   *prometheus.CounterVec
	TransferReplays  prometheus.Counter
	TransferDuration prometheus.Histogram
	TransferAmount   *prometheus.HistogramVec
	TransferErrors   *prometheus.CounterVec

	// Account metrics
	AccountsCreated prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Transfer metrics
		TransfersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundstransfer_transfers_total",
				Help: "Total number of finalized transfers by status",
			},
			[]string{"status"},
		),
		TransferReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundstransfer_transfer_replays_total",
			Help: "Total number of submissions resolved to an existing operation",
		}),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fundstransfer_transfer_duration_seconds",
			Help:    "Duration of transfer submissions",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fundstransfer_transfer_amount",
				Help:    "Amounts of executed transfers",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"currency"},
		),
		TransferErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundstransfer_transfer_errors_total",
				Help: "Total number of transfer errors by type",
			},
			[]string{"error_type"},
		),

		// Account metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundstransfer_accounts_created_total",
			Help: "Total number of accounts created",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundstransfer_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fundstransfer_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fundstransfer_http_in_flight_requests",
			Help: "Current number of HTTP requests being served",
		}),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundstransfer_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),
	}
}
