package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fundstransfer/internal/infrastructure/metrics"
)

// MetricsMiddleware records HTTP metrics.
type MetricsMiddleware struct {
	metrics *metrics.Metrics
}

// NewMetricsMiddleware creates a new MetricsMiddleware.
func NewMetricsMiddleware(m *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: m}
}

// Wrap wraps an http.Handler with request metrics.
func (m *MetricsMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		m.metrics.HTTPInFlight.Inc()
		defer m.metrics.HTTPInFlight.Dec()

		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := routePattern(r)

		m.metrics.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		m.metrics.HTTPDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern prefers the matched chi pattern over the raw path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath normalizes URL paths to avoid high cardinality.
// /api/v1/transfers/42 -> /api/v1/transfers/{id}
func normalizePath(path string) string {
	const (
		transfers    = "/api/v1/transfers/"
		operations   = "/api/v1/transfers/operations/"
		accountFunds = "/api/v1/account-funds/"
	)

	switch {
	case strings.HasPrefix(path, operations) && len(path) > len(operations):
		return operations + "{operationId}"
	case strings.HasPrefix(path, transfers) && len(path) > len(transfers):
		return transfers + "{id}"
	case strings.HasPrefix(path, accountFunds) && len(path) > len(accountFunds):
		return accountFunds + "{id}"
	}

	return path
}
