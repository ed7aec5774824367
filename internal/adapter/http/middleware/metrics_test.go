package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/fundstransfer/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		statusCode int
	}{
		{
			name:       "normalizes transfer path",
			method:     http.MethodGet,
			path:       "/api/v1/transfers/42",
			statusCode: http.StatusTeapot,
		},
		{
			name:       "keeps non-matching path as-is",
			method:     http.MethodPost,
			path:       "/health",
			statusCode: http.StatusCreated,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(tc.statusCode)
			})

			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()

			NewMetricsMiddleware(m).Wrap(next).ServeHTTP(rr, req)

			if !handlerCalled {
				t.Fatalf("next handler was not invoked")
			}

			if got := testutil.ToFloat64(m.HTTPInFlight); got != 0 {
				t.Fatalf("expected in-flight gauge to return to 0, got %v", got)
			}

			normalized := normalizePath(tc.path)
			counter := m.HTTPRequests.WithLabelValues(tc.method, normalized, strconv.Itoa(tc.statusCode))
			if got := testutil.ToFloat64(counter); got != 1 {
				t.Fatalf("expected counter to be 1, got %v", got)
			}
		})
	}
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(NewMetricsMiddleware(m).Wrap)
	r.Get("/api/v1/account-funds/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"acc-1", "acc-2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/account-funds/"+id, nil))
	}

	counter := m.HTTPRequests.WithLabelValues(http.MethodGet, "/api/v1/account-funds/{id}", "200")
	if got := testutil.ToFloat64(counter); got != 2 {
		t.Fatalf("expected both requests under the route pattern, got %v", got)
	}
}

func TestNormalizePath(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "account funds path",
			input:    "/api/v1/account-funds/ABC123",
			expected: "/api/v1/account-funds/{id}",
		},
		{
			name:     "transfer path",
			input:    "/api/v1/transfers/789",
			expected: "/api/v1/transfers/{id}",
		},
		{
			name:     "operation path",
			input:    "/api/v1/transfers/operations/0b6b5c4e-8f0f-4a55-9b36-4f1a3c1f7f21",
			expected: "/api/v1/transfers/operations/{operationId}",
		},
		{
			name:     "collection path",
			input:    "/api/v1/transfers/",
			expected: "/api/v1/transfers/",
		},
		{
			name:     "non-matching path",
			input:    "/health",
			expected: "/health",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizePath(tc.input); got != tc.expected {
				t.Fatalf("normalizePath(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}
