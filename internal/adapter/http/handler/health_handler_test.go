package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingerStub struct {
	err error
}

func (p pingerStub) Ping(ctx context.Context) error {
	return p.err
}

func TestHealthHandler_Liveness(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(nil, nil).Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	down := errors.New("connection refused")

	tests := []struct {
		name       string
		store      Pinger
		redis      Pinger
		wantStatus int
		wantRedis  string
	}{
		{"store only", pingerStub{}, nil, http.StatusOK, "disabled"},
		{"store and redis", pingerStub{}, pingerStub{}, http.StatusOK, "ok"},
		{"store down", pingerStub{err: down}, pingerStub{}, http.StatusServiceUnavailable, ""},
		{"redis down", pingerStub{}, pingerStub{err: down}, http.StatusServiceUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.store, tt.redis).Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}

			if tt.wantRedis == "" {
				return
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body["redis"] != tt.wantRedis || body["store"] != "ok" {
				t.Fatalf("unexpected readiness body: %v", body)
			}
		})
	}
}
