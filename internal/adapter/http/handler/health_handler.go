package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	store Pinger
	redis Pinger
}

// NewHealthHandler creates a new HealthHandler. redis is nil when disabled.
func NewHealthHandler(store, redis Pinger) *HealthHandler {
	return &HealthHandler{
		store: store,
		redis: redis,
	}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "store unhealthy", err.Error())
			return
		}
	}

	redisStatus := "disabled"
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unhealthy", err.Error())
			return
		}
		redisStatus = "ok"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"store":  "ok",
		"redis":  redisStatus,
	})
}
