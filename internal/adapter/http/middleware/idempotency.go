package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iho/fundstransfer/internal/adapter/http/dto"
	"github.com/iho/fundstransfer/internal/usecase"
)

// IdempotencyKeyHeader is the header name for idempotency keys.
const IdempotencyKeyHeader = "Idempotency-Key"

// storedResponse is what gets replayed for a repeated key.
type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// IdempotencyMiddleware replays the first successful response for an
// Idempotency-Key.
type IdempotencyMiddleware struct {
	store usecase.IdempotencyStore
	ttl   time.Duration
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. A zero ttl
// falls back to usecase.IdempotencyKeyTTL.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only apply to mutating requests
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		key = r.Method + ":" + r.URL.Path + ":" + key

		exists, cached, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			http.Error(w, "idempotency check failed", http.StatusInternalServerError)
			return
		}

		if exists {
			m.replay(w, cached)
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			if err := m.store.Release(r.Context(), key); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to release idempotency key")
			}
			return
		}

		stored, err := json.Marshal(storedResponse{
			Status: recorder.statusCode,
			Body:   json.RawMessage(recorder.body.Bytes()),
		})
		if err == nil {
			err = m.store.Update(r.Context(), key, stored, m.ttl)
		}
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to store idempotent response")
		}
	})
}

func (m *IdempotencyMiddleware) replay(w http.ResponseWriter, cached []byte) {
	if string(cached) == usecase.IdempotencyPlaceholder {
		http.Error(w, "a request with this idempotency key is in progress", http.StatusConflict)
		return
	}

	var stored storedResponse
	if err := json.Unmarshal(cached, &stored); err != nil || stored.Status == 0 {
		http.Error(w, "corrupt idempotent response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(dto.ReplayHeader, "true")
	w.WriteHeader(stored.Status)
	w.Write(stored.Body)
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
