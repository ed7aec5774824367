package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fundstransfer/internal/adapter/http/dto"
	"github.com/iho/fundstransfer/internal/adapter/http/handler"
	apimiddleware "github.com/iho/fundstransfer/internal/adapter/http/middleware"
	"github.com/iho/fundstransfer/internal/adapter/repository/memory"
	"github.com/iho/fundstransfer/internal/domain"
	"github.com/iho/fundstransfer/internal/infrastructure/metrics"
	"github.com/iho/fundstransfer/internal/usecase"
	"github.com/iho/fundstransfer/internal/usecase/mocks"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := mocks.NewFakeIdempotencyStore()
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"account_id":"acc-9","balance":"1.00","currency":"USD"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/account-funds/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := store.Get("POST:/api/v1/account-funds/:key-123"); !ok {
		t.Fatalf("expected idempotency store to hold the response")
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/account-funds/",
		"GET /api/v1/account-funds/{id}",
		"POST /api/v1/transfers/",
		"GET /api/v1/transfers/{id}",
		"GET /api/v1/transfers/operations/{operationId}",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func TestNewRouter_TransferFlow(t *testing.T) {
	router := NewRouter(newRouterConfig())
	const opID = "3f2b8c1e-7d4a-4b9e-a1c2-5e6f7a8b9c0d"

	submit := func() *httptest.ResponseRecorder {
		body := `{"operation_id":"` + opID + `","amount":{"value":"30.00","currency":"USD"},"accounts":{"from":{"id":"acc-1"},"to":{"id":"acc-2"}}}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/transfers/", strings.NewReader(body)))
		return rec
	}

	first := submit()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", first.Code, first.Body.String())
	}

	var created dto.TransferResponse
	if err := json.Unmarshal(first.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.Status != string(domain.TransferStatusOK) {
		t.Fatalf("expected OK status, got %s", created.Status)
	}

	second := submit()
	if second.Code != http.StatusOK || second.Header().Get(dto.ReplayHeader) != "true" {
		t.Fatalf("expected replay with 200, got %d", second.Code)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/account-funds/acc-1", nil))
	var balance dto.AccountFundsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &balance); err != nil {
		t.Fatalf("failed to decode balance: %v", err)
	}
	if balance.Balance != "70.00" {
		t.Fatalf("expected sender balance 70.00 after one execution, got %s", balance.Balance)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transfers/operations/"+opID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected lookup by operation ID to succeed, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "fundstransfer_transfers_total") {
		t.Fatalf("expected transfer metrics to be exposed, got %d", rec.Code)
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	store := memory.NewStore()
	accountRepo := memory.NewAccountFundsRepository(store)
	transferRepo := memory.NewTransferRepository(store)

	accountUC := usecase.NewAccountUseCase(accountRepo, mocks.NewFakeIDGenerator())
	transferUC := usecase.NewTransferUseCase(store, accountRepo, transferRepo)

	for _, id := range []string{"acc-1", "acc-2"} {
		if _, err := accountUC.CreateAccount(context.Background(), usecase.CreateAccountInput{
			AccountID: id,
			Currency:  "USD",
			Balance:   decimal.NewFromInt(100),
		}); err != nil {
			panic(err)
		}
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	cfg := RouterConfig{
		HealthHandler:   handler.NewHealthHandler(store, nil),
		AccountHandler:  handler.NewAccountHandler(accountUC, m),
		TransferHandler: handler.NewTransferHandler(transferUC, nil, m),
		Metrics:         m,
		Gatherer:        registry,
		Logger:          zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}
