package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/iho/fundstransfer/internal/adapter/http/dto"
	"github.com/iho/fundstransfer/internal/domain"
	"github.com/iho/fundstransfer/internal/infrastructure/metrics"
	"github.com/iho/fundstransfer/internal/usecase"
)

const testOperationID = "0b6b5c4e-8f0f-4a55-9b36-4f1a3c1f7f21"

type transferServiceStub struct {
	submitFn  func(ctx context.Context, input usecase.SubmitTransferInput) (*usecase.TransferResult, error)
	getFn     func(ctx context.Context, id int64) (*domain.Transfer, error)
	getByOpFn func(ctx context.Context, operationID string) (*domain.Transfer, error)
}

func (s *transferServiceStub) SubmitTransfer(ctx context.Context, input usecase.SubmitTransferInput) (*usecase.TransferResult, error) {
	return s.submitFn(ctx, input)
}

func (s *transferServiceStub) GetTransfer(ctx context.Context, id int64) (*domain.Transfer, error) {
	return s.getFn(ctx, id)
}

func (s *transferServiceStub) GetTransferByOperationID(ctx context.Context, operationID string) (*domain.Transfer, error) {
	return s.getByOpFn(ctx, operationID)
}

type retrierStub struct {
	attempts int
}

func (r *retrierStub) Retry(ctx context.Context, operation func() error) error {
	var err error
	for i := 0; i < r.attempts; i++ {
		if err = operation(); err == nil {
			return nil
		}
	}
	return err
}

func sampleTransfer(status domain.TransferStatus) *domain.Transfer {
	return &domain.Transfer{
		ID:                 42,
		OperationID:        testOperationID,
		SenderAccountID:    "acc-1",
		RecipientAccountID: "acc-2",
		Currency:           "USD",
		Amount:             decimal.RequireFromString("100.00"),
		Status:             status,
		CreatedAt:          time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func transferBody(t *testing.T) *bytes.Reader {
	t.Helper()

	body, err := json.Marshal(dto.CreateTransferRequest{
		OperationID: testOperationID,
		Amount:      dto.Money{Value: "100.00", Currency: "USD"},
		Accounts: dto.TransferAccounts{
			From: dto.AccountRef{ID: "acc-1"},
			To:   dto.AccountRef{ID: "acc-2"},
		},
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return bytes.NewReader(body)
}

func TestTransferHandler_Create_Success(t *testing.T) {
	var captured usecase.SubmitTransferInput
	m := metrics.New(prometheus.NewRegistry())

	handler := NewTransferHandler(&transferServiceStub{
		submitFn: func(ctx context.Context, input usecase.SubmitTransferInput) (*usecase.TransferResult, error) {
			captured = input
			return &usecase.TransferResult{Transfer: sampleTransfer(domain.TransferStatusOK)}, nil
		},
	}, nil, m)

	req := httptest.NewRequest(http.MethodPost, "/transfers", transferBody(t))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if rec.Header().Get(dto.ReplayHeader) != "" {
		t.Fatalf("expected no replay header on a fresh transfer")
	}

	if captured.SenderAccountID != "acc-1" || captured.RecipientAccountID != "acc-2" || captured.OperationID != testOperationID {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.TransferResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TransferNumber != 42 || resp.Status != "OK" || resp.Amount.Value != "100.00" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if got := testutil.ToFloat64(m.TransfersTotal.WithLabelValues("OK")); got != 1 {
		t.Fatalf("expected one OK transfer recorded, got %v", got)
	}
}

func TestTransferHandler_Create_Replay(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	handler := NewTransferHandler(&transferServiceStub{
		submitFn: func(ctx context.Context, input usecase.SubmitTransferInput) (*usecase.TransferResult, error) {
			return &usecase.TransferResult{Transfer: sampleTransfer(domain.TransferStatusRejected), Replayed: true}, nil
		},
	}, nil, m)

	req := httptest.NewRequest(http.MethodPost, "/transfers", transferBody(t))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if rec.Header().Get(dto.ReplayHeader) != "true" {
		t.Fatalf("expected replay header to be set")
	}

	if got := testutil.ToFloat64(m.TransferReplays); got != 1 {
		t.Fatalf("expected one replay recorded, got %v", got)
	}
	if got := testutil.ToFloat64(m.TransfersTotal.WithLabelValues("REJECTED")); got != 0 {
		t.Fatalf("expected replays not to count as new transfers, got %v", got)
	}
}

func TestTransferHandler_Create_InvalidBody(t *testing.T) {
	handler := NewTransferHandler(&transferServiceStub{
		submitFn: func(ctx context.Context, input usecase.SubmitTransferInput) (*usecase.TransferResult, error) {
			t.Fatal("SubmitTransfer should not be called")
			return nil, nil
		},
	}, nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", "{bad json"},
		{"unparseable amount", `{"operation_id":"x","amount":{"value":"ten","currency":"USD"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			handler.Create(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestTransferHandler_Create_MapsErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantLabel  string
	}{
		{"account not found", domain.NewAccountNotFound("acc-2"), http.StatusNotFound, "not_found"},
		{"currency mismatch", &domain.CurrencyMismatchError{AccountID: "acc-1", Currency: "EUR"}, http.StatusBadRequest, "currency_mismatch"},
		{"conflicting duplicate", &domain.ConflictingDuplicateError{OperationID: testOperationID, TransferID: 1}, http.StatusConflict, "conflicting_duplicate"},
		{"unresolved duplicate", usecase.ErrDuplicateUnresolved, http.StatusServiceUnavailable, "duplicate_unresolved"},
		{"inconsistency", &domain.InternalInconsistencyError{TransferID: 1, Reason: "vanished"}, http.StatusInternalServerError, "internal_inconsistency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())
			handler := NewTransferHandler(&transferServiceStub{
				submitFn: func(ctx context.Context, input usecase.SubmitTransferInput) (*usecase.TransferResult, error) {
					return nil, tt.err
				},
			}, nil, m)

			req := httptest.NewRequest(http.MethodPost, "/transfers", transferBody(t))
			rec := httptest.NewRecorder()

			handler.Create(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}

			if got := testutil.ToFloat64(m.TransferErrors.WithLabelValues(tt.wantLabel)); got != 1 {
				t.Fatalf("expected error label %s to be counted, got %v", tt.wantLabel, got)
			}
		})
	}
}

func TestTransferHandler_Create_UsesRetrier(t *testing.T) {
	calls := 0
	transient := errors.New("deadlock detected")

	handler := NewTransferHandler(&transferServiceStub{
		submitFn: func(ctx context.Context, input usecase.SubmitTransferInput) (*usecase.TransferResult, error) {
			calls++
			if calls < 3 {
				return nil, transient
			}
			return &usecase.TransferResult{Transfer: sampleTransfer(domain.TransferStatusOK)}, nil
		},
	}, &retrierStub{attempts: 3}, nil)

	req := httptest.NewRequest(http.MethodPost, "/transfers", transferBody(t))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 after retries, got %d", rec.Code)
	}
	if calls != 3 {
		t.Fatalf("expected 3 submissions, got %d", calls)
	}
}

func TestTransferHandler_Get(t *testing.T) {
	handler := NewTransferHandler(&transferServiceStub{
		getFn: func(ctx context.Context, id int64) (*domain.Transfer, error) {
			if id != 42 {
				return nil, domain.NewTransferNotFound("99")
			}
			return sampleTransfer(domain.TransferStatusOK), nil
		},
	}, nil, nil)

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{"existing transfer", "42", http.StatusOK},
		{"missing transfer", "99", http.StatusNotFound},
		{"non-numeric id", "abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/transfers/"+tt.id, nil)
			req = setChiURLParam(req, "id", tt.id)
			rec := httptest.NewRecorder()

			handler.Get(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestTransferHandler_GetByOperationID(t *testing.T) {
	handler := NewTransferHandler(&transferServiceStub{
		getByOpFn: func(ctx context.Context, operationID string) (*domain.Transfer, error) {
			if operationID == "not-a-uuid" {
				return nil, domain.ErrInvalidOperationID
			}
			if operationID != testOperationID {
				return nil, domain.NewTransferNotFound(operationID)
			}
			return sampleTransfer(domain.TransferStatusOK), nil
		},
	}, nil, nil)

	tests := []struct {
		name        string
		operationID string
		wantStatus  int
	}{
		{"existing operation", testOperationID, http.StatusOK},
		{"unknown operation", "6f1c3e7a-2b4d-4f6e-8a9b-0c1d2e3f4a5b", http.StatusNotFound},
		{"malformed operation id", "not-a-uuid", http.StatusBadRequest},
		{"missing operation id", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/transfers/operations/x", nil)
			req = setChiURLParam(req, "operationId", tt.operationID)
			rec := httptest.NewRecorder()

			handler.GetByOperationID(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}
