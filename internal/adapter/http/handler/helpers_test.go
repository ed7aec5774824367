package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/fundstransfer/internal/adapter/http/dto"
	"github.com/iho/fundstransfer/internal/domain"
	"github.com/iho/fundstransfer/internal/usecase"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"account not found", domain.NewAccountNotFound("acc-1"), http.StatusNotFound},
		{"transfer not found", domain.ErrTransferNotFound, http.StatusNotFound},
		{"same account", domain.ErrSameAccount, http.StatusBadRequest},
		{"invalid amount", fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount), http.StatusBadRequest},
		{"amount too large", domain.ErrAmountTooLarge, http.StatusBadRequest},
		{"invalid currency", domain.ErrInvalidCurrency, http.StatusBadRequest},
		{"invalid operation id", domain.ErrInvalidOperationID, http.StatusBadRequest},
		{"invalid balance", domain.ErrInvalidBalance, http.StatusBadRequest},
		{"currency mismatch", &domain.CurrencyMismatchError{AccountID: "acc-1", Currency: "USD"}, http.StatusBadRequest},
		{"conflicting duplicate", &domain.ConflictingDuplicateError{OperationID: "op"}, http.StatusConflict},
		{"account exists", domain.ErrAccountAlreadyExists, http.StatusConflict},
		{"duplicate unresolved", usecase.ErrDuplicateUnresolved, http.StatusServiceUnavailable},
		{"internal inconsistency", &domain.InternalInconsistencyError{Reason: "gone"}, http.StatusInternalServerError},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	payload := map[string]string{"status": "ok"}

	writeJSON(rr, http.StatusCreated, payload)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded["status"] != "ok" {
		t.Fatalf("expected payload to round-trip, got %+v", decoded)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, http.StatusBadRequest, "bad request", "detail")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if resp.Error != "bad request" {
		t.Fatalf("expected error message to propagate, got %+v", resp)
	}
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.NewTransferNotFound("1"), "not_found"},
		{&domain.CurrencyMismatchError{AccountID: "a", Currency: "EUR"}, "currency_mismatch"},
		{&domain.ConflictingDuplicateError{OperationID: "op"}, "conflicting_duplicate"},
		{&domain.InternalInconsistencyError{Reason: "x"}, "internal_inconsistency"},
		{usecase.ErrDuplicateUnresolved, "duplicate_unresolved"},
		{domain.ErrSameAccount, "validation"},
		{errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		if got := errorType(tt.err); got != tt.want {
			t.Errorf("errorType(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
