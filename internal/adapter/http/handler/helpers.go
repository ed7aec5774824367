package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iho/fundstransfer/internal/adapter/http/dto"
	"github.com/iho/fundstransfer/internal/domain"
	"github.com/iho/fundstransfer/internal/usecase"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTransferNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSameAccount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrAmountTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCurrency):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidOperationID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidAccountID), errors.Is(err, domain.ErrInvalidBalance):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflictingDuplicate):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAccountAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrDuplicateUnresolved):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorType returns a low-cardinality label for err.
func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrTransferNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return "currency_mismatch"
	case errors.Is(err, domain.ErrConflictingDuplicate):
		return "conflicting_duplicate"
	case errors.Is(err, domain.ErrInternalInconsistency):
		return "internal_inconsistency"
	case errors.Is(err, usecase.ErrDuplicateUnresolved):
		return "duplicate_unresolved"
	}

	if mapDomainError(err) == http.StatusBadRequest {
		return "validation"
	}

	return "internal"
}
