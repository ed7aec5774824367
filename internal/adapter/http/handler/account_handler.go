package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fundstransfer/internal/adapter/http/dto"
	"github.com/iho/fundstransfer/internal/domain"
	"github.com/iho/fundstransfer/internal/infrastructure/metrics"
	"github.com/iho/fundstransfer/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.AccountFunds, error)
	GetAccountBalance(ctx context.Context, accountID string) (*domain.AccountFunds, error)
}

// AccountHandler handles account funds HTTP requests.
type AccountHandler struct {
	accountUC AccountService
	metrics   *metrics.Metrics
}

// NewAccountHandler creates a new AccountHandler. m may be nil.
func NewAccountHandler(accountUC AccountService, m *metrics.Metrics) *AccountHandler {
	return &AccountHandler{accountUC: accountUC, metrics: m}
}

// Create opens an account with an initial balance.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountFundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create account", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.AccountsCreated.Inc()
	}

	writeJSON(w, http.StatusCreated, dto.AccountFundsFromDomain(account))
}

// Get returns the balance of an account.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.accountUC.GetAccountBalance(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFundsFromDomain(account))
}
