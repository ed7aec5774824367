package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fundstransfer/internal/adapter/http/dto"
	"github.com/iho/fundstransfer/internal/domain"
	"github.com/iho/fundstransfer/internal/infrastructure/metrics"
	"github.com/iho/fundstransfer/internal/usecase"
)

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	SubmitTransfer(ctx context.Context, input usecase.SubmitTransferInput) (*usecase.TransferResult, error)
	GetTransfer(ctx context.Context, id int64) (*domain.Transfer, error)
	GetTransferByOperationID(ctx context.Context, operationID string) (*domain.Transfer, error)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transferUC TransferService
	retrier    usecase.Retrier
	metrics    *metrics.Metrics
}

// NewTransferHandler creates a new TransferHandler. retrier and m may be nil.
func NewTransferHandler(transferUC TransferService, retrier usecase.Retrier, m *metrics.Metrics) *TransferHandler {
	return &TransferHandler{
		transferUC: transferUC,
		retrier:    retrier,
		metrics:    m,
	}
}

// Create submits a transfer. A replayed operation ID answers 200 instead of 201.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	var result *usecase.TransferResult
	submit := func() error {
		var submitErr error
		result, submitErr = h.transferUC.SubmitTransfer(r.Context(), input)
		return submitErr
	}

	if h.retrier != nil {
		err = h.retrier.Retry(r.Context(), submit)
	} else {
		err = submit()
	}

	h.observe(start, result, err)

	if err != nil {
		writeError(w, mapDomainError(err), "failed to submit transfer", err.Error())
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		w.Header().Set(dto.ReplayHeader, "true")
		status = http.StatusOK
	}

	writeJSON(w, status, dto.TransferFromDomain(result.Transfer))
}

// Get retrieves a transfer by its number.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transfer ID", err.Error())
		return
	}

	transfer, err := h.transferUC.GetTransfer(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}

// GetByOperationID retrieves a transfer by its operation ID.
func (h *TransferHandler) GetByOperationID(w http.ResponseWriter, r *http.Request) {
	operationID := chi.URLParam(r, "operationId")
	if operationID == "" {
		writeError(w, http.StatusBadRequest, "missing operation ID", "")
		return
	}

	transfer, err := h.transferUC.GetTransferByOperationID(r.Context(), operationID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}

func (h *TransferHandler) observe(start time.Time, result *usecase.TransferResult, err error) {
	if h.metrics == nil {
		return
	}

	h.metrics.TransferDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		h.metrics.TransferErrors.WithLabelValues(errorType(err)).Inc()
		return
	}

	if result.Replayed {
		h.metrics.TransferReplays.Inc()
		return
	}

	transfer := result.Transfer
	h.metrics.TransfersTotal.WithLabelValues(string(transfer.Status)).Inc()
	if transfer.Status == domain.TransferStatusOK {
		h.metrics.TransferAmount.WithLabelValues(transfer.Currency).Observe(transfer.Amount.InexactFloat64())
	}
}
