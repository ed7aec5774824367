package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fundstransfer/internal/domain"
)

// ErrDuplicateUnresolved is returned when a duplicate operation ID was
// detected but the winning transfer never became visible.
var ErrDuplicateUnresolved = errors.New("duplicate operation could not be resolved")

// TransferUseCase orchestrates transfers between two accounts.
type TransferUseCase struct {
	txManager      TransactionManager
	accountRepo    AccountFundsRepository
	transferRepo   TransferRepository
	logger         zerolog.Logger
	policy         DuplicatePolicy
	lookupAttempts int
	lookupInterval time.Duration
}

// TransferOption configures a TransferUseCase.
type TransferOption func(*TransferUseCase)

// WithDuplicatePolicy sets how conflicting resubmissions are handled.
func WithDuplicatePolicy(policy DuplicatePolicy) TransferOption {
	return func(uc *TransferUseCase) {
		if policy.IsValid() {
			uc.policy = policy
		}
	}
}

// WithDuplicateLookup bounds the lookups made to resolve a duplicate operation ID.
func WithDuplicateLookup(attempts int, interval time.Duration) TransferOption {
	return func(uc *TransferUseCase) {
		if attempts > 0 {
			uc.lookupAttempts = attempts
		}
		if interval > 0 {
			uc.lookupInterval = interval
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) TransferOption {
	return func(uc *TransferUseCase) {
		uc.logger = logger
	}
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountFundsRepository,
	transferRepo TransferRepository,
	opts ...TransferOption,
) *TransferUseCase {
	uc := &TransferUseCase{
		txManager:      txManager,
		accountRepo:    accountRepo,
		transferRepo:   transferRepo,
		logger:         zerolog.Nop(),
		policy:         DuplicatePolicyReturnOriginal,
		lookupAttempts: DefaultDuplicateLookupAttempts,
		lookupInterval: DefaultDuplicateLookupInterval,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// SubmitTransferInput represents input for submitting a transfer.
type SubmitTransferInput struct {
	OperationID        string
	SenderAccountID    string
	RecipientAccountID string
	Currency           string
	Amount             decimal.Decimal
}

// TransferResult is the finalized transfer. Replayed is set when the
// operation ID had already been processed and nothing was executed.
type TransferResult struct {
	Transfer *domain.Transfer
	Replayed bool
}

// SubmitTransfer validates the request, records it and moves the funds
// exactly once per operation ID.
func (uc *TransferUseCase) SubmitTransfer(ctx context.Context, input SubmitTransferInput) (*TransferResult, error) {
	request := &domain.Transfer{
		OperationID:        input.OperationID,
		SenderAccountID:    input.SenderAccountID,
		RecipientAccountID: input.RecipientAccountID,
		Currency:           domain.NormalizeCurrency(input.Currency),
		Amount:             input.Amount,
		Status:             domain.TransferStatusAccepted,
	}

	if err := request.Validate(); err != nil {
		return nil, err
	}

	// 1. Both accounts must exist
	sender, err := uc.accountRepo.GetByID(ctx, request.SenderAccountID)
	if err != nil {
		return nil, err
	}

	recipient, err := uc.accountRepo.GetByID(ctx, request.RecipientAccountID)
	if err != nil {
		return nil, err
	}

	// 2. Currency must match on both sides
	if err := sender.ValidateCurrency(request.Currency); err != nil {
		return nil, err
	}

	if err := recipient.ValidateCurrency(request.Currency); err != nil {
		return nil, err
	}

	// 3-5. Record, execute and finalize in one transaction
	var (
		duplicate bool
		finalized *domain.Transfer
	)

	err = WithTransaction(ctx, uc.txManager, func(tx Transaction) error {
		created, err := uc.transferRepo.Create(ctx, tx, request)
		if err != nil {
			duplicate = errors.Is(err, domain.ErrDuplicateOperation)
			return err
		}

		finalized, err = uc.execute(ctx, tx, created)
		return err
	})

	if duplicate {
		return uc.resolveDuplicate(ctx, request)
	}

	if err != nil {
		if errors.Is(err, domain.ErrInternalInconsistency) {
			uc.logger.Error().
				Err(err).
				Str("operation_id", request.OperationID).
				Msg("transfer aborted on broken invariant")
		}

		return nil, err
	}

	uc.logger.Info().
		Int64("transfer_id", finalized.ID).
		Str("operation_id", finalized.OperationID).
		Str("status", string(finalized.Status)).
		Msg("transfer finalized")

	return &TransferResult{Transfer: finalized}, nil
}

func (uc *TransferUseCase) execute(ctx context.Context, tx Transaction, transfer *domain.Transfer) (*domain.Transfer, error) {
	moved, err := uc.accountRepo.TransferFunds(ctx, tx, transfer.SenderAccountID, transfer.RecipientAccountID, transfer.Amount)
	if err != nil {
		return nil, err
	}

	status := domain.TransferStatusRejected
	if moved {
		status = domain.TransferStatusOK
	}

	if err := uc.transferRepo.UpdateStatus(ctx, tx, transfer.ID, status); err != nil {
		if errors.Is(err, domain.ErrTransferNotFound) {
			return nil, &domain.InternalInconsistencyError{
				TransferID: transfer.ID,
				Reason:     "record vanished before status update",
			}
		}

		return nil, err
	}

	finalized, err := uc.transferRepo.GetByIDTx(ctx, tx, transfer.ID)
	if err != nil {
		if errors.Is(err, domain.ErrTransferNotFound) {
			return nil, &domain.InternalInconsistencyError{
				TransferID: transfer.ID,
				Reason:     "record vanished after status update",
			}
		}

		return nil, err
	}

	if finalized.Status != status {
		return nil, &domain.InternalInconsistencyError{
			TransferID: transfer.ID,
			Reason:     fmt.Sprintf("expected status %s, found %s", status, finalized.Status),
		}
	}

	return finalized, nil
}

// resolveDuplicate returns the transfer that won the operation ID. The
// winner may still be committing, so lookups are retried a bounded number
// of times.
func (uc *TransferUseCase) resolveDuplicate(ctx context.Context, request *domain.Transfer) (*TransferResult, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = uc.lookupInterval
	b.MaxInterval = 20 * uc.lookupInterval

	var existing *domain.Transfer

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++

		found, err := uc.transferRepo.GetByOperationID(ctx, request.OperationID)
		if err != nil {
			if errors.Is(err, domain.ErrTransferNotFound) {
				return err
			}
			return backoff.Permanent(err)
		}

		existing = found
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(uc.lookupAttempts-1)), ctx))
	if err != nil {
		if errors.Is(err, domain.ErrTransferNotFound) {
			return nil, fmt.Errorf("%w: operation %s not visible after %d lookups", ErrDuplicateUnresolved, request.OperationID, attempts)
		}

		return nil, err
	}

	if !existing.Status.IsTerminal() {
		return nil, &domain.InternalInconsistencyError{
			TransferID: existing.ID,
			Reason:     "committed transfer is not finalized",
		}
	}

	if uc.policy == DuplicatePolicyRejectConflicting && !existing.SameRequest(request) {
		return nil, &domain.ConflictingDuplicateError{
			OperationID: request.OperationID,
			TransferID:  existing.ID,
		}
	}

	uc.logger.Debug().
		Int64("transfer_id", existing.ID).
		Str("operation_id", existing.OperationID).
		Int("lookups", attempts).
		Msg("duplicate operation replayed")

	return &TransferResult{Transfer: existing, Replayed: true}, nil
}

// GetTransfer retrieves a transfer by ID.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, id int64) (*domain.Transfer, error) {
	if id <= 0 {
		return nil, domain.NewTransferNotFound(strconv.FormatInt(id, 10))
	}

	return uc.transferRepo.GetByID(ctx, id)
}

// GetTransferByOperationID retrieves a transfer by its operation ID.
func (uc *TransferUseCase) GetTransferByOperationID(ctx context.Context, operationID string) (*domain.Transfer, error) {
	if err := domain.ValidateOperationID(operationID); err != nil {
		return nil, err
	}

	return uc.transferRepo.GetByOperationID(ctx, operationID)
}
