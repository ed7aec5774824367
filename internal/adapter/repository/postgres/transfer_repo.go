package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fundstransfer/internal/domain"
	"github.com/iho/fundstransfer/internal/infrastructure/postgres/generated"
	"github.com/iho/fundstransfer/internal/usecase"
)

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	queries *generated.Queries
	now     func() time.Time
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return newTransferRepository(pool)
}

func newTransferRepository(db generated.DBTX) *TransferRepository {
	return &TransferRepository{
		queries: generated.New(db),
		now:     time.Now,
	}
}

// Create inserts a transfer. A concurrent insert with the same operation ID
// blocks on the unique index until the other transaction finishes; if that
// one committed, no row comes back and a DuplicateOperationError is returned.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) (*domain.Transfer, error) {
	queries := generated.New(tx.(*Tx).PgxTx())

	row, err := queries.CreateTransfer(ctx, generated.CreateTransferParams{
		OperationID:        transfer.OperationID,
		SenderAccountID:    transfer.SenderAccountID,
		RecipientAccountID: transfer.RecipientAccountID,
		Currency:           transfer.Currency,
		Amount:             decimalToNumeric(transfer.Amount),
		Status:             string(transfer.Status),
		CreatedAt:          timeToPgTimestamptz(r.now().UTC()),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.DuplicateOperationError{OperationID: transfer.OperationID}
		}

		return nil, err
	}

	return rowToTransfer(row), nil
}

// GetByID retrieves a committed transfer by ID.
func (r *TransferRepository) GetByID(ctx context.Context, id int64) (*domain.Transfer, error) {
	return getTransferByID(ctx, r.queries, id)
}

// GetByIDTx retrieves a transfer by ID inside tx.
func (r *TransferRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Transfer, error) {
	return getTransferByID(ctx, generated.New(tx.(*Tx).PgxTx()), id)
}

// GetByOperationID retrieves a committed transfer by its operation ID.
func (r *TransferRepository) GetByOperationID(ctx context.Context, operationID string) (*domain.Transfer, error) {
	row, err := r.queries.GetTransferByOperationID(ctx, operationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewTransferNotFound(operationID)
		}

		return nil, err
	}

	return rowToTransfer(row), nil
}

// UpdateStatus sets the status of an ACCEPTED transfer. Setting the current
// status again is a no-op; replacing a terminal status is an inconsistency.
func (r *TransferRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id int64, status domain.TransferStatus) error {
	queries := generated.New(tx.(*Tx).PgxTx())

	_, err := queries.UpdateTransferStatus(ctx, generated.UpdateTransferStatusParams{
		ID:     id,
		Status: string(status),
	})
	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	current, err := queries.GetTransferStatus(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NewTransferNotFound(strconv.FormatInt(id, 10))
		}

		return err
	}

	return &domain.InternalInconsistencyError{
		TransferID: id,
		Reason:     "cannot change status " + current + " to " + string(status),
	}
}

func getTransferByID(ctx context.Context, queries *generated.Queries, id int64) (*domain.Transfer, error) {
	row, err := queries.GetTransferByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewTransferNotFound(strconv.FormatInt(id, 10))
		}

		return nil, err
	}

	return rowToTransfer(row), nil
}

func rowToTransfer(row generated.Transfer) *domain.Transfer {
	return &domain.Transfer{
		ID:                 row.ID,
		OperationID:        row.OperationID,
		SenderAccountID:    row.SenderAccountID,
		RecipientAccountID: row.RecipientAccountID,
		Currency:           row.Currency,
		Amount:             numericToDecimal(row.Amount),
		Status:             domain.TransferStatus(row.Status),
		CreatedAt:          row.CreatedAt.Time.UTC(),
	}
}
