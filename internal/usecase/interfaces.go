package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fundstransfer/internal/domain"
)

// AccountFundsRepository is the ledger store: it owns account balances.
type AccountFundsRepository interface {
	Create(ctx context.Context, account *domain.AccountFunds) error
	GetByID(ctx context.Context, accountID string) (*domain.AccountFunds, error)
	// TransferFunds locks both accounts in ascending ID order and moves amount
	// from sender to recipient. It returns false without mutating anything
	// when the sender balance does not cover amount.
	TransferFunds(ctx context.Context, tx Transaction, senderID, recipientID string, amount decimal.Decimal) (bool, error)
}

// TransferRepository is the transfer record store.
type TransferRepository interface {
	// Create assigns ID and CreatedAt. It returns *domain.DuplicateOperationError
	// when the operation ID is already taken.
	Create(ctx context.Context, tx Transaction, transfer *domain.Transfer) (*domain.Transfer, error)
	GetByID(ctx context.Context, id int64) (*domain.Transfer, error)
	GetByIDTx(ctx context.Context, tx Transaction, id int64) (*domain.Transfer, error)
	GetByOperationID(ctx context.Context, operationID string) (*domain.Transfer, error)
	UpdateStatus(ctx context.Context, tx Transaction, id int64, status domain.TransferStatus) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a placeholder so the request can be retried.
	Release(ctx context.Context, key string) error
}
