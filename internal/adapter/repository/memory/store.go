// Package memory keeps account balances and transfer records in process
// memory with the same transactional contract as the Postgres stores.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fundstransfer/internal/domain"
	"github.com/iho/fundstransfer/internal/usecase"
)

// ErrTxDone is returned by operations on a finished transaction.
var ErrTxDone = errors.New("memory: transaction has already been committed or rolled back")

// ErrForeignTx is returned when a repository receives a transaction that
// was not started by a Store.
var ErrForeignTx = errors.New("memory: transaction was not started by this store")

// Store owns the committed state. It implements usecase.TransactionManager.
type Store struct {
	mu sync.Mutex

	accounts    map[string]*domain.AccountFunds
	locks       map[string]chan struct{}
	transfers   map[int64]*domain.Transfer
	byOperation map[string]int64
	reserved    map[string]*reservation
	nextID      int64

	now func() time.Time
}

// reservation marks an operation ID taken by a transaction that has not
// finished yet. done is closed when the holder commits or rolls back.
type reservation struct {
	owner *Tx
	done  chan struct{}
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:    make(map[string]*domain.AccountFunds),
		locks:       make(map[string]chan struct{}),
		transfers:   make(map[int64]*domain.Transfer),
		byOperation: make(map[string]int64),
		reserved:    make(map[string]*reservation),
		now:         time.Now,
	}
}

// Begin starts a new transaction.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Tx{
		store:     s,
		balances:  make(map[string]decimal.Decimal),
		transfers: make(map[int64]*domain.Transfer),
	}, nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Tx stages writes until Commit. Account locks taken inside the
// transaction are held until it finishes.
type Tx struct {
	store *Store

	// guarded by store.mu
	done         bool
	balances     map[string]decimal.Decimal
	transfers    map[int64]*domain.Transfer
	reservations []string

	// only touched by the goroutine driving the transaction
	held []string
}

// Commit applies staged writes and releases locks and reservations.
func (t *Tx) Commit(ctx context.Context) error {
	s := t.store

	s.mu.Lock()
	if t.done {
		s.mu.Unlock()
		return ErrTxDone
	}

	// A committed record may have been finalized by someone else since it
	// was staged.
	for id, staged := range t.transfers {
		if current, ok := s.transfers[id]; ok && !current.Status.CanTransitionTo(staged.Status) {
			t.finishLocked()
			s.mu.Unlock()
			t.releaseLocks()

			return &domain.InternalInconsistencyError{
				TransferID: id,
				Reason:     "status changed concurrently from " + string(current.Status),
			}
		}
	}

	now := s.now().UTC()
	for accountID, balance := range t.balances {
		account := s.accounts[accountID]
		account.Balance = balance
		account.UpdatedAt = now
	}

	for id, transfer := range t.transfers {
		s.transfers[id] = transfer
		s.byOperation[transfer.OperationID] = id
	}

	t.finishLocked()
	s.mu.Unlock()
	t.releaseLocks()

	return nil
}

// Rollback discards staged writes and releases locks and reservations.
func (t *Tx) Rollback(ctx context.Context) error {
	s := t.store

	s.mu.Lock()
	if t.done {
		s.mu.Unlock()
		return ErrTxDone
	}

	t.finishLocked()
	s.mu.Unlock()
	t.releaseLocks()

	return nil
}

// finishLocked must be called with store.mu held.
func (t *Tx) finishLocked() {
	t.done = true

	for _, operationID := range t.reservations {
		if r, ok := t.store.reserved[operationID]; ok && r.owner == t {
			delete(t.store.reserved, operationID)
			close(r.done)
		}
	}

	t.reservations = nil
	t.balances = nil
	t.transfers = nil
}

func (t *Tx) releaseLocks() {
	for i := len(t.held) - 1; i >= 0; i-- {
		<-t.store.lockFor(t.held[i])
	}

	t.held = nil
}

// lockAccount blocks until the account lock is free or ctx is done. Locks
// already held by t are not taken twice.
func (t *Tx) lockAccount(ctx context.Context, accountID string) error {
	for _, held := range t.held {
		if held == accountID {
			return nil
		}
	}

	select {
	case t.store.lockFor(accountID) <- struct{}{}:
		t.held = append(t.held, accountID)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) lockFor(accountID string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[accountID]
	if !ok {
		lock = make(chan struct{}, 1)
		s.locks[accountID] = lock
	}

	return lock
}

func asTx(s *Store, tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, ErrForeignTx
	}

	return t, nil
}
