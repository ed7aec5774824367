package memory

import (
	"context"
	"strconv"

	"github.com/iho/fundstransfer/internal/domain"
	"github.com/iho/fundstransfer/internal/usecase"
)

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	store *Store
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(store *Store) *TransferRepository {
	return &TransferRepository{store: store}
}

// Create stages a new transfer record. A concurrent Create for the same
// operation ID waits until the first holder finishes, then either fails
// with a duplicate or takes over the ID if the holder rolled back.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) (*domain.Transfer, error) {
	s := r.store

	t, err := asTx(s, tx)
	if err != nil {
		return nil, err
	}

	for {
		s.mu.Lock()
		if t.done {
			s.mu.Unlock()
			return nil, ErrTxDone
		}

		if _, ok := s.byOperation[transfer.OperationID]; ok {
			s.mu.Unlock()
			return nil, &domain.DuplicateOperationError{OperationID: transfer.OperationID}
		}

		if held, ok := s.reserved[transfer.OperationID]; ok {
			s.mu.Unlock()

			if held.owner == t {
				return nil, &domain.DuplicateOperationError{OperationID: transfer.OperationID}
			}

			select {
			case <-held.done:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		s.nextID++
		created := *transfer
		created.ID = s.nextID
		created.CreatedAt = s.now().UTC()

		s.reserved[transfer.OperationID] = &reservation{owner: t, done: make(chan struct{})}
		t.reservations = append(t.reservations, transfer.OperationID)
		t.transfers[created.ID] = &created
		s.mu.Unlock()

		result := created
		return &result, nil
	}
}

// GetByID returns a committed transfer.
func (r *TransferRepository) GetByID(ctx context.Context, id int64) (*domain.Transfer, error) {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	transfer, ok := s.transfers[id]
	if !ok {
		return nil, domain.NewTransferNotFound(strconv.FormatInt(id, 10))
	}

	found := *transfer
	return &found, nil
}

// GetByIDTx returns a transfer as seen from inside tx, staged writes included.
func (r *TransferRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Transfer, error) {
	s := r.store

	t, err := asTx(s, tx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t.done {
		return nil, ErrTxDone
	}

	transfer, ok := t.transferLocked(id)
	if !ok {
		return nil, domain.NewTransferNotFound(strconv.FormatInt(id, 10))
	}

	found := *transfer
	return &found, nil
}

// GetByOperationID returns a committed transfer by its operation ID.
func (r *TransferRepository) GetByOperationID(ctx context.Context, operationID string) (*domain.Transfer, error) {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byOperation[operationID]
	if !ok {
		return nil, domain.NewTransferNotFound(operationID)
	}

	found := *s.transfers[id]
	return &found, nil
}

// UpdateStatus stages a status change. Setting the current status again is
// a no-op; replacing a terminal status is an inconsistency.
func (r *TransferRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id int64, status domain.TransferStatus) error {
	s := r.store

	t, err := asTx(s, tx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t.done {
		return ErrTxDone
	}

	current, ok := t.transferLocked(id)
	if !ok {
		return domain.NewTransferNotFound(strconv.FormatInt(id, 10))
	}

	if current.Status == status {
		return nil
	}

	if !current.Status.CanTransitionTo(status) {
		return &domain.InternalInconsistencyError{
			TransferID: id,
			Reason:     "cannot change status " + string(current.Status) + " to " + string(status),
		}
	}

	updated := *current
	updated.Status = status
	t.transfers[id] = &updated

	return nil
}

// transferLocked must be called with store.mu held.
func (t *Tx) transferLocked(id int64) (*domain.Transfer, bool) {
	if transfer, ok := t.transfers[id]; ok {
		return transfer, true
	}

	transfer, ok := t.store.transfers[id]
	return transfer, ok
}
