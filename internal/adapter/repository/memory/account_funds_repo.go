package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/fundstransfer/internal/domain"
	"github.com/iho/fundstransfer/internal/usecase"
)

// AccountFundsRepository implements usecase.AccountFundsRepository.
type AccountFundsRepository struct {
	store *Store
}

// NewAccountFundsRepository creates a new AccountFundsRepository.
func NewAccountFundsRepository(store *Store) *AccountFundsRepository {
	return &AccountFundsRepository{store: store}
}

// Create inserts a new balance record.
func (r *AccountFundsRepository) Create(ctx context.Context, account *domain.AccountFunds) error {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.AccountID]; ok {
		return domain.ErrAccountAlreadyExists
	}

	stored := *account
	s.accounts[account.AccountID] = &stored

	return nil
}

// GetByID returns the committed balance record of an account.
func (r *AccountFundsRepository) GetByID(ctx context.Context, accountID string) (*domain.AccountFunds, error) {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, domain.NewAccountNotFound(accountID)
	}

	found := *account
	return &found, nil
}

// TransferFunds moves amount from sender to recipient inside tx.
func (r *AccountFundsRepository) TransferFunds(ctx context.Context, tx usecase.Transaction, senderID, recipientID string, amount decimal.Decimal) (bool, error) {
	s := r.store

	t, err := asTx(s, tx)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if t.done {
		s.mu.Unlock()
		return false, ErrTxDone
	}
	for _, id := range []string{senderID, recipientID} {
		if _, ok := s.accounts[id]; !ok {
			s.mu.Unlock()
			return false, domain.NewAccountNotFound(id)
		}
	}
	s.mu.Unlock()

	ids := []string{senderID, recipientID}
	sort.Strings(ids)

	for _, id := range ids {
		if err := t.lockAccount(ctx, id); err != nil {
			return false, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t.done {
		return false, ErrTxDone
	}

	senderBalance := t.balanceLocked(senderID)
	if senderBalance.LessThan(amount) {
		return false, nil
	}

	if senderID == recipientID {
		return true, nil
	}

	t.balances[senderID] = senderBalance.Sub(amount)
	t.balances[recipientID] = t.balanceLocked(recipientID).Add(amount)

	return true, nil
}

// balanceLocked must be called with store.mu held.
func (t *Tx) balanceLocked(accountID string) decimal.Decimal {
	if balance, ok := t.balances[accountID]; ok {
		return balance
	}

	return t.store.accounts[accountID].Balance
}
