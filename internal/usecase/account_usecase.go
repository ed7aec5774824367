package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fundstransfer/internal/domain"
)

// AccountUseCase handles account funds business logic.
type AccountUseCase struct {
	accountRepo AccountFundsRepository
	idGen       IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountFundsRepository, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		idGen:       idGen,
	}
}

// CreateAccountInput represents input for creating an account balance record.
// AccountID is generated when empty.
type CreateAccountInput struct {
	AccountID string
	Currency  string
	Balance   decimal.Decimal
}

// CreateAccount creates a new account balance record.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.AccountFunds, error) {
	accountID := input.AccountID
	if accountID == "" {
		accountID = uc.idGen.Generate()
	}

	if err := domain.ValidateAccountID(accountID); err != nil {
		return nil, err
	}

	currency := domain.NormalizeCurrency(input.Currency)
	if err := domain.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	if err := domain.ValidateBalance(input.Balance); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	account := &domain.AccountFunds{
		AccountID: accountID,
		Currency:  currency,
		Balance:   input.Balance.Round(domain.MoneyScale),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccountBalance retrieves the balance record of an account.
func (uc *AccountUseCase) GetAccountBalance(ctx context.Context, accountID string) (*domain.AccountFunds, error) {
	if err := domain.ValidateAccountID(accountID); err != nil {
		return nil, err
	}

	return uc.accountRepo.GetByID(ctx, accountID)
}
