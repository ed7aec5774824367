package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountFunds holds the balance of a single account.
type AccountFunds struct {
	AccountID string
	Currency  string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanDebit reports whether the balance covers amount.
func (a *AccountFunds) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// ApplyDebit returns new balance after debit.
func (a *AccountFunds) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *AccountFunds) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// ValidateCurrency returns a CurrencyMismatchError if currency is not the
// account currency.
func (a *AccountFunds) ValidateCurrency(currency string) error {
	if a.Currency != currency {
		return &CurrencyMismatchError{AccountID: a.AccountID, Currency: a.Currency}
	}
	return nil
}
