package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/fundstransfer/internal/usecase"
)

// MaxMessageLength bounds the free-text transfer message.
const MaxMessageLength = 255

// CreateAccountFundsRequest represents a request to open an account with a balance.
type CreateAccountFundsRequest struct {
	AccountID string `json:"account_id,omitempty"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountFundsRequest) ToUseCaseInput() (usecase.CreateAccountInput, error) {
	balance := decimal.Zero
	if r.Balance != "" {
		var err error
		balance, err = decimal.NewFromString(r.Balance)
		if err != nil {
			return usecase.CreateAccountInput{}, fmt.Errorf("invalid balance %q: %w", r.Balance, err)
		}
	}

	return usecase.CreateAccountInput{
		AccountID: r.AccountID,
		Currency:  r.Currency,
		Balance:   balance,
	}, nil
}

// Money is an amount in a currency.
type Money struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// AccountRef points at an account.
type AccountRef struct {
	ID string `json:"id"`
}

// TransferAccounts names the two sides of a transfer.
type TransferAccounts struct {
	From AccountRef `json:"from"`
	To   AccountRef `json:"to"`
}

// CreateTransferRequest represents a request to submit a transfer.
type CreateTransferRequest struct {
	OperationID string           `json:"operation_id"`
	Amount      Money            `json:"amount"`
	Accounts    TransferAccounts `json:"accounts"`
	Message     string           `json:"message,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput() (usecase.SubmitTransferInput, error) {
	amount, err := decimal.NewFromString(r.Amount.Value)
	if err != nil {
		return usecase.SubmitTransferInput{}, fmt.Errorf("invalid amount %q: %w", r.Amount.Value, err)
	}

	if len(r.Message) > MaxMessageLength {
		return usecase.SubmitTransferInput{}, fmt.Errorf("message exceeds %d characters", MaxMessageLength)
	}

	return usecase.SubmitTransferInput{
		OperationID:        r.OperationID,
		SenderAccountID:    r.Accounts.From.ID,
		RecipientAccountID: r.Accounts.To.ID,
		Currency:           r.Amount.Currency,
		Amount:             amount,
	}, nil
}
