package dto

import (
	"time"

	"github.com/iho/fundstransfer/internal/domain"
)

// ReplayHeader marks a response that repeats an earlier outcome.
const ReplayHeader = "X-Idempotent-Replay"

// AccountFundsResponse represents an account balance in API responses.
type AccountFundsResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
}

// AccountFundsFromDomain converts domain account funds to response.
func AccountFundsFromDomain(a *domain.AccountFunds) *AccountFundsResponse {
	return &AccountFundsResponse{
		AccountID: a.AccountID,
		Balance:   a.Balance.StringFixed(domain.MoneyScale),
		Currency:  a.Currency,
	}
}

// TransferResponse represents a transfer in API responses.
type TransferResponse struct {
	TransferNumber     int64     `json:"transfer_number"`
	OperationID        string    `json:"operation_id"`
	Status             string    `json:"status"`
	SenderAccountID    string    `json:"sender_account_id"`
	RecipientAccountID string    `json:"recipient_account_id"`
	Amount             Money     `json:"amount"`
	CreatedAt          time.Time `json:"created_at"`
}

// TransferFromDomain converts domain transfer to response.
func TransferFromDomain(t *domain.Transfer) *TransferResponse {
	return &TransferResponse{
		TransferNumber:     t.ID,
		OperationID:        t.OperationID,
		Status:             string(t.Status),
		SenderAccountID:    t.SenderAccountID,
		RecipientAccountID: t.RecipientAccountID,
		Amount: Money{
			Value:    t.Amount.StringFixed(domain.MoneyScale),
			Currency: t.Currency,
		},
		CreatedAt: t.CreatedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
