package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus is the state of a transfer.
type TransferStatus string

const (
	// TransferStatusAccepted is the initial, transient state.
	TransferStatusAccepted TransferStatus = "ACCEPTED"
	// TransferStatusOK means funds were moved.
	TransferStatusOK TransferStatus = "OK"
	// TransferStatusRejected means the sender had insufficient funds.
	TransferStatusRejected TransferStatus = "REJECTED"
)

// IsValid reports whether s is a known status.
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusAccepted, TransferStatusOK, TransferStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether s is OK or REJECTED.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusOK || s == TransferStatusRejected
}

// CanTransitionTo reports whether a record in status s may be set to next.
// Setting the current status again is allowed and is a no-op.
func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	if s == next {
		return true
	}
	return s == TransferStatusAccepted && next.IsTerminal()
}

// Transfer represents one transfer attempt between two accounts.
type Transfer struct {
	CreatedAt          time.Time
	ID                 int64
	OperationID        string
	SenderAccountID    string
	RecipientAccountID string
	Currency           string
	Amount             decimal.Decimal
	Status             TransferStatus
}

// Validate validates transfer parameters.
func (t *Transfer) Validate() error {
	if err := ValidateOperationID(t.OperationID); err != nil {
		return err
	}

	if err := ValidateAccountID(t.SenderAccountID); err != nil {
		return err
	}

	if err := ValidateAccountID(t.RecipientAccountID); err != nil {
		return err
	}

	if t.SenderAccountID == t.RecipientAccountID {
		return ErrSameAccount
	}

	if err := ValidateCurrency(t.Currency); err != nil {
		return err
	}

	return ValidateAmount(t.Amount)
}

// SameRequest reports whether other carries the same transfer parameters.
func (t *Transfer) SameRequest(other *Transfer) bool {
	return t.OperationID == other.OperationID &&
		t.SenderAccountID == other.SenderAccountID &&
		t.RecipientAccountID == other.RecipientAccountID &&
		t.Currency == other.Currency &&
		t.Amount.Equal(other.Amount)
}
