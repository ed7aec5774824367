package domain

import (
	"errors"
	"fmt"
)

var (
	// Account errors
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrInvalidAccountID     = errors.New("invalid account ID")

	// Transfer errors
	ErrSameAccount           = errors.New("cannot transfer to same account")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrCurrencyMismatch      = errors.New("currency does not match account currency")
	ErrTransferNotFound      = errors.New("transfer not found")
	ErrInvalidOperationID    = errors.New("invalid operation ID")
	ErrDuplicateOperation    = errors.New("duplicate operation ID")
	ErrConflictingDuplicate  = errors.New("operation ID already used for a different transfer")
	ErrInternalInconsistency = errors.New("internal inconsistency")
)

// Entity kinds reported by NotFoundError.
const (
	EntityAccount  = "account"
	EntityTransfer = "transfer"
)

// NotFoundError reports a missing account or transfer.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Is matches ErrAccountNotFound or ErrTransferNotFound depending on Kind.
func (e *NotFoundError) Is(target error) bool {
	switch e.Kind {
	case EntityAccount:
		return target == ErrAccountNotFound
	case EntityTransfer:
		return target == ErrTransferNotFound
	}
	return false
}

// NewAccountNotFound returns a NotFoundError for an account.
func NewAccountNotFound(id string) error {
	return &NotFoundError{Kind: EntityAccount, ID: id}
}

// NewTransferNotFound returns a NotFoundError for a transfer.
func NewTransferNotFound(id string) error {
	return &NotFoundError{Kind: EntityTransfer, ID: id}
}

// CurrencyMismatchError is returned when a transfer currency differs from
// the currency of one of its accounts.
type CurrencyMismatchError struct {
	AccountID string
	Currency  string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("account %s holds %s: currency mismatch", e.AccountID, e.Currency)
}

func (e *CurrencyMismatchError) Is(target error) bool {
	return target == ErrCurrencyMismatch
}

// DuplicateOperationError is returned by the transfer store when a record
// with the same operation ID already exists. It never leaves the orchestrator.
type DuplicateOperationError struct {
	OperationID string
}

func (e *DuplicateOperationError) Error() string {
	return fmt.Sprintf("transfer with operation ID %s already exists", e.OperationID)
}

func (e *DuplicateOperationError) Is(target error) bool {
	return target == ErrDuplicateOperation
}

// ConflictingDuplicateError is returned when an operation ID is resubmitted
// with parameters that differ from the stored transfer.
type ConflictingDuplicateError struct {
	OperationID string
	TransferID  int64
}

func (e *ConflictingDuplicateError) Error() string {
	return fmt.Sprintf("a transfer with operation ID %s already exists (transfer %d) with different parameters",
		e.OperationID, e.TransferID)
}

func (e *ConflictingDuplicateError) Is(target error) bool {
	return target == ErrConflictingDuplicate
}

// InternalInconsistencyError signals a broken invariant. It must abort the
// in-flight operation.
type InternalInconsistencyError struct {
	TransferID int64
	Reason     string
}

func (e *InternalInconsistencyError) Error() string {
	return fmt.Sprintf("internal inconsistency on transfer %d: %s", e.TransferID, e.Reason)
}

func (e *InternalInconsistencyError) Is(target error) bool {
	return target == ErrInternalInconsistency
}
