package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createTransfer = `-- name: CreateTransfer :one
INSERT INTO transfers (operation_id, sender_account_id, recipient_account_id, currency, amount, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (operation_id) DO NOTHING
RETURNING id, operation_id, sender_account_id, recipient_account_id, currency, amount, status, created_at
`

type CreateTransferParams struct {
	OperationID        string             `json:"operation_id"`
	SenderAccountID    string             `json:"sender_account_id"`
	RecipientAccountID string             `json:"recipient_account_id"`
	Currency           string             `json:"currency"`
	Amount             pgtype.Numeric     `json:"amount"`
	Status             string             `json:"status"`
	CreatedAt          pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateTransfer(ctx context.Context, arg CreateTransferParams) (Transfer, error) {
	row := q.db.QueryRow(ctx, createTransfer,
		arg.OperationID,
		arg.SenderAccountID,
		arg.RecipientAccountID,
		arg.Currency,
		arg.Amount,
		arg.Status,
		arg.CreatedAt,
	)
	var i Transfer
	err := row.Scan(
		&i.ID,
		&i.OperationID,
		&i.SenderAccountID,
		&i.RecipientAccountID,
		&i.Currency,
		&i.Amount,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const getTransferByID = `-- name: GetTransferByID :one
SELECT id, operation_id, sender_account_id, recipient_account_id, currency, amount, status, created_at FROM transfers WHERE id = $1
`

func (q *Queries) GetTransferByID(ctx context.Context, id int64) (Transfer, error) {
	row := q.db.QueryRow(ctx, getTransferByID, id)
	var i Transfer
	err := row.Scan(
		&i.ID,
		&i.OperationID,
		&i.SenderAccountID,
		&i.RecipientAccountID,
		&i.Currency,
		&i.Amount,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const getTransferByOperationID = `-- name: GetTransferByOperationID :one
SELECT id, operation_id, sender_account_id, recipient_account_id, currency, amount, status, created_at FROM transfers WHERE operation_id = $1
`

func (q *Queries) GetTransferByOperationID(ctx context.Context, operationID string) (Transfer, error) {
	row := q.db.QueryRow(ctx, getTransferByOperationID, operationID)
	var i Transfer
	err := row.Scan(
		&i.ID,
		&i.OperationID,
		&i.SenderAccountID,
		&i.RecipientAccountID,
		&i.Currency,
		&i.Amount,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const getTransferStatus = `-- name: GetTransferStatus :one
SELECT status FROM transfers WHERE id = $1
`

func (q *Queries) GetTransferStatus(ctx context.Context, id int64) (string, error) {
	row := q.db.QueryRow(ctx, getTransferStatus, id)
	var status string
	err := row.Scan(&status)
	return status, err
}

const updateTransferStatus = `-- name: UpdateTransferStatus :one
UPDATE transfers SET status = $2
WHERE id = $1 AND status IN ('ACCEPTED', $2)
RETURNING id
`

type UpdateTransferStatusParams struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

func (q *Queries) UpdateTransferStatus(ctx context.Context, arg UpdateTransferStatusParams) (int64, error) {
	row := q.db.QueryRow(ctx, updateTransferStatus, arg.ID, arg.Status)
	var id int64
	err := row.Scan(&id)
	return id, err
}
