package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const addAccountFundsBalance = `-- name: AddAccountFundsBalance :exec
UPDATE account_funds SET balance = balance + $2, updated_at = $3 WHERE account_id = $1
`

type AddAccountFundsBalanceParams struct {
	AccountID string             `json:"account_id"`
	Balance   pgtype.Numeric     `json:"balance"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) AddAccountFundsBalance(ctx context.Context, arg AddAccountFundsBalanceParams) error {
	_, err := q.db.Exec(ctx, addAccountFundsBalance, arg.AccountID, arg.Balance, arg.UpdatedAt)
	return err
}

const createAccountFunds = `-- name: CreateAccountFunds :execrows
INSERT INTO account_funds (account_id, currency, balance, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (account_id) DO NOTHING
`

type CreateAccountFundsParams struct {
	AccountID string             `json:"account_id"`
	Currency  string             `json:"currency"`
	Balance   pgtype.Numeric     `json:"balance"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateAccountFunds(ctx context.Context, arg CreateAccountFundsParams) (int64, error) {
	result, err := q.db.Exec(ctx, createAccountFunds,
		arg.AccountID,
		arg.Currency,
		arg.Balance,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getAccountFundsByID = `-- name: GetAccountFundsByID :one
SELECT account_id, currency, balance, created_at, updated_at FROM account_funds WHERE account_id = $1
`

func (q *Queries) GetAccountFundsByID(ctx context.Context, accountID string) (AccountFund, error) {
	row := q.db.QueryRow(ctx, getAccountFundsByID, accountID)
	var i AccountFund
	err := row.Scan(
		&i.AccountID,
		&i.Currency,
		&i.Balance,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountFundsForUpdate = `-- name: GetAccountFundsForUpdate :many
SELECT account_id, currency, balance, created_at, updated_at FROM account_funds
WHERE account_id = ANY($1::varchar[])
ORDER BY account_id COLLATE "C"
FOR UPDATE
`

func (q *Queries) GetAccountFundsForUpdate(ctx context.Context, dollar_1 []string) ([]AccountFund, error) {
	rows, err := q.db.Query(ctx, getAccountFundsForUpdate, dollar_1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AccountFund
	for rows.Next() {
		var i AccountFund
		if err := rows.Scan(
			&i.AccountID,
			&i.Currency,
			&i.Balance,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
