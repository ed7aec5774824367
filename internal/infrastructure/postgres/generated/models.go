package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type AccountFund struct {
	AccountID string             `json:"account_id"`
	Currency  string             `json:"currency"`
	Balance   pgtype.Numeric     `json:"balance"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type Transfer struct {
	ID                 int64              `json:"id"`
	OperationID        string             `json:"operation_id"`
	SenderAccountID    string             `json:"sender_account_id"`
	RecipientAccountID string             `json:"recipient_account_id"`
	Currency           string             `json:"currency"`
	Amount             pgtype.Numeric     `json:"amount"`
	Status             string             `json:"status"`
	CreatedAt          pgtype.Timestamptz `json:"created_at"`
}
