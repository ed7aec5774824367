package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/fundstransfer/internal/domain"
	"github.com/iho/fundstransfer/internal/infrastructure/postgres/generated"
	"github.com/iho/fundstransfer/internal/usecase"
)

// AccountFundsRepository implements usecase.AccountFundsRepository.
type AccountFundsRepository struct {
	queries *generated.Queries
	now     func() time.Time
}

// NewAccountFundsRepository creates a new AccountFundsRepository.
func NewAccountFundsRepository(pool *pgxpool.Pool) *AccountFundsRepository {
	return newAccountFundsRepository(pool)
}

func newAccountFundsRepository(db generated.DBTX) *AccountFundsRepository {
	return &AccountFundsRepository{
		queries: generated.New(db),
		now:     time.Now,
	}
}

// Create inserts a new balance record.
func (r *AccountFundsRepository) Create(ctx context.Context, account *domain.AccountFunds) error {
	inserted, err := r.queries.CreateAccountFunds(ctx, generated.CreateAccountFundsParams{
		AccountID: account.AccountID,
		Currency:  account.Currency,
		Balance:   decimalToNumeric(account.Balance),
		CreatedAt: timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(account.UpdatedAt),
	})
	if err != nil {
		return err
	}

	if inserted == 0 {
		return domain.ErrAccountAlreadyExists
	}

	return nil
}

// GetByID retrieves the balance record of an account.
func (r *AccountFundsRepository) GetByID(ctx context.Context, accountID string) (*domain.AccountFunds, error) {
	row, err := r.queries.GetAccountFundsByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewAccountNotFound(accountID)
		}

		return nil, err
	}

	return rowToAccountFunds(row), nil
}

// TransferFunds locks both rows with SELECT ... FOR UPDATE in ascending
// account ID order, then moves amount if the sender balance covers it.
func (r *AccountFundsRepository) TransferFunds(ctx context.Context, tx usecase.Transaction, senderID, recipientID string, amount decimal.Decimal) (bool, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	rows, err := queries.GetAccountFundsForUpdate(ctx, []string{senderID, recipientID})
	if err != nil {
		return false, err
	}

	locked := make(map[string]*domain.AccountFunds, len(rows))
	for _, row := range rows {
		locked[row.AccountID] = rowToAccountFunds(row)
	}

	sender, ok := locked[senderID]
	if !ok {
		return false, domain.NewAccountNotFound(senderID)
	}

	if _, ok := locked[recipientID]; !ok {
		return false, domain.NewAccountNotFound(recipientID)
	}

	if !sender.CanDebit(amount) {
		return false, nil
	}

	if senderID == recipientID {
		return true, nil
	}

	now := timeToPgTimestamptz(r.now().UTC())

	if err := queries.AddAccountFundsBalance(ctx, generated.AddAccountFundsBalanceParams{
		AccountID: senderID,
		Balance:   decimalToNumeric(amount.Neg()),
		UpdatedAt: now,
	}); err != nil {
		return false, err
	}

	if err := queries.AddAccountFundsBalance(ctx, generated.AddAccountFundsBalanceParams{
		AccountID: recipientID,
		Balance:   decimalToNumeric(amount),
		UpdatedAt: now,
	}); err != nil {
		return false, err
	}

	return true, nil
}

func rowToAccountFunds(row generated.AccountFund) *domain.AccountFunds {
	return &domain.AccountFunds{
		AccountID: row.AccountID,
		Currency:  row.Currency,
		Balance:   numericToDecimal(row.Balance),
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
