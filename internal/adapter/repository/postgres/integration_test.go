package postgres_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/fundstransfer/internal/adapter/repository/postgres"
	"github.com/iho/fundstransfer/internal/domain"
	"github.com/iho/fundstransfer/internal/testutil"
	"github.com/iho/fundstransfer/internal/usecase"
)

func newIntegrationUseCase(t *testing.T) (*testutil.TestDB, *usecase.TransferUseCase, *postgres.Retrier) {
	t.Helper()

	testDB := testutil.NewTestDB(t)
	testDB.TruncateAll(context.Background())

	pool := testDB.Pool
	uc := usecase.NewTransferUseCase(
		postgres.NewTxManager(pool),
		postgres.NewAccountFundsRepository(pool),
		postgres.NewTransferRepository(pool),
	)

	return testDB, uc, postgres.NewRetrier(zerolog.Nop())
}

func submit(ctx context.Context, uc *usecase.TransferUseCase, retrier *postgres.Retrier, in usecase.SubmitTransferInput) (*usecase.TransferResult, error) {
	var result *usecase.TransferResult
	err := retrier.Retry(ctx, func() error {
		var err error
		result, err = uc.SubmitTransfer(ctx, in)
		return err
	})
	return result, err
}

func TestIntegrationSubmitTransfer(t *testing.T) {
	ctx := context.Background()
	testDB, uc, retrier := newIntegrationUseCase(t)

	sender := testDB.CreateAccountFunds(ctx, "USD", decimal.RequireFromString("100.00"))
	recipient := testDB.CreateAccountFunds(ctx, "USD", decimal.Zero)

	in := usecase.SubmitTransferInput{
		OperationID:        uuid.NewString(),
		SenderAccountID:    sender.AccountID,
		RecipientAccountID: recipient.AccountID,
		Currency:           "USD",
		Amount:             decimal.RequireFromString("30.00"),
	}

	first, err := submit(ctx, uc, retrier, in)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusOK, first.Transfer.Status)
	assert.False(t, first.Replayed)

	replay, err := submit(ctx, uc, retrier, in)
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, first.Transfer.ID, replay.Transfer.ID)

	assert.Equal(t, "70.00", testDB.Balance(ctx, sender.AccountID).StringFixed(2))
	assert.Equal(t, "30.00", testDB.Balance(ctx, recipient.AccountID).StringFixed(2))

	in.OperationID = uuid.NewString()
	in.Amount = decimal.RequireFromString("500.00")

	rejected, err := submit(ctx, uc, retrier, in)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusRejected, rejected.Transfer.Status)
	assert.Equal(t, "70.00", testDB.Balance(ctx, sender.AccountID).StringFixed(2))
}

func TestIntegrationConcurrentSameOperation(t *testing.T) {
	ctx := context.Background()
	testDB, uc, retrier := newIntegrationUseCase(t)

	sender := testDB.CreateAccountFunds(ctx, "USD", decimal.RequireFromString("100.00"))
	recipient := testDB.CreateAccountFunds(ctx, "USD", decimal.Zero)
	in := usecase.SubmitTransferInput{
		OperationID:        uuid.NewString(),
		SenderAccountID:    sender.AccountID,
		RecipientAccountID: recipient.AccountID,
		Currency:           "USD",
		Amount:             decimal.RequireFromString("10.00"),
	}

	var (
		wg       sync.WaitGroup
		executed atomic.Int32
	)

	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := submit(ctx, uc, retrier, in)
			if !assert.NoError(t, err) {
				return
			}
			if !result.Replayed {
				executed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), executed.Load())
	assert.Equal(t, "90.00", testDB.Balance(ctx, sender.AccountID).StringFixed(2))
}

func TestIntegrationOppositeDirections(t *testing.T) {
	ctx := context.Background()
	testDB, uc, retrier := newIntegrationUseCase(t)

	a := testDB.CreateAccountFunds(ctx, "USD", decimal.RequireFromString("100.00"))
	b := testDB.CreateAccountFunds(ctx, "USD", decimal.RequireFromString("100.00"))

	var wg sync.WaitGroup
	for i := range 50 {
		from, to := a.AccountID, b.AccountID
		if i%2 == 1 {
			from, to = to, from
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := submit(ctx, uc, retrier, usecase.SubmitTransferInput{
				OperationID:        uuid.NewString(),
				SenderAccountID:    from,
				RecipientAccountID: to,
				Currency:           "USD",
				Amount:             decimal.RequireFromString("3.00"),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	total := testDB.Balance(ctx, a.AccountID).Add(testDB.Balance(ctx, b.AccountID))
	assert.Equal(t, "200.00", total.StringFixed(2))
}
