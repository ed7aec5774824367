// Package testutil provides Postgres fixtures for integration tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/iho/fundstransfer/internal/domain"
	"github.com/iho/fundstransfer/internal/infrastructure/postgres"
	"github.com/iho/fundstransfer/internal/infrastructure/postgres/generated"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool    *pgxpool.Pool
	Queries *generated.Queries
	t       *testing.T
}

// NewTestDB connects to DATABASE_URL and applies migrations. The test is
// skipped when DATABASE_URL is not set or -short is given.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL is not set")
	}

	if err := postgres.RunMigrations(dbURL, MigrationsPath()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{DatabaseURL: dbURL, MaxConns: 32})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	db := &TestDB{
		Pool:    pool,
		Queries: generated.New(pool),
		t:       t,
	}
	t.Cleanup(db.Cleanup)

	return db
}

// MigrationsPath returns the absolute path of the migrations directory.
func MigrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "infrastructure", "postgres", "migrations")
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `TRUNCATE TABLE transfers, account_funds RESTART IDENTITY CASCADE`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CreateAccountFunds seeds a balance record with a generated ID.
func (db *TestDB) CreateAccountFunds(ctx context.Context, currency string, balance decimal.Decimal) *domain.AccountFunds {
	db.t.Helper()

	now := time.Now().UTC()
	id := ulid.Make().String()

	var numericBalance pgtype.Numeric

	_ = numericBalance.Scan(balance.StringFixed(domain.MoneyScale))

	ts := pgtype.Timestamptz{Time: now, Valid: true}

	if _, err := db.Queries.CreateAccountFunds(ctx, generated.CreateAccountFundsParams{
		AccountID: id,
		Currency:  currency,
		Balance:   numericBalance,
		CreatedAt: ts,
		UpdatedAt: ts,
	}); err != nil {
		db.t.Fatalf("failed to create test account: %v", err)
	}

	return &domain.AccountFunds{
		AccountID: id,
		Currency:  currency,
		Balance:   balance,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Balance reads the committed balance of an account.
func (db *TestDB) Balance(ctx context.Context, accountID string) decimal.Decimal {
	db.t.Helper()

	row, err := db.Queries.GetAccountFundsByID(ctx, accountID)
	if err != nil {
		db.t.Fatalf("failed to read balance: %v", err)
	}

	d, err := decimal.NewFromString(numericString(row.Balance))
	if err != nil {
		db.t.Fatalf("failed to parse balance: %v", err)
	}

	return d
}

func numericString(n pgtype.Numeric) string {
	if !n.Valid || n.Int == nil {
		return "0"
	}
	return decimal.NewFromBigInt(n.Int, n.Exp).String()
}
