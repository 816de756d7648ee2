package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

var accountRowColumns = []string{"id", "user_id", "account_number", "account_type", "account_name", "balance",
	"currency", "is_active", "interest_rate", "maturity_date", "created_at"}

func setupAccountMock(t *testing.T) (*PostgresAccountRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresAccountRepository(db), mock, func() { db.Close() }
}

func TestListAccountsByUser(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1 AND is_active = TRUE`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(accountRowColumns).
			AddRow(int64(1), int64(1), "123456789", "chequing", "Personal Chequing", "1000809.00", "CAD", true, nil, nil, now).
			AddRow(int64(2), int64(1), "123456790", "savings", "High Interest Savings", "1275432.50", "CAD", true, "2.85", nil, now))

	accounts, err := repo.ListByUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if !accounts[0].Balance.Equal(decimal.RequireFromString("1000809")) {
		t.Errorf("balance = %s", accounts[0].Balance)
	}
	if accounts[0].InterestRate.Valid {
		t.Errorf("expected null interest rate on chequing")
	}
	if !accounts[1].InterestRate.Valid || accounts[1].InterestRate.Decimal.String() != "2.85" {
		t.Errorf("interest rate = %+v", accounts[1].InterestRate)
	}
}

func TestGetAccountByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM accounts WHERE id = $1`)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(accountRowColumns))

	a, err := repo.GetByID(context.Background(), 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != nil {
		t.Errorf("expected nil, got %+v", a)
	}
}

func TestListTransactions(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $2 OFFSET $3`)).
		WithArgs(int64(1), 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "transaction_type", "amount", "description",
			"category", "reference_number", "balance_after", "status", "transaction_date"}).
			AddRow(int64(1), int64(1), "debit", "-45.67", "Grocery Store Purchase", "Groceries", "TXN-001", "2547.83", "completed", time.Now()))

	txs, err := repo.ListTransactions(context.Background(), 1, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 || txs[0].Category == nil || *txs[0].Category != "Groceries" {
		t.Errorf("unexpected transactions: %+v", txs)
	}
}

func TestListTransactions_Error(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions`)).
		WillReturnError(errors.New("query fail"))

	_, err := repo.ListTransactions(context.Background(), 1, 50, 0)
	if err == nil || !regexp.MustCompile(`list transactions`).MatchString(err.Error()) {
		t.Errorf("expected list transactions error, got %v", err)
	}
}
