package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/BankPortal/internal/models"
)

const accountColumns = `id, user_id, account_number, account_type, account_name, balance, currency,
	is_active, interest_rate, maturity_date, created_at`

// PostgresAccountRepository serves accounts and their transaction history.
type PostgresAccountRepository struct {
	DB *sql.DB
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository.
func NewPostgresAccountRepository(db *sql.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(s rowScanner) (models.Account, error) {
	var a models.Account
	err := s.Scan(&a.ID, &a.UserID, &a.AccountNumber, &a.AccountType, &a.AccountName, &a.Balance,
		&a.Currency, &a.IsActive, &a.InterestRate, &a.MaturityDate, &a.CreatedAt)
	return a, err
}

// ListByUser returns the active accounts of a user ordered by creation.
func (r *PostgresAccountRepository) ListByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetByID returns the account with the given id, or nil when absent.
func (r *PostgresAccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	a, err := scanAccount(r.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

// ListTransactions pages through an account's history, newest first.
func (r *PostgresAccountRepository) ListTransactions(ctx context.Context, accountID int64, limit, offset int) ([]models.Transaction, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, account_id, transaction_type, amount, description, category,
			reference_number, balance_after, status, transaction_date
		FROM transactions
		WHERE account_id = $1
		ORDER BY transaction_date DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.TransactionType, &t.Amount, &t.Description, &t.Category,
			&t.ReferenceNumber, &t.BalanceAfter, &t.Status, &t.TransactionDate); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
