package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SeedUser describes a demo customer provisioned by Seed.
type SeedUser struct {
	ExternalID string
	Email      string
	Name       string
	Accounts   []SeedAccount
}

// SeedAccount describes a demo account.
type SeedAccount struct {
	Number       string
	Type         string
	Name         string
	Balance      string
	InterestRate string
	MaturityDate *time.Time
}

// DemoUsers returns the customers provisioned for local development.
func DemoUsers() []SeedUser {
	maturity := time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)
	return []SeedUser{
		{
			ExternalID: "1972000",
			Email:      "mate.smith@example.com",
			Name:       "Mate Smith",
			Accounts: []SeedAccount{
				{Number: "123456789", Type: "chequing", Name: "Personal Chequing", Balance: "1000809.00"},
				{Number: "123456790", Type: "savings", Name: "High Interest Savings", Balance: "1275432.50", InterestRate: "2.85"},
				{Number: "123456791", Type: "tfsa", Name: "TFSA Savings", Balance: "1158932.17", InterestRate: "3.25"},
				{Number: "123456792", Type: "term_deposit", Name: "12-Month GIC", Balance: "2525000.00", InterestRate: "4.50", MaturityDate: &maturity},
			},
		},
		{
			ExternalID: "197200",
			Email:      "martha.hodge@example.com",
			Name:       "Martha Hodge",
			Accounts: []SeedAccount{
				{Number: "987654321", Type: "chequing", Name: "Personal Chequing", Balance: "1001832.45"},
				{Number: "987654322", Type: "savings", Name: "High Interest Savings", Balance: "1159876.32", InterestRate: "2.85"},
			},
		},
	}
}

type seedTransaction struct {
	kind, amount, description, category, reference, balanceAfter string
	date                                                         time.Time
}

var chequingHistory = []seedTransaction{
	{"debit", "-45.67", "Grocery Store Purchase", "Groceries", "TXN-001", "2547.83", time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC)},
	{"debit", "-127.50", "Halifax Power Bill Payment", "Utilities", "TXN-002", "2593.50", time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)},
	{"credit", "2721.00", "Salary Deposit", "Income", "TXN-003", "2721.00", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
	{"debit", "-89.99", "Rogers Communications", "Utilities", "TXN-004", "2631.01", time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC)},
	{"debit", "-67.23", "Halifax Water Bill", "Utilities", "TXN-005", "2698.24", time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)},
}

// Seed provisions users with the given password, their accounts and a sample
// chequing history inside one transaction. Existing rows are left untouched.
func Seed(ctx context.Context, db *sql.DB, users []SeedUser, password string, log *zap.Logger) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, u := range users {
		var userID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO users (user_id, email, name, password, is_active)
			VALUES ($1, $2, $3, $4, TRUE)
			ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
			RETURNING id
		`, u.ExternalID, u.Email, u.Name, string(hash)).Scan(&userID)
		if err != nil {
			return fmt.Errorf("insert user %s: %w", u.ExternalID, err)
		}

		for _, a := range u.Accounts {
			var accountID int64
			err := tx.QueryRowContext(ctx, `
				INSERT INTO accounts (user_id, account_number, account_type, account_name, balance, interest_rate, maturity_date)
				VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::NUMERIC, $7)
				ON CONFLICT (account_number) DO NOTHING
				RETURNING id
			`, userID, a.Number, a.Type, a.Name, a.Balance, a.InterestRate, a.MaturityDate).Scan(&accountID)
			if err == sql.ErrNoRows {
				continue
			}
			if err != nil {
				return fmt.Errorf("insert account %s: %w", a.Number, err)
			}
			if a.Type != "chequing" {
				continue
			}
			for _, t := range chequingHistory {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO transactions (account_id, transaction_type, amount, description, category, reference_number, balance_after, status, transaction_date)
					VALUES ($1, $2, $3, $4, $5, $6, $7, 'completed', $8)
				`, accountID, t.kind, t.amount, t.description, t.category, t.reference, t.balanceAfter, t.date)
				if err != nil {
					return fmt.Errorf("insert transaction %s: %w", t.reference, err)
				}
			}
		}
		log.Info("seeded user", zap.String("user_id", u.ExternalID), zap.Int("accounts", len(u.Accounts)))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
