package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/BankPortal/internal/models"
)

const externalAccountColumns = `id, user_id, institution_name, account_type, institution_number, transit_number,
	account_number, account_nickname, verification_status, micro_deposit_1, micro_deposit_2,
	verification_attempts, linked_date, created_at`

// PostgresExternalAccountRepository persists external account links.
type PostgresExternalAccountRepository struct {
	DB *sql.DB
}

// NewPostgresExternalAccountRepository creates a new PostgresExternalAccountRepository.
func NewPostgresExternalAccountRepository(db *sql.DB) *PostgresExternalAccountRepository {
	return &PostgresExternalAccountRepository{DB: db}
}

func scanExternalAccount(s rowScanner) (models.ExternalAccount, error) {
	var a models.ExternalAccount
	err := s.Scan(&a.ID, &a.UserID, &a.InstitutionName, &a.AccountType, &a.InstitutionNumber, &a.TransitNumber,
		&a.AccountNumber, &a.AccountNickname, &a.VerificationStatus, &a.MicroDeposit1, &a.MicroDeposit2,
		&a.VerificationAttempts, &a.LinkedDate, &a.CreatedAt)
	return a, err
}

// ListByUser returns a user's external accounts, newest first.
func (r *PostgresExternalAccountRepository) ListByUser(ctx context.Context, userID int64) ([]models.ExternalAccount, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+externalAccountColumns+`
		FROM external_accounts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list external accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.ExternalAccount{}
	for rows.Next() {
		a, err := scanExternalAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Create inserts a pending external account link.
func (r *PostgresExternalAccountRepository) Create(ctx context.Context, a models.ExternalAccount) (*models.ExternalAccount, error) {
	created, err := scanExternalAccount(r.DB.QueryRowContext(ctx, `
		INSERT INTO external_accounts (user_id, institution_name, account_type, institution_number, transit_number,
			account_number, account_nickname, verification_status, micro_deposit_1, micro_deposit_2, verification_attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0)
		RETURNING `+externalAccountColumns,
		a.UserID, a.InstitutionName, a.AccountType, a.InstitutionNumber, a.TransitNumber,
		a.AccountNumber, a.AccountNickname, a.VerificationStatus, a.MicroDeposit1, a.MicroDeposit2,
	))
	if err != nil {
		return nil, fmt.Errorf("create external account: %w", err)
	}
	return &created, nil
}
