package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/BankPortal/internal/models"
)

// PostgresOTPRepository is the one-time passcode ledger backed by the otp_codes table.
type PostgresOTPRepository struct {
	DB *sql.DB
}

// NewPostgresOTPRepository creates a new PostgresOTPRepository.
func NewPostgresOTPRepository(db *sql.DB) *PostgresOTPRepository {
	return &PostgresOTPRepository{DB: db}
}

// Create persists an issued code and returns its identifier.
func (r *PostgresOTPRepository) Create(ctx context.Context, otp models.OtpCode) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO otp_codes (user_id, code, purpose, used, expires_at, created_at)
		VALUES ($1, $2, $3, FALSE, $4, $5)
		RETURNING id
	`, otp.UserID, otp.Code, string(otp.Purpose), otp.ExpiresAt, otp.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create otp: %w", err)
	}
	return id, nil
}

// FindValid returns the most recent unused code matching (userID, code, purpose),
// or nil when none exists. Expiry is left to the caller, which must compare
// against the verification instant.
func (r *PostgresOTPRepository) FindValid(ctx context.Context, userID int64, code string, purpose models.Purpose) (*models.OtpCode, error) {
	var o models.OtpCode
	var p string
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, code, purpose, used, expires_at, created_at
		FROM otp_codes
		WHERE user_id = $1 AND code = $2 AND purpose = $3 AND used = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, code, string(purpose)).Scan(&o.ID, &o.UserID, &o.Code, &p, &o.Used, &o.ExpiresAt, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find valid otp: %w", err)
	}
	o.Purpose = models.Purpose(p)
	return &o, nil
}

// MarkUsed flips the used flag of the code with the given id, only if it is
// still unused. It reports whether this call performed the transition, so of
// several concurrent callers exactly one observes true.
func (r *PostgresOTPRepository) MarkUsed(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE otp_codes SET used = TRUE WHERE id = $1 AND used = FALSE`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("mark otp used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark otp used: %w", err)
	}
	return n == 1, nil
}
