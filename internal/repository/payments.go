package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/BankPortal/internal/models"
)

const billPaymentColumns = `id, user_id, from_account_id, payee_name, amount, account_number,
	reference_number, status, scheduled_date, processed_date, created_at`

// PostgresBillPaymentRepository persists bill payments.
type PostgresBillPaymentRepository struct {
	DB *sql.DB
}

// NewPostgresBillPaymentRepository creates a new PostgresBillPaymentRepository.
func NewPostgresBillPaymentRepository(db *sql.DB) *PostgresBillPaymentRepository {
	return &PostgresBillPaymentRepository{DB: db}
}

func scanBillPayment(s rowScanner) (models.BillPayment, error) {
	var p models.BillPayment
	err := s.Scan(&p.ID, &p.UserID, &p.FromAccountID, &p.PayeeName, &p.Amount, &p.AccountNumber,
		&p.ReferenceNumber, &p.Status, &p.ScheduledDate, &p.ProcessedDate, &p.CreatedAt)
	return p, err
}

// ListByUser returns a user's bill payments, newest first.
func (r *PostgresBillPaymentRepository) ListByUser(ctx context.Context, userID int64) ([]models.BillPayment, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+billPaymentColumns+`
		FROM bill_payments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bill payments: %w", err)
	}
	defer rows.Close()

	payments := []models.BillPayment{}
	for rows.Next() {
		p, err := scanBillPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// GetByID returns the bill payment with the given id, or nil when absent.
func (r *PostgresBillPaymentRepository) GetByID(ctx context.Context, id int64) (*models.BillPayment, error) {
	p, err := scanBillPayment(r.DB.QueryRowContext(ctx,
		`SELECT `+billPaymentColumns+` FROM bill_payments WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bill payment: %w", err)
	}
	return &p, nil
}

// Create inserts a bill payment and returns the stored row.
func (r *PostgresBillPaymentRepository) Create(ctx context.Context, p models.BillPayment) (*models.BillPayment, error) {
	created, err := scanBillPayment(r.DB.QueryRowContext(ctx, `
		INSERT INTO bill_payments (user_id, from_account_id, payee_name, amount, account_number,
			reference_number, status, scheduled_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+billPaymentColumns,
		p.UserID, p.FromAccountID, p.PayeeName, p.Amount, p.AccountNumber,
		p.ReferenceNumber, p.Status, p.ScheduledDate,
	))
	if err != nil {
		return nil, fmt.Errorf("create bill payment: %w", err)
	}
	return &created, nil
}

// Complete moves a pending payment owned by userID to completed.
// It returns nil when no pending payment matched.
func (r *PostgresBillPaymentRepository) Complete(ctx context.Context, id, userID int64, at time.Time) (*models.BillPayment, error) {
	p, err := scanBillPayment(r.DB.QueryRowContext(ctx, `
		UPDATE bill_payments
		SET status = $4, processed_date = $3
		WHERE id = $1 AND user_id = $2 AND status = $5
		RETURNING `+billPaymentColumns,
		id, userID, at, models.StatusCompleted, models.StatusPending,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("complete bill payment: %w", err)
	}
	return &p, nil
}
