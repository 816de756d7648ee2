package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/BankPortal/internal/models"
	"github.com/lib/pq"
)

const chequeOrderColumns = `id, user_id, account_id, order_number, cheque_style, quantity, starting_number,
	delivery_address, delivery_method, total_cost, status, order_date, shipped_date, delivered_date`

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate")

// PostgresChequeOrderRepository persists cheque orders.
type PostgresChequeOrderRepository struct {
	DB *sql.DB
}

// NewPostgresChequeOrderRepository creates a new PostgresChequeOrderRepository.
func NewPostgresChequeOrderRepository(db *sql.DB) *PostgresChequeOrderRepository {
	return &PostgresChequeOrderRepository{DB: db}
}

func scanChequeOrder(s rowScanner) (models.ChequeOrder, error) {
	var o models.ChequeOrder
	err := s.Scan(&o.ID, &o.UserID, &o.AccountID, &o.OrderNumber, &o.ChequeStyle, &o.Quantity, &o.StartingNumber,
		&o.DeliveryAddress, &o.DeliveryMethod, &o.TotalCost, &o.Status, &o.OrderDate, &o.ShippedDate, &o.DeliveredDate)
	return o, err
}

// ListByUser returns a user's cheque orders, newest first.
func (r *PostgresChequeOrderRepository) ListByUser(ctx context.Context, userID int64) ([]models.ChequeOrder, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+chequeOrderColumns+`
		FROM cheque_orders
		WHERE user_id = $1
		ORDER BY order_date DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cheque orders: %w", err)
	}
	defer rows.Close()

	orders := []models.ChequeOrder{}
	for rows.Next() {
		o, err := scanChequeOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// GetByID returns the cheque order with the given id, or nil when absent.
func (r *PostgresChequeOrderRepository) GetByID(ctx context.Context, id int64) (*models.ChequeOrder, error) {
	o, err := scanChequeOrder(r.DB.QueryRowContext(ctx,
		`SELECT `+chequeOrderColumns+` FROM cheque_orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cheque order: %w", err)
	}
	return &o, nil
}

// Create inserts a cheque order. A clashing order number yields ErrDuplicate.
func (r *PostgresChequeOrderRepository) Create(ctx context.Context, o models.ChequeOrder) (*models.ChequeOrder, error) {
	created, err := scanChequeOrder(r.DB.QueryRowContext(ctx, `
		INSERT INTO cheque_orders (user_id, account_id, order_number, cheque_style, quantity, starting_number,
			delivery_address, delivery_method, total_cost, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+chequeOrderColumns,
		o.UserID, o.AccountID, o.OrderNumber, o.ChequeStyle, o.Quantity, o.StartingNumber,
		o.DeliveryAddress, o.DeliveryMethod, o.TotalCost, o.Status,
	))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create cheque order: %w", err)
	}
	return &created, nil
}

// MarkProcessing moves a pending order owned by userID to processing.
// It returns nil when no pending order matched.
func (r *PostgresChequeOrderRepository) MarkProcessing(ctx context.Context, id, userID int64) (*models.ChequeOrder, error) {
	o, err := scanChequeOrder(r.DB.QueryRowContext(ctx, `
		UPDATE cheque_orders
		SET status = $3
		WHERE id = $1 AND user_id = $2 AND status = $4
		RETURNING `+chequeOrderColumns,
		id, userID, models.StatusProcessing, models.StatusPending,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mark cheque order processing: %w", err)
	}
	return &o, nil
}
