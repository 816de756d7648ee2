package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/BankPortal/internal/models"
	"github.com/atinyakov/BankPortal/internal/repository"
	"github.com/atinyakov/BankPortal/internal/session"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DeliveryExpress is the delivery method that carries a surcharge.
const DeliveryExpress = "express"

var (
	chequeBookCost   = map[int]int64{50: 25, 100: 45, 200: 85}
	defaultBookCost  = decimal.NewFromInt(45)
	expressSurcharge = decimal.NewFromInt(15)
)

const orderNumberAttempts = 3

// ChequeOrderCost prices a cheque order by book size and delivery method.
// Unlisted quantities are charged as a book of 100.
func ChequeOrderCost(quantity int, deliveryMethod string) decimal.Decimal {
	cost := defaultBookCost
	if c, ok := chequeBookCost[quantity]; ok {
		cost = decimal.NewFromInt(c)
	}
	if deliveryMethod == DeliveryExpress {
		cost = cost.Add(expressSurcharge)
	}
	return cost
}

// OrderNumber formats an order number as CO-<year>-<last six digits of the
// unix millisecond clock>, shifted by attempt to step past collisions.
func OrderNumber(now time.Time, attempt int) string {
	suffix := (now.UnixMilli() + int64(attempt)) % 1000000
	return fmt.Sprintf("CO-%d-%06d", now.Year(), suffix)
}

// ChequeOrderRepository persists cheque orders.
type ChequeOrderRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]models.ChequeOrder, error)
	GetByID(ctx context.Context, id int64) (*models.ChequeOrder, error)
	// Create returns repository.ErrDuplicate when the order number is taken.
	Create(ctx context.Context, o models.ChequeOrder) (*models.ChequeOrder, error)
	// MarkProcessing returns nil, nil when no pending order of userID matched.
	MarkProcessing(ctx context.Context, id, userID int64) (*models.ChequeOrder, error)
}

// NewChequeOrder is a cheque order request.
type NewChequeOrder struct {
	AccountID       int64
	ChequeStyle     string
	Quantity        int
	StartingNumber  int
	DeliveryAddress string
	DeliveryMethod  string
}

// ChequeOrderService runs the two-phase cheque order.
type ChequeOrderService struct {
	orders     ChequeOrderRepository
	accounts   accountGetter
	users      UserFinder
	challenger Challenger
	notifier   ConfirmationNotifier
	log        *zap.Logger

	now func() time.Time
}

// NewChequeOrderService constructs a ChequeOrderService.
func NewChequeOrderService(
	orders ChequeOrderRepository,
	accounts AccountRepository,
	users UserFinder,
	challenger Challenger,
	notifier ConfirmationNotifier,
	log *zap.Logger,
) *ChequeOrderService {
	return &ChequeOrderService{
		orders:     orders,
		accounts:   accounts,
		users:      users,
		challenger: challenger,
		notifier:   notifier,
		log:        log,
		now:        time.Now,
	}
}

// List returns the user's cheque orders, newest first.
func (s *ChequeOrderService) List(ctx context.Context, userID int64) ([]models.ChequeOrder, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cheque orders: %w", err)
	}
	return orders, nil
}

// Create prices and stores a pending order against an account of userID and
// issues a cheque_order challenge scoped to that order.
func (s *ChequeOrderService) Create(ctx context.Context, userID int64, req NewChequeOrder) (*models.ChequeOrder, error) {
	if _, err := ownedAccount(ctx, s.accounts, userID, req.AccountID); err != nil {
		return nil, err
	}

	order := models.ChequeOrder{
		UserID:          userID,
		AccountID:       req.AccountID,
		ChequeStyle:     req.ChequeStyle,
		Quantity:        req.Quantity,
		StartingNumber:  req.StartingNumber,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryMethod:  req.DeliveryMethod,
		TotalCost:       ChequeOrderCost(req.Quantity, req.DeliveryMethod),
		Status:          models.StatusPending,
	}

	var (
		created *models.ChequeOrder
		err     error
	)
	now := s.now()
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = OrderNumber(now, attempt)
		created, err = s.orders.Create(ctx, order)
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create cheque order: %w", err)
	}

	if err := s.challenger.IssueChallenge(ctx, userID, models.PurposeChequeOrder.For(created.ID)); err != nil {
		return created, err
	}
	return created, nil
}

// Confirm consumes the code issued for order id and moves it to processing.
func (s *ChequeOrderService) Confirm(ctx context.Context, state session.State, id int64, code string) (*models.ChequeOrder, error) {
	userID := state.UserID
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get cheque order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, ErrNotFound
	}
	if order.Status != models.StatusPending {
		return nil, ErrNotPending
	}

	if _, err := s.challenger.VerifyOTP(ctx, state, code, models.PurposeChequeOrder.For(id)); err != nil {
		return nil, err
	}

	processing, err := s.orders.MarkProcessing(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("confirm cheque order: %w", err)
	}
	if processing == nil {
		return nil, ErrNotPending
	}

	s.log.Info("cheque order confirmed",
		zap.Int64("user_id", userID),
		zap.String("order_number", processing.OrderNumber),
	)
	sendConfirmation(ctx, s.users, s.log, userID, func(u *models.User) error {
		return s.notifier.SendChequeOrderConfirmation(ctx, u.Email, u.Name, *processing)
	})
	return processing, nil
}
