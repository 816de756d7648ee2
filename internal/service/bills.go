package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/atinyakov/BankPortal/internal/models"
	"github.com/atinyakov/BankPortal/internal/session"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrInvalidAmount rejects amounts that are not positive with at most two decimals.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientFunds is returned when the source account cannot cover the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNotPending is returned when confirming an operation that was already finalised.
	ErrNotPending = errors.New("operation is not pending")
)

var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// ParseAmount parses a positive money amount with at most two decimals.
func ParseAmount(s string) (decimal.Decimal, error) {
	if !amountPattern.MatchString(s) {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// BillPaymentRepository persists bill payments.
type BillPaymentRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]models.BillPayment, error)
	GetByID(ctx context.Context, id int64) (*models.BillPayment, error)
	Create(ctx context.Context, p models.BillPayment) (*models.BillPayment, error)
	// Complete returns nil, nil when no pending payment of userID matched.
	Complete(ctx context.Context, id, userID int64, at time.Time) (*models.BillPayment, error)
}

// NewBillPayment is a bill payment request.
type NewBillPayment struct {
	FromAccountID int64
	PayeeName     string
	Amount        string
	AccountNumber string
}

// BillPaymentService runs the two-phase bill payment: Create stores a
// pending payment and emails a bill_payment code, Confirm consumes the code
// and completes the payment.
type BillPaymentService struct {
	payments   BillPaymentRepository
	accounts   accountGetter
	users      UserFinder
	challenger Challenger
	notifier   ConfirmationNotifier
	log        *zap.Logger

	now          func() time.Time
	newReference func() string
}

// NewBillPaymentService constructs a BillPaymentService.
func NewBillPaymentService(
	payments BillPaymentRepository,
	accounts AccountRepository,
	users UserFinder,
	challenger Challenger,
	notifier ConfirmationNotifier,
	log *zap.Logger,
) *BillPaymentService {
	return &BillPaymentService{
		payments:     payments,
		accounts:     accounts,
		users:        users,
		challenger:   challenger,
		notifier:     notifier,
		log:          log,
		now:          time.Now,
		newReference: billReference,
	}
}

func billReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "BP-" + strings.ToUpper(id[:10])
}

// List returns the user's bill payments, newest first.
func (s *BillPaymentService) List(ctx context.Context, userID int64) ([]models.BillPayment, error) {
	payments, err := s.payments.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bill payments: %w", err)
	}
	return payments, nil
}

// Create validates req against the user's account, stores a pending payment
// and issues a bill_payment challenge scoped to that payment. No code is
// issued when validation fails. When only the email fails, the pending
// payment is returned together with ErrNotificationDeliveryFailed.
func (s *BillPaymentService) Create(ctx context.Context, userID int64, req NewBillPayment) (*models.BillPayment, error) {
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	account, err := ownedAccount(ctx, s.accounts, userID, req.FromAccountID)
	if err != nil {
		return nil, err
	}
	if account.Balance.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}

	var accountNumber *string
	if req.AccountNumber != "" {
		accountNumber = &req.AccountNumber
	}
	scheduled := s.now()

	payment, err := s.payments.Create(ctx, models.BillPayment{
		UserID:          userID,
		FromAccountID:   account.ID,
		PayeeName:       req.PayeeName,
		Amount:          amount,
		AccountNumber:   accountNumber,
		ReferenceNumber: s.newReference(),
		Status:          models.StatusPending,
		ScheduledDate:   &scheduled,
	})
	if err != nil {
		return nil, fmt.Errorf("create bill payment: %w", err)
	}

	if err := s.challenger.IssueChallenge(ctx, userID, models.PurposeBillPayment.For(payment.ID)); err != nil {
		return payment, err
	}
	return payment, nil
}

// Confirm consumes the code issued for payment id and completes it. Codes
// are scoped to one payment. A wrong code leaves the payment pending and the
// code unconsumed.
func (s *BillPaymentService) Confirm(ctx context.Context, state session.State, id int64, code string) (*models.BillPayment, error) {
	userID := state.UserID
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get bill payment: %w", err)
	}
	if payment == nil || payment.UserID != userID {
		return nil, ErrNotFound
	}
	if payment.Status != models.StatusPending {
		return nil, ErrNotPending
	}

	if _, err := s.challenger.VerifyOTP(ctx, state, code, models.PurposeBillPayment.For(id)); err != nil {
		return nil, err
	}

	completed, err := s.payments.Complete(ctx, id, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("complete bill payment: %w", err)
	}
	if completed == nil {
		return nil, ErrNotPending
	}

	s.log.Info("bill payment completed",
		zap.Int64("user_id", userID),
		zap.Int64("bill_payment_id", completed.ID),
	)
	sendConfirmation(ctx, s.users, s.log, userID, func(u *models.User) error {
		return s.notifier.SendBillPaymentConfirmation(ctx, u.Email, u.Name, *completed)
	})
	return completed, nil
}

// sendConfirmation looks up the user and runs send, logging any failure.
// Confirmation emails never fail the operation that triggered them.
func sendConfirmation(ctx context.Context, users UserFinder, log *zap.Logger, userID int64, send func(*models.User) error) {
	user, err := users.FindByID(ctx, userID)
	if err != nil || user == nil {
		log.Warn("failed to load user for confirmation", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if err := send(user); err != nil {
		log.Warn("failed to send confirmation", zap.Int64("user_id", userID), zap.Error(err))
	}
}
