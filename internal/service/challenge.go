package service

import (
	"context"

	"github.com/atinyakov/BankPortal/internal/models"
	"github.com/atinyakov/BankPortal/internal/session"
)

// Challenger issues and checks step-up codes. AuthService implements it.
type Challenger interface {
	IssueChallenge(ctx context.Context, userID int64, purpose models.Purpose) error
	VerifyOTP(ctx context.Context, state session.State, code string, purpose models.Purpose) (session.State, error)
}

// UserFinder resolves a user for notifications.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// ConfirmationNotifier sends the emails that follow a finished operation.
type ConfirmationNotifier interface {
	SendBillPaymentConfirmation(ctx context.Context, email, name string, p models.BillPayment) error
	SendChequeOrderConfirmation(ctx context.Context, email, name string, o models.ChequeOrder) error
	SendExternalAccountNotification(ctx context.Context, email, name string, a models.ExternalAccount) error
}
