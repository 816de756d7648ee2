package notify

import (
	"context"

	"github.com/atinyakov/BankPortal/internal/models"
	"go.uber.org/zap"
)

// LogNotifier writes notifications to the log instead of sending them.
// It prints passcodes and must only be used in development.
type LogNotifier struct {
	Log *zap.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{Log: log}
}

func (n *LogNotifier) SendOTP(_ context.Context, email, code, name string, purpose models.Purpose) error {
	n.Log.Info("otp notification",
		zap.String("email", email),
		zap.String("name", name),
		zap.String("purpose", string(purpose)),
		zap.String("code", code),
	)
	return nil
}

func (n *LogNotifier) SendBillPaymentConfirmation(_ context.Context, email, _ string, p models.BillPayment) error {
	n.Log.Info("bill payment confirmation",
		zap.String("email", email),
		zap.String("reference", p.ReferenceNumber),
		zap.String("amount", p.Amount.StringFixed(2)),
	)
	return nil
}

func (n *LogNotifier) SendChequeOrderConfirmation(_ context.Context, email, _ string, o models.ChequeOrder) error {
	n.Log.Info("cheque order confirmation",
		zap.String("email", email),
		zap.String("order", o.OrderNumber),
	)
	return nil
}

func (n *LogNotifier) SendExternalAccountNotification(_ context.Context, email, _ string, a models.ExternalAccount) error {
	n.Log.Info("external account notification",
		zap.String("email", email),
		zap.String("institution", a.InstitutionName),
		zap.String("deposit_1", a.MicroDeposit1.Decimal.StringFixed(2)),
		zap.String("deposit_2", a.MicroDeposit2.Decimal.StringFixed(2)),
	)
	return nil
}
