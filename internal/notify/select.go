package notify

import (
	"context"
	"errors"

	"github.com/atinyakov/BankPortal/internal/config"
	"github.com/atinyakov/BankPortal/internal/models"
	"go.uber.org/zap"
)

// ErrNoTransport is returned by New when no SMTP host is configured outside
// development mode.
var ErrNoTransport = errors.New("no SMTP host configured")

// Notifier is every message the portal sends to customers.
type Notifier interface {
	SendOTP(ctx context.Context, email, code, name string, purpose models.Purpose) error
	SendBillPaymentConfirmation(ctx context.Context, email, name string, p models.BillPayment) error
	SendChequeOrderConfirmation(ctx context.Context, email, name string, o models.ChequeOrder) error
	SendExternalAccountNotification(ctx context.Context, email, name string, a models.ExternalAccount) error
}

// New returns an EmailNotifier when cfg names an SMTP host. Without one it
// returns a LogNotifier in development mode and ErrNoTransport otherwise.
func New(cfg config.SMTP, dev bool, log *zap.Logger) (Notifier, error) {
	if cfg.Host != "" {
		email, err := NewEmailNotifier(cfg)
		if err != nil {
			return nil, err
		}
		return email, nil
	}
	if !dev {
		return nil, ErrNoTransport
	}
	log.Warn("development mode without SMTP host, codes are written to the log")
	return NewLogNotifier(log), nil
}
