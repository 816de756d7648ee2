// Package notify delivers one-time passcodes and transaction confirmations
// to customers by email.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/atinyakov/BankPortal/internal/config"
	"github.com/atinyakov/BankPortal/internal/models"
	"github.com/wneessen/go-mail"
)

const (
	bankName  = "East Coast Credit Union"
	bankPhone = "1-800-226-6890"
	dateFmt   = "January 2, 2006"
)

// EmailNotifier sends HTML email over SMTP.
type EmailNotifier struct {
	from string
	now  func() time.Time
	send func(ctx context.Context, msg *mail.Msg) error
}

// NewEmailNotifier creates a notifier for the given SMTP settings.
// No connection is made until the first message is sent.
func NewEmailNotifier(cfg config.SMTP) (*EmailNotifier, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.SSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &EmailNotifier{
		from: from,
		now:  time.Now,
		send: func(ctx context.Context, msg *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
	}, nil
}

func (n *EmailNotifier) deliver(ctx context.Context, to, subject, html string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(bankName, n.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)

	if err := n.send(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// SendOTP emails a verification code for purpose.
func (n *EmailNotifier) SendOTP(ctx context.Context, email, code, name string, purpose models.Purpose) error {
	html, err := render(otpTemplate, struct {
		page
		Purpose  string
		Code     string
		Validity string
	}{
		page:     page{Bank: bankName, Phone: bankPhone, Title: "Verification Code", Name: name},
		Purpose:  purpose.Label(),
		Code:     code,
		Validity: "10 minutes",
	})
	if err != nil {
		return fmt.Errorf("render otp email: %w", err)
	}
	return n.deliver(ctx, email, bankName+" - Verification Code", html)
}

// SendBillPaymentConfirmation emails the receipt of a completed payment.
func (n *EmailNotifier) SendBillPaymentConfirmation(ctx context.Context, email, name string, p models.BillPayment) error {
	html, err := render(billPaymentTemplate, struct {
		page
		Payee     string
		Amount    string
		Date      string
		Reference string
	}{
		page:      page{Bank: bankName, Phone: bankPhone, Title: "Bill Payment Confirmation", Name: name},
		Payee:     p.PayeeName,
		Amount:    p.Amount.StringFixed(2),
		Date:      n.now().Format(dateFmt),
		Reference: p.ReferenceNumber,
	})
	if err != nil {
		return fmt.Errorf("render bill payment email: %w", err)
	}
	return n.deliver(ctx, email, "Bill Payment Confirmation - "+p.PayeeName, html)
}

// SendChequeOrderConfirmation emails the details of a placed cheque order.
func (n *EmailNotifier) SendChequeOrderConfirmation(ctx context.Context, email, name string, o models.ChequeOrder) error {
	html, err := render(chequeOrderTemplate, struct {
		page
		OrderNumber    string
		Quantity       int
		DeliveryMethod string
		Date           string
	}{
		page:           page{Bank: bankName, Phone: bankPhone, Title: "Cheque Order Confirmation", Name: name},
		OrderNumber:    o.OrderNumber,
		Quantity:       o.Quantity,
		DeliveryMethod: o.DeliveryMethod,
		Date:           n.now().Format(dateFmt),
	})
	if err != nil {
		return fmt.Errorf("render cheque order email: %w", err)
	}
	return n.deliver(ctx, email, "Cheque Order Confirmation - "+o.OrderNumber, html)
}

// SendExternalAccountNotification emails the micro-deposit amounts of a new link.
func (n *EmailNotifier) SendExternalAccountNotification(ctx context.Context, email, name string, a models.ExternalAccount) error {
	html, err := render(externalAccountTemplate, struct {
		page
		Institution string
		Deposit1    string
		Deposit2    string
	}{
		page:        page{Bank: bankName, Phone: bankPhone, Title: "External Account Verification", Name: name},
		Institution: a.InstitutionName,
		Deposit1:    a.MicroDeposit1.Decimal.StringFixed(2),
		Deposit2:    a.MicroDeposit2.Decimal.StringFixed(2),
	})
	if err != nil {
		return fmt.Errorf("render external account email: %w", err)
	}
	return n.deliver(ctx, email, "External Account Verification - "+a.InstitutionName, html)
}
