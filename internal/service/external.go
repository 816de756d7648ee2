package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/atinyakov/BankPortal/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExternalAccountRepository persists external account links.
type ExternalAccountRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]models.ExternalAccount, error)
	Create(ctx context.Context, a models.ExternalAccount) (*models.ExternalAccount, error)
}

// NewExternalAccount is a request to link an account at another institution.
type NewExternalAccount struct {
	InstitutionName   string
	AccountType       string
	InstitutionNumber string
	TransitNumber     string
	AccountNumber     string
	Nickname          string
}

// ExternalAccountService starts micro-deposit verification of external accounts.
type ExternalAccountService struct {
	accounts ExternalAccountRepository
	users    UserFinder
	notifier ConfirmationNotifier
	log      *zap.Logger

	deposit func() (decimal.Decimal, error)
}

// NewExternalAccountService constructs an ExternalAccountService.
func NewExternalAccountService(accounts ExternalAccountRepository, users UserFinder, notifier ConfirmationNotifier, log *zap.Logger) *ExternalAccountService {
	return &ExternalAccountService{
		accounts: accounts,
		users:    users,
		notifier: notifier,
		log:      log,
		deposit:  MicroDeposit,
	}
}

// MicroDeposit returns a random amount between 0.01 and 0.99.
func MicroDeposit() (decimal.Decimal, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(99))
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(n.Int64()+1, -2), nil
}

// List returns the user's external accounts.
func (s *ExternalAccountService) List(ctx context.Context, userID int64) ([]models.ExternalAccount, error) {
	accounts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list external accounts: %w", err)
	}
	return accounts, nil
}

// Create stores a pending link with two micro-deposits and emails the user.
// When the email fails the stored link is returned with
// ErrNotificationDeliveryFailed.
func (s *ExternalAccountService) Create(ctx context.Context, userID int64, req NewExternalAccount) (*models.ExternalAccount, error) {
	d1, err := s.deposit()
	if err != nil {
		return nil, fmt.Errorf("micro deposit: %w", err)
	}
	d2, err := s.deposit()
	if err != nil {
		return nil, fmt.Errorf("micro deposit: %w", err)
	}

	var nickname *string
	if req.Nickname != "" {
		nickname = &req.Nickname
	}

	account, err := s.accounts.Create(ctx, models.ExternalAccount{
		UserID:             userID,
		InstitutionName:    req.InstitutionName,
		AccountType:        req.AccountType,
		InstitutionNumber:  req.InstitutionNumber,
		TransitNumber:      req.TransitNumber,
		AccountNumber:      req.AccountNumber,
		AccountNickname:    nickname,
		VerificationStatus: models.StatusPending,
		MicroDeposit1:      decimal.NewNullDecimal(d1),
		MicroDeposit2:      decimal.NewNullDecimal(d2),
	})
	if err != nil {
		return nil, fmt.Errorf("create external account: %w", err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return account, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return account, fmt.Errorf("find user: user %d not found", userID)
	}
	if err := s.notifier.SendExternalAccountNotification(ctx, user.Email, user.Name, *account); err != nil {
		s.log.Warn("failed to send external account notification", zap.Int64("user_id", userID), zap.Error(err))
		return account, fmt.Errorf("%w: %v", ErrNotificationDeliveryFailed, err)
	}

	s.log.Info("external account link started",
		zap.Int64("user_id", userID),
		zap.Int64("external_account_id", account.ID),
	)
	return account, nil
}
