package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/BankPortal/internal/models"
)

var (
	// ErrAccountNotFound is returned for accounts that do not exist or belong to someone else.
	ErrAccountNotFound = errors.New("account not found")
	// ErrNotFound is returned for payments and orders that do not exist or belong to someone else.
	ErrNotFound = errors.New("not found")
)

const (
	// DefaultPageSize is used when a transaction listing has no limit.
	DefaultPageSize = 50
	// MaxPageSize caps a transaction listing.
	MaxPageSize = 200
)

// AccountRepository reads accounts and their history.
type AccountRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Account, error)
	// GetByID returns nil, nil when the account does not exist.
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	ListTransactions(ctx context.Context, accountID int64, limit, offset int) ([]models.Transaction, error)
}

// AccountService serves a user's own accounts.
type AccountService struct {
	accounts AccountRepository
}

// NewAccountService constructs an AccountService.
func NewAccountService(accounts AccountRepository) *AccountService {
	return &AccountService{accounts: accounts}
}

// List returns the user's active accounts.
func (s *AccountService) List(ctx context.Context, userID int64) ([]models.Account, error) {
	accounts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// Transactions pages through the history of an account owned by userID.
// A non-positive limit selects DefaultPageSize; limits above MaxPageSize are capped.
func (s *AccountService) Transactions(ctx context.Context, userID, accountID int64, limit, offset int) ([]models.Transaction, error) {
	if _, err := s.owned(ctx, userID, accountID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	txs, err := s.accounts.ListTransactions(ctx, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *AccountService) owned(ctx context.Context, userID, accountID int64) (*models.Account, error) {
	return ownedAccount(ctx, s.accounts, userID, accountID)
}

type accountGetter interface {
	GetByID(ctx context.Context, id int64) (*models.Account, error)
}

func ownedAccount(ctx context.Context, accounts accountGetter, userID, accountID int64) (*models.Account, error) {
	account, err := accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil || account.UserID != userID || !account.IsActive {
		return nil, ErrAccountNotFound
	}
	return account, nil
}
