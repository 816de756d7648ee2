package service

import (
	"context"
	"sync"
	"time"

	"github.com/atinyakov/BankPortal/internal/models"
	"github.com/atinyakov/BankPortal/internal/repository"
)

type memAccounts struct {
	accounts  []models.Account
	txs       map[int64][]models.Transaction
	gotLimit  int
	gotOffset int
}

func (m *memAccounts) ListByUser(_ context.Context, userID int64) ([]models.Account, error) {
	var out []models.Account
	for _, a := range m.accounts {
		if a.UserID == userID && a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAccounts) GetByID(_ context.Context, id int64) (*models.Account, error) {
	for _, a := range m.accounts {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memAccounts) ListTransactions(_ context.Context, accountID int64, limit, offset int) ([]models.Transaction, error) {
	m.gotLimit, m.gotOffset = limit, offset
	txs := m.txs[accountID]
	if offset >= len(txs) {
		return []models.Transaction{}, nil
	}
	txs = txs[offset:]
	if limit < len(txs) {
		txs = txs[:limit]
	}
	return txs, nil
}

type memBills struct {
	mu   sync.Mutex
	rows []models.BillPayment
}

func (m *memBills) ListByUser(_ context.Context, userID int64) ([]models.BillPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.BillPayment
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].UserID == userID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memBills) GetByID(_ context.Context, id int64) (*models.BillPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memBills) Create(_ context.Context, p models.BillPayment) (*models.BillPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, p)
	return &p, nil
}

func (m *memBills) Complete(_ context.Context, id, userID int64, at time.Time) (*models.BillPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		p := &m.rows[i]
		if p.ID == id && p.UserID == userID && p.Status == models.StatusPending {
			p.Status = models.StatusCompleted
			p.ProcessedDate = &at
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

type memCheques struct {
	mu       sync.Mutex
	rows     []models.ChequeOrder
	numbers  map[string]bool
	attempts int
}

func (m *memCheques) ListByUser(_ context.Context, userID int64) ([]models.ChequeOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ChequeOrder
	for _, o := range m.rows {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memCheques) GetByID(_ context.Context, id int64) (*models.ChequeOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.rows {
		if o.ID == id {
			cp := o
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memCheques) Create(_ context.Context, o models.ChequeOrder) (*models.ChequeOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.numbers == nil {
		m.numbers = map[string]bool{}
	}
	if m.numbers[o.OrderNumber] {
		return nil, repository.ErrDuplicate
	}
	m.numbers[o.OrderNumber] = true
	o.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, o)
	return &o, nil
}

func (m *memCheques) MarkProcessing(_ context.Context, id, userID int64) (*models.ChequeOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		o := &m.rows[i]
		if o.ID == id && o.UserID == userID && o.Status == models.StatusPending {
			o.Status = models.StatusProcessing
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

type memExternal struct {
	rows []models.ExternalAccount
}

func (m *memExternal) ListByUser(_ context.Context, userID int64) ([]models.ExternalAccount, error) {
	var out []models.ExternalAccount
	for _, a := range m.rows {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memExternal) Create(_ context.Context, a models.ExternalAccount) (*models.ExternalAccount, error) {
	a.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, a)
	return &a, nil
}
