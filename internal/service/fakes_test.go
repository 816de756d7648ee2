package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/atinyakov/BankPortal/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// memUsers is an in-memory UserRepository.
type memUsers struct {
	mu        sync.Mutex
	byID      map[int64]*models.User
	lastLogin map[int64]time.Time
	err       error
}

func newMemUsers(users ...models.User) *memUsers {
	m := &memUsers{byID: map[int64]*models.User{}, lastLogin: map[int64]time.Time{}}
	for i := range users {
		u := users[i]
		m.byID[u.ID] = &u
	}
	return m
}

func (m *memUsers) FindByExternalID(_ context.Context, externalID string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.ExternalID == externalID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindByID(_ context.Context, id int64) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLogin[id] = at
	return nil
}

// memOTPs is an in-memory OTPRepository whose MarkUsed is a conditional
// update under a mutex.
type memOTPs struct {
	mu        sync.Mutex
	rows      []models.OtpCode
	findCalls int
	createErr error
}

func (m *memOTPs) Create(_ context.Context, otp models.OtpCode) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	otp.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, otp)
	return otp.ID, nil
}

func (m *memOTPs) FindValid(_ context.Context, userID int64, code string, purpose models.Purpose) (*models.OtpCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	for i := len(m.rows) - 1; i >= 0; i-- {
		r := m.rows[i]
		if r.UserID == userID && r.Code == code && r.Purpose == purpose && !r.Used {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memOTPs) MarkUsed(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id && !m.rows[i].Used {
			m.rows[i].Used = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memOTPs) all() []models.OtpCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.OtpCode(nil), m.rows...)
}

type sentOTP struct {
	email, code, name string
	purpose           models.Purpose
}

// recordingNotifier captures every notification it is asked to send.
type recordingNotifier struct {
	mu      sync.Mutex
	otps    []sentOTP
	bills   []models.BillPayment
	cheques []models.ChequeOrder
	links   []models.ExternalAccount
	err     error
}

func (n *recordingNotifier) SendOTP(_ context.Context, email, code, name string, purpose models.Purpose) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.otps = append(n.otps, sentOTP{email: email, code: code, name: name, purpose: purpose})
	return nil
}

func (n *recordingNotifier) SendBillPaymentConfirmation(_ context.Context, _, _ string, p models.BillPayment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bills = append(n.bills, p)
	return n.err
}

func (n *recordingNotifier) SendChequeOrderConfirmation(_ context.Context, _, _ string, o models.ChequeOrder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cheques = append(n.cheques, o)
	return n.err
}

func (n *recordingNotifier) SendExternalAccountNotification(_ context.Context, _, _ string, a models.ExternalAccount) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.links = append(n.links, a)
	return n.err
}

func (n *recordingNotifier) lastCode(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.otps) == 0 {
		t.Fatal("no code was sent")
	}
	return n.otps[len(n.otps)-1].code
}

const testPassword = "correct horse"

func hashPassword(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(h)
}

func mateSmith(t *testing.T) models.User {
	return models.User{
		ID:           1,
		ExternalID:   "1972000",
		Email:        "mate.smith@example.com",
		Name:         "Mate Smith",
		PasswordHash: hashPassword(t, testPassword),
		IsActive:     true,
	}
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type authFixture struct {
	svc      *AuthService
	users    *memUsers
	otps     *memOTPs
	notifier *recordingNotifier
	clock    *clock
}

func newAuthFixture(t *testing.T, users ...models.User) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    newMemUsers(users...),
		otps:     &memOTPs{},
		notifier: &recordingNotifier{},
		clock:    &clock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.svc = NewAuthService(f.users, f.otps, f.notifier, zap.NewNop())
	f.svc.now = f.clock.Now
	return f
}

var errDB = errors.New("db down")
