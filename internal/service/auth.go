// Package service implements the portal's business logic: password login
// with an emailed one-time passcode, purpose-scoped step-up challenges and
// the banking operations guarded by them.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atinyakov/BankPortal/internal/models"
	"github.com/atinyakov/BankPortal/internal/session"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers unknown users, inactive users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoPendingChallenge means the session has no user a code could belong to.
	ErrNoPendingChallenge = errors.New("no pending authentication")
	// ErrInvalidOrExpiredCode covers wrong, expired, already used and wrong-purpose codes.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	// ErrNotificationDeliveryFailed means a code was stored but could not be sent.
	ErrNotificationDeliveryFailed = errors.New("notification delivery failed")
	// ErrInvalidPurpose rejects empty or oversized purpose tags.
	ErrInvalidPurpose = errors.New("invalid purpose")
)

// UserRepository defines the user lookups the authentication service needs.
type UserRepository interface {
	// FindByExternalID returns nil, nil when no user has the login id.
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	// FindByID returns nil, nil when the user does not exist.
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// OTPRepository stores issued passcodes.
type OTPRepository interface {
	Create(ctx context.Context, otp models.OtpCode) (int64, error)
	// FindValid returns the newest unused code matching all three keys, or nil.
	FindValid(ctx context.Context, userID int64, code string, purpose models.Purpose) (*models.OtpCode, error)
	// MarkUsed consumes the code and reports whether this call won it.
	MarkUsed(ctx context.Context, id int64) (bool, error)
}

// Notifier delivers passcodes to users.
type Notifier interface {
	SendOTP(ctx context.Context, email, code, name string, purpose models.Purpose) error
}

// LoginResult tells the client what the next login step is.
type LoginResult struct {
	RequiresOTP bool `json:"requiresOTP"`
}

// AuthService runs the two-phase login and the step-up challenges used by
// the banking operations. It holds no per-user state of its own: every call
// takes the caller's session.State and returns the state to store.
type AuthService struct {
	users    UserRepository
	otps     OTPRepository
	notifier Notifier
	log      *zap.Logger

	now      func() time.Time
	generate func() (string, error)
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserRepository, otps OTPRepository, notifier Notifier, log *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		otps:     otps,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		generate: GenerateCode,
	}
}

// dummyHash is compared against when the user is unknown so that the
// response time does not reveal which login ids exist.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	return h
})

// BeginLogin checks the password of externalID and, on success, emails a
// login code. The returned state carries the pending user even when the
// email could not be sent, in which case the error is
// ErrNotificationDeliveryFailed.
func (s *AuthService) BeginLogin(ctx context.Context, state session.State, externalID, secret string) (session.State, LoginResult, error) {
	user, err := s.users.FindByExternalID(ctx, externalID)
	if err != nil {
		return state, LoginResult{}, fmt.Errorf("begin login: %w", err)
	}

	if user == nil || !user.IsActive {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(secret))
		return state, LoginResult{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)); err != nil {
		return state, LoginResult{}, ErrInvalidCredentials
	}

	pending := session.State{PendingUserID: user.ID}
	if err := s.issue(ctx, user, models.PurposeLogin); err != nil {
		if errors.Is(err, ErrNotificationDeliveryFailed) {
			return pending, LoginResult{RequiresOTP: true}, err
		}
		return state, LoginResult{}, err
	}
	return pending, LoginResult{RequiresOTP: true}, nil
}

// VerifyOTP consumes code for purpose on behalf of the session's user.
//
// A login code elevates the pending user to an authenticated session. Any
// other purpose requires an authenticated session and leaves it unchanged;
// a nil error then authorises the caller to finish its action.
func (s *AuthService) VerifyOTP(ctx context.Context, state session.State, code string, purpose models.Purpose) (session.State, error) {
	if !purpose.Valid() {
		return state, ErrInvalidPurpose
	}

	var userID int64
	if purpose == models.PurposeLogin {
		userID = state.PendingUserID
	} else if state.Authenticated() {
		userID = state.UserID
	}
	if userID == 0 {
		return state, ErrNoPendingChallenge
	}

	if !wellFormedCode(code) {
		return state, ErrInvalidOrExpiredCode
	}

	otp, err := s.otps.FindValid(ctx, userID, code, purpose)
	if err != nil {
		return state, fmt.Errorf("verify otp: %w", err)
	}
	now := s.now()
	if otp == nil || !otp.ValidAt(now) {
		return state, ErrInvalidOrExpiredCode
	}

	won, err := s.otps.MarkUsed(ctx, otp.ID)
	if err != nil {
		return state, fmt.Errorf("consume otp: %w", err)
	}
	if !won {
		return state, ErrInvalidOrExpiredCode
	}

	if purpose != models.PurposeLogin {
		s.log.Info("step-up verified", zap.Int64("user_id", userID), zap.String("purpose", string(purpose)))
		return state, nil
	}

	if err := s.users.UpdateLastLogin(ctx, userID, now); err != nil {
		return state, fmt.Errorf("verify otp: %w", err)
	}
	s.log.Info("login completed", zap.Int64("user_id", userID))
	return session.State{UserID: userID, IsAuthenticated: true}, nil
}

// IssueChallenge emails userID a fresh code scoped to purpose.
func (s *AuthService) IssueChallenge(ctx context.Context, userID int64, purpose models.Purpose) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("issue challenge: %w", err)
	}
	if user == nil {
		return fmt.Errorf("issue challenge: user %d not found", userID)
	}
	return s.issue(ctx, user, purpose)
}

func (s *AuthService) issue(ctx context.Context, user *models.User, purpose models.Purpose) error {
	if !purpose.Valid() {
		return ErrInvalidPurpose
	}

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	now := s.now()
	if _, err := s.otps.Create(ctx, models.OtpCode{
		UserID:    user.ID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(CodeValidity),
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.notifier.SendOTP(ctx, user.Email, code, user.Name, purpose); err != nil {
		s.log.Warn("failed to send otp",
			zap.Int64("user_id", user.ID),
			zap.String("purpose", string(purpose)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrNotificationDeliveryFailed, err)
	}

	s.log.Info("otp issued", zap.Int64("user_id", user.ID), zap.String("purpose", string(purpose)))
	return nil
}

// EndSession returns the state of a logged-out session.
func (s *AuthService) EndSession(state session.State) session.State {
	if state.UserID != 0 || state.PendingUserID != 0 {
		s.log.Info("session ended", zap.Int64("user_id", state.UserID))
	}
	return session.State{}
}

// CurrentUser returns the authenticated user of state, or nil when the
// state is not authenticated or the user no longer exists.
func (s *AuthService) CurrentUser(ctx context.Context, state session.State) (*models.User, error) {
	if !state.Authenticated() {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, state.UserID)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return user, nil
}
