// Package http provides the HTTP handlers of the banking portal API.
package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/BankPortal/internal/middleware"
	"github.com/atinyakov/BankPortal/internal/models"
	"github.com/atinyakov/BankPortal/internal/service"
	"github.com/atinyakov/BankPortal/internal/session"
	"go.uber.org/zap"
)

// AuthService defines the authentication operations required by AuthHandler.
type AuthService interface {
	BeginLogin(ctx context.Context, state session.State, externalID, secret string) (session.State, service.LoginResult, error)
	VerifyOTP(ctx context.Context, state session.State, code string, purpose models.Purpose) (session.State, error)
	EndSession(state session.State) session.State
	CurrentUser(ctx context.Context, state session.State) (*models.User, error)
}

// AuthHandler handles login, passcode verification and logout.
//
// Every handler that changes the session state commits it through Sessions
// before writing the response.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	Sessions    *session.Manager
	Log         *zap.Logger
}

// LoginRequest represents the JSON payload of the first login step.
type LoginRequest struct {
	UserID   string `json:"userId" validate:"required,max=20"`
	Password string `json:"password" validate:"required"`
}

// VerifyOTPRequest represents the JSON payload of a passcode submission.
type VerifyOTPRequest struct {
	Code    string `json:"code" validate:"len=6"`
	Purpose string `json:"purpose" validate:"required,max=50"`
}

// Login handles POST /api/auth/login. On valid credentials it emails a
// login code and marks the session as pending.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	sess := middleware.SessionFromContext(ctx)
	state, res, err := h.AuthService.BeginLogin(ctx, sess.State, req.UserID, req.Password)
	if !h.commit(w, r, sess, state) {
		return
	}
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message     string `json:"message"`
		RequiresOTP bool   `json:"requiresOTP"`
	}{"OTP sent to your email", res.RequiresOTP})
}

// VerifyOTP handles POST /api/auth/verify-otp. It only completes logins;
// step-up codes are consumed by the confirm endpoint of the operation that
// requested them.
//
// The code is spent before the session is saved, so a failed commit leaves
// the user to start a fresh login.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if !decode(w, r, &req) {
		return
	}
	if models.Purpose(req.Purpose) != models.PurposeLogin {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	ctx := r.Context()
	sess := middleware.SessionFromContext(ctx)
	state, err := h.AuthService.VerifyOTP(ctx, sess.State, req.Code, models.Purpose(req.Purpose))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if !h.commit(w, r, sess, state) {
		return
	}
	writeMessage(w, http.StatusOK, "Verification successful")
}

// Logout handles POST /api/auth/logout. The cookie is cleared even if the
// session record cannot be deleted.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromContext(ctx)
	sess.State = h.AuthService.EndSession(sess.State)

	if err := h.Sessions.Destroy(ctx, w, sess); err != nil {
		h.Log.Error("failed to delete session", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Could not log out")
		return
	}
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.AuthService.CurrentUser(ctx, middleware.SessionFromContext(ctx).State)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if user == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) commit(w http.ResponseWriter, r *http.Request, sess *session.Session, state session.State) bool {
	if err := h.Sessions.Commit(r.Context(), w, sess, state); err != nil {
		h.Log.Error("failed to save session", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return false
	}
	return true
}
