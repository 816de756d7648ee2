package http_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/atinyakov/BankPortal/internal/models"
	handler "github.com/atinyakov/BankPortal/internal/server/handler/http"
	"github.com/atinyakov/BankPortal/internal/service"
	"github.com/atinyakov/BankPortal/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantCode    int
		wantMessage string
		wantCookie  bool
	}{
		{
			name:        "valid credentials",
			body:        `{"userId":"mate","password":"pw"}`,
			wantCode:    http.StatusOK,
			wantMessage: "OTP sent to your email",
			wantCookie:  true,
		},
		{
			name:        "wrong password",
			body:        `{"userId":"mate","password":"nope"}`,
			wantCode:    http.StatusUnauthorized,
			wantMessage: "Invalid credentials",
		},
		{
			name:        "unknown user",
			body:        `{"userId":"ghost","password":"pw"}`,
			wantCode:    http.StatusUnauthorized,
			wantMessage: "Invalid credentials",
		},
		{
			name:        "missing password",
			body:        `{"userId":"mate"}`,
			wantCode:    http.StatusBadRequest,
			wantMessage: "Invalid request",
		},
		{
			name:        "malformed json",
			body:        `{"userId":`,
			wantCode:    http.StatusBadRequest,
			wantMessage: "Invalid request",
		},
		{
			name:        "non json content type",
			body:        `userId=mate`,
			contentType: "application/x-www-form-urlencoded",
			wantCode:    http.StatusUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, handler.Handlers{})

			req := newJSONRequest(http.MethodPost, "/api/auth/login", tt.body)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := serve(srv, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, decodeBody(t, rec)["message"])
			}
			hasCookie := len(rec.Result().Cookies()) > 0
			assert.Equal(t, tt.wantCookie, hasCookie)
		})
	}
}

func TestAuthHandler_LoginRequiresOTP(t *testing.T) {
	srv := newTestServer(t, handler.Handlers{})

	rec := srv.do(t, http.MethodPost, "/api/auth/login", `{"userId":"mate","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["requiresOTP"])

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Len(t, srv.redis.Keys(), 1)
}

func TestAuthHandler_LoginDeliveryFailureKeepsPendingSession(t *testing.T) {
	auth := pendingThenAuthenticated()
	auth.beginLogin = func(context.Context, session.State, string, string) (session.State, service.LoginResult, error) {
		return session.State{PendingUserID: 7}, service.LoginResult{}, fmt.Errorf("%w: smtp down", service.ErrNotificationDeliveryFailed)
	}
	srv := newTestServer(t, handler.Handlers{Auth: &handler.AuthHandler{AuthService: auth}})

	rec := srv.do(t, http.MethodPost, "/api/auth/login", `{"userId":"mate","password":"pw"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Could not send verification code", decodeBody(t, rec)["message"])
	sessionCookie(t, rec)
}

func TestAuthHandler_VerifyOTP(t *testing.T) {
	tests := []struct {
		name        string
		withPending bool
		body        string
		wantCode    int
		wantMessage string
	}{
		{"correct code", true, `{"code":"123456","purpose":"login"}`, http.StatusOK, "Verification successful"},
		{"wrong code", true, `{"code":"654321","purpose":"login"}`, http.StatusUnauthorized, "Invalid or expired code"},
		{"step-up purpose", true, `{"code":"123456","purpose":"bill_payment"}`, http.StatusBadRequest, "Invalid request"},
		{"scoped step-up purpose", true, `{"code":"123456","purpose":"cheque_order:9"}`, http.StatusBadRequest, "Invalid request"},
		{"short code", true, `{"code":"12345","purpose":"login"}`, http.StatusBadRequest, "Invalid request"},
		{"missing purpose", true, `{"code":"123456"}`, http.StatusBadRequest, "Invalid request"},
		{"no pending login", false, `{"code":"123456","purpose":"login"}`, http.StatusBadRequest, "No pending authentication"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, handler.Handlers{})

			var cookies []*http.Cookie
			if tt.withPending {
				rec := srv.do(t, http.MethodPost, "/api/auth/login", `{"userId":"mate","password":"pw"}`)
				require.Equal(t, http.StatusOK, rec.Code)
				cookies = append(cookies, sessionCookie(t, rec))
			}

			rec := srv.do(t, http.MethodPost, "/api/auth/verify-otp", tt.body, cookies...)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMessage, decodeBody(t, rec)["message"])
		})
	}
}

func TestAuthHandler_VerifyOTPLeavesStepUpCodes(t *testing.T) {
	auth := pendingThenAuthenticated()
	verified := auth.verifyOTP
	var calls int
	auth.verifyOTP = func(ctx context.Context, state session.State, code string, purpose models.Purpose) (session.State, error) {
		calls++
		return verified(ctx, state, code, purpose)
	}
	srv := newTestServer(t, handler.Handlers{Auth: &handler.AuthHandler{AuthService: auth}})
	cookie := srv.login(t)
	require.Equal(t, 1, calls)

	for _, purpose := range []string{"bill_payment", "bill_payment:42", "cheque_order"} {
		rec := srv.do(t, http.MethodPost, "/api/auth/verify-otp",
			`{"code":"123456","purpose":"`+purpose+`"}`, cookie)

		assert.Equal(t, http.StatusBadRequest, rec.Code, purpose)
	}
	assert.Equal(t, 1, calls, "step-up codes must reach only the confirm endpoints")
}

func TestAuthHandler_VerifyRotatesSession(t *testing.T) {
	srv := newTestServer(t, handler.Handlers{})

	rec := srv.do(t, http.MethodPost, "/api/auth/login", `{"userId":"mate","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := sessionCookie(t, rec)

	rec = srv.do(t, http.MethodPost, "/api/auth/verify-otp", `{"code":"123456","purpose":"login"}`, pending)
	require.Equal(t, http.StatusOK, rec.Code)
	authenticated := sessionCookie(t, rec)

	assert.NotEqual(t, pending.Value, authenticated.Value)
	assert.Len(t, srv.redis.Keys(), 1)

	// The pre-login session id no longer grants anything.
	rec = srv.do(t, http.MethodGet, "/api/auth/me", "", pending)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/auth/me", "", authenticated)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHandler_Me(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		srv := newTestServer(t, handler.Handlers{})
		cookie := srv.login(t)

		rec := srv.do(t, http.MethodGet, "/api/auth/me", "", cookie)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "mate", body["userId"])
		assert.Equal(t, "mate@example.com", body["email"])
		assert.NotContains(t, rec.Body.String(), "secret-hash")
	})

	t.Run("pending only", func(t *testing.T) {
		srv := newTestServer(t, handler.Handlers{})
		rec := srv.do(t, http.MethodPost, "/api/auth/login", `{"userId":"mate","password":"pw"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = srv.do(t, http.MethodGet, "/api/auth/me", "", sessionCookie(t, rec))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Authentication required", decodeBody(t, rec)["message"])
	})

	t.Run("no cookie", func(t *testing.T) {
		srv := newTestServer(t, handler.Handlers{})

		rec := srv.do(t, http.MethodGet, "/api/auth/me", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("user deleted", func(t *testing.T) {
		auth := pendingThenAuthenticated()
		srv := newTestServer(t, handler.Handlers{Auth: &handler.AuthHandler{AuthService: auth}})
		cookie := srv.login(t)
		auth.user = nil

		rec := srv.do(t, http.MethodGet, "/api/auth/me", "", cookie)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "User not found", decodeBody(t, rec)["message"])
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	srv := newTestServer(t, handler.Handlers{})
	cookie := srv.login(t)

	rec := srv.do(t, http.MethodPost, "/api/auth/logout", "", cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", decodeBody(t, rec)["message"])
	cleared := sessionCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
	assert.Empty(t, srv.redis.Keys())

	rec = srv.do(t, http.MethodGet, "/api/auth/me", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_LogoutWithoutSession(t *testing.T) {
	srv := newTestServer(t, handler.Handlers{})

	rec := srv.do(t, http.MethodPost, "/api/auth/logout", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"database reachable", nil, http.StatusOK},
		{"database down", fmt.Errorf("connection refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, handler.Handlers{Health: &handler.HealthHandler{DB: pinger{err: tt.err}}})

			rec := srv.do(t, http.MethodGet, "/healthz", "")

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
