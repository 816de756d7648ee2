package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/atinyakov/BankPortal/internal/models"
	handler "github.com/atinyakov/BankPortal/internal/server/handler/http"
	"github.com/atinyakov/BankPortal/internal/service"
	"github.com/atinyakov/BankPortal/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuth struct {
	beginLogin func(ctx context.Context, state session.State, externalID, secret string) (session.State, service.LoginResult, error)
	verifyOTP  func(ctx context.Context, state session.State, code string, purpose models.Purpose) (session.State, error)
	user       *models.User
	userErr    error
}

func (f *fakeAuth) BeginLogin(ctx context.Context, state session.State, externalID, secret string) (session.State, service.LoginResult, error) {
	return f.beginLogin(ctx, state, externalID, secret)
}

func (f *fakeAuth) VerifyOTP(ctx context.Context, state session.State, code string, purpose models.Purpose) (session.State, error) {
	return f.verifyOTP(ctx, state, code, purpose)
}

func (f *fakeAuth) EndSession(session.State) session.State { return session.State{} }

func (f *fakeAuth) CurrentUser(context.Context, session.State) (*models.User, error) {
	return f.user, f.userErr
}

// pendingThenAuthenticated logs user 7 in with password "pw" and code "123456".
func pendingThenAuthenticated() *fakeAuth {
	return &fakeAuth{
		beginLogin: func(_ context.Context, _ session.State, id, secret string) (session.State, service.LoginResult, error) {
			if id != "mate" || secret != "pw" {
				return session.State{}, service.LoginResult{}, service.ErrInvalidCredentials
			}
			return session.State{PendingUserID: 7}, service.LoginResult{RequiresOTP: true}, nil
		},
		verifyOTP: func(_ context.Context, state session.State, code string, purpose models.Purpose) (session.State, error) {
			if state.PendingUserID == 0 {
				return state, service.ErrNoPendingChallenge
			}
			if code != "123456" || purpose != models.PurposeLogin {
				return state, service.ErrInvalidOrExpiredCode
			}
			return session.State{UserID: state.PendingUserID, IsAuthenticated: true}, nil
		},
		user: &models.User{ID: 7, ExternalID: "mate", Email: "mate@example.com", Name: "Mate Smith", PasswordHash: "secret-hash"},
	}
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

type testServer struct {
	handler http.Handler
	redis   *miniredis.Miniredis
}

// newTestServer wires handlers to a real router with a miniredis session store.
func newTestServer(t *testing.T, h handler.Handlers) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	codec, err := session.NewCookieCodec("test-secret", false)
	require.NoError(t, err)
	sessions := session.NewManager(session.NewRedisStore(client, "test"), codec)

	log := zap.NewNop()
	if h.Auth == nil {
		h.Auth = &handler.AuthHandler{AuthService: pendingThenAuthenticated()}
	}
	h.Auth.Sessions = sessions
	h.Auth.Log = log
	if h.Health == nil {
		h.Health = &handler.HealthHandler{DB: pinger{}}
	}
	h.Health.Log = log
	if h.Accounts == nil {
		h.Accounts = &handler.AccountHandler{AccountService: &fakeAccounts{}}
	}
	h.Accounts.Log = log
	if h.BillPayments == nil {
		h.BillPayments = &handler.BillPaymentHandler{BillPaymentService: &fakeBills{}}
	}
	h.BillPayments.Log = log
	if h.ChequeOrders == nil {
		h.ChequeOrders = &handler.ChequeOrderHandler{ChequeOrderService: &fakeCheques{}}
	}
	h.ChequeOrders.Log = log
	if h.ExternalAccounts == nil {
		h.ExternalAccounts = &handler.ExternalAccountHandler{ExternalAccountService: &fakeExternal{}}
	}
	h.ExternalAccounts.Log = log

	return &testServer{handler: handler.NewRouter(h, sessions, log), redis: mr}
}

// do sends a request carrying cookies and returns the recorder.
func (s *testServer) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// login runs both login steps and returns the authenticated session cookie.
func (s *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/login", `{"userId":"mate","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := sessionCookie(t, rec)

	rec = s.do(t, http.MethodPost, "/api/auth/verify-otp", `{"code":"123456","purpose":"login"}`, pending)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return sessionCookie(t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", session.CookieName)
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func newJSONRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(s *testServer, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}
