package http

import (
	"net/http"

	"github.com/atinyakov/BankPortal/internal/middleware"
	"github.com/atinyakov/BankPortal/internal/session"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth             *AuthHandler
	Accounts         *AccountHandler
	BillPayments     *BillPaymentHandler
	ChequeOrders     *ChequeOrderHandler
	ExternalAccounts *ExternalAccountHandler
	Health           *HealthHandler
}

// NewRouter constructs the HTTP handler of the portal API.
//
// Routes:
//
//	GET  /healthz
//	POST /api/auth/login
//	POST /api/auth/verify-otp
//	POST /api/auth/logout
//	GET  /api/auth/me                          (authenticated)
//	GET  /api/accounts                         (authenticated)
//	GET  /api/accounts/{id}/transactions       (authenticated)
//	GET  /api/bill-payments                    (authenticated)
//	POST /api/bill-payments                    (authenticated)
//	POST /api/bill-payments/{id}/confirm       (authenticated)
//	GET  /api/cheque-orders                    (authenticated)
//	POST /api/cheque-orders                    (authenticated)
//	POST /api/cheque-orders/{id}/confirm       (authenticated)
//	GET  /api/external-accounts                (authenticated)
//	POST /api/external-accounts                (authenticated)
func NewRouter(h Handlers, sessions *session.Manager, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", h.Health.Health)

	r.Route("/api", func(r chi.Router) {
		// Bodies without a content type are let through; anything else must be JSON.
		r.Use(chiMiddleware.AllowContentType("application/json"))
		r.Use(middleware.WithSession(sessions, logger))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Auth.Login)
			r.Post("/verify-otp", h.Auth.VerifyOTP)
			r.Post("/logout", h.Auth.Logout)
			r.With(middleware.RequireAuth).Get("/me", h.Auth.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/accounts", h.Accounts.List)
			r.Get("/accounts/{id}/transactions", h.Accounts.Transactions)

			r.Get("/bill-payments", h.BillPayments.List)
			r.Post("/bill-payments", h.BillPayments.Create)
			r.Post("/bill-payments/{id}/confirm", h.BillPayments.Confirm)

			r.Get("/cheque-orders", h.ChequeOrders.List)
			r.Post("/cheque-orders", h.ChequeOrders.Create)
			r.Post("/cheque-orders/{id}/confirm", h.ChequeOrders.Confirm)

			r.Get("/external-accounts", h.ExternalAccounts.List)
			r.Post("/external-accounts", h.ExternalAccounts.Create)
		})
	})

	return r
}
