package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/BankPortal/internal/middleware"
	"github.com/atinyakov/BankPortal/internal/models"
	"github.com/atinyakov/BankPortal/internal/service"
	"github.com/atinyakov/BankPortal/internal/session"
	"go.uber.org/zap"
)

// BillPaymentService defines the bill payment operations required by BillPaymentHandler.
type BillPaymentService interface {
	List(ctx context.Context, userID int64) ([]models.BillPayment, error)
	Create(ctx context.Context, userID int64, req service.NewBillPayment) (*models.BillPayment, error)
	Confirm(ctx context.Context, state session.State, id int64, code string) (*models.BillPayment, error)
}

// BillPaymentHandler handles bill payments and their confirmation.
type BillPaymentHandler struct {
	BillPaymentService BillPaymentService
	Log                *zap.Logger
}

// BillPaymentRequest represents the JSON payload of a new bill payment.
type BillPaymentRequest struct {
	FromAccountID int64  `json:"fromAccountId" validate:"required,gt=0"`
	PayeeName     string `json:"payeeName" validate:"required,max=100"`
	Amount        string `json:"amount" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"max=50"`
}

// ConfirmRequest carries the passcode that finalises a pending operation.
type ConfirmRequest struct {
	Code string `json:"code" validate:"len=6"`
}

// List handles GET /api/bill-payments.
func (h *BillPaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	payments, err := h.BillPaymentService.List(ctx, middleware.UserIDFromContext(ctx))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// Create handles POST /api/bill-payments. The payment stays pending until
// the emailed code is confirmed.
func (h *BillPaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BillPaymentRequest
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	payment, err := h.BillPaymentService.Create(ctx, middleware.UserIDFromContext(ctx), service.NewBillPayment{
		FromAccountID: req.FromAccountID,
		PayeeName:     req.PayeeName,
		Amount:        req.Amount,
		AccountNumber: req.AccountNumber,
	})
	if err != nil {
		if payment != nil && errors.Is(err, service.ErrNotificationDeliveryFailed) {
			h.Log.Warn("bill payment pending without code", zap.Int64("bill_payment_id", payment.ID), zap.Error(err))
		}
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message       string `json:"message"`
		BillPaymentID int64  `json:"billPaymentId"`
		RequiresOTP   bool   `json:"requiresOTP"`
	}{"OTP sent for verification", payment.ID, true})
}

// Confirm handles POST /api/bill-payments/{id}/confirm.
func (h *BillPaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req ConfirmRequest
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	payment, err := h.BillPaymentService.Confirm(ctx, middleware.SessionFromContext(ctx).State, id, req.Code)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}
