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

// ChequeOrderService defines the cheque order operations required by ChequeOrderHandler.
type ChequeOrderService interface {
	List(ctx context.Context, userID int64) ([]models.ChequeOrder, error)
	Create(ctx context.Context, userID int64, req service.NewChequeOrder) (*models.ChequeOrder, error)
	Confirm(ctx context.Context, state session.State, id int64, code string) (*models.ChequeOrder, error)
}

// ChequeOrderHandler handles cheque orders.
type ChequeOrderHandler struct {
	ChequeOrderService ChequeOrderService
	Log                *zap.Logger
}

// ChequeOrderRequest represents the JSON payload of a new cheque order.
type ChequeOrderRequest struct {
	AccountID       int64  `json:"accountId" validate:"required,gt=0"`
	ChequeStyle     string `json:"chequeStyle" validate:"required,max=50"`
	Quantity        int    `json:"quantity" validate:"gt=0,lte=1000"`
	StartingNumber  int    `json:"startingNumber" validate:"gt=0"`
	DeliveryAddress string `json:"deliveryAddress" validate:"required"`
	DeliveryMethod  string `json:"deliveryMethod" validate:"required,max=50"`
}

// List handles GET /api/cheque-orders.
func (h *ChequeOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orders, err := h.ChequeOrderService.List(ctx, middleware.UserIDFromContext(ctx))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// Create handles POST /api/cheque-orders.
func (h *ChequeOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ChequeOrderRequest
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	order, err := h.ChequeOrderService.Create(ctx, middleware.UserIDFromContext(ctx), service.NewChequeOrder{
		AccountID:       req.AccountID,
		ChequeStyle:     req.ChequeStyle,
		Quantity:        req.Quantity,
		StartingNumber:  req.StartingNumber,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryMethod:  req.DeliveryMethod,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message       string `json:"message"`
		ChequeOrderID int64  `json:"chequeOrderId"`
		RequiresOTP   bool   `json:"requiresOTP"`
	}{"OTP sent for verification", order.ID, true})
}

// Confirm handles POST /api/cheque-orders/{id}/confirm.
func (h *ChequeOrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req ConfirmRequest
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	order, err := h.ChequeOrderService.Confirm(ctx, middleware.SessionFromContext(ctx).State, id, req.Code)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
