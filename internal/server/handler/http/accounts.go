package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/atinyakov/BankPortal/internal/middleware"
	"github.com/atinyakov/BankPortal/internal/models"
	"go.uber.org/zap"
)

// AccountService defines the account reads required by AccountHandler.
type AccountService interface {
	List(ctx context.Context, userID int64) ([]models.Account, error)
	Transactions(ctx context.Context, userID, accountID int64, limit, offset int) ([]models.Transaction, error)
}

// AccountHandler serves the authenticated user's accounts.
type AccountHandler struct {
	AccountService AccountService
	Log            *zap.Logger
}

// List handles GET /api/accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accounts, err := h.AccountService.List(ctx, middleware.UserIDFromContext(ctx))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// Transactions handles GET /api/accounts/{id}/transactions.
// Unparseable limit and offset values fall back to the defaults.
func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	ctx := r.Context()
	txs, err := h.AccountService.Transactions(ctx, middleware.UserIDFromContext(ctx), id, limit, offset)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}
