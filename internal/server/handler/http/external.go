package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/BankPortal/internal/middleware"
	"github.com/atinyakov/BankPortal/internal/models"
	"github.com/atinyakov/BankPortal/internal/service"
	"go.uber.org/zap"
)

// ExternalAccountService defines the operations required by ExternalAccountHandler.
type ExternalAccountService interface {
	List(ctx context.Context, userID int64) ([]models.ExternalAccount, error)
	Create(ctx context.Context, userID int64, req service.NewExternalAccount) (*models.ExternalAccount, error)
}

// ExternalAccountHandler handles accounts linked from other institutions.
type ExternalAccountHandler struct {
	ExternalAccountService ExternalAccountService
	Log                    *zap.Logger
}

// ExternalAccountRequest represents the JSON payload of a link request.
type ExternalAccountRequest struct {
	InstitutionName   string `json:"institutionName" validate:"required,max=100"`
	AccountType       string `json:"accountType" validate:"required,max=50"`
	InstitutionNumber string `json:"institutionNumber" validate:"len=3,numeric"`
	TransitNumber     string `json:"transitNumber" validate:"len=5,numeric"`
	AccountNumber     string `json:"accountNumber" validate:"required,max=50"`
	AccountNickname   string `json:"accountNickname" validate:"max=100"`
}

// List handles GET /api/external-accounts.
func (h *ExternalAccountHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accounts, err := h.ExternalAccountService.List(ctx, middleware.UserIDFromContext(ctx))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// Create handles POST /api/external-accounts.
func (h *ExternalAccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ExternalAccountRequest
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	account, err := h.ExternalAccountService.Create(ctx, middleware.UserIDFromContext(ctx), service.NewExternalAccount{
		InstitutionName:   req.InstitutionName,
		AccountType:       req.AccountType,
		InstitutionNumber: req.InstitutionNumber,
		TransitNumber:     req.TransitNumber,
		AccountNumber:     req.AccountNumber,
		Nickname:          req.AccountNickname,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message           string `json:"message"`
		ExternalAccountID int64  `json:"externalAccountId"`
	}{"External account linking initiated. Check your email for verification details.", account.ID})
}
