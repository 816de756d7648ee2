package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/atinyakov/BankPortal/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// message is the body of every non-data response.
type message struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, message{Message: msg})
}

// decode reads a JSON body into dst and validates it. It writes the
// 400 response itself and reports false on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return false
	}
	return true
}

// idParam parses the {id} URL parameter. It writes a 404 and reports false
// when the id is not a positive integer.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusNotFound, "Not found")
		return 0, false
	}
	return id, true
}

// writeError maps service errors to responses. Unknown errors are logged
// and reported as a bare 500.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrInvalidOrExpiredCode):
		writeMessage(w, http.StatusUnauthorized, "Invalid or expired code")
	case errors.Is(err, service.ErrNoPendingChallenge):
		writeMessage(w, http.StatusBadRequest, "No pending authentication")
	case errors.Is(err, service.ErrNotificationDeliveryFailed):
		writeMessage(w, http.StatusBadGateway, "Could not send verification code")
	case errors.Is(err, service.ErrInvalidPurpose), errors.Is(err, service.ErrInvalidAmount):
		writeMessage(w, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, service.ErrInsufficientFunds):
		writeMessage(w, http.StatusBadRequest, "Insufficient funds")
	case errors.Is(err, service.ErrAccountNotFound):
		writeMessage(w, http.StatusNotFound, "Account not found")
	case errors.Is(err, service.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrNotPending):
		writeMessage(w, http.StatusConflict, "Already processed")
	default:
		log.Error("request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
