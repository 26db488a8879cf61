package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/gym-tracker/internal/model"
	"github.com/sakif/gym-tracker/internal/service"
)

// 500 messages, one per endpoint.
const (
	msgRegisterFailed       = "error registering user"
	msgVerifyFailed         = "error verifying user"
	msgNotUpdated           = "User data not updated."
	msgResendFailed         = "error sending verification email"
	msgTokenFailed          = "error generating token"
	msgEmailLookupFailed    = "error querying existing emails"
	msgUsernameLookupFailed = "error querying existing usernames"
)

// AccountService is what the handlers need from the service layer.
// *service.AccountService implements it.
type AccountService interface {
	Register(ctx context.Context, form *model.RegistrationForm) error
	Verify(ctx context.Context, token string) (string, error)
	ResendVerification(ctx context.Context, email string) error
	IssueToken(ctx context.Context, creds model.Credentials) (string, error)
	EmailInUse(ctx context.Context, email string) (bool, error)
	UsernameInUse(ctx context.Context, username string) (bool, error)
}

// AccountHandler serves registration, verification, lookups and token
// issuance. It only speaks HTTP: every rule lives in the service.
type AccountHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

func NewAccountHandler(accounts AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// InUseResponse is the body of the uniqueness lookups.
type InUseResponse struct {
	InUse bool `json:"in_use"`
}

// HandleRegister creates an account.
//
// HTTP: POST /register/new
// REQUEST BODY: {"email": "...", "password": "...", "username": "...", ...}
// RESPONSE: 200 with an empty body.
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var form model.RegistrationForm
	if err := decodeJSON(w, r, &form); err != nil {
		h.logger.Warn("invalid registration JSON", slog.String("error", err.Error()))
		writeText(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := h.accounts.Register(r.Context(), &form); err != nil {
		writeError(w, h.logger, err, msgRegisterFailed)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleVerify consumes the emailed verification link.
//
// HTTP: GET /register/verify?token=...
// RESPONSE: 200 "Email <email> verified successfully!"
func (h *AccountHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	email, err := h.accounts.Verify(r.Context(), token)
	if err != nil {
		fallback := msgVerifyFailed
		if errors.Is(err, service.ErrNotUpdated) {
			fallback = msgNotUpdated
		}
		writeError(w, h.logger, err, fallback)
		return
	}

	writeText(w, http.StatusOK, fmt.Sprintf("Email %s verified successfully!", email))
}

// HandleResend mails a new verification link.
//
// HTTP: POST /register/verify/resend
// REQUEST BODY: {"email": "..."}
func (h *AccountHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	var req model.ResendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid resend JSON", slog.String("error", err.Error()))
		writeText(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := h.accounts.ResendVerification(r.Context(), req.Email); err != nil {
		writeError(w, h.logger, err, msgResendFailed)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleEmailInUse answers GET /register/email_in_use?email=...
// A missing parameter is a 500, matching the existing client contract.
func (h *AccountHandler) HandleEmailInUse(w http.ResponseWriter, r *http.Request) {
	inUse, err := h.accounts.EmailInUse(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, h.logger, err, msgEmailLookupFailed)
		return
	}
	writeJSON(w, http.StatusOK, InUseResponse{InUse: inUse})
}

// HandleUsernameInUse answers GET /register/username_in_use?username=...
func (h *AccountHandler) HandleUsernameInUse(w http.ResponseWriter, r *http.Request) {
	inUse, err := h.accounts.UsernameInUse(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		writeError(w, h.logger, err, msgUsernameLookupFailed)
		return
	}
	writeJSON(w, http.StatusOK, InUseResponse{InUse: inUse})
}
