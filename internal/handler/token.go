package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/gym-tracker/internal/model"
)

type TokenResponse struct {
	Token string `json:"token"`
}

// HandleGenerateToken exchanges email + password for a bearer token.
//
// HTTP: GET or POST /token/generate
// REQUEST BODY: {"email": "...", "password": "..."}
// RESPONSE: {"token": "<jwt>"}
//
// GET with a body is kept because existing clients call it that way.
func (h *AccountHandler) HandleGenerateToken(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		h.logger.Warn("invalid credentials JSON", slog.String("error", err.Error()))
		writeText(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	token, err := h.accounts.IssueToken(r.Context(), creds)
	if err != nil {
		writeError(w, h.logger, err, msgTokenFailed)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}
