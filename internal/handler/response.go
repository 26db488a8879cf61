package handler

// RESPONSE HELPERS:
// Errors go out as plain text (the client shows the body as-is); data goes
// out as JSON.
//
//	writeJSON(w, http.StatusOK, data)
//	writeText(w, http.StatusBadRequest, "invalid email")
//	writeError(w, h.logger, err, "error registering user")

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/gym-tracker/internal/apperror"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

const msgInvalidBody = "invalid request body"

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be written BEFORE the body: once Encode writes,
// the headers are gone and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent, so all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeText sends msg as a plain-text body. Unlike http.Error it does not
// append a newline, so the body is exactly msg.
func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}

// writeError maps err to a status code and sends it as text.
//
//	ErrValidation, ErrConflict, ErrUnauthenticated → 400 with the AppError message
//	ErrNotFound                                    → 404 with the AppError message
//	anything else                                  → 500 with fallback
//
// Internal errors are logged in full but never shown to the client: the raw
// message can carry SQL, file paths or addresses.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error, fallback string) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrValidation),
			errors.Is(err, apperror.ErrConflict),
			errors.Is(err, apperror.ErrUnauthenticated):
			writeText(w, http.StatusBadRequest, appErr.Message)
			return
		case errors.Is(err, apperror.ErrNotFound):
			writeText(w, http.StatusNotFound, appErr.Message)
			return
		}
	}

	logger.Error(fallback, slog.String("error", err.Error()))
	writeText(w, http.StatusInternalServerError, fallback)
}

// decodeJSON reads a single JSON value from the request body into dst.
// Callers answer any error with 400 msgInvalidBody.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
