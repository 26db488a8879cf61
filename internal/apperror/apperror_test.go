package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// Table-driven: each case checks that errors.Is() identifies the error kind,
// including through an fmt.Errorf %w wrapper the way the service layer
// returns them.
func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("account", "a@b.co"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("height", "invalid height"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("email", "email already in use"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthenticated wraps ErrUnauthenticated",
			err:       Unauthenticated("password is invalid"),
			target:    ErrUnauthenticated,
			wantMatch: true,
		},
		{
			name:      "wrapped Conflict still matches",
			err:       fmt.Errorf("registering: %w", Conflict("username", "username already in use")),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("account", "a@b.co"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Unauthenticated does NOT match ErrNotFound",
			err:       Unauthenticated("email does not exist"),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and key",
			err:         NotFound("account", "a@b.co"),
			wantMessage: "account not found with key a@b.co",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("gender", "invalid gender"),
			wantMessage: "invalid gender",
		},
		{
			name:        "Conflict uses custom message",
			err:         Conflict("email", "email already in use"),
			wantMessage: "email already in use",
		},
		{
			name:        "Unauthenticated uses custom message",
			err:         Unauthenticated("Invalid or expired token."),
			wantMessage: "Invalid or expired token.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestErrorsAs_ExtractsMessageThroughWrapping(t *testing.T) {
	err := fmt.Errorf("service/register: %w", ValidationFailed("weight", "invalid weight"))

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("errors.As() did not find *AppError in the chain")
	}
	if appErr.Message != "invalid weight" {
		t.Errorf("Message = %q, want %q", appErr.Message, "invalid weight")
	}
	if appErr.Field != "weight" {
		t.Errorf("Field = %q, want %q", appErr.Field, "weight")
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("account", "a@b.co")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}
