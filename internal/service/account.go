// Package service holds the business rules of the account service.
//
//	Handler (HTTP) → AccountService (rules) → AccountRepository (DB)
//	               ↘ TokenService (JWT), PasswordService (bcrypt)
//	               ↘ MailDispatcher (async email)
//
// Client mistakes come back as *apperror.AppError with the exact message the
// client sees. Everything else is an infrastructure failure, wrapped with
// context, which the handler turns into a generic 500.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/gym-tracker/internal/apperror"
	"github.com/sakif/gym-tracker/internal/auth"
	"github.com/sakif/gym-tracker/internal/mail"
	"github.com/sakif/gym-tracker/internal/model"
	"github.com/sakif/gym-tracker/internal/repository"
)

// Client-facing messages outside registration validation.
const (
	MsgInvalidToken     = "Invalid or expired token."
	MsgEmailNotFound    = "Email not found."
	MsgAlreadyVerified  = "email already verified"
	MsgUnknownEmail     = "email does not exist"
	MsgWrongPassword    = "password is invalid"
	MsgEmailNotVerified = "email is not verified"
)

// ErrNotUpdated marks a failure to persist the verified flag. The handler
// reports it with its own 500 message.
var ErrNotUpdated = errors.New("service: account not updated")

// MailDispatcher queues a message for asynchronous delivery and returns its
// job id. *mail.Dispatcher implements it.
type MailDispatcher interface {
	Dispatch(msg mail.Message) string
}

// Options are the policy knobs of AccountService.
type Options struct {
	// PublicURL is the externally reachable base URL used in emailed links.
	PublicURL string
	// SendEmailDefault applies when a registration omits send_email.
	SendEmailDefault bool
	// RequireVerifiedLogin refuses tokens to unverified accounts.
	RequireVerifiedLogin bool
}

type AccountService struct {
	accounts  repository.AccountRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	mailer    MailDispatcher
	opts      Options
	logger    *slog.Logger
}

func NewAccountService(
	accounts repository.AccountRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	mailer MailDispatcher,
	opts Options,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		accounts:  accounts,
		tokens:    tokens,
		passwords: passwords,
		mailer:    mailer,
		opts:      opts,
		logger:    logger,
	}
}

// Register validates form, stores a new unverified account and, unless the
// caller opted out, queues the verification email.
//
// The existence checks give the friendly error in the common case; the
// store's unique indexes catch the concurrent case and return the same
// apperror.Conflict.
func (s *AccountService) Register(ctx context.Context, form *model.RegistrationForm) error {
	if err := validateRegistration(form); err != nil {
		return err
	}

	email := *form.Email
	username := *form.Username

	taken, err := s.accounts.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("service/account: checking email: %w", err)
	}
	if taken {
		return apperror.Conflict("email", repository.MsgEmailInUse)
	}

	taken, err = s.accounts.UsernameExists(ctx, username)
	if err != nil {
		return fmt.Errorf("service/account: checking username: %w", err)
	}
	if taken {
		return apperror.Conflict("username", repository.MsgUsernameInUse)
	}

	hash, err := s.passwords.Hash(*form.Password)
	if err != nil {
		return fmt.Errorf("service/account: hashing password: %w", err)
	}

	account := &model.Account{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		FirstName:    *form.FirstName,
		LastName:     *form.LastName,
		Gender:       model.Gender(*form.Gender),
		Height:       *form.Height,
		Weight:       *form.Weight,
		GoalStatus:   model.GoalStatus(*form.GoalStatus),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return fmt.Errorf("service/account: creating account %s: %w", email, err)
	}

	s.logger.Info("account registered",
		slog.String("accountID", account.ID),
		slog.String("username", account.Username),
	)

	sendEmail := s.opts.SendEmailDefault
	if form.SendEmail != nil {
		sendEmail = *form.SendEmail
	}
	if sendEmail {
		// The account exists now; a mail problem must not fail the request.
		if err := s.sendVerification(account.Email); err != nil {
			s.logger.Error("verification email not queued",
				slog.String("accountID", account.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// Verify validates a verification token and marks its account verified.
// It returns the email the token was issued for. Verifying an account that
// is already verified succeeds without touching the store.
func (s *AccountService) Verify(ctx context.Context, token string) (string, error) {
	email, err := s.tokens.Validate(token, auth.PurposeVerify)
	if err != nil {
		return "", apperror.Unauthenticated(MsgInvalidToken)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return "", apperror.ValidationFailed("email", MsgEmailNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("service/account: looking up %s: %w", email, err)
	}

	if account.IsVerified {
		s.logger.Debug("account already verified", slog.String("accountID", account.ID))
		return email, nil
	}

	if _, err := s.accounts.MarkVerified(ctx, email); err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotUpdated, err)
	}

	s.logger.Info("account verified", slog.String("accountID", account.ID))
	return email, nil
}

// ResendVerification queues a fresh verification email for an account that
// has not been verified yet.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	if !validEmail(email) {
		return apperror.ValidationFailed("email", MsgInvalidEmail)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.ValidationFailed("email", MsgEmailNotFound)
	}
	if err != nil {
		return fmt.Errorf("service/account: looking up %s: %w", email, err)
	}
	if account.IsVerified {
		return apperror.ValidationFailed("email", MsgAlreadyVerified)
	}

	if err := s.sendVerification(account.Email); err != nil {
		return fmt.Errorf("service/account: resending verification: %w", err)
	}
	return nil
}

// IssueToken checks creds and returns a signed access token whose email
// claim is the submitted email.
func (s *AccountService) IssueToken(ctx context.Context, creds model.Credentials) (string, error) {
	account, err := s.accounts.GetByEmail(ctx, creds.Email)
	if errors.Is(err, apperror.ErrNotFound) {
		return "", apperror.Unauthenticated(MsgUnknownEmail)
	}
	if err != nil {
		return "", fmt.Errorf("service/account: looking up %s: %w", creds.Email, err)
	}

	if err := s.passwords.Verify(account.PasswordHash, creds.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return "", apperror.Unauthenticated(MsgWrongPassword)
		}
		return "", fmt.Errorf("service/account: checking password for %s: %w", account.ID, err)
	}

	if s.opts.RequireVerifiedLogin && !account.IsVerified {
		return "", apperror.Unauthenticated(MsgEmailNotVerified)
	}

	token, err := s.tokens.Generate(creds.Email, auth.PurposeAccess, auth.AccessTTL)
	if err != nil {
		return "", fmt.Errorf("service/account: generating token for %s: %w", account.ID, err)
	}

	s.logger.Info("token issued", slog.String("accountID", account.ID))
	return token, nil
}

// EmailInUse reports whether an account with email exists. An empty email
// is an error, not a "false".
func (s *AccountService) EmailInUse(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, errors.New("service/account: email must not be empty")
	}
	inUse, err := s.accounts.EmailExists(ctx, email)
	if err != nil {
		return false, fmt.Errorf("service/account: checking email: %w", err)
	}
	return inUse, nil
}

func (s *AccountService) UsernameInUse(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, errors.New("service/account: username must not be empty")
	}
	inUse, err := s.accounts.UsernameExists(ctx, username)
	if err != nil {
		return false, fmt.Errorf("service/account: checking username: %w", err)
	}
	return inUse, nil
}

func (s *AccountService) sendVerification(email string) error {
	token, err := s.tokens.Generate(email, auth.PurposeVerify, auth.VerificationTTL)
	if err != nil {
		return fmt.Errorf("signing verification token: %w", err)
	}

	link := mail.VerificationLink(s.opts.PublicURL, token)
	jobID := s.mailer.Dispatch(mail.VerificationMessage(email, link))

	s.logger.Debug("verification email queued", slog.String("jobID", jobID))
	return nil
}
