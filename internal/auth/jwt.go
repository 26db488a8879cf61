// Package auth provides the two credential primitives of the service: signed
// tokens (JWT) and password hashes (bcrypt).
//
// TOKEN FLOW OVERVIEW:
//  1. Registration signs a short-lived verification token carrying the new
//     account's email and mails a link containing it.
//  2. GET /register/verify validates the token and marks the account verified.
//  3. GET /token/generate checks email + password and signs a bearer token
//     carrying the same email claim.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"email":"a@b.co","aud":["verify"],"exp":1234567890,...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The audience claim separates the two token kinds: a bearer token obtained
// with a password cannot be replayed against the verification endpoint, and
// a verification link cannot be used as a bearer token.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "gym-tracker"

// Token lifetimes.
const (
	VerificationTTL = 15 * time.Minute
	AccessTTL       = 30 * time.Minute
)

// Purpose is stored in the "aud" claim and checked on validation.
type Purpose string

const (
	PurposeVerify Purpose = "verify"
	PurposeAccess Purpose = "access"
)

var (
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret used to sign and verify tokens. The same secret
// must be used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// Example: SECRET_KEY=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: token secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload: the registered claims plus the account email.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Generate signs a token for email that expires after ttl.
//
// A ttl of zero or less produces a token that is already expired; tests use
// that to exercise the expiry path.
func (s *TokenService) Generate(email string, purpose Purpose, ttl time.Duration) (string, error) {
	if email == "" {
		return "", errors.New("auth: email claim must not be empty")
	}

	now := time.Now()
	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{string(purpose)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token and returns its email claim.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid and the algorithm is HS256
//   - Token is not expired (exp is required)
//   - Issuer is "gym-tracker"
//   - Audience contains the expected purpose
//
// Every failure wraps ErrTokenInvalid, and expiry additionally wraps
// ErrTokenExpired, so callers can tell the two apart with errors.Is.
func (s *TokenService) Validate(tokenStr string, purpose Purpose) (string, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return "", fmt.Errorf("%w: empty token", ErrTokenInvalid)
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(string(purpose)),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: %w", ErrTokenInvalid, ErrTokenExpired)
		}
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: unexpected claims", ErrTokenInvalid)
	}
	if c.Email == "" {
		return "", fmt.Errorf("%w: token has no email claim", ErrTokenInvalid)
	}

	return c.Email, nil
}
