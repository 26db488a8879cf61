// Package mail delivers outbound email off the request path.
//
// Handlers never talk to a mail transport directly. They hand a Message to
// the Dispatcher, which queues it and returns at once; a small pool of
// workers drains the queue through a Sender (SES in production, the log in
// development).
package mail

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a single message. Implementations must honour ctx.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

const (
	VerificationSubject = "Email Verification: Gym Tracker"
	verificationPath    = "/register/verify"
)

// VerificationLink builds the link the user clicks to verify their email:
// <baseURL>/register/verify?token=<token>.
func VerificationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + verificationPath + "?token=" + url.QueryEscape(token)
}

// VerificationMessage is the email sent after registration and on resend.
func VerificationMessage(to, link string) Message {
	return Message{
		To:      to,
		Subject: VerificationSubject,
		Body:    fmt.Sprintf("Please verify your email by clicking on the link: %s", link),
	}
}
