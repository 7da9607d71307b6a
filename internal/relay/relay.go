// Package relay forwards contact-form submissions: it verifies a CAPTCHA
// token with the verification service, then hands the message to the
// transactional email API. Both collaborators sit behind interfaces so the
// handler can be tested without the network.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Sentinel errors the HTTP layer maps to status codes.
var (
	ErrInvalidInput       = errors.New("invalid contact submission")
	ErrVerificationFailed = errors.New("captcha verification failed")
)

// Message is one contact-form submission.
type Message struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Body         string `json:"message"`
	CaptchaToken string `json:"captcha_token"`
}

// CaptchaVerifier checks a CAPTCHA token for one remote client.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// EmailSender forwards a verified message.
type EmailSender interface {
	Send(ctx context.Context, msg Message) error
}

// Relay glues the verifier and sender behind one Forward call.
type Relay struct {
	verifier CaptchaVerifier
	sender   EmailSender
	logger   *zap.Logger
}

// New constructs a Relay.
func New(verifier CaptchaVerifier, sender EmailSender, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{verifier: verifier, sender: sender, logger: logger}
}

// Forward validates the message, verifies the token, and sends the email.
// Returned errors wrap ErrInvalidInput or ErrVerificationFailed when the
// client is at fault; anything else is an upstream failure.
func (r *Relay) Forward(ctx context.Context, msg Message, remoteIP string) error {
	if strings.TrimSpace(msg.Name) == "" ||
		strings.TrimSpace(msg.Email) == "" ||
		strings.TrimSpace(msg.Body) == "" ||
		msg.CaptchaToken == "" {
		return fmt.Errorf("%w: name, email, message, and captcha_token are required", ErrInvalidInput)
	}
	if !strings.Contains(msg.Email, "@") {
		return fmt.Errorf("%w: email address is malformed", ErrInvalidInput)
	}

	ok, err := r.verifier.Verify(ctx, msg.CaptchaToken, remoteIP)
	if err != nil {
		return fmt.Errorf("verify captcha: %w", err)
	}
	if !ok {
		return ErrVerificationFailed
	}

	if err := r.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send contact email: %w", err)
	}
	r.logger.Info("contact message forwarded", zap.String("from", msg.Email))
	return nil
}
