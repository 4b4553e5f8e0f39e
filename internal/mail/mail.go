package mail

import (
	"context"
	"fmt"
	"log/slog"
)

// Sender delivers account emails through an external transport. Plaintext
// passwords never travel through here; only codes and signed token URLs do.
type Sender interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendPasswordReset(ctx context.Context, email, resetURL string) error
}

// LoggerSender is a stub transport that writes outgoing mail to the logger.
type LoggerSender struct {
	logger *slog.Logger
}

// NewLoggerSender constructs a logging mail stub.
func NewLoggerSender(logger *slog.Logger) *LoggerSender {
	return &LoggerSender{logger: logger}
}

// SendVerificationCode logs the signup verification code.
func (s *LoggerSender) SendVerificationCode(_ context.Context, email, code string) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("mail",
		"template", "verification_code",
		"to", email,
		"body", fmt.Sprintf("Your verification code is %s", code),
	)
	return nil
}

// SendPasswordReset logs the password reset link.
func (s *LoggerSender) SendPasswordReset(_ context.Context, email, resetURL string) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("mail",
		"template", "password_reset",
		"to", email,
		"body", fmt.Sprintf("Reset your password: %s", resetURL),
	)
	return nil
}
