package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nasa-pay/nasa_pay/internal/config"
	"github.com/nasa-pay/nasa_pay/internal/mail"
	"github.com/nasa-pay/nasa_pay/internal/user"
	"github.com/nasa-pay/nasa_pay/internal/verification"
)

const minPasswordLength = 8

var (
	// ErrInvalidCredentials is deliberately the same for unknown emails and
	// wrong passwords so login responses cannot be used to enumerate
	// accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrPasswordMismatch indicates password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrWeakPassword indicates the password is below the minimum length.
	ErrWeakPassword = fmt.Errorf("password must be at least %d characters", minPasswordLength)

	// ErrInvalidInput indicates a missing or malformed field.
	ErrInvalidInput = errors.New("name, email and password are required")
)

// Service manages the account lifecycle: signup with email verification,
// login, and the signed-token password reset flow.
type Service struct {
	cfg    config.Config
	users  user.Repository
	tokens *TokenService
	codes  *verification.Flow
	mailer mail.Sender
	logger *slog.Logger
}

// NewService wires the auth service.
func NewService(cfg config.Config, users user.Repository, tokens *TokenService, codes *verification.Flow, mailer mail.Sender, logger *slog.Logger) *Service {
	return &Service{cfg: cfg, users: users, tokens: tokens, codes: codes, mailer: mailer, logger: logger}
}

// SignupInput captures the data submitted at registration.
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

// Register creates the account and issues a verification code to the new
// address. The repository's unique constraint decides duplicate emails, not a
// lookup here.
func (s *Service) Register(ctx context.Context, input SignupInput) (user.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)

	if input.Name == "" || input.Email == "" || !strings.Contains(input.Email, "@") {
		return user.User{}, ErrInvalidInput
	}
	if input.Password != input.PasswordConfirm {
		return user.User{}, ErrPasswordMismatch
	}
	if len(input.Password) < minPasswordLength {
		return user.User{}, ErrWeakPassword
	}

	digest, err := HashPassword(input.Password)
	if err != nil {
		return user.User{}, err
	}

	created, err := s.users.Create(ctx, input.Name, input.Email, digest)
	if err != nil {
		return user.User{}, err
	}

	code, err := s.codes.Issue(ctx, created.Email)
	if err != nil {
		return user.User{}, err
	}
	if err := s.mailer.SendVerificationCode(ctx, created.Email, code); err != nil {
		s.logger.Error("send verification code", "email", created.Email, "error", err)
	}

	return created, nil
}

// VerifyEmail checks the single-use code issued at signup.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	return s.codes.Check(ctx, strings.TrimSpace(email), code)
}

// Session is an issued session token plus its lifetime in seconds.
type Session struct {
	UserID      int64  `json:"user_id"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	account, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	if !VerifyPassword(password, account.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.ID, ScopeSession, s.cfg.SessionTTL)
	if err != nil {
		return Session{}, err
	}

	return Session{
		UserID:      account.ID,
		AccessToken: token,
		ExpiresIn:   int64(s.cfg.SessionTTL.Seconds()),
	}, nil
}

// RequestPasswordReset mails a signed reset link to the account if it exists.
// It reports success either way so the endpoint cannot confirm which emails
// are registered.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		return err
	}

	token, err := s.tokens.Issue(account.ID, ScopePasswordReset, s.cfg.ResetTokenTTL)
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(s.cfg.BaseURL, "/"), token)
	if err := s.mailer.SendPasswordReset(ctx, account.Email, resetURL); err != nil {
		s.logger.Error("send password reset", "email", account.Email, "error", err)
		return err
	}

	return nil
}

// ResetPassword verifies the reset token and replaces the stored credential.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	userID, err := s.tokens.Verify(token, ScopePasswordReset)
	if err != nil {
		return err
	}

	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}

	digest, err := HashPassword(password)
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(ctx, userID, digest)
}
