package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/nasa-pay/nasa_pay/internal/user"
	"github.com/nasa-pay/nasa_pay/internal/verification"
)

// Handler exposes signup, verification, login and password reset endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs an auth handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type signupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// Signup registers an account and triggers the verification email.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	created, err := h.svc.Register(c.UserContext(), SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrPasswordMismatch), errors.Is(err, ErrWeakPassword):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, "signup failed")
		}
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"user_id": created.ID,
		"email":   created.Email,
		"status":  "verification_pending",
	})
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Verify checks the single-use signup code.
func (h *Handler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.VerifyEmail(c.UserContext(), req.Email, req.Code); err != nil {
		if errors.Is(err, verification.ErrCodeMismatch) {
			return fiber.NewError(http.StatusBadRequest, "invalid or expired verification code")
		}
		return fiber.NewError(http.StatusInternalServerError, "verification failed")
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "verified"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login validates credentials and returns a session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	session, err := h.svc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, ErrInvalidCredentials.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, "login failed")
	}

	return c.Status(http.StatusOK).JSON(session)
}

type resetRequest struct {
	Email string `json:"email"`
}

// ResetRequest mails a reset link. It answers 202 whether or not the email is
// registered.
func (h *Handler) ResetRequest(c *fiber.Ctx) error {
	var req resetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return fiber.NewError(http.StatusInternalServerError, "reset request failed")
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{"status": "reset_email_sent"})
}

type resetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetConfirm verifies the signed token and stores the new credential.
func (h *Handler) ResetConfirm(c *fiber.Ctx) error {
	var req resetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			return fiber.NewError(http.StatusBadRequest, "reset token expired")
		case errors.Is(err, ErrInvalidToken):
			return fiber.NewError(http.StatusBadRequest, "invalid reset token")
		case errors.Is(err, ErrWeakPassword):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, "password reset failed")
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "password_updated"})
}
