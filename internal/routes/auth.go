package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nasa-pay/nasa_pay/internal/auth"
)

// RegisterAuthRoutes wires signup, verification, login and password reset.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/signup", h.Signup)
	group.Post("/verify", h.Verify)
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/password-reset", h.ResetRequest)
	group.Post("/password-reset/confirm", h.ResetConfirm)
}
