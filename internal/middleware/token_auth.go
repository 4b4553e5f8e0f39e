package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nasa-pay/nasa_pay/internal/auth"
)

// TokenAuth validates bearer session tokens and stores the caller's user id
// in request locals.
func TokenAuth(tokens *auth.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}

		userID, err := tokens.Verify(strings.TrimSpace(authz[len("Bearer "):]), auth.ScopeSession)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}
