package billing

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the checkout and webhook endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a billing handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateCheckout starts a hosted checkout for the authenticated user.
func (h *Handler) CreateCheckout(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(int64)
	if userID == 0 {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	result, err := h.service.CreateCheckout(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, ErrProviderUnavailable) {
			return fiber.NewError(http.StatusServiceUnavailable, "payment provider unavailable, try again")
		}
		return fiber.NewError(http.StatusInternalServerError, "checkout failed")
	}

	return c.Status(http.StatusCreated).JSON(result)
}

// Webhook receives provider notifications. Responses are always empty: 200
// for accepted or ignored events, 400 for oversized bodies, bad signatures
// and malformed payloads. Internals never leak into the response.
func (h *Handler) Webhook(c *fiber.Ctx) error {
	payload := c.Body()
	if len(payload) > MaxWebhookBody {
		return c.SendStatus(http.StatusBadRequest)
	}

	err := h.service.HandleWebhook(c.UserContext(), payload, c.Get(SignatureHeader))
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) || errors.Is(err, ErrInvalidPayload) {
			return c.SendStatus(http.StatusBadRequest)
		}
		return c.SendStatus(http.StatusInternalServerError)
	}

	return c.SendStatus(http.StatusOK)
}
