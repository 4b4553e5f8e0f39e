package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nasa-pay/nasa_pay/internal/billing"
)

// RegisterBillingRoutes wires the login-gated checkout creation endpoint.
func RegisterBillingRoutes(r fiber.Router, h *billing.Handler, idempotency fiber.Handler) {
	if idempotency != nil {
		r.Post("/billing/checkout", idempotency, h.CreateCheckout)
	} else {
		r.Post("/billing/checkout", h.CreateCheckout)
	}
}

// RegisterWebhookRoute wires the provider webhook endpoint. It stays outside
// the auth guard: the signature check inside the handler is its trust
// boundary.
func RegisterWebhookRoute(r fiber.Router, h *billing.Handler) {
	r.Post("/billing/webhook", h.Webhook)
}
