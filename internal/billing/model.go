// Package billing creates hosted checkout sessions with the payment provider
// and processes its asynchronous webhooks. The webhook signature check is the
// trust boundary: nothing mutates before it passes, and the subscription flag
// flips exactly once per paid session.
package billing

import (
	"errors"
	"time"
)

const (
	// StatusCreated marks a checkout session awaiting provider confirmation.
	StatusCreated = "created"
	// StatusCompleted is terminal; re-delivered completion events are no-ops.
	StatusCompleted = "completed"
)

// Session links a provider checkout session to the local user who started it.
// The mapping is recorded at creation time so the webhook can resolve
// identity from the event alone, never from ambient login state.
type Session struct {
	ID          string
	UserID      int64
	Status      string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

var (
	// ErrInvalidSignature indicates the webhook signature header failed
	// verification against the raw body.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrInvalidPayload indicates the webhook body could not be parsed.
	ErrInvalidPayload = errors.New("invalid webhook payload")

	// ErrUnknownSession indicates a completion event referenced a checkout
	// session this service never created.
	ErrUnknownSession = errors.New("unknown checkout session")

	// ErrProviderUnavailable indicates the payment provider did not answer
	// within the configured timeout; the caller may retry.
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)
