package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const stripeAPIBase = "https://api.stripe.com/v1"

// CheckoutInput carries the parameters for a hosted checkout session.
type CheckoutInput struct {
	PriceID    string
	SuccessURL string
	CancelURL  string
	// Reference travels to the provider as the client reference and comes
	// back in webhook payloads for reconciliation.
	Reference string
}

// CheckoutProvider connects to an external payment processor that hosts the
// checkout page and reports completion asynchronously.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, input CheckoutInput) (string, error)
}

// StripeProvider creates checkout sessions through the Stripe REST API.
type StripeProvider struct {
	apiKey string
	client *http.Client
}

// NewStripeProvider constructs a Stripe-backed checkout provider. Request
// deadlines come from the caller's context, not the HTTP client.
func NewStripeProvider(apiKey string) *StripeProvider {
	return &StripeProvider{apiKey: apiKey, client: &http.Client{}}
}

// CreateSession opens a hosted checkout session and returns its provider id.
func (p *StripeProvider) CreateSession(ctx context.Context, input CheckoutInput) (string, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][price]", input.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", input.SuccessURL)
	form.Set("cancel_url", input.CancelURL)
	form.Set("client_reference_id", input.Reference)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		stripeAPIBase+"/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", ErrProviderUnavailable
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return "", ErrProviderUnavailable
		}
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read checkout response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("create checkout session: provider returned %d", resp.StatusCode)
	}

	var session struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		return "", fmt.Errorf("decode checkout response: %w", err)
	}
	if session.ID == "" {
		return "", fmt.Errorf("checkout response missing session id")
	}

	return session.ID, nil
}

// StaticProvider simulates the processor for development and tests.
type StaticProvider struct{}

// CreateSession returns a synthetic checkout session id.
func (StaticProvider) CreateSession(_ context.Context, _ CheckoutInput) (string, error) {
	return "cs_test_" + uuid.NewString(), nil
}
