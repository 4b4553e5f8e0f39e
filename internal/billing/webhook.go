package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const (
	// SignatureHeader carries the provider's webhook signature.
	SignatureHeader = "Stripe-Signature"

	// MaxWebhookBody caps accepted webhook payloads; anything larger is
	// rejected before signature verification even starts.
	MaxWebhookBody = 1 << 20

	defaultTolerance = 5 * time.Minute
)

// EventTypeCheckoutCompleted is the only event type that mutates state.
const EventTypeCheckoutCompleted = "checkout.session.completed"

// Event is the subset of the provider's webhook payload this service reads.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// WebhookVerifier authenticates webhook payloads against the shared signing
// secret. The header format is "t=<unix>,v1=<hex hmac>" where the MAC covers
// "<t>.<raw body>"; multiple v1 entries may appear during secret rotation.
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewWebhookVerifier builds a verifier around the provider signing secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret), tolerance: defaultTolerance, now: time.Now}
}

// Verify checks the signature header against the raw body. It performs no
// blocking work and returns ErrInvalidSignature on any failure.
func (v *WebhookVerifier) Verify(payload []byte, header string) error {
	timestamp, signatures := parseSignatureHeader(header)
	if timestamp == 0 || len(signatures) == 0 {
		return ErrInvalidSignature
	}

	age := v.now().Sub(time.Unix(timestamp, 0))
	if age > v.tolerance || age < -v.tolerance {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(sig, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// ParseEvent decodes the raw webhook body. Malformed JSON or a missing event
// type yields ErrInvalidPayload.
func ParseEvent(payload []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, ErrInvalidPayload
	}
	if event.Type == "" {
		return Event{}, ErrInvalidPayload
	}
	return event, nil
}

func parseSignatureHeader(header string) (int64, [][]byte) {
	var (
		timestamp  int64
		signatures [][]byte
	)
	for _, pair := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}
	return timestamp, signatures
}
