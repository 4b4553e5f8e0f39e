package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nasa-pay/nasa_pay/internal/config"
	"github.com/nasa-pay/nasa_pay/internal/user"
)

// Service creates checkout sessions and applies confirmed payments to the
// user's subscription flag.
type Service struct {
	cfg      config.Config
	sessions SessionRepository
	users    user.Repository
	provider CheckoutProvider
	verifier *WebhookVerifier
	logger   *slog.Logger
}

// NewService wires the billing service.
func NewService(cfg config.Config, sessions SessionRepository, users user.Repository, provider CheckoutProvider, verifier *WebhookVerifier, logger *slog.Logger) *Service {
	return &Service{cfg: cfg, sessions: sessions, users: users, provider: provider, verifier: verifier, logger: logger}
}

// CheckoutResult is returned to the client that starts a checkout.
type CheckoutResult struct {
	SessionID string `json:"checkout_session_id"`
	PublicKey string `json:"checkout_public_key"`
}

// CreateCheckout opens a provider checkout session for the user and records
// the session to user mapping. It never touches the subscription flag; that
// happens only when the webhook confirms payment.
func (s *Service) CreateCheckout(ctx context.Context, userID int64) (CheckoutResult, error) {
	account, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return CheckoutResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.CheckoutTimeout)
	defer cancel()

	base := strings.TrimRight(s.cfg.BaseURL, "/")
	sessionID, err := s.provider.CreateSession(ctx, CheckoutInput{
		PriceID:    s.cfg.StripePriceID,
		SuccessURL: base + "/thanks?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  base + "/",
		Reference:  fmt.Sprintf("user-%d", account.ID),
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	session := Session{ID: sessionID, UserID: account.ID, Status: StatusCreated, CreatedAt: time.Now().UTC()}
	if err := s.sessions.Create(ctx, session); err != nil {
		return CheckoutResult{}, err
	}

	s.logger.Info("checkout session created", "session_id", sessionID, "user_id", account.ID)

	return CheckoutResult{SessionID: sessionID, PublicKey: s.cfg.StripePublicKey}, nil
}

// HandleWebhook authenticates and applies one webhook delivery. Events other
// than checkout completion are acknowledged without any state change, and a
// replayed completion converges on the same end state as the first delivery.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	if len(payload) > MaxWebhookBody {
		return ErrInvalidPayload
	}

	if err := s.verifier.Verify(payload, signatureHeader); err != nil {
		// Log enough to audit but never echo the signature back out.
		s.logger.Warn("webhook signature rejected", "payload_bytes", len(payload))
		return err
	}

	event, err := ParseEvent(payload)
	if err != nil {
		return err
	}

	if event.Type != EventTypeCheckoutCompleted {
		s.logger.Debug("webhook event ignored", "event_type", event.Type)
		return nil
	}

	sessionID := event.Data.Object.ID
	if sessionID == "" {
		return ErrInvalidPayload
	}

	userID, already, err := s.sessions.Complete(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrUnknownSession) {
			// Retries cannot fix an unknown session; acknowledge and move on.
			s.logger.Warn("webhook for unknown checkout session", "session_id", sessionID)
			return nil
		}
		return err
	}

	// Applied on replays too: if an earlier delivery completed the session
	// but crashed before this write, the retry still converges.
	if err := s.users.SetSubscribed(ctx, userID, true); err != nil {
		return err
	}

	if already {
		s.logger.Info("webhook replay ignored", "session_id", sessionID, "user_id", userID)
		return nil
	}

	s.logger.Info("subscription activated", "session_id", sessionID, "user_id", userID, "event_id", event.ID)
	return nil
}
