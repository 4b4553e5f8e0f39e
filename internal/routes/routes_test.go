package routes

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/nasa-pay/nasa_pay/internal/config"
	"github.com/nasa-pay/nasa_pay/internal/logging"
)

const webhookSecret = "whsec_routes_test"

type recordingMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *recordingMailer) SendVerificationCode(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	return nil
}

func (m *recordingMailer) SendPasswordReset(context.Context, string, string) error {
	return nil
}

func setupApp(t *testing.T) (*fiber.App, *recordingMailer) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})

	cfg := config.Config{
		AppName:             "NasaPay",
		AppEnv:              "development",
		BaseURL:             "http://localhost:8080",
		TokenSecret:         "routes-test-secret",
		SessionTTL:          time.Hour,
		ResetTokenTTL:       30 * time.Minute,
		VerifyCodeTTL:       15 * time.Minute,
		LoginPerMinute:      100,
		IdempotencyTTL:      time.Minute,
		CheckoutTimeout:     2 * time.Second,
		StripePublicKey:     "pk_test_routes",
		StripeWebhookSecret: webhookSecret,
	}

	mailer := &recordingMailer{codes: make(map[string]string)}
	app := fiber.New(fiber.Config{AppName: cfg.AppName})
	if err := Setup(app, Deps{Cfg: cfg, Cache: cache, Logger: logging.Discard(), Mailer: mailer}); err != nil {
		t.Fatalf("setup routes: %v", err)
	}

	return app, mailer
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	resp.Body.Close()

	decoded := map[string]any{}
	if len(payload) > 0 {
		_ = json.Unmarshal(payload, &decoded)
	}
	return resp, decoded
}

func signWebhook(payload []byte) string {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestSignupToSubscriptionScenario(t *testing.T) {
	app, mailer := setupApp(t)

	// Signup issues a verification code out of band.
	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/auth/signup", fiber.Map{
		"name":             "Ada",
		"email":            "ada@x.com",
		"password":         "p1-long-enough",
		"password_confirm": "p1-long-enough",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: expected 201 got %d", resp.StatusCode)
	}

	code, ok := mailer.codes["ada@x.com"]
	if !ok {
		t.Fatalf("expected verification code mail")
	}

	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/auth/verify", fiber.Map{
		"email": "ada@x.com",
		"code":  code,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify: expected 200 got %d", resp.StatusCode)
	}

	// Login issues a session token.
	resp, body := doJSON(t, app, fiber.MethodPost, "/api/v1/auth/login", fiber.Map{
		"email":    "ada@x.com",
		"password": "p1-long-enough",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200 got %d", resp.StatusCode)
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatalf("login: missing access token")
	}
	authz := map[string]string{fiber.HeaderAuthorization: "Bearer " + token}

	// Fresh accounts are not subscribed.
	resp, body = doJSON(t, app, fiber.MethodGet, "/api/v1/me", nil, authz)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: expected 200 got %d", resp.StatusCode)
	}
	if subscribed, _ := body["subscribed"].(bool); subscribed {
		t.Fatalf("expected subscribed=false before payment")
	}

	// Checkout requires authentication.
	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/billing/checkout", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated checkout: expected 401 got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, app, fiber.MethodPost, "/api/v1/billing/checkout", nil, authz)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout: expected 201 got %d", resp.StatusCode)
	}
	sessionID, _ := body["checkout_session_id"].(string)
	if sessionID == "" {
		t.Fatalf("checkout: missing session id")
	}
	if pk, _ := body["checkout_public_key"].(string); pk != "pk_test_routes" {
		t.Fatalf("checkout: unexpected public key %q", pk)
	}

	event := []byte(fmt.Sprintf(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"%s"}}}`, sessionID))

	// A tampered signature is rejected and changes nothing.
	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/billing/webhook", bytes.NewReader(event))
	req.Header.Set("Stripe-Signature", signWebhook([]byte(`{"tampered":true}`)))
	tamperedResp, err := app.Test(req)
	if err != nil {
		t.Fatalf("tampered webhook: %v", err)
	}
	if tamperedResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("tampered webhook: expected 400 got %d", tamperedResp.StatusCode)
	}
	resp, body = doJSON(t, app, fiber.MethodGet, "/api/v1/me", nil, authz)
	if subscribed, _ := body["subscribed"].(bool); subscribed {
		t.Fatalf("tampered webhook must not subscribe")
	}

	// The genuine webhook flips the flag; a replay is a harmless no-op.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(fiber.MethodPost, "/api/v1/billing/webhook", bytes.NewReader(event))
		req.Header.Set("Stripe-Signature", signWebhook(event))
		webhookResp, err := app.Test(req)
		if err != nil {
			t.Fatalf("webhook delivery %d: %v", i+1, err)
		}
		if webhookResp.StatusCode != http.StatusOK {
			t.Fatalf("webhook delivery %d: expected 200 got %d", i+1, webhookResp.StatusCode)
		}
	}

	resp, body = doJSON(t, app, fiber.MethodGet, "/api/v1/me", nil, authz)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me after webhook: expected 200 got %d", resp.StatusCode)
	}
	if subscribed, _ := body["subscribed"].(bool); !subscribed {
		t.Fatalf("expected subscribed=true after confirmed payment")
	}
}

func TestCheckoutIdempotencyKeyReplay(t *testing.T) {
	app, mailer := setupApp(t)

	doJSON(t, app, fiber.MethodPost, "/api/v1/auth/signup", fiber.Map{
		"name":             "Ada",
		"email":            "ada@x.com",
		"password":         "p1-long-enough",
		"password_confirm": "p1-long-enough",
	}, nil)
	doJSON(t, app, fiber.MethodPost, "/api/v1/auth/verify", fiber.Map{
		"email": "ada@x.com",
		"code":  mailer.codes["ada@x.com"],
	}, nil)
	_, body := doJSON(t, app, fiber.MethodPost, "/api/v1/auth/login", fiber.Map{
		"email":    "ada@x.com",
		"password": "p1-long-enough",
	}, nil)
	token, _ := body["access_token"].(string)

	headers := map[string]string{
		fiber.HeaderAuthorization: "Bearer " + token,
		"Idempotency-Key":         "checkout-1",
	}

	_, first := doJSON(t, app, fiber.MethodPost, "/api/v1/billing/checkout", nil, headers)
	_, second := doJSON(t, app, fiber.MethodPost, "/api/v1/billing/checkout", nil, headers)

	firstID, _ := first["checkout_session_id"].(string)
	secondID, _ := second["checkout_session_id"].(string)
	if firstID == "" {
		t.Fatalf("expected session id")
	}
	if firstID != secondID {
		t.Fatalf("retried checkout must replay the original session, got %q and %q", firstID, secondID)
	}
}

func TestLoginRateLimit(t *testing.T) {
	app, _ := setupApp(t)

	var lastStatus int
	for i := 0; i < 105; i++ {
		resp, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/auth/login", fiber.Map{
			"email":    "eve@x.com",
			"password": "guess",
		}, nil)
		lastStatus = resp.StatusCode
	}
	if lastStatus != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exhausting attempts, got %d", lastStatus)
	}
}
