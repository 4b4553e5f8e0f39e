package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/nasa-pay/nasa_pay/internal/logging"
)

func setupTestApp(t *testing.T) (*fiber.App, *int) {
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

	invocations := 0
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/checkout", func(c *fiber.Ctx) error {
		invocations++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"attempt": invocations})
	})

	return app, &invocations
}

func TestIdempotencyPassThroughWithoutHeader(t *testing.T) {
	app, invocations := setupTestApp(t)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(fiber.MethodPost, "/checkout", strings.NewReader("{}"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("expected %d got %d", fiber.StatusCreated, resp.StatusCode)
		}
	}

	if *invocations != 2 {
		t.Fatalf("expected handler to run twice without keys, ran %d times", *invocations)
	}
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	app, invocations := setupTestApp(t)

	send := func() (int, string) {
		req := httptest.NewRequest(fiber.MethodPost, "/checkout", strings.NewReader("{}"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(idempotencyKeyHeader, "abc123")

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode, string(payload)
	}

	firstStatus, firstBody := send()
	if firstStatus != fiber.StatusCreated {
		t.Fatalf("expected status %d got %d", fiber.StatusCreated, firstStatus)
	}

	secondStatus, secondBody := send()
	if secondStatus != firstStatus || secondBody != firstBody {
		t.Fatalf("expected replayed response %d/%s, got %d/%s", firstStatus, firstBody, secondStatus, secondBody)
	}

	if *invocations != 1 {
		t.Fatalf("expected handler to run once, ran %d times", *invocations)
	}
}
