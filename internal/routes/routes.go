package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nasa-pay/nasa_pay/internal/auth"
	"github.com/nasa-pay/nasa_pay/internal/billing"
	"github.com/nasa-pay/nasa_pay/internal/config"
	"github.com/nasa-pay/nasa_pay/internal/mail"
	"github.com/nasa-pay/nasa_pay/internal/middleware"
	"github.com/nasa-pay/nasa_pay/internal/user"
	"github.com/nasa-pay/nasa_pay/internal/verification"
)

// Deps aggregates shared dependencies required to wire routes. Mailer may be
// nil, in which case outgoing mail goes to the logger.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	Mailer mail.Sender
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Dev mode may fall back to in-memory stores; everywhere else the
	// durable backends are mandatory even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var users user.Repository
	if d.DB != nil {
		users = user.NewPostgresRepository(d.DB)
	} else {
		users = user.NewMemoryRepository()
	}

	var codeStore verification.Store
	if d.Cache != nil {
		codeStore = verification.NewRedisStore(d.Cache)
	} else {
		codeStore = verification.NewMemoryStore()
	}
	codes := verification.NewFlow(codeStore, d.Cfg.VerifyCodeTTL)

	mailer := d.Mailer
	if mailer == nil {
		mailer = mail.NewLoggerSender(d.Logger)
	}

	tokens := auth.NewTokenService(d.Cfg.TokenSecret)
	authSvc := auth.NewService(d.Cfg, users, tokens, codes, mailer, d.Logger)
	authHandler := auth.NewHandler(authSvc)

	var sessions billing.SessionRepository
	if d.DB != nil {
		sessions = billing.NewPostgresSessionRepository(d.DB)
	} else {
		sessions = billing.NewMemorySessionRepository()
	}

	var provider billing.CheckoutProvider
	if d.Cfg.StripeSecretKey != "" {
		provider = billing.NewStripeProvider(d.Cfg.StripeSecretKey)
	} else {
		provider = billing.StaticProvider{}
	}

	verifier := billing.NewWebhookVerifier(d.Cfg.StripeWebhookSecret)
	billingSvc := billing.NewService(d.Cfg, sessions, users, provider, verifier, d.Logger)
	billingHandler := billing.NewHandler(billingSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.LoginPerMinute)
	RegisterAuthRoutes(api, authHandler, rateLimiter)
	RegisterWebhookRoute(api, billingHandler)

	// Protected routes
	protected := api.Group("", middleware.TokenAuth(tokens))
	protected.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(int64)
		if uid == 0 {
			return c.SendStatus(http.StatusUnauthorized)
		}
		account, err := users.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		return c.JSON(fiber.Map{
			"user_id":    account.ID,
			"name":       account.Name,
			"email":      account.Email,
			"subscribed": account.Subscribed,
			"created_at": account.CreatedAt,
		})
	})
	RegisterBillingRoutes(protected, billingHandler, middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))

	return nil
}
