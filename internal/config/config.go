package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "NasaPay"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultBaseURL        = "http://localhost:8080"
	defaultShutdownDelay  = 10 * time.Second
	defaultSessionTTL     = 24 * time.Hour
	defaultResetTokenTTL  = 30 * time.Minute
	defaultVerifyCodeTTL  = 15 * time.Minute
	defaultCheckoutWait   = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultLoginPerMin    = 5
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string
	BaseURL  string

	DatabaseURL string
	RedisURL    string

	TokenSecret     string
	SessionTTL      time.Duration
	ResetTokenTTL   time.Duration
	VerifyCodeTTL   time.Duration
	LoginPerMinute  int
	ShutdownPeriod  time.Duration
	IdempotencyTTL  time.Duration
	CheckoutTimeout time.Duration

	StripeSecretKey     string
	StripePublicKey     string
	StripeWebhookSecret string
	StripePriceID       string
}

// Load reads configuration values from the environment and populates a Config
// instance. Signing secrets have no defaults: a deployment that omits them
// must fail at startup rather than run with a guessable value.
func Load() (Config, error) {
	cfg := Config{
		AppName:             getEnv("APP_NAME", defaultAppName),
		AppEnv:              getEnv("APP_ENV", defaultAppEnv),
		Port:                getEnv("PORT", defaultPort),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		BaseURL:             getEnv("BASE_URL", defaultBaseURL),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		TokenSecret:         os.Getenv("TOKEN_SECRET"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripePublicKey:     os.Getenv("STRIPE_PUBLIC_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePriceID:       os.Getenv("STRIPE_PRICE_ID"),
		SessionTTL:          defaultSessionTTL,
		ResetTokenTTL:       defaultResetTokenTTL,
		VerifyCodeTTL:       defaultVerifyCodeTTL,
		LoginPerMinute:      defaultLoginPerMin,
		ShutdownPeriod:      defaultShutdownDelay,
		IdempotencyTTL:      defaultIdempotencyTTL,
		CheckoutTimeout:     defaultCheckoutWait,
	}

	durations := []struct {
		envVar string
		target *time.Duration
	}{
		{"SESSION_TOKEN_TTL", &cfg.SessionTTL},
		{"RESET_TOKEN_TTL", &cfg.ResetTokenTTL},
		{"VERIFY_CODE_TTL", &cfg.VerifyCodeTTL},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
		{"IDEMPOTENCY_TTL", &cfg.IdempotencyTTL},
		{"CHECKOUT_TIMEOUT", &cfg.CheckoutTimeout},
	}
	for _, d := range durations {
		if v := os.Getenv(d.envVar); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.envVar, err)
			}
			*d.target = parsed
		}
	}

	if v := os.Getenv("LOGIN_ATTEMPTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOGIN_ATTEMPTS_PER_MINUTE: %w", err)
		}
		cfg.LoginPerMinute = n
	}

	if cfg.TokenSecret == "" {
		return Config{}, fmt.Errorf("TOKEN_SECRET must be set")
	}

	if cfg.StripeWebhookSecret == "" {
		return Config{}, fmt.Errorf("STRIPE_WEBHOOK_SECRET must be set")
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.StripeSecretKey == "" {
			return Config{}, fmt.Errorf("STRIPE_SECRET_KEY must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsDev reports whether the app runs in a local development environment, where
// in-memory fallbacks for Postgres, Redis and the payment provider are allowed.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
