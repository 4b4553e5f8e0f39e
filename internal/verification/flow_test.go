package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupRedisFlow(t *testing.T, ttl time.Duration) (*Flow, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewFlow(NewRedisStore(client), ttl), mr
}

func TestGenerateCodeShape(t *testing.T) {
	code, err := GenerateCode()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(code) != codeDigits {
		t.Fatalf("expected %d digits, got %q", codeDigits, code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("expected numeric code, got %q", code)
		}
	}
}

func TestIssueAndCheck(t *testing.T) {
	flow, _ := setupRedisFlow(t, time.Minute)
	ctx := context.Background()

	code, err := flow.Issue(ctx, "ada@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := flow.Check(ctx, "ada@x.com", code); err != nil {
		t.Fatalf("check: %v", err)
	}

	// Single use: the same code must not verify twice.
	if err := flow.Check(ctx, "ada@x.com", code); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch on replay, got %v", err)
	}
}

func TestCheckWrongCodeConsumesPending(t *testing.T) {
	flow, _ := setupRedisFlow(t, time.Minute)
	ctx := context.Background()

	code, err := flow.Issue(ctx, "ada@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := flow.Check(ctx, "ada@x.com", wrong); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}

	// A failed attempt burns the code; the correct value no longer works.
	if err := flow.Check(ctx, "ada@x.com", code); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected consumed code, got %v", err)
	}
}

func TestCheckIsBoundToEmail(t *testing.T) {
	flow, _ := setupRedisFlow(t, time.Minute)
	ctx := context.Background()

	code, err := flow.Issue(ctx, "ada@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := flow.Check(ctx, "eve@x.com", code); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected mismatch for another email, got %v", err)
	}
}

func TestCheckExpiredCode(t *testing.T) {
	flow, mr := setupRedisFlow(t, time.Minute)
	ctx := context.Background()

	code, err := flow.Issue(ctx, "ada@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := flow.Check(ctx, "ada@x.com", code); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected expired code mismatch, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "ada@x.com", "123456", -time.Second); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Take(ctx, "ada@x.com"); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected expired code mismatch, got %v", err)
	}
}
