package verification

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const codeKeyPrefix = "verify:code:v1:"

// RedisStore keeps pending verification codes in Redis, relying on key TTLs
// for expiry and GETDEL for single use.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Redis-backed verification code store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put stores the code under the email with the provided TTL, replacing any
// earlier pending code.
func (s *RedisStore) Put(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.client.Set(ctx, codeKeyPrefix+email, code, ttl).Err()
}

// Take atomically fetches and removes the pending code. A missing or expired
// key surfaces as ErrCodeMismatch.
func (s *RedisStore) Take(ctx context.Context, email string) (string, error) {
	code, err := s.client.GetDel(ctx, codeKeyPrefix+email).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCodeMismatch
		}
		return "", err
	}
	return code, nil
}
