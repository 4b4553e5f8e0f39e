package verification

import (
	"context"
	"sync"
	"time"
)

type pendingCode struct {
	code      string
	expiresAt time.Time
}

type memoryStore struct {
	mu    sync.Mutex
	codes map[string]pendingCode
}

// NewMemoryStore builds an in-memory code store for development and tests.
func NewMemoryStore() Store {
	return &memoryStore{codes: make(map[string]pendingCode)}
}

func (s *memoryStore) Put(_ context.Context, email, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[email] = pendingCode{code: code, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *memoryStore) Take(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, ok := s.codes[email]
	if !ok {
		return "", ErrCodeMismatch
	}
	delete(s.codes, email)
	if time.Now().After(pending.expiresAt) {
		return "", ErrCodeMismatch
	}
	return pending.code, nil
}
