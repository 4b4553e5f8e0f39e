package billing

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// NewMemorySessionRepository builds an in-memory session store for development
// and tests.
func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{sessions: make(map[string]Session)}
}

func (r *memorySessionRepository) Create(_ context.Context, session Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[session.ID]; exists {
		return errors.New("session already recorded")
	}
	session.Status = StatusCreated
	r.sessions[session.ID] = session
	return nil
}

func (r *memorySessionRepository) Complete(_ context.Context, sessionID string) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return 0, false, ErrUnknownSession
	}
	if session.Status == StatusCompleted {
		return session.UserID, true, nil
	}

	now := time.Now().UTC()
	session.Status = StatusCompleted
	session.CompletedAt = &now
	r.sessions[sessionID] = session
	return session.UserID, false, nil
}
