// Package verification implements the signup verification code flow. A code
// is bound to the email it was issued for, expires, and can be checked once;
// there is no process-wide code shared across accounts.
package verification

import (
	"context"
	"time"
)

// Store holds pending codes keyed by email.
type Store interface {
	Put(ctx context.Context, email, code string, ttl time.Duration) error
	// Take returns the pending code for the email and removes it, so a code
	// can only ever be checked once.
	Take(ctx context.Context, email string) (string, error)
}

// Flow issues and checks signup verification codes.
type Flow struct {
	store Store
	ttl   time.Duration
}

// NewFlow builds a verification flow on top of the given store.
func NewFlow(store Store, ttl time.Duration) *Flow {
	return &Flow{store: store, ttl: ttl}
}

// Issue generates a fresh code for the email and stores it with the
// configured expiry. Re-issuing replaces any earlier pending code.
func (f *Flow) Issue(ctx context.Context, email string) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	if err := f.store.Put(ctx, email, code, f.ttl); err != nil {
		return "", err
	}
	return code, nil
}

// Check consumes the pending code for the email and compares it against the
// submitted value in constant time. Any failure is ErrCodeMismatch.
func (f *Flow) Check(ctx context.Context, email, submitted string) error {
	expected, err := f.store.Take(ctx, email)
	if err != nil {
		return err
	}
	if !codesEqual(expected, submitted) {
		return ErrCodeMismatch
	}
	return nil
}
