package user

import (
	"errors"
	"time"
)

// User represents a registered account. PasswordHash is an opaque bcrypt
// digest; Subscribed is flipped by the billing webhook only.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Subscribed   bool
	CreatedAt    time.Time
}

var (
	// ErrDuplicateEmail indicates the email is already registered. The
	// storage layer's unique index is the authority, not an application
	// level read-then-write check.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrNotFound indicates no user matches the lookup.
	ErrNotFound = errors.New("user not found")
)
