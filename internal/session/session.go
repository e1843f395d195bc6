// Package session provides the explicit session store that replaces the
// source system's process-global session map. Expiry is checked on read.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// DefaultTTL matches the 7-day cookie lifetime of the login flow.
const DefaultTTL = 7 * 24 * time.Hour

// User is the authenticated identity a session carries.
type User struct {
	ID       int64
	Username string
	Password string `json:"-"`
}

// Session associates a session id with a user until it expires.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewID generates a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// Store is the session persistence interface. Get must return
// ErrNotFound for expired sessions and is free to delete them eagerly.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
}

// UserRepository looks up login credentials.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
}
