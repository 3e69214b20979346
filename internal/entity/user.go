package entity

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// User is an authenticated account synced from the identity provider.
type User struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   *string   `json:"picture,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session is a server-side session backing the session_token cookie.
type Session struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUserID returns an ID in the user_<hex12> wire format.
func NewUserID() string {
	id := uuid.New()
	return "user_" + hex.EncodeToString(id[:])[:12]
}

// NewSessionToken returns a token in the sess_<hex32> wire format.
func NewSessionToken() string {
	id := uuid.New()
	return "sess_" + hex.EncodeToString(id[:])
}
