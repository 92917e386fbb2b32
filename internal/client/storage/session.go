package storage

import (
	"context"
	"time"
)

// SessionStorage хранит сессию игрока на клиенте
type SessionStorage interface {
	// SaveSession stores the current session, replacing any previous one
	SaveSession(ctx context.Context, session *Session) error

	// GetSession returns ErrSessionNotFound when nobody is logged in
	GetSession(ctx context.Context) (*Session, error)

	// DeleteSession removes the session (logout). Deleting a missing session is not an error.
	DeleteSession(ctx context.Context) error

	// DeviceID returns a stable identifier of this installation, creating it on first use
	DeviceID(ctx context.Context) (string, error)

	// ResetDeviceID forgets the identifier. Local revisions restart after a wipe,
	// so the next one must not collide with revisions the server already saw.
	ResetDeviceID(ctx context.Context) error
}

// Session represents the logged in player
type Session struct {
	ExpiresAt   time.Time `json:"expires_at"`
	Username    string    `json:"username"`
	UserID      string    `json:"user_id"`
	AccessToken string    `json:"access_token"`
}

// Expired reports whether the access token is no longer valid at now
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
