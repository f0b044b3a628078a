package session

import (
	"context"
	"time"
)

// Session represents an authenticated user session. LastRefresh is when
// the session's identity was last confirmed against the IdP; it drives
// logout-delay enforcement and is distinct from the user's profile-data
// refresh timestamp.
type Session struct {
	SessionID   string    // unique session identifier
	UserID      string    // references users.id
	CreatedAt   time.Time
	LastRefresh time.Time
	ExpiresAt   time.Time // absolute expiry time
}

// Store defines how sessions are stored and retrieved.
// Implementations (e.g., Redis) must remain stateless and opaque.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, sessionID string) error
}
