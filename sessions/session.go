package sessions

import (
	"context"
	"time"
)

// Session is the server-side state of a browser going through the consent flow.
type Session struct {
	State     string    `json:"state"` // random string followed by one test-client digit
	CreatedAt time.Time `json:"createdAt"`
}

// Store keeps sessions keyed by session id. Get and Take return ErrSessionNotFound
// for unknown or expired ids.
type Store interface {
	Save(ctx context.Context, sessionID string, session Session, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Take returns the session and removes it, so its state can be checked only once.
	Take(ctx context.Context, sessionID string) (*Session, error)
}
