// Package session keeps the per-browser authentication state of the portal.
//
// Handlers load a Session at the start of a request, pass its State to the
// service layer and store whatever State comes back before responding.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Lifetime is the absolute ceiling of a session from its creation.
const Lifetime = 24 * time.Hour

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// State is the authentication snapshot carried by a session.
// A login challenge in flight sets PendingUserID; a completed login sets
// UserID and IsAuthenticated.
type State struct {
	PendingUserID   int64 `json:"pendingUserId,omitempty"`
	UserID          int64 `json:"userId,omitempty"`
	IsAuthenticated bool  `json:"isAuthenticated"`
}

// Authenticated reports whether the state belongs to a fully logged-in user.
func (s State) Authenticated() bool {
	return s.IsAuthenticated && s.UserID != 0
}

// Session is a stored State with its identity and expiry.
type Session struct {
	ID        string    `json:"id"`
	State     State     `json:"state"`
	ExpiresAt time.Time `json:"expiresAt"`

	// fresh marks a session that has not been written to a Store yet.
	fresh bool
}

// New creates a session with a fresh random id expiring Lifetime after now.
func New(state State, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		State:     state,
		ExpiresAt: now.Add(Lifetime),
		fresh:     true,
	}
}

// Expired reports whether the session is past its ceiling at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions.
type Store interface {
	// Load returns ErrNotFound for unknown or expired ids.
	Load(ctx context.Context, id string) (*Session, error)
	// Save writes the whole session, replacing any previous record.
	Save(ctx context.Context, s *Session) error
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
}
