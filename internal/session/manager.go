package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Manager ties a Store to the session cookie.
type Manager struct {
	Store Store
	Codec *CookieCodec

	now func() time.Time
}

// NewManager creates a Manager.
func NewManager(store Store, codec *CookieCodec) *Manager {
	return &Manager{Store: store, Codec: codec, now: time.Now}
}

// Load returns the session referenced by the request cookie, or a fresh
// unsaved session when there is no valid cookie or the record is gone.
// Only store failures are returned as errors.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	id, err := m.Codec.SessionID(r)
	if err != nil {
		return New(State{}, m.now()), nil
	}

	sess, err := m.Store.Load(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return New(State{}, m.now()), nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Commit stores state into sess and refreshes the cookie. Nothing is written
// when state is unchanged, and an empty state never creates a record.
// Elevating a session to authenticated issues a new session id.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session, state State) error {
	if sess.fresh && state == (State{}) {
		return nil
	}
	if !sess.fresh && state == sess.State {
		return nil
	}

	if state.Authenticated() && !sess.State.Authenticated() && !sess.fresh {
		if err := m.Store.Delete(ctx, sess.ID); err != nil {
			return fmt.Errorf("rotate session: %w", err)
		}
		rotated := New(state, m.now())
		*sess = *rotated
	}

	sess.State = state
	if err := m.Store.Save(ctx, sess); err != nil {
		return err
	}
	sess.fresh = false

	cookie, err := m.Codec.Cookie(sess)
	if err != nil {
		return err
	}
	http.SetCookie(w, cookie)
	return nil
}

// Destroy deletes the session record and clears the cookie. The cookie is
// cleared even when the delete fails.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	http.SetCookie(w, m.Codec.Clear())
	if sess == nil || sess.fresh {
		return nil
	}
	return m.Store.Delete(ctx, sess.ID)
}
