package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PostgresStore keeps sessions in the sessions table. Expired rows are
// ignored on load and purged by the retention cleaner.
type PostgresStore struct {
	DB *sql.DB
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

// Load returns the unexpired session stored under id.
func (s *PostgresStore) Load(ctx context.Context, id string) (*Session, error) {
	var (
		data   string
		expire time.Time
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT sess, expire FROM sessions WHERE sid = $1 AND expire > $2`,
		id, time.Now(),
	).Scan(&data, &expire)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess := Session{ID: id, ExpiresAt: expire}
	if err := json.Unmarshal([]byte(data), &sess.State); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Save upserts the session row.
func (s *PostgresStore) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess.State)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO sessions (sid, sess, expire)
		VALUES ($1, $2, $3)
		ON CONFLICT (sid) DO UPDATE SET sess = EXCLUDED.sess, expire = EXCLUDED.expire
	`, sess.ID, string(data), sess.ExpiresAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes the session row.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE sid = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
