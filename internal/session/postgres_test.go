package session

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresStore(db), mock, func() { db.Close() }
}

func TestPostgresStore_Save(t *testing.T) {
	store, mock, cleanup := setupPostgresStore(t)
	defer cleanup()

	sess := New(State{PendingUserID: 4}, time.Now())
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions (sid, sess, expire)`)).
		WithArgs(sess.ID, `{"pendingUserId":4,"isAuthenticated":false}`, sess.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), sess))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Load(t *testing.T) {
	store, mock, cleanup := setupPostgresStore(t)
	defer cleanup()

	expire := time.Now().Add(time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT sess, expire FROM sessions WHERE sid = $1 AND expire > $2`)).
		WithArgs("sid-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"sess", "expire"}).
			AddRow(`{"userId":9,"isAuthenticated":true}`, expire))

	got, err := store.Load(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "sid-1", got.ID)
	assert.Equal(t, State{UserID: 9, IsAuthenticated: true}, got.State)
	assert.Equal(t, expire, got.ExpiresAt)
}

func TestPostgresStore_LoadMissing(t *testing.T) {
	store, mock, cleanup := setupPostgresStore(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions`)).
		WithArgs("gone", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"sess", "expire"}))

	_, err := store.Load(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_LoadError(t *testing.T) {
	store, mock, cleanup := setupPostgresStore(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions`)).
		WillReturnError(errors.New("conn reset"))

	_, err := store.Load(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "load session")
}

func TestPostgresStore_Delete(t *testing.T) {
	store, mock, cleanup := setupPostgresStore(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE sid = $1`)).
		WithArgs("sid-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Delete(context.Background(), "sid-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
