package scheduler

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapin-app/tapin-backend/pkg/ratelimit"
)

func newMockReaper(t *testing.T) (*Reaper, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := NewReaper(sqlx.NewDb(db, "sqlmock"), time.Hour)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	r.now = func() time.Time { return fixed }
	return r, mock
}

func TestPurgeRoomsRunsInTransaction(t *testing.T) {
	r, mock := newMockReaper(t)
	now := r.now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM messages WHERE room_id IN`)).WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM room_participants WHERE room_id IN`)).WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM chat_rooms WHERE expires_at`)).WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := r.PurgeRooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeRoomsRollsBackOnError(t *testing.T) {
	r, mock := newMockReaper(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM messages`)).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := r.PurgeRooms(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeTapins(t *testing.T) {
	r, mock := newMockReaper(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tapins WHERE expires_at <= $1`)).
		WithArgs(r.now()).WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := r.PurgeTapins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepLimiters(t *testing.T) {
	r, _ := newMockReaper(t)
	a := ratelimit.New(5, time.Minute)
	b := ratelimit.New(5, time.Minute)
	a.Allow("alice")
	b.Allow("bob")
	b.Allow("carol")
	r.Limiters = []*ratelimit.Limiter{a, b}

	assert.Equal(t, 0, r.SweepLimiters())
	assert.Equal(t, 1, a.Len())

	r.IdleAfter = -time.Second
	assert.Equal(t, 3, r.SweepLimiters())
	assert.Equal(t, 0, a.Len()+b.Len())
}
