package queries

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapin-app/tapin-backend/app/models"
	"github.com/tapin-app/tapin-backend/pkg/geo"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestAddFriendStoresOrderedPair(t *testing.T) {
	db, mock := newMock(t)
	a := uuid.MustParse("99999999-0000-0000-0000-000000000000")
	b := uuid.MustParse("11111111-0000-0000-0000-000000000000")
	at := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO friends`)).
		WithArgs(b, a, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	q := FriendQueries{DB: db}
	require.NoError(t, q.AddFriend(context.Background(), a, b, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAreFriendsQueriesOrderedPair(t *testing.T) {
	db, mock := newMock(t)
	a := uuid.MustParse("99999999-0000-0000-0000-000000000000")
	b := uuid.MustParse("11111111-0000-0000-0000-000000000000")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM friends WHERE user_id_1 = $1 AND user_id_2 = $2`)).
		WithArgs(b, a).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	q := FriendQueries{DB: db}
	ok, err := q.AreFriends(context.Background(), a, b)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveFriendNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM friends`)).WillReturnResult(sqlmock.NewResult(0, 0))

	q := FriendQueries{DB: db}
	err := q.RemoveFriend(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveRequestOnlyPending(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`AND status = 'pending'`)).WillReturnResult(sqlmock.NewResult(0, 0))

	q := FriendQueries{DB: db}
	err := q.ResolveRequest(context.Background(), uuid.New(), models.FriendRequestAccepted, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateProfileDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO profiles`)).WillReturnError(&pq.Error{Code: "23505"})

	q := ProfileQueries{DB: db}
	err := q.CreateProfile(context.Background(), &models.Profile{ID: uuid.New(), Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetProfileNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM profiles WHERE lower(email) = lower($1)`)).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	q := ProfileQueries{DB: db}
	_, err := q.GetProfileByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchProfilesEscapesPattern(t *testing.T) {
	db, mock := newMock(t)
	me := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM profiles`)).
		WithArgs(`a\_b\%%`, me, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "display_name", "bio", "avatar_url"}))

	q := ProfileQueries{DB: db}
	res, err := q.SearchProfiles(context.Background(), "A_b%", me, 20)
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileNoFieldsIsNoop(t *testing.T) {
	db, mock := newMock(t)
	q := ProfileQueries{DB: db}
	require.NoError(t, q.UpdateProfile(context.Background(), uuid.New(), models.UpdateProfileRequest{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPublicRoomsInBoxFiltersWrappedBox(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	box := geo.BoundingBox(geo.Point{Lat: 0, Lon: 179.99}, 5000)

	cols := []string{"id", "name", "room_type", "is_auto_generated", "latitude", "longitude", "radius_meters",
		"created_by", "created_at", "expires_at", "last_activity_at"}
	inside, outside := uuid.New(), uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`room_type = 'public'`)).
		WithArgs(now, box.MinLat, box.MaxLat, -180.0, 180.0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(inside.String(), "east", "public", true, 0.0, -179.99, 1000.0, uuid.New().String(), now, nil, now).
			AddRow(outside.String(), "far", "public", true, 0.0, 0.0, 1000.0, uuid.New().String(), now, nil, now))

	q := RoomQueries{DB: db}
	rooms, err := q.ListPublicRoomsInBox(context.Background(), box, now)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, inside, rooms[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReadScopedToOwner(t *testing.T) {
	db, mock := newMock(t)
	id, owner := uuid.New(), uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`)).
		WithArgs(id, owner).
		WillReturnResult(sqlmock.NewResult(0, 0))

	q := NotificationQueries{DB: db}
	assert.ErrorIs(t, q.MarkRead(context.Background(), id, owner), ErrNotFound)
}
