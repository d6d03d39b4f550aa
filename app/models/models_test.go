package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapin-app/tapin-backend/pkg/geo"
)

func TestOrderedPairIsSymmetric(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("ffffffff-0000-0000-0000-000000000000")

	lo, hi := OrderedPair(a, b)
	assert.Equal(t, a, lo)
	assert.Equal(t, b, hi)

	lo2, hi2 := OrderedPair(b, a)
	assert.Equal(t, lo, lo2)
	assert.Equal(t, hi, hi2)

	f := NewFriend(b, a, time.Now())
	assert.Equal(t, a, f.UserID1)
	assert.Equal(t, b, f.UserID2)
}

func TestPrivateRoomNameIsSymmetric(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	name := PrivateRoomName(a, b)
	assert.Equal(t, name, PrivateRoomName(b, a))
	assert.True(t, strings.HasPrefix(name, "private_"))
	assert.Contains(t, name, a.String())
	assert.Contains(t, name, b.String())
}

func TestChatRoomExpired(t *testing.T) {
	now := time.Now()
	past, future := now.Add(-time.Second), now.Add(time.Second)

	assert.False(t, ChatRoom{}.Expired(now))
	assert.True(t, ChatRoom{ExpiresAt: &past}.Expired(now))
	assert.True(t, ChatRoom{ExpiresAt: &now}.Expired(now))
	assert.False(t, ChatRoom{ExpiresAt: &future}.Expired(now))
}

func TestChatRoomCandidate(t *testing.T) {
	_, ok := ChatRoom{RoomType: RoomTypePrivate}.Candidate()
	assert.False(t, ok)

	lat, lon := 10.0, 20.0
	r := ChatRoom{ID: uuid.New(), RoomType: RoomTypePublic, Latitude: &lat, Longitude: &lon, RadiusMeters: 500, IsAutoGenerated: true}
	c, ok := r.Candidate()
	require.True(t, ok)
	assert.Equal(t, r.ID, c.ID)
	assert.Equal(t, geo.Point{Lat: 10, Lon: 20}, c.Center)
	assert.Equal(t, 500.0, c.RadiusMeters)
	assert.True(t, c.IsAutoGenerated)
}

func TestProfileJSONHidesSecrets(t *testing.T) {
	tok := "ExponentPushToken[abc]"
	p := Profile{ID: uuid.New(), Email: "a@example.com", Username: "alice", PasswordHash: "HASHVALUE", OTP: "OTPVALUE", PushToken: &tok}
	b, err := json.Marshal(p)
	require.NoError(t, err)
	s := string(b)
	assert.NotContains(t, s, "HASHVALUE")
	assert.NotContains(t, s, "OTPVALUE")
	assert.NotContains(t, s, "ExponentPushToken")

	pub, err := json.Marshal(p.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(pub), "a@example.com")
}

func TestNewNotification(t *testing.T) {
	uid := uuid.New()
	n, err := NewNotification(uid, NotificationTapin, map[string]string{"tapin_id": "x"})
	require.NoError(t, err)
	assert.Equal(t, uid, n.UserID)
	assert.False(t, n.Read)
	assert.JSONEq(t, `{"tapin_id":"x"}`, string(n.Payload))
}

func TestRefreshTokenExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	assert.False(t, RefreshToken{}.Expired(now))
	assert.True(t, RefreshToken{ExpiresAt: &past}.Expired(now))
}
