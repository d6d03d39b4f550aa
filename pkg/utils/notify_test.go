package utils

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSocket struct {
	mu      sync.Mutex
	written [][]byte
	fail    bool
	closed  bool
}

func (f *fakeSocket) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeSocket) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.written = append(f.written, data)
	return nil
}

func (f *fakeSocket) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func TestNotifierSendToAllConnections(t *testing.T) {
	n := NewNotifier()
	user := uuid.New()
	phone, tablet := &fakeSocket{}, &fakeSocket{}
	n.Register(user, phone)
	n.Register(user, tablet)

	require.NoError(t, n.Send(user, map[string]string{"event": "message"}))

	for _, s := range []*fakeSocket{phone, tablet} {
		require.Len(t, s.written, 1)
		var got map[string]string
		require.NoError(t, json.Unmarshal(s.written[0], &got))
		assert.Equal(t, "message", got["event"])
	}
}

func TestNotifierNoConnection(t *testing.T) {
	n := NewNotifier()
	assert.ErrorIs(t, n.Send(uuid.New(), "x"), ErrNoConnection)
}

func TestNotifierDropsFailedConnections(t *testing.T) {
	n := NewNotifier()
	user := uuid.New()
	good, bad := &fakeSocket{}, &fakeSocket{fail: true}
	n.Register(user, good)
	n.Register(user, bad)

	require.NoError(t, n.Send(user, "hello"))
	assert.True(t, bad.closed)
	assert.False(t, good.closed)
	assert.True(t, n.Online(user))

	good.fail = true
	assert.ErrorIs(t, n.Send(user, "again"), ErrNoConnection)
	assert.False(t, n.Online(user))
	assert.Empty(t, n.ActiveUserIDs())
}

func TestNotifierUnregister(t *testing.T) {
	n := NewNotifier()
	user := uuid.New()
	s := &fakeSocket{}
	cl := n.Register(user, s)

	assert.ElementsMatch(t, []uuid.UUID{user}, n.ActiveUserIDs())
	n.Unregister(cl)
	n.Unregister(cl)
	assert.True(t, s.closed)
	assert.False(t, n.Online(user))
}
