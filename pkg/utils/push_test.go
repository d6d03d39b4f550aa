package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExpoToken(t *testing.T) {
	assert.True(t, IsExpoToken("ExponentPushToken[abc]"))
	assert.True(t, IsExpoToken("ExpoPushToken[abc]"))
	assert.False(t, IsExpoToken("abc"))
	assert.False(t, IsExpoToken("ExponentPushToken[abc"))
}

func TestPushSendBatchesAndCountsFailures(t *testing.T) {
	var batches [][]PushMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var batch []PushMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
		batches = append(batches, batch)

		tickets := make([]map[string]string, len(batch))
		for i := range batch {
			tickets[i] = map[string]string{"status": "ok"}
		}
		if len(batches) == 1 {
			tickets[0] = map[string]string{"status": "error", "message": "DeviceNotRegistered"}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": tickets})
	}))
	defer srv.Close()

	p := NewPushClient("secret")
	p.URL = srv.URL

	msgs := make([]PushMessage, 0, 151)
	for i := 0; i < 150; i++ {
		msgs = append(msgs, PushMessage{To: "ExponentPushToken[x]", Body: "hi"})
	}
	msgs = append(msgs, PushMessage{To: "garbage", Body: "hi"})

	failed, err := p.Send(context.Background(), msgs)
	require.NoError(t, err)
	assert.Equal(t, 2, failed)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 100)
	assert.Len(t, batches[1], 50)
	assert.Equal(t, "default", batches[0][0].Sound)
}

func TestPushSendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewPushClient("")
	p.URL = srv.URL

	failed, err := p.Send(context.Background(), []PushMessage{{To: "ExponentPushToken[x]", Body: "hi"}})
	assert.Error(t, err)
	assert.Equal(t, 1, failed)
}
