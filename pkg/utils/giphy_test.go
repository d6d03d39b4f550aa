package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGiphySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "cats", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"data":[
			{"id":"a","title":"Cat","images":{"original":{"url":"https://g/a.gif"},"fixed_width_small":{"url":"https://g/a_s.gif"}}},
			{"id":"b","title":"Dog","images":{"original":{"url":"https://g/b.gif"}}}
		]}`))
	}))
	defer srv.Close()

	g := NewGiphyClient("key")
	g.URL = srv.URL

	gifs, err := g.Search(context.Background(), "cats", 5)
	require.NoError(t, err)
	require.Len(t, gifs, 2)
	assert.Equal(t, Gif{ID: "a", Title: "Cat", URL: "https://g/a.gif", PreviewURL: "https://g/a_s.gif"}, gifs[0])
	assert.Equal(t, "https://g/b.gif", gifs[1].PreviewURL)
}

func TestGiphyNotConfigured(t *testing.T) {
	_, err := NewGiphyClient("").Search(context.Background(), "x", 1)
	assert.ErrorIs(t, err, ErrGiphyNotConfigured)
}

func TestGiphyUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	g := NewGiphyClient("key")
	g.URL = srv.URL
	_, err := g.Search(context.Background(), "x", 1)
	assert.ErrorContains(t, err, "bad key")
}
