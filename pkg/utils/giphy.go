package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const giphySearchURL = "https://api.giphy.com/v1/gifs/search"

var ErrGiphyNotConfigured = errors.New("giphy not configured")

type Gif struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	PreviewURL string `json:"preview_url"`
}

type GiphyClient struct {
	URL    string
	APIKey string
	HTTP   *http.Client
}

func NewGiphyClient(apiKey string) *GiphyClient {
	return &GiphyClient{URL: giphySearchURL, APIKey: apiKey, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

// DefaultGiphy is replaced at startup once config is loaded.
var DefaultGiphy = NewGiphyClient("")

// Search queries Giphy and flattens the result to the fields the app renders.
func (g *GiphyClient) Search(ctx context.Context, q string, limit int) ([]Gif, error) {
	if g.APIKey == "" {
		return nil, ErrGiphyNotConfigured
	}

	params := url.Values{}
	params.Set("api_key", g.APIKey)
	params.Set("q", q)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("rating", "pg-13")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("giphy request failed: %s", string(body))
	}

	var parsed struct {
		Data []struct {
			ID     string `json:"id"`
			Title  string `json:"title"`
			Images struct {
				Original struct {
					URL string `json:"url"`
				} `json:"original"`
				FixedWidthSmall struct {
					URL string `json:"url"`
				} `json:"fixed_width_small"`
			} `json:"images"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]Gif, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		preview := d.Images.FixedWidthSmall.URL
		if preview == "" {
			preview = d.Images.Original.URL
		}
		out = append(out, Gif{ID: d.ID, Title: d.Title, URL: d.Images.Original.URL, PreviewURL: preview})
	}
	return out, nil
}
