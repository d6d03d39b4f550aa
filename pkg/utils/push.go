package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const expoPushURL = "https://exp.host/--/api/v2/push/send"

// expoBatchSize is the maximum number of messages Expo accepts per request.
const expoBatchSize = 100

type PushMessage struct {
	To    string                 `json:"to"`
	Title string                 `json:"title,omitempty"`
	Body  string                 `json:"body"`
	Sound string                 `json:"sound,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

type pushTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Message string `json:"message"`
	Details struct {
		Error string `json:"error"`
	} `json:"details"`
}

// PushClient talks to the Expo push gateway.
type PushClient struct {
	URL         string
	AccessToken string
	HTTP        *http.Client
}

func NewPushClient(accessToken string) *PushClient {
	return &PushClient{URL: expoPushURL, AccessToken: accessToken, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

// DefaultPush is replaced at startup once config is loaded.
var DefaultPush = NewPushClient("")

// IsExpoToken reports whether token looks like an Expo push token.
func IsExpoToken(token string) bool {
	return (strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")) &&
		strings.HasSuffix(token, "]")
}

// Send delivers messages in batches and returns the number Expo rejected.
func (p *PushClient) Send(ctx context.Context, msgs []PushMessage) (int, error) {
	valid := make([]PushMessage, 0, len(msgs))
	for _, m := range msgs {
		if IsExpoToken(m.To) {
			if m.Sound == "" {
				m.Sound = "default"
			}
			valid = append(valid, m)
		}
	}

	failed := len(msgs) - len(valid)
	for start := 0; start < len(valid); start += expoBatchSize {
		end := start + expoBatchSize
		if end > len(valid) {
			end = len(valid)
		}
		n, err := p.sendBatch(ctx, valid[start:end])
		if err != nil {
			return failed + len(valid) - start, err
		}
		failed += n
	}
	return failed, nil
}

func (p *PushClient) sendBatch(ctx context.Context, batch []PushMessage) (int, error) {
	b, err := json.Marshal(batch)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.AccessToken)
	}

	res, err := p.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return 0, fmt.Errorf("expo push returned %d: %s", res.StatusCode, string(body))
	}

	var parsed struct {
		Data []pushTicket `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, errors.New("invalid expo push response")
	}

	failed := 0
	for _, t := range parsed.Data {
		if t.Status != "ok" {
			failed++
		}
	}
	return failed, nil
}
