package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	NotificationFriendRequest  = "friend_request"
	NotificationFriendAccepted = "friend_accepted"
	NotificationTapin          = "tapin"
	NotificationMessage        = "message"
)

type Notification struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	UserID    uuid.UUID       `json:"user_id" db:"user_id"`
	Type      string          `json:"type" db:"type"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
	Read      bool            `json:"read" db:"read"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// NewNotification builds an unread notification with payload marshalled to JSON.
func NewNotification(userID uuid.UUID, typ string, payload interface{}) (*Notification, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Payload:   b,
		CreatedAt: time.Now(),
	}, nil
}
