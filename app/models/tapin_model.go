package models

import (
	"time"

	"github.com/google/uuid"
)

// Tapin is an ephemeral photo sent directly between two friends.
type Tapin struct {
	ID         uuid.UUID `json:"id" db:"id"`
	SenderID   uuid.UUID `json:"sender_id" db:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id" db:"receiver_id"`
	ImageURL   string    `json:"image_url" db:"image_url"`
	Caption    *string   `json:"caption,omitempty" db:"caption"`
	Viewed     bool      `json:"viewed" db:"viewed"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
}

type TapinView struct {
	Tapin
	SenderUsername string `json:"sender_username" db:"sender_username"`
}

type CreateTapinRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required,uuid"`
	ImageURL   string `json:"image_url" validate:"required,url"`
	Caption    string `json:"caption" validate:"omitempty,max=200"`
}
