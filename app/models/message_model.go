package models

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID        uuid.UUID `json:"id" db:"id"`
	RoomID    uuid.UUID `json:"room_id" db:"room_id"`
	SenderID  uuid.UUID `json:"sender_id" db:"sender_id"`
	Content   string    `json:"content" db:"content"`
	GifURL    *string   `json:"gif_url,omitempty" db:"gif_url"`
	Latitude  *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64  `json:"longitude,omitempty" db:"longitude"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateMessageRequest struct {
	RoomID    string   `json:"room_id" validate:"required,uuid"`
	Content   string   `json:"content" validate:"required_without=GifURL,max=2000"`
	GifURL    string   `json:"gif_url" validate:"omitempty,url"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// MessageView is a message as returned to a reader.
type MessageView struct {
	Message
	SenderUsername string `json:"sender_username" db:"sender_username"`
	IsMe           bool   `json:"is_me" db:"-"`
}
