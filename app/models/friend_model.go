package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestDeclined = "declined"
)

// Friend rows always satisfy UserID1 < UserID2.
type Friend struct {
	UserID1   uuid.UUID `json:"user_id_1" db:"user_id_1"`
	UserID2   uuid.UUID `json:"user_id_2" db:"user_id_2"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type FriendRequest struct {
	ID         uuid.UUID `json:"id" db:"id"`
	SenderID   uuid.UUID `json:"sender_id" db:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id" db:"receiver_id"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type IncomingFriendRequest struct {
	FriendRequest
	SenderUsername  string  `json:"sender_username" db:"sender_username"`
	SenderAvatarURL *string `json:"sender_avatar_url,omitempty" db:"sender_avatar_url"`
}

type SendFriendRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required,uuid"`
}

// OrderedPair returns a and b sorted by their canonical string form.
func OrderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() < b.String() {
		return a, b
	}
	return b, a
}

func NewFriend(a, b uuid.UUID, at time.Time) Friend {
	lo, hi := OrderedPair(a, b)
	return Friend{UserID1: lo, UserID2: hi, CreatedAt: at}
}
