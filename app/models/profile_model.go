package models

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	Email             string     `json:"email" db:"email"`
	Username          string     `json:"username" db:"username"`
	DisplayName       *string    `json:"display_name,omitempty" db:"display_name"`
	Bio               *string    `json:"bio,omitempty" db:"bio"`
	AvatarURL         *string    `json:"avatar_url,omitempty" db:"avatar_url"`
	PasswordHash      string     `json:"-" db:"password_hash"`
	Verified          bool       `json:"verified" db:"verified"`
	OTP               string     `json:"-" db:"otp"`
	Latitude          *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude         *float64   `json:"longitude,omitempty" db:"longitude"`
	LocationUpdatedAt *time.Time `json:"location_updated_at,omitempty" db:"location_updated_at"`
	PushToken         *string    `json:"-" db:"push_token"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// PublicProfile is what other users get to see.
type PublicProfile struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	DisplayName *string   `json:"display_name,omitempty" db:"display_name"`
	Bio         *string   `json:"bio,omitempty" db:"bio"`
	AvatarURL   *string   `json:"avatar_url,omitempty" db:"avatar_url"`
}

func (p Profile) Public() PublicProfile {
	return PublicProfile{
		ID:          p.ID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
	}
}

type UpdateProfileRequest struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=30,alphanumunicode"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=60"`
	Bio         *string `json:"bio" validate:"omitempty,max=280"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url"`
}

type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
}

type UpdatePushTokenRequest struct {
	PushToken string `json:"push_token" validate:"omitempty,startswith=ExponentPushToken[,endswith=]"`
}

// PushTarget is a participant that can receive an Expo push.
type PushTarget struct {
	UserID    uuid.UUID `db:"id"`
	PushToken string    `db:"push_token"`
}
