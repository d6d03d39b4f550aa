package models

import (
	"time"

	"github.com/google/uuid"
)

type SignUp struct {
	Email    string `json:"email" validate:"required,email,lte=255"`
	Username string `json:"username" validate:"required,min=3,max=30,alphanumunicode"`
	Password string `json:"password" validate:"required,min=8,lte=255"`
}

type SignIn struct {
	Email    string `json:"email" validate:"required,email,lte=255"`
	Password string `json:"password" validate:"required,lte=255"`
}

type VerifyOTP struct {
	Email string `json:"email" validate:"required,email,lte=255"`
	OTP   string `json:"otp" validate:"required,len=4,numeric"`
}

type GoogleSignIn struct {
	IDToken string `json:"id_token" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type RefreshToken struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Token     string     `json:"-" db:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	Revoked   bool       `json:"revoked" db:"revoked"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Expired reports whether the token carries an expiry that has passed.
func (rt RefreshToken) Expired(now time.Time) bool {
	return rt.ExpiresAt != nil && now.After(*rt.ExpiresAt)
}

type TokenPair struct {
	AccessToken      string     `json:"access_token"`
	ExpiresIn        int        `json:"expires_in"`
	RefreshToken     string     `json:"refresh_token,omitempty"`
	RefreshExpiresAt *time.Time `json:"refresh_expires_at,omitempty"`
}
