package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tapin-app/tapin-backend/pkg/geo"
)

const (
	RoomTypePublic  = "public"
	RoomTypePrivate = "private"
)

type ChatRoom struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	RoomType        string     `json:"room_type" db:"room_type"`
	IsAutoGenerated bool       `json:"is_auto_generated" db:"is_auto_generated"`
	Latitude        *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude       *float64   `json:"longitude,omitempty" db:"longitude"`
	RadiusMeters    float64    `json:"radius_meters" db:"radius_meters"`
	CreatedBy       uuid.UUID  `json:"created_by" db:"created_by"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	LastActivityAt  time.Time  `json:"last_activity_at" db:"last_activity_at"`
}

func (r ChatRoom) IsPublic() bool { return r.RoomType == RoomTypePublic }

// Expired reports whether writes to the room must be refused.
func (r ChatRoom) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// Center returns the room's geofence center; private rooms have none.
func (r ChatRoom) Center() (geo.Point, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *r.Latitude, Lon: *r.Longitude}, true
}

func (r ChatRoom) Candidate() (geo.Candidate, bool) {
	center, ok := r.Center()
	if !ok {
		return geo.Candidate{}, false
	}
	return geo.Candidate{
		ID:              r.ID,
		Center:          center,
		RadiusMeters:    r.RadiusMeters,
		IsAutoGenerated: r.IsAutoGenerated,
		ExpiresAt:       r.ExpiresAt,
	}, true
}

// PrivateRoomName encodes both members so the same pair always maps to one room.
func PrivateRoomName(a, b uuid.UUID) string {
	lo, hi := OrderedPair(a, b)
	return fmt.Sprintf("private_%s_%s", lo, hi)
}

// AutoRoomName names a room created implicitly at p.
func AutoRoomName(p geo.Point) string {
	return fmt.Sprintf("Nearby %.3f, %.3f", p.Lat, p.Lon)
}

type NearbyRoom struct {
	ChatRoom
	DistanceMeters float64 `json:"distance_meters"`
	InRange        bool    `json:"in_range"`
}

type JoinRoomRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
	Name      string   `json:"name" validate:"omitempty,max=80"`
}

type JoinRoomResponse struct {
	Room           ChatRoom `json:"room"`
	Created        bool     `json:"created"`
	DistanceMeters float64  `json:"distance_meters"`
}

type PrivateRoomRequest struct {
	FriendID string `json:"friend_id" validate:"required,uuid"`
}
