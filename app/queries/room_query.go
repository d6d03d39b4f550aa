package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tapin-app/tapin-backend/app/models"
	"github.com/tapin-app/tapin-backend/pkg/geo"
)

const roomColumns = `id, name, room_type, is_auto_generated, latitude, longitude, radius_meters,
	created_by, created_at, expires_at, last_activity_at`

// roomMatchLockKey serialises join-or-create across every backend instance
// sharing the database.
const roomMatchLockKey int64 = 0x7461_7069_6e72_6d

type RoomQueries struct {
	DB sqlx.ExtContext
}

func (q *RoomQueries) CreateRoom(ctx context.Context, r *models.ChatRoom) error {
	query := `INSERT INTO chat_rooms (id, name, room_type, is_auto_generated, latitude, longitude, radius_meters, created_by, created_at, expires_at, last_activity_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := q.DB.ExecContext(ctx, query, r.ID, r.Name, r.RoomType, r.IsAutoGenerated, r.Latitude, r.Longitude,
		r.RadiusMeters, r.CreatedBy, r.CreatedAt, r.ExpiresAt, r.LastActivityAt)
	if err != nil {
		if uniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

func (q *RoomQueries) getOne(ctx context.Context, where string, arg interface{}) (models.ChatRoom, error) {
	r := models.ChatRoom{}
	query := `SELECT ` + roomColumns + ` FROM chat_rooms WHERE ` + where
	if err := sqlx.GetContext(ctx, q.DB, &r, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, ErrNotFound
		}
		return r, fmt.Errorf("get room: %w", err)
	}
	return r, nil
}

func (q *RoomQueries) GetRoomByID(ctx context.Context, id uuid.UUID) (models.ChatRoom, error) {
	return q.getOne(ctx, `id = $1`, id)
}

func (q *RoomQueries) GetRoomByName(ctx context.Context, name string) (models.ChatRoom, error) {
	return q.getOne(ctx, `name = $1`, name)
}

// ListPublicRoomsInBox returns unexpired public rooms whose centers fall in box.
func (q *RoomQueries) ListPublicRoomsInBox(ctx context.Context, box geo.Box, now time.Time) ([]models.ChatRoom, error) {
	minLon, maxLon := box.MinLon, box.MaxLon
	if minLon < -180 || maxLon > 180 {
		// Wrapping envelopes are filtered in Go below.
		minLon, maxLon = -180, 180
	}

	rooms := []models.ChatRoom{}
	query := `SELECT ` + roomColumns + ` FROM chat_rooms
			  WHERE room_type = 'public' AND (expires_at IS NULL OR expires_at > $1)
			  AND latitude BETWEEN $2 AND $3 AND longitude BETWEEN $4 AND $5`
	if err := sqlx.SelectContext(ctx, q.DB, &rooms, query, now, box.MinLat, box.MaxLat, minLon, maxLon); err != nil {
		return rooms, fmt.Errorf("list public rooms: %w", err)
	}

	out := rooms[:0]
	for _, r := range rooms {
		if c, ok := r.Center(); ok && box.Contains(c) {
			out = append(out, r)
		}
	}
	return out, nil
}

// LockRoomMatching takes a transaction-scoped advisory lock. It must run inside a transaction.
func (q *RoomQueries) LockRoomMatching(ctx context.Context) error {
	if _, err := q.DB.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, roomMatchLockKey); err != nil {
		return fmt.Errorf("lock room matching: %w", err)
	}
	return nil
}

// AddParticipant is idempotent.
func (q *RoomQueries) AddParticipant(ctx context.Context, roomID, userID uuid.UUID, at time.Time) error {
	query := `INSERT INTO room_participants (room_id, user_id, joined_at) VALUES ($1, $2, $3) ON CONFLICT (room_id, user_id) DO NOTHING`
	if _, err := q.DB.ExecContext(ctx, query, roomID, userID, at); err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

func (q *RoomQueries) RemoveParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	res, err := q.DB.ExecContext(ctx, `DELETE FROM room_participants WHERE room_id = $1 AND user_id = $2`, roomID, userID)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	if err := affected(res.RowsAffected()); errors.Is(err, ErrNoRowsChanged) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	return nil
}

func (q *RoomQueries) IsParticipant(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	var ok bool
	query := `SELECT EXISTS (SELECT 1 FROM room_participants WHERE room_id = $1 AND user_id = $2)`
	if err := sqlx.GetContext(ctx, q.DB, &ok, query, roomID, userID); err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return ok, nil
}

// ListRoomsByUser returns the caller's active rooms, most recent activity first.
func (q *RoomQueries) ListRoomsByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.ChatRoom, error) {
	rooms := []models.ChatRoom{}
	query := `SELECT r.id, r.name, r.room_type, r.is_auto_generated, r.latitude, r.longitude, r.radius_meters,
			  r.created_by, r.created_at, r.expires_at, r.last_activity_at
			  FROM chat_rooms r JOIN room_participants p ON p.room_id = r.id
			  WHERE p.user_id = $1 AND (r.expires_at IS NULL OR r.expires_at > $2)
			  ORDER BY r.last_activity_at DESC`
	if err := sqlx.SelectContext(ctx, q.DB, &rooms, query, userID, now); err != nil {
		return rooms, fmt.Errorf("list rooms by user: %w", err)
	}
	return rooms, nil
}

func (q *RoomQueries) ListParticipants(ctx context.Context, roomID uuid.UUID) ([]models.PublicProfile, error) {
	out := []models.PublicProfile{}
	query := `SELECT pr.id, pr.username, pr.display_name, pr.bio, pr.avatar_url
			  FROM room_participants p JOIN profiles pr ON pr.id = p.user_id
			  WHERE p.room_id = $1 ORDER BY p.joined_at ASC`
	if err := sqlx.SelectContext(ctx, q.DB, &out, query, roomID); err != nil {
		return out, fmt.Errorf("list participants: %w", err)
	}
	return out, nil
}

func (q *RoomQueries) ParticipantIDs(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if err := sqlx.SelectContext(ctx, q.DB, &ids, `SELECT user_id FROM room_participants WHERE room_id = $1`, roomID); err != nil {
		return ids, fmt.Errorf("participant ids: %w", err)
	}
	return ids, nil
}

// PushTargets lists participants other than exclude that registered a push token.
func (q *RoomQueries) PushTargets(ctx context.Context, roomID, exclude uuid.UUID) ([]models.PushTarget, error) {
	out := []models.PushTarget{}
	query := `SELECT pr.id, pr.push_token FROM room_participants p JOIN profiles pr ON pr.id = p.user_id
			  WHERE p.room_id = $1 AND p.user_id <> $2 AND pr.push_token IS NOT NULL AND pr.push_token <> ''`
	if err := sqlx.SelectContext(ctx, q.DB, &out, query, roomID, exclude); err != nil {
		return out, fmt.Errorf("push targets: %w", err)
	}
	return out, nil
}

func (q *RoomQueries) TouchRoom(ctx context.Context, roomID uuid.UUID, at time.Time) error {
	if _, err := q.DB.ExecContext(ctx, `UPDATE chat_rooms SET last_activity_at = $1 WHERE id = $2`, at, roomID); err != nil {
		return fmt.Errorf("touch room: %w", err)
	}
	return nil
}

// DeleteExpiredRooms removes rooms past their expiry along with their
// messages and participants. Run it inside a transaction.
func (q *RoomQueries) DeleteExpiredRooms(ctx context.Context, now time.Time) (int64, error) {
	expired := `SELECT id FROM chat_rooms WHERE expires_at IS NOT NULL AND expires_at <= $1`
	if _, err := q.DB.ExecContext(ctx, `DELETE FROM messages WHERE room_id IN (`+expired+`)`, now); err != nil {
		return 0, fmt.Errorf("delete expired messages: %w", err)
	}
	if _, err := q.DB.ExecContext(ctx, `DELETE FROM room_participants WHERE room_id IN (`+expired+`)`, now); err != nil {
		return 0, fmt.Errorf("delete expired participants: %w", err)
	}
	res, err := q.DB.ExecContext(ctx, `DELETE FROM chat_rooms WHERE expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired rooms: %w", err)
	}
	return res.RowsAffected()
}
