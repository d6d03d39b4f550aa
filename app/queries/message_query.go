package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tapin-app/tapin-backend/app/models"
)

type MessageQueries struct {
	DB sqlx.ExtContext
}

func (q *MessageQueries) CreateMessage(ctx context.Context, m *models.Message) error {
	query := `INSERT INTO messages (id, room_id, sender_id, content, gif_url, latitude, longitude, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := q.DB.ExecContext(ctx, query, m.ID, m.RoomID, m.SenderID, m.Content, m.GifURL, m.Latitude, m.Longitude, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// ListMessages pages backwards from before (exclusive), newest first.
func (q *MessageQueries) ListMessages(ctx context.Context, roomID uuid.UUID, before time.Time, limit int) ([]models.MessageView, error) {
	res := []models.MessageView{}
	query := `SELECT m.id, m.room_id, m.sender_id, m.content, m.gif_url, m.latitude, m.longitude, m.created_at,
			  COALESCE(p.username, '') AS sender_username
			  FROM messages m LEFT JOIN profiles p ON p.id = m.sender_id
			  WHERE m.room_id = $1 AND m.created_at < $2
			  ORDER BY m.created_at DESC LIMIT $3`
	if err := sqlx.SelectContext(ctx, q.DB, &res, query, roomID, before, limit); err != nil {
		return res, fmt.Errorf("list messages: %w", err)
	}
	return res, nil
}
