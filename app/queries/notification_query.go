package queries

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tapin-app/tapin-backend/app/models"
)

type NotificationQueries struct {
	DB sqlx.ExtContext
}

func (q *NotificationQueries) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `INSERT INTO notifications (id, user_id, type, payload, read, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := q.DB.ExecContext(ctx, query, n.ID, n.UserID, n.Type, []byte(n.Payload), n.Read, n.CreatedAt); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (q *NotificationQueries) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	out := []models.Notification{}
	query := `SELECT id, user_id, type, payload, read, created_at FROM notifications
			  WHERE user_id = $1 AND ($2 = FALSE OR read = FALSE)
			  ORDER BY created_at DESC LIMIT $3`
	if err := sqlx.SelectContext(ctx, q.DB, &out, query, userID, unreadOnly, limit); err != nil {
		return out, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (q *NotificationQueries) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	res, err := q.DB.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if err := affected(res.RowsAffected()); errors.Is(err, ErrNoRowsChanged) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	return nil
}

func (q *NotificationQueries) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := q.DB.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return res.RowsAffected()
}
