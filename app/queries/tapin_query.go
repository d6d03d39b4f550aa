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
)

type TapinQueries struct {
	DB sqlx.ExtContext
}

func (q *TapinQueries) CreateTapin(ctx context.Context, t *models.Tapin) error {
	query := `INSERT INTO tapins (id, sender_id, receiver_id, image_url, caption, viewed, created_at, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := q.DB.ExecContext(ctx, query, t.ID, t.SenderID, t.ReceiverID, t.ImageURL, t.Caption, t.Viewed, t.CreatedAt, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create tapin: %w", err)
	}
	return nil
}

func (q *TapinQueries) GetTapin(ctx context.Context, id uuid.UUID) (models.Tapin, error) {
	t := models.Tapin{}
	query := `SELECT id, sender_id, receiver_id, image_url, caption, viewed, created_at, expires_at FROM tapins WHERE id = $1`
	if err := sqlx.GetContext(ctx, q.DB, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, ErrNotFound
		}
		return t, fmt.Errorf("get tapin: %w", err)
	}
	return t, nil
}

// ListReceived returns the receiver's unviewed, unexpired tapins, newest first.
func (q *TapinQueries) ListReceived(ctx context.Context, receiver uuid.UUID, now time.Time) ([]models.TapinView, error) {
	out := []models.TapinView{}
	query := `SELECT t.id, t.sender_id, t.receiver_id, t.image_url, t.caption, t.viewed, t.created_at, t.expires_at,
			  p.username AS sender_username
			  FROM tapins t JOIN profiles p ON p.id = t.sender_id
			  WHERE t.receiver_id = $1 AND t.viewed = FALSE AND t.expires_at > $2
			  ORDER BY t.created_at DESC`
	if err := sqlx.SelectContext(ctx, q.DB, &out, query, receiver, now); err != nil {
		return out, fmt.Errorf("list tapins: %w", err)
	}
	return out, nil
}

func (q *TapinQueries) MarkViewed(ctx context.Context, id uuid.UUID) error {
	if _, err := q.DB.ExecContext(ctx, `UPDATE tapins SET viewed = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark tapin viewed: %w", err)
	}
	return nil
}

func (q *TapinQueries) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.DB.ExecContext(ctx, `DELETE FROM tapins WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired tapins: %w", err)
	}
	return res.RowsAffected()
}
