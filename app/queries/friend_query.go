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

type FriendQueries struct {
	DB sqlx.ExtContext
}

func (q *FriendQueries) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	lo, hi := models.OrderedPair(a, b)
	var ok bool
	query := `SELECT EXISTS (SELECT 1 FROM friends WHERE user_id_1 = $1 AND user_id_2 = $2)`
	if err := sqlx.GetContext(ctx, q.DB, &ok, query, lo, hi); err != nil {
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return ok, nil
}

// AddFriend stores the pair ordered; adding an existing pair is a no-op.
func (q *FriendQueries) AddFriend(ctx context.Context, a, b uuid.UUID, at time.Time) error {
	f := models.NewFriend(a, b, at)
	query := `INSERT INTO friends (user_id_1, user_id_2, created_at) VALUES ($1, $2, $3) ON CONFLICT (user_id_1, user_id_2) DO NOTHING`
	if _, err := q.DB.ExecContext(ctx, query, f.UserID1, f.UserID2, f.CreatedAt); err != nil {
		return fmt.Errorf("add friend: %w", err)
	}
	return nil
}

func (q *FriendQueries) RemoveFriend(ctx context.Context, a, b uuid.UUID) error {
	lo, hi := models.OrderedPair(a, b)
	res, err := q.DB.ExecContext(ctx, `DELETE FROM friends WHERE user_id_1 = $1 AND user_id_2 = $2`, lo, hi)
	if err != nil {
		return fmt.Errorf("remove friend: %w", err)
	}
	if err := affected(res.RowsAffected()); errors.Is(err, ErrNoRowsChanged) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	return nil
}

func (q *FriendQueries) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.PublicProfile, error) {
	out := []models.PublicProfile{}
	query := `SELECT p.id, p.username, p.display_name, p.bio, p.avatar_url
			  FROM friends f
			  JOIN profiles p ON p.id = CASE WHEN f.user_id_1 = $1 THEN f.user_id_2 ELSE f.user_id_1 END
			  WHERE f.user_id_1 = $1 OR f.user_id_2 = $1
			  ORDER BY p.username ASC`
	if err := sqlx.SelectContext(ctx, q.DB, &out, query, userID); err != nil {
		return out, fmt.Errorf("list friends: %w", err)
	}
	return out, nil
}

func (q *FriendQueries) CreateRequest(ctx context.Context, r *models.FriendRequest) error {
	query := `INSERT INTO friend_requests (id, sender_id, receiver_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := q.DB.ExecContext(ctx, query, r.ID, r.SenderID, r.ReceiverID, r.Status, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		if uniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create friend request: %w", err)
	}
	return nil
}

const friendRequestColumns = `id, sender_id, receiver_id, status, created_at, updated_at`

func (q *FriendQueries) GetRequest(ctx context.Context, id uuid.UUID) (models.FriendRequest, error) {
	r := models.FriendRequest{}
	query := `SELECT ` + friendRequestColumns + ` FROM friend_requests WHERE id = $1`
	if err := sqlx.GetContext(ctx, q.DB, &r, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, ErrNotFound
		}
		return r, fmt.Errorf("get friend request: %w", err)
	}
	return r, nil
}

// FindPendingRequest looks up a pending request from sender to receiver.
func (q *FriendQueries) FindPendingRequest(ctx context.Context, sender, receiver uuid.UUID) (models.FriendRequest, error) {
	r := models.FriendRequest{}
	query := `SELECT ` + friendRequestColumns + ` FROM friend_requests WHERE sender_id = $1 AND receiver_id = $2 AND status = 'pending'`
	if err := sqlx.GetContext(ctx, q.DB, &r, query, sender, receiver); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, ErrNotFound
		}
		return r, fmt.Errorf("find pending request: %w", err)
	}
	return r, nil
}

// ResolveRequest moves a pending request to status. Requests that are no
// longer pending are reported as ErrNotFound.
func (q *FriendQueries) ResolveRequest(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	query := `UPDATE friend_requests SET status = $1, updated_at = $2 WHERE id = $3 AND status = 'pending'`
	res, err := q.DB.ExecContext(ctx, query, status, at, id)
	if err != nil {
		return fmt.Errorf("resolve friend request: %w", err)
	}
	if err := affected(res.RowsAffected()); errors.Is(err, ErrNoRowsChanged) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	return nil
}

func (q *FriendQueries) ListIncoming(ctx context.Context, userID uuid.UUID) ([]models.IncomingFriendRequest, error) {
	out := []models.IncomingFriendRequest{}
	query := `SELECT r.id, r.sender_id, r.receiver_id, r.status, r.created_at, r.updated_at,
			  p.username AS sender_username, p.avatar_url AS sender_avatar_url
			  FROM friend_requests r JOIN profiles p ON p.id = r.sender_id
			  WHERE r.receiver_id = $1 AND r.status = 'pending'
			  ORDER BY r.created_at DESC`
	if err := sqlx.SelectContext(ctx, q.DB, &out, query, userID); err != nil {
		return out, fmt.Errorf("list incoming requests: %w", err)
	}
	return out, nil
}
