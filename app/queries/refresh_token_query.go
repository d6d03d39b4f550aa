package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tapin-app/tapin-backend/app/models"
)

type RefreshTokenQueries struct {
	DB sqlx.ExtContext
}

func (q *RefreshTokenQueries) CreateRefreshToken(ctx context.Context, rt *models.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := q.DB.ExecContext(ctx, query, rt.ID, rt.UserID, rt.Token, rt.ExpiresAt, rt.CreatedAt, rt.Revoked); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (q *RefreshTokenQueries) GetRefreshTokenByToken(ctx context.Context, token string) (models.RefreshToken, error) {
	rt := models.RefreshToken{}
	query := `SELECT id, user_id, token, expires_at, created_at, revoked FROM refresh_tokens WHERE token = $1`
	if err := sqlx.GetContext(ctx, q.DB, &rt, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rt, ErrNotFound
		}
		return rt, fmt.Errorf("get refresh token: %w", err)
	}
	return rt, nil
}

func (q *RefreshTokenQueries) RevokeRefreshTokenByToken(ctx context.Context, userID uuid.UUID, token string) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1 AND user_id = $2`
	res, err := q.DB.ExecContext(ctx, query, token, userID)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if err := affected(res.RowsAffected()); err != nil {
		if errors.Is(err, ErrNoRowsChanged) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (q *RefreshTokenQueries) RevokeRefreshTokensByUser(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND revoked = FALSE`
	if _, err := q.DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens for user: %w", err)
	}
	return nil
}
