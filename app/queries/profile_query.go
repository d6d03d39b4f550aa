package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tapin-app/tapin-backend/app/models"
)

const profileColumns = `id, email, username, display_name, bio, avatar_url, password_hash, verified, otp,
	latitude, longitude, location_updated_at, push_token, created_at, updated_at`

type ProfileQueries struct {
	DB sqlx.ExtContext
}

func (q *ProfileQueries) getOne(ctx context.Context, where string, arg interface{}) (models.Profile, error) {
	p := models.Profile{}
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE ` + where
	if err := sqlx.GetContext(ctx, q.DB, &p, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, ErrNotFound
		}
		return p, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (q *ProfileQueries) GetProfileByID(ctx context.Context, id uuid.UUID) (models.Profile, error) {
	return q.getOne(ctx, `id = $1`, id)
}

func (q *ProfileQueries) GetProfileByEmail(ctx context.Context, email string) (models.Profile, error) {
	return q.getOne(ctx, `lower(email) = lower($1)`, email)
}

func (q *ProfileQueries) GetProfileByUsername(ctx context.Context, username string) (models.Profile, error) {
	return q.getOne(ctx, `lower(username) = lower($1)`, username)
}

func (q *ProfileQueries) CreateProfile(ctx context.Context, p *models.Profile) error {
	query := `INSERT INTO profiles (id, email, username, password_hash, verified, otp, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := q.DB.ExecContext(ctx, query, p.ID, p.Email, p.Username, p.PasswordHash, p.Verified, p.OTP, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if uniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// UpdateProfile applies the non-nil fields of req.
func (q *ProfileQueries) UpdateProfile(ctx context.Context, id uuid.UUID, req models.UpdateProfileRequest) error {
	sets := []string{}
	args := []interface{}{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if req.Username != nil {
		add("username", *req.Username)
	}
	if req.DisplayName != nil {
		add("display_name", *req.DisplayName)
	}
	if req.Bio != nil {
		add("bio", *req.Bio)
	}
	if req.AvatarURL != nil {
		add("avatar_url", *req.AvatarURL)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now())

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE profiles SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	res, err := q.DB.ExecContext(ctx, query, args...)
	if err != nil {
		if uniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("update profile: %w", err)
	}
	if err := affected(res.RowsAffected()); errors.Is(err, ErrNoRowsChanged) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	return nil
}

func (q *ProfileQueries) UpdateLocation(ctx context.Context, id uuid.UUID, lat, lon float64, at time.Time) error {
	query := `UPDATE profiles SET latitude = $1, longitude = $2, location_updated_at = $3, updated_at = $3 WHERE id = $4`
	res, err := q.DB.ExecContext(ctx, query, lat, lon, at, id)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	if err := affected(res.RowsAffected()); errors.Is(err, ErrNoRowsChanged) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	return nil
}

// UpdatePushToken stores token, or clears it when token is empty.
func (q *ProfileQueries) UpdatePushToken(ctx context.Context, id uuid.UUID, token string) error {
	var v interface{}
	if token != "" {
		v = token
	}
	query := `UPDATE profiles SET push_token = $1, updated_at = now() WHERE id = $2`
	if _, err := q.DB.ExecContext(ctx, query, v, id); err != nil {
		return fmt.Errorf("update push token: %w", err)
	}
	return nil
}

// SearchProfiles does a case-insensitive username prefix search.
func (q *ProfileQueries) SearchProfiles(ctx context.Context, prefix string, exclude uuid.UUID, limit int) ([]models.PublicProfile, error) {
	res := []models.PublicProfile{}
	pattern := escapeLike(strings.ToLower(prefix)) + "%"
	query := `SELECT id, username, display_name, bio, avatar_url FROM profiles
			  WHERE lower(username) LIKE $1 AND id <> $2 AND verified = TRUE
			  ORDER BY username ASC LIMIT $3`
	if err := sqlx.SelectContext(ctx, q.DB, &res, query, pattern, exclude, limit); err != nil {
		return res, fmt.Errorf("search profiles: %w", err)
	}
	return res, nil
}

func (q *ProfileQueries) VerifyOTPByEmail(ctx context.Context, email, otp string) error {
	query := `UPDATE profiles SET verified = TRUE, otp = '', updated_at = now() WHERE lower(email) = lower($1) AND otp = $2 AND verified = FALSE`
	res, err := q.DB.ExecContext(ctx, query, email, otp)
	if err != nil {
		return fmt.Errorf("verify otp: %w", err)
	}
	return affected(res.RowsAffected())
}

func (q *ProfileQueries) UpdateOTPByEmail(ctx context.Context, email, otp string) error {
	query := `UPDATE profiles SET otp = $1, updated_at = now() WHERE lower(email) = lower($2)`
	res, err := q.DB.ExecContext(ctx, query, otp, email)
	if err != nil {
		return fmt.Errorf("update otp: %w", err)
	}
	return affected(res.RowsAffected())
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
