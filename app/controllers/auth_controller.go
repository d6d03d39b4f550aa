package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/tapin-app/tapin-backend/app/models"
	"github.com/tapin-app/tapin-backend/app/queries"
	"github.com/tapin-app/tapin-backend/pkg/database"
	"github.com/tapin-app/tapin-backend/pkg/utils"
)

// issueTokens signs an access token for p and stores a fresh refresh token.
func issueTokens(ctx context.Context, p models.Profile) (models.TokenPair, error) {
	pair := models.TokenPair{}
	access, expiresIn, err := utils.GenerateAccessToken(p.ID, p.Email)
	if err != nil {
		return pair, err
	}
	pair.AccessToken = access
	pair.ExpiresIn = expiresIn

	rtStr, err := utils.GenerateRandomToken(32)
	if err != nil {
		return pair, err
	}
	now := time.Now()
	rt := &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    p.ID,
		Token:     rtStr,
		CreatedAt: now,
	}
	if settings.RefreshTokenTTL > 0 {
		exp := now.Add(settings.RefreshTokenTTL)
		rt.ExpiresAt = &exp
	}
	rtQueries := queries.RefreshTokenQueries{DB: database.DB}
	if err := rtQueries.CreateRefreshToken(ctx, rt); err != nil {
		return pair, err
	}
	pair.RefreshToken = rtStr
	pair.RefreshExpiresAt = rt.ExpiresAt
	return pair, nil
}

func signedIn(c *fiber.Ctx, p models.Profile) error {
	pair, err := issueTokens(c.UserContext(), p)
	if err != nil {
		log.Error().Err(err).Str("user", p.ID.String()).Msg("issue tokens")
		return fail(c, fiber.StatusInternalServerError, "Failed to generate token")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":            "Sign in successful",
		"access_token":       pair.AccessToken,
		"expires_in":         pair.ExpiresIn,
		"refresh_token":      pair.RefreshToken,
		"refresh_expires_at": pair.RefreshExpiresAt,
		"user":               p,
	})
}

func UserSignUp(c *fiber.Ctx) error {
	signUp := &models.SignUp{}
	if err := c.BodyParser(signUp); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(signUp); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	profiles := queries.ProfileQueries{DB: database.DB}

	existing, err := profiles.GetProfileByEmail(ctx, signUp.Email)
	switch {
	case err == nil:
		if existing.Verified {
			return fail(c, fiber.StatusConflict, "Email already registered")
		}
		otp, err := utils.GenerateOTP(4)
		if err != nil {
			return fail(c, fiber.StatusInternalServerError, "Failed to generate OTP")
		}
		if err := profiles.UpdateOTPByEmail(ctx, signUp.Email, otp); err != nil {
			log.Error().Err(err).Msg("update otp")
			return fail(c, fiber.StatusInternalServerError, "Failed to update OTP")
		}
		if err := utils.DefaultMailer.SendOTPEmail(signUp.Email, otp); err != nil {
			log.Error().Err(err).Str("event", "otp_email_failed").Msg("")
			return fail(c, fiber.StatusInternalServerError, "Failed to send OTP email")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "OTP resent to email"})
	case !errors.Is(err, queries.ErrNotFound):
		log.Error().Err(err).Msg("sign up")
		return fail(c, fiber.StatusInternalServerError, "Failed to create user")
	}

	if _, err := profiles.GetProfileByUsername(ctx, signUp.Username); err == nil {
		return fail(c, fiber.StatusConflict, "Username already taken")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(signUp.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to hash password")
	}
	otp, err := utils.GenerateOTP(4)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to generate OTP")
	}

	now := time.Now()
	p := &models.Profile{
		ID:           uuid.New(),
		Email:        signUp.Email,
		Username:     signUp.Username,
		PasswordHash: string(hashedPassword),
		OTP:          otp,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := profiles.CreateProfile(ctx, p); err != nil {
		if errors.Is(err, queries.ErrAlreadyExists) {
			return fail(c, fiber.StatusConflict, "Email or username already registered")
		}
		log.Error().Err(err).Msg("create profile")
		return fail(c, fiber.StatusInternalServerError, "Failed to create user")
	}

	if err := utils.DefaultMailer.SendOTPEmail(signUp.Email, otp); err != nil {
		log.Error().Err(err).Str("event", "otp_email_failed").Msg("")
		return fail(c, fiber.StatusInternalServerError, "Failed to send OTP email")
	}

	log.Info().Str("event", "user_signed_up").Str("user", p.ID.String()).Msg("")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "User registered. OTP sent to email"})
}

func UserVerifyOTP(c *fiber.Ctx) error {
	payload := &models.VerifyOTP{}
	if err := c.BodyParser(payload); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(payload); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	profiles := queries.ProfileQueries{DB: database.DB}
	if err := profiles.VerifyOTPByEmail(c.UserContext(), payload.Email, payload.OTP); err != nil {
		if errors.Is(err, queries.ErrNoRowsChanged) {
			return fail(c, fiber.StatusBadRequest, "Invalid OTP")
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to verify OTP")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Account verified successfully"})
}

func UserSignIn(c *fiber.Ctx) error {
	signIn := &models.SignIn{}
	if err := c.BodyParser(signIn); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(signIn); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	profiles := queries.ProfileQueries{DB: database.DB}
	p, err := profiles.GetProfileByEmail(c.UserContext(), signIn.Email)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid email or password")
	}
	if p.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(signIn.Password)) != nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid email or password")
	}
	if !p.Verified {
		return fail(c, fiber.StatusUnauthorized, "Account not verified. Please verify your account before signing in")
	}
	return signedIn(c, p)
}

func UserSignInWithGoogle(c *fiber.Ctx) error {
	payload := &models.GoogleSignIn{}
	if err := c.BodyParser(payload); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(payload); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	email, err := utils.ValidateGoogleIDToken(ctx, payload.IDToken, settings.OAuthClientID)
	if err != nil {
		if errors.Is(err, utils.ErrOAuthNotConfigured) {
			return fail(c, fiber.StatusServiceUnavailable, "Google sign in is not configured")
		}
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}

	profiles := queries.ProfileQueries{DB: database.DB}
	p, err := profiles.GetProfileByEmail(ctx, email)
	if errors.Is(err, queries.ErrNotFound) {
		base := strings.Split(email, "@")[0]
		username := base
		if _, err := profiles.GetProfileByUsername(ctx, username); err == nil {
			username = base + uuid.New().String()[:8]
		}
		now := time.Now()
		p = models.Profile{
			ID:        uuid.New(),
			Email:     email,
			Username:  username,
			Verified:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := profiles.CreateProfile(ctx, &p); err != nil {
			log.Error().Err(err).Msg("create profile from google")
			return fail(c, fiber.StatusInternalServerError, "Failed to create user from Google account")
		}
	} else if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to sign in")
	}
	return signedIn(c, p)
}

func RefreshToken(c *fiber.Ctx) error {
	payload := &models.RefreshRequest{}
	if err := c.BodyParser(payload); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(payload); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	rtQueries := queries.RefreshTokenQueries{DB: database.DB}
	rt, err := rtQueries.GetRefreshTokenByToken(ctx, payload.RefreshToken)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid refresh token")
	}
	if rt.Revoked || rt.Expired(time.Now()) {
		return fail(c, fiber.StatusUnauthorized, "Refresh token expired or revoked")
	}

	profiles := queries.ProfileQueries{DB: database.DB}
	p, err := profiles.GetProfileByID(ctx, rt.UserID)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "User not found")
	}

	access, expiresIn, err := utils.GenerateAccessToken(p.ID, p.Email)
	if err != nil {
		if errors.Is(err, utils.ErrSecretNotSet) {
			return fail(c, fiber.StatusInternalServerError, "JWT secret not set")
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to generate access token")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"access_token": access, "expires_in": expiresIn})
}

// UserLogout revokes the given refresh token, or every token of the caller
// when none is supplied.
func UserLogout(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}

	body := struct {
		RefreshToken string `json:"refresh_token"`
	}{}
	_ = c.BodyParser(&body)

	ctx := c.UserContext()
	rtQueries := queries.RefreshTokenQueries{DB: database.DB}
	if body.RefreshToken != "" {
		if err := rtQueries.RevokeRefreshTokenByToken(ctx, userID, body.RefreshToken); err != nil {
			if errors.Is(err, queries.ErrNotFound) {
				return fail(c, fiber.StatusNotFound, "Refresh token not found")
			}
			return fail(c, fiber.StatusInternalServerError, "Failed to revoke refresh token")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Refresh token revoked"})
	}

	if err := rtQueries.RevokeRefreshTokensByUser(ctx, userID); err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to revoke refresh tokens for user")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Logged out"})
}
