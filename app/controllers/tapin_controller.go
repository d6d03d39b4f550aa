package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tapin-app/tapin-backend/app/models"
	"github.com/tapin-app/tapin-backend/app/queries"
	"github.com/tapin-app/tapin-backend/pkg/database"
)

// CreateTapin sends an ephemeral photo to a friend.
func CreateTapin(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	req := &models.CreateTapinRequest{}
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	receiverID := uuid.MustParse(req.ReceiverID)
	if receiverID == userID {
		return fail(c, fiber.StatusBadRequest, "cannot send a tapin to yourself")
	}

	ctx := c.UserContext()
	fq := queries.FriendQueries{DB: database.DB}
	ok, err := fq.AreFriends(ctx, userID, receiverID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to send tapin")
	}
	if !ok {
		return fail(c, fiber.StatusForbidden, "tapins can only be sent to friends")
	}

	now := time.Now()
	t := models.Tapin{
		ID:         uuid.New(),
		SenderID:   userID,
		ReceiverID: receiverID,
		ImageURL:   req.ImageURL,
		CreatedAt:  now,
		ExpiresAt:  now.Add(settings.TapinTTL),
	}
	if req.Caption != "" {
		caption := req.Caption
		t.Caption = &caption
	}

	tq := queries.TapinQueries{DB: database.DB}
	if err := tq.CreateTapin(ctx, &t); err != nil {
		log.Error().Err(err).Msg("create tapin")
		return fail(c, fiber.StatusInternalServerError, "failed to send tapin")
	}

	enqueue("notify_tapin", func(ctx context.Context) error {
		name := "A friend"
		profiles := queries.ProfileQueries{DB: database.DB}
		if p, err := profiles.GetProfileByID(ctx, userID); err == nil {
			name = p.Username
		}
		return notifyUser(ctx, receiverID, models.NotificationTapin,
			map[string]interface{}{"tapin_id": t.ID, "user_id": userID, "username": name},
			"New TapIn", name+" sent you a TapIn")
	})
	return c.Status(fiber.StatusCreated).JSON(t)
}

func GetTapins(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	tq := queries.TapinQueries{DB: database.DB}
	out, err := tq.ListReceived(c.UserContext(), userID, time.Now())
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get tapins")
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

func ViewTapin(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid tapin id")
	}

	ctx := c.UserContext()
	tq := queries.TapinQueries{DB: database.DB}
	t, err := tq.GetTapin(ctx, id)
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "tapin not found")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to get tapin")
	}
	if t.ReceiverID != userID {
		return fail(c, fiber.StatusForbidden, "only the receiver can view this tapin")
	}
	if !time.Now().Before(t.ExpiresAt) {
		return fail(c, fiber.StatusGone, "tapin expired")
	}
	if err := tq.MarkViewed(ctx, id); err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update tapin")
	}
	t.Viewed = true
	return c.Status(fiber.StatusOK).JSON(t)
}
