package controllers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tapin-app/tapin-backend/app/models"
	"github.com/tapin-app/tapin-backend/app/queries"
	"github.com/tapin-app/tapin-backend/pkg/database"
	"github.com/tapin-app/tapin-backend/pkg/geo"
	"github.com/tapin-app/tapin-backend/pkg/metrics"
)

func rejectMessage(c *fiber.Ctx, status int, reason, msg string) error {
	metrics.MessagesRejected.WithLabelValues(reason).Inc()
	return fail(c, status, msg)
}

// PostMessage stores a message in a room. Public rooms only accept senders
// standing inside the room's radius.
func PostMessage(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}

	req := &models.CreateMessageRequest{}
	if err := c.BodyParser(req); err != nil {
		return rejectMessage(c, fiber.StatusBadRequest, "invalid", "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return rejectMessage(c, fiber.StatusBadRequest, "invalid", err.Error())
	}
	roomID := uuid.MustParse(req.RoomID)

	ctx := c.UserContext()
	now := time.Now()
	rooms := queries.RoomQueries{DB: database.DB}

	room, err := rooms.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return rejectMessage(c, fiber.StatusNotFound, "not_found", "room not found")
		}
		log.Error().Err(err).Msg("post message")
		return fail(c, fiber.StatusInternalServerError, "failed to send message")
	}
	if room.Expired(now) {
		return rejectMessage(c, fiber.StatusGone, "expired", "room expired")
	}

	if room.IsPublic() {
		if req.Latitude == nil || req.Longitude == nil {
			return rejectMessage(c, fiber.StatusBadRequest, "invalid", "latitude and longitude are required in public rooms")
		}
		p := geo.Point{Lat: *req.Latitude, Lon: *req.Longitude}
		center, ok := room.Center()
		if !geo.Valid(p) || !ok {
			return rejectMessage(c, fiber.StatusBadRequest, "invalid", "invalid coordinates")
		}
		if !geo.WithinRadius(p, center, room.RadiusMeters) {
			log.Info().Str("event", "message_rejected").Str("reason", "proximity").
				Str("room", room.ID.String()).Str("user", userID.String()).
				Float64("distance_m", geo.Distance(p, center)).Msg("")
			return rejectMessage(c, fiber.StatusForbidden, "proximity", "too far from room")
		}
		if err := rooms.AddParticipant(ctx, room.ID, userID, now); err != nil {
			log.Error().Err(err).Msg("post message")
			return fail(c, fiber.StatusInternalServerError, "failed to send message")
		}
	} else {
		member, err := rooms.IsParticipant(ctx, room.ID, userID)
		if err != nil {
			return fail(c, fiber.StatusInternalServerError, "failed to send message")
		}
		if !member {
			return rejectMessage(c, fiber.StatusForbidden, "not_participant", "not a member of this room")
		}
	}

	msg := models.Message{
		ID:        uuid.New(),
		RoomID:    room.ID,
		SenderID:  userID,
		Content:   req.Content,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		CreatedAt: now,
	}
	if req.GifURL != "" {
		gif := req.GifURL
		msg.GifURL = &gif
	}

	messages := queries.MessageQueries{DB: database.DB}
	if err := messages.CreateMessage(ctx, &msg); err != nil {
		log.Error().Err(err).Msg("create message")
		return fail(c, fiber.StatusInternalServerError, "failed to send message")
	}
	if err := rooms.TouchRoom(ctx, room.ID, now); err != nil {
		log.Warn().Err(err).Str("room", room.ID.String()).Msg("touch room")
	}
	metrics.MessagesSent.Inc()

	enqueue("fan_out_message", func(ctx context.Context) error {
		profiles := queries.ProfileQueries{DB: database.DB}
		name := ""
		if p, err := profiles.GetProfileByID(ctx, userID); err == nil {
			name = p.Username
		}
		return fanOutMessage(ctx, msg, room, name)
	})

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// GetMessages pages a room's history newest first.
func GetMessages(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}

	roomID, err := uuid.Parse(c.Query("room_id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "room_id required")
	}

	limit := settings.MessagePageDefault
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return fail(c, fiber.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	if limit > settings.MessagePageMax {
		limit = settings.MessagePageMax
	}

	before := time.Now()
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "before must be an RFC3339 timestamp")
		}
		before = t
	}

	if _, err := loadReadableRoom(c, userID, roomID); err != nil {
		return err
	}

	messages := queries.MessageQueries{DB: database.DB}
	page, err := messages.ListMessages(c.UserContext(), roomID, before, limit)
	if err != nil {
		log.Error().Err(err).Msg("list messages")
		return fail(c, fiber.StatusInternalServerError, "failed to get messages")
	}
	for i := range page {
		page[i].IsMe = page[i].SenderID == userID
	}
	return c.Status(fiber.StatusOK).JSON(page)
}
