package controllers

import (
	"errors"
	"math"
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

func queryPoint(c *fiber.Ctx) (geo.Point, error) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return geo.Point{}, errors.New("lat required")
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		return geo.Point{}, errors.New("lon required")
	}
	p := geo.Point{Lat: lat, Lon: lon}
	if !geo.Valid(p) {
		return geo.Point{}, errors.New("invalid coordinates")
	}
	return p, nil
}

func candidatesOf(rooms []models.ChatRoom) ([]geo.Candidate, map[uuid.UUID]models.ChatRoom) {
	cands := make([]geo.Candidate, 0, len(rooms))
	byID := make(map[uuid.UUID]models.ChatRoom, len(rooms))
	for _, r := range rooms {
		if cand, ok := r.Candidate(); ok {
			cands = append(cands, cand)
			byID[r.ID] = r
		}
	}
	return cands, byID
}

// GetNearbyRooms lists active public rooms around the caller, nearest first.
func GetNearbyRooms(c *fiber.Ctx) error {
	if _, err := currentUser(c); err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}

	p, err := queryPoint(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	radius := math.Min(settings.RoomSearchRadius, settings.MaxSearchRadius)
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 || math.IsNaN(r) {
			return fail(c, fiber.StatusBadRequest, "invalid radius")
		}
		radius = math.Min(r, settings.MaxSearchRadius)
	}

	now := time.Now()
	q := queries.RoomQueries{DB: database.DB}
	rooms, err := q.ListPublicRoomsInBox(c.UserContext(), geo.BoundingBox(p, radius), now)
	if err != nil {
		log.Error().Err(err).Msg("list nearby rooms")
		return fail(c, fiber.StatusInternalServerError, "failed to get rooms")
	}

	cands, byID := candidatesOf(rooms)
	out := []models.NearbyRoom{}
	for _, r := range geo.SortByDistance(p, cands, now) {
		if r.DistanceMeters > radius {
			continue
		}
		out = append(out, models.NearbyRoom{ChatRoom: byID[r.ID], DistanceMeters: r.DistanceMeters, InRange: r.InRange})
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// JoinRoom joins the nearest public room containing the caller, creating an
// auto-generated room centered on the caller when none matches.
func JoinRoom(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}

	req := &models.JoinRoomRequest{}
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := validate.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	p := geo.Point{Lat: *req.Latitude, Lon: *req.Longitude}
	if !geo.Valid(p) {
		return fail(c, fiber.StatusBadRequest, "invalid coordinates")
	}

	ctx := c.UserContext()
	now := time.Now()

	tx, err := database.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to join room")
	}
	defer tx.Rollback()

	q := queries.RoomQueries{DB: tx}
	if err := q.LockRoomMatching(ctx); err != nil {
		log.Error().Err(err).Msg("join room")
		return fail(c, fiber.StatusInternalServerError, "failed to join room")
	}

	searchRadius := math.Max(settings.RoomSearchRadius, settings.RoomRadiusMeters)
	rooms, err := q.ListPublicRoomsInBox(ctx, geo.BoundingBox(p, searchRadius), now)
	if err != nil {
		log.Error().Err(err).Msg("join room")
		return fail(c, fiber.StatusInternalServerError, "failed to join room")
	}

	cands, byID := candidatesOf(rooms)
	resp := models.JoinRoomResponse{}
	if match, ok := geo.Match(p, cands, settings.RoomDedupMeters, now); ok {
		resp.Room = byID[match.ID]
		resp.DistanceMeters = match.DistanceMeters
	} else {
		name := req.Name
		if name == "" {
			name = models.AutoRoomName(p)
		}
		expires := now.Add(settings.RoomTTL)
		lat, lon := p.Lat, p.Lon
		resp.Room = models.ChatRoom{
			ID:              uuid.New(),
			Name:            name,
			RoomType:        models.RoomTypePublic,
			IsAutoGenerated: true,
			Latitude:        &lat,
			Longitude:       &lon,
			RadiusMeters:    settings.RoomRadiusMeters,
			CreatedBy:       userID,
			CreatedAt:       now,
			ExpiresAt:       &expires,
			LastActivityAt:  now,
		}
		if err := q.CreateRoom(ctx, &resp.Room); err != nil {
			log.Error().Err(err).Msg("create auto room")
			return fail(c, fiber.StatusInternalServerError, "failed to create room")
		}
		resp.Created = true
	}

	if err := q.AddParticipant(ctx, resp.Room.ID, userID, now); err != nil {
		log.Error().Err(err).Msg("join room")
		return fail(c, fiber.StatusInternalServerError, "failed to join room")
	}
	if err := tx.Commit(); err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to join room")
	}

	status := fiber.StatusOK
	if resp.Created {
		status = fiber.StatusCreated
		metrics.RoomsCreated.WithLabelValues(models.RoomTypePublic).Inc()
		metrics.RoomJoins.WithLabelValues("created").Inc()
		log.Info().Str("event", "room_created").Str("room", resp.Room.ID.String()).Str("user", userID.String()).
			Float64("lat", p.Lat).Float64("lon", p.Lon).Msg("")
	} else {
		metrics.RoomJoins.WithLabelValues("joined").Inc()
	}
	return c.Status(status).JSON(resp)
}

// GetOrCreatePrivateRoom resolves the single 1:1 room shared by two friends.
func GetOrCreatePrivateRoom(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}

	req := &models.PrivateRoomRequest{}
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := validate.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	friendID := uuid.MustParse(req.FriendID)
	if friendID == userID {
		return fail(c, fiber.StatusBadRequest, "cannot open a private room with yourself")
	}

	ctx := c.UserContext()
	fq := queries.FriendQueries{DB: database.DB}
	ok, err := fq.AreFriends(ctx, userID, friendID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to check friendship")
	}
	if !ok {
		return fail(c, fiber.StatusForbidden, "private rooms are only available between friends")
	}

	now := time.Now()
	tx, err := database.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to open room")
	}
	defer tx.Rollback()

	q := queries.RoomQueries{DB: tx}
	if err := q.LockRoomMatching(ctx); err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to open room")
	}

	created := false
	name := models.PrivateRoomName(userID, friendID)
	room, err := q.GetRoomByName(ctx, name)
	switch {
	case errors.Is(err, queries.ErrNotFound):
		room = models.ChatRoom{
			ID:             uuid.New(),
			Name:           name,
			RoomType:       models.RoomTypePrivate,
			CreatedBy:      userID,
			CreatedAt:      now,
			LastActivityAt: now,
		}
		if err := q.CreateRoom(ctx, &room); err != nil {
			log.Error().Err(err).Msg("create private room")
			return fail(c, fiber.StatusInternalServerError, "failed to open room")
		}
		created = true
	case err != nil:
		return fail(c, fiber.StatusInternalServerError, "failed to open room")
	}

	for _, id := range []uuid.UUID{userID, friendID} {
		if err := q.AddParticipant(ctx, room.ID, id, now); err != nil {
			return fail(c, fiber.StatusInternalServerError, "failed to open room")
		}
	}
	if err := tx.Commit(); err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to open room")
	}

	if created {
		metrics.RoomsCreated.WithLabelValues(models.RoomTypePrivate).Inc()
		return c.Status(fiber.StatusCreated).JSON(room)
	}
	return c.Status(fiber.StatusOK).JSON(room)
}

func GetRoomsByUser(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	q := queries.RoomQueries{DB: database.DB}
	rooms, err := q.ListRoomsByUser(c.UserContext(), userID, time.Now())
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get rooms")
	}
	return c.Status(fiber.StatusOK).JSON(rooms)
}

// loadReadableRoom returns the room if it is active and visible to userID.
// Private rooms are visible to participants only.
func loadReadableRoom(c *fiber.Ctx, userID, roomID uuid.UUID) (models.ChatRoom, error) {
	q := queries.RoomQueries{DB: database.DB}
	room, err := q.GetRoomByID(c.UserContext(), roomID)
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return room, fiber.NewError(fiber.StatusNotFound, "room not found")
		}
		return room, fiber.NewError(fiber.StatusInternalServerError, "failed to get room")
	}
	if room.Expired(time.Now()) {
		return room, fiber.NewError(fiber.StatusNotFound, "room not found")
	}
	if !room.IsPublic() {
		member, err := q.IsParticipant(c.UserContext(), roomID, userID)
		if err != nil {
			return room, fiber.NewError(fiber.StatusInternalServerError, "failed to get room")
		}
		if !member {
			return room, fiber.NewError(fiber.StatusForbidden, "not a member of this room")
		}
	}
	return room, nil
}

func GetRoom(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	roomID, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid room id")
	}
	room, err := loadReadableRoom(c, userID, roomID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(room)
}

func GetRoomParticipants(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	roomID, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid room id")
	}
	if _, err := loadReadableRoom(c, userID, roomID); err != nil {
		return err
	}
	q := queries.RoomQueries{DB: database.DB}
	participants, err := q.ListParticipants(c.UserContext(), roomID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get participants")
	}
	return c.Status(fiber.StatusOK).JSON(participants)
}

func LeaveRoom(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	roomID, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid room id")
	}
	q := queries.RoomQueries{DB: database.DB}
	if err := q.RemoveParticipant(c.UserContext(), roomID, userID); err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "not a member of this room")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to leave room")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
