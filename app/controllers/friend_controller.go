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

// acceptRequest resolves a pending request and stores the friendship in one
// transaction.
func acceptRequest(ctx context.Context, r models.FriendRequest, now time.Time) error {
	tx, err := database.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	fq := queries.FriendQueries{DB: tx}
	if err := fq.ResolveRequest(ctx, r.ID, models.FriendRequestAccepted, now); err != nil {
		return err
	}
	if err := fq.AddFriend(ctx, r.SenderID, r.ReceiverID, now); err != nil {
		return err
	}
	return tx.Commit()
}

func notifyAccepted(r models.FriendRequest, accepterName string) {
	enqueue("notify_friend_accepted", func(ctx context.Context) error {
		return notifyUser(ctx, r.SenderID, models.NotificationFriendAccepted,
			map[string]interface{}{"request_id": r.ID, "user_id": r.ReceiverID, "username": accepterName},
			"Friend request accepted", accepterName+" accepted your friend request")
	})
}

func SendFriendRequest(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	req := &models.SendFriendRequest{}
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	receiverID := uuid.MustParse(req.ReceiverID)
	if receiverID == userID {
		return fail(c, fiber.StatusBadRequest, "cannot send a friend request to yourself")
	}

	ctx := c.UserContext()
	profiles := queries.ProfileQueries{DB: database.DB}
	me, err := profiles.GetProfileByID(ctx, userID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to send friend request")
	}
	if _, err := profiles.GetProfileByID(ctx, receiverID); err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to send friend request")
	}

	fq := queries.FriendQueries{DB: database.DB}
	friends, err := fq.AreFriends(ctx, userID, receiverID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to send friend request")
	}
	if friends {
		return fail(c, fiber.StatusConflict, "already friends")
	}

	if _, err := fq.FindPendingRequest(ctx, userID, receiverID); err == nil {
		return fail(c, fiber.StatusConflict, "friend request already pending")
	} else if !errors.Is(err, queries.ErrNotFound) {
		return fail(c, fiber.StatusInternalServerError, "failed to send friend request")
	}

	now := time.Now()
	reverse, err := fq.FindPendingRequest(ctx, receiverID, userID)
	switch {
	case err == nil:
		if err := acceptRequest(ctx, reverse, now); err != nil {
			log.Error().Err(err).Msg("accept mutual friend request")
			return fail(c, fiber.StatusInternalServerError, "failed to accept friend request")
		}
		reverse.Status = models.FriendRequestAccepted
		reverse.UpdatedAt = now
		notifyAccepted(reverse, me.Username)
		log.Info().Str("event", "friend_request_accepted").Str("request", reverse.ID.String()).Bool("mutual", true).Msg("")
		return c.Status(fiber.StatusOK).JSON(reverse)
	case !errors.Is(err, queries.ErrNotFound):
		return fail(c, fiber.StatusInternalServerError, "failed to send friend request")
	}

	r := models.FriendRequest{
		ID:         uuid.New(),
		SenderID:   userID,
		ReceiverID: receiverID,
		Status:     models.FriendRequestPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := fq.CreateRequest(ctx, &r); err != nil {
		if errors.Is(err, queries.ErrAlreadyExists) {
			return fail(c, fiber.StatusConflict, "friend request already pending")
		}
		log.Error().Err(err).Msg("create friend request")
		return fail(c, fiber.StatusInternalServerError, "failed to send friend request")
	}

	enqueue("notify_friend_request", func(ctx context.Context) error {
		return notifyUser(ctx, receiverID, models.NotificationFriendRequest,
			map[string]interface{}{"request_id": r.ID, "user_id": userID, "username": me.Username},
			"New friend request", me.Username+" wants to be your friend")
	})
	return c.Status(fiber.StatusCreated).JSON(r)
}

func GetFriendRequests(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	fq := queries.FriendQueries{DB: database.DB}
	out, err := fq.ListIncoming(c.UserContext(), userID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get friend requests")
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// loadIncomingRequest fetches request :id and checks the caller received it.
func loadIncomingRequest(c *fiber.Ctx, userID uuid.UUID) (models.FriendRequest, error) {
	id, err := uuidParam(c, "id")
	if err != nil {
		return models.FriendRequest{}, fiber.NewError(fiber.StatusBadRequest, "invalid request id")
	}
	fq := queries.FriendQueries{DB: database.DB}
	r, err := fq.GetRequest(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return r, fiber.NewError(fiber.StatusNotFound, "friend request not found")
		}
		return r, fiber.NewError(fiber.StatusInternalServerError, "failed to get friend request")
	}
	if r.ReceiverID != userID {
		return r, fiber.NewError(fiber.StatusForbidden, "only the receiver can respond to this request")
	}
	if r.Status != models.FriendRequestPending {
		return r, fiber.NewError(fiber.StatusConflict, "friend request already "+r.Status)
	}
	return r, nil
}

func AcceptFriendRequest(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	r, err := loadIncomingRequest(c, userID)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	now := time.Now()
	if err := acceptRequest(ctx, r, now); err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return fail(c, fiber.StatusConflict, "friend request already resolved")
		}
		log.Error().Err(err).Msg("accept friend request")
		return fail(c, fiber.StatusInternalServerError, "failed to accept friend request")
	}
	r.Status = models.FriendRequestAccepted
	r.UpdatedAt = now

	name := ""
	profiles := queries.ProfileQueries{DB: database.DB}
	if me, err := profiles.GetProfileByID(ctx, userID); err == nil {
		name = me.Username
	}
	notifyAccepted(r, name)
	log.Info().Str("event", "friend_request_accepted").Str("request", r.ID.String()).Bool("mutual", false).Msg("")
	return c.Status(fiber.StatusOK).JSON(r)
}

func DeclineFriendRequest(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	r, err := loadIncomingRequest(c, userID)
	if err != nil {
		return err
	}

	now := time.Now()
	fq := queries.FriendQueries{DB: database.DB}
	if err := fq.ResolveRequest(c.UserContext(), r.ID, models.FriendRequestDeclined, now); err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return fail(c, fiber.StatusConflict, "friend request already resolved")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to decline friend request")
	}
	r.Status = models.FriendRequestDeclined
	r.UpdatedAt = now
	return c.Status(fiber.StatusOK).JSON(r)
}

func GetFriends(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	fq := queries.FriendQueries{DB: database.DB}
	out, err := fq.ListFriends(c.UserContext(), userID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get friends")
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

func RemoveFriend(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	friendID, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid user id")
	}
	fq := queries.FriendQueries{DB: database.DB}
	if err := fq.RemoveFriend(c.UserContext(), userID, friendID); err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "not friends")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to remove friend")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
