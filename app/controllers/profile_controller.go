package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tapin-app/tapin-backend/app/models"
	"github.com/tapin-app/tapin-backend/app/queries"
	"github.com/tapin-app/tapin-backend/pkg/database"
	"github.com/tapin-app/tapin-backend/pkg/geo"
)

const profileSearchLimit = 20

func GetMyProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	profiles := queries.ProfileQueries{DB: database.DB}
	p, err := profiles.GetProfileByID(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to get profile")
	}
	return c.Status(fiber.StatusOK).JSON(p)
}

func UpdateMyProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	req := &models.UpdateProfileRequest{}
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	profiles := queries.ProfileQueries{DB: database.DB}
	if err := profiles.UpdateProfile(ctx, userID, *req); err != nil {
		switch {
		case errors.Is(err, queries.ErrAlreadyExists):
			return fail(c, fiber.StatusConflict, "Username already taken")
		case errors.Is(err, queries.ErrNotFound):
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		log.Error().Err(err).Msg("update profile")
		return fail(c, fiber.StatusInternalServerError, "Failed to update profile")
	}

	p, err := profiles.GetProfileByID(ctx, userID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to get profile")
	}
	return c.Status(fiber.StatusOK).JSON(p)
}

func UpdateLocation(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	req := &models.UpdateLocationRequest{}
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	p := geo.Point{Lat: *req.Latitude, Lon: *req.Longitude}
	if !geo.Valid(p) {
		return fail(c, fiber.StatusBadRequest, "invalid coordinates")
	}

	profiles := queries.ProfileQueries{DB: database.DB}
	if err := profiles.UpdateLocation(c.UserContext(), userID, p.Lat, p.Lon, time.Now()); err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to update location")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Location updated", "latitude": p.Lat, "longitude": p.Lon})
}

func UpdatePushToken(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	req := &models.UpdatePushTokenRequest{}
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	profiles := queries.ProfileQueries{DB: database.DB}
	if err := profiles.UpdatePushToken(c.UserContext(), userID, req.PushToken); err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to update push token")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Push token updated"})
}

func GetProfile(c *fiber.Ctx) error {
	if _, err := currentUser(c); err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user id")
	}
	profiles := queries.ProfileQueries{DB: database.DB}
	p, err := profiles.GetProfileByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to get profile")
	}
	return c.Status(fiber.StatusOK).JSON(p.Public())
}

func SearchProfiles(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return fail(c, fiber.StatusBadRequest, "q required")
	}
	profiles := queries.ProfileQueries{DB: database.DB}
	res, err := profiles.SearchProfiles(c.UserContext(), q, userID, profileSearchLimit)
	if err != nil {
		log.Error().Err(err).Msg("search profiles")
		return fail(c, fiber.StatusInternalServerError, "Failed to search profiles")
	}
	return c.Status(fiber.StatusOK).JSON(res)
}
