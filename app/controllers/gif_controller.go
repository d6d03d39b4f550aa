package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tapin-app/tapin-backend/pkg/utils"
)

const gifLimitMax = 50

// SearchGifs proxies Giphy so the API key stays on the server.
func SearchGifs(c *fiber.Ctx) error {
	if _, err := currentUser(c); err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return fail(c, fiber.StatusBadRequest, "q required")
	}
	limit := c.QueryInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}
	if limit > gifLimitMax {
		limit = gifLimitMax
	}

	gifs, err := utils.DefaultGiphy.Search(c.UserContext(), q, limit)
	if err != nil {
		if errors.Is(err, utils.ErrGiphyNotConfigured) {
			return fail(c, fiber.StatusServiceUnavailable, "GIF search is not configured")
		}
		log.Error().Err(err).Str("event", "giphy_error").Msg("")
		return fail(c, fiber.StatusBadGateway, "GIF search failed")
	}
	return c.Status(fiber.StatusOK).JSON(gifs)
}
