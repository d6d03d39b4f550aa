package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tapin-app/tapin-backend/pkg/metrics"
	"github.com/tapin-app/tapin-backend/pkg/middleware"
	"github.com/tapin-app/tapin-backend/pkg/utils"
)

// WsUpgrade authenticates the ?token= query parameter before the websocket
// handshake. Browsers cannot set headers on websocket requests.
func WsUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	userID, err := utils.ParseUserID(c.Query("token"))
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Missing or invalid token")
	}
	c.Locals(middleware.UserIDKey, userID)
	return c.Next()
}

// WsHandler keeps one client connection registered with the notifier until
// it closes. Inbound frames are read only to detect disconnects.
func WsHandler(c *websocket.Conn) {
	userID, ok := c.Locals(middleware.UserIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		_ = c.Close()
		return
	}

	cl := utils.DefaultNotifier.Register(userID, c)
	metrics.WebsocketConnections.Inc()
	log.Info().Str("event", "ws_connected").Str("user", userID.String()).Msg("")

	defer func() {
		utils.DefaultNotifier.Unregister(cl)
		metrics.WebsocketConnections.Dec()
		log.Info().Str("event", "ws_disconnected").Str("user", userID.String()).Msg("")
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
