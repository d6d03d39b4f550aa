package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/tapin-app/tapin-backend/app/controllers"
	"github.com/tapin-app/tapin-backend/pkg/middleware"
	"github.com/tapin-app/tapin-backend/pkg/ratelimit"
)

// Limiters throttle the write endpoints that hit the geofence.
type Limiters struct {
	Messages *ratelimit.Limiter
	Joins    *ratelimit.Limiter
}

func RegisterChatRoutes(app *fiber.App, l Limiters) {
	rooms := app.Group("/rooms", middleware.JWTProtected())
	rooms.Get("/nearby", controllers.GetNearbyRooms)
	rooms.Post("/join", middleware.RateLimit("rooms_join", l.Joins), controllers.JoinRoom)
	rooms.Post("/private", controllers.GetOrCreatePrivateRoom)
	rooms.Get("/", controllers.GetRoomsByUser)
	rooms.Get("/:id", controllers.GetRoom)
	rooms.Get("/:id/participants", controllers.GetRoomParticipants)
	rooms.Post("/:id/leave", controllers.LeaveRoom)

	messages := app.Group("/messages", middleware.JWTProtected())
	messages.Post("/", middleware.RateLimit("messages", l.Messages), controllers.PostMessage)
	messages.Get("/", controllers.GetMessages)

	app.Get("/gifs/search", middleware.JWTProtected(), controllers.SearchGifs)

	app.Get("/ws", controllers.WsUpgrade, websocket.New(controllers.WsHandler))
}
