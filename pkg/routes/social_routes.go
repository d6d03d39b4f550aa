package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tapin-app/tapin-backend/app/controllers"
	"github.com/tapin-app/tapin-backend/pkg/middleware"
)

func RegisterSocialRoutes(app *fiber.App) {
	friends := app.Group("/friends", middleware.JWTProtected())
	friends.Post("/requests", controllers.SendFriendRequest)
	friends.Get("/requests", controllers.GetFriendRequests)
	friends.Post("/requests/:id/accept", controllers.AcceptFriendRequest)
	friends.Post("/requests/:id/decline", controllers.DeclineFriendRequest)
	friends.Get("/", controllers.GetFriends)
	friends.Delete("/:id", controllers.RemoveFriend)

	notifications := app.Group("/notifications", middleware.JWTProtected())
	notifications.Get("/", controllers.GetNotifications)
	notifications.Post("/read-all", controllers.MarkAllNotificationsRead)
	notifications.Post("/:id/read", controllers.MarkNotificationRead)

	tapins := app.Group("/tapins", middleware.JWTProtected())
	tapins.Post("/", controllers.CreateTapin)
	tapins.Get("/", controllers.GetTapins)
	tapins.Post("/:id/view", controllers.ViewTapin)
}
