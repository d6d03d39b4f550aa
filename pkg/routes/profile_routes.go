package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tapin-app/tapin-backend/app/controllers"
	"github.com/tapin-app/tapin-backend/pkg/middleware"
)

func RegisterProfileRoutes(app *fiber.App) {
	profiles := app.Group("/profiles", middleware.JWTProtected())
	profiles.Get("/me", controllers.GetMyProfile)
	profiles.Put("/me", controllers.UpdateMyProfile)
	profiles.Put("/me/location", controllers.UpdateLocation)
	profiles.Put("/me/push-token", controllers.UpdatePushToken)
	profiles.Get("/search", controllers.SearchProfiles)
	profiles.Get("/:id", controllers.GetProfile)
}
