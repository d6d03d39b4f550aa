package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tapin-app/tapin-backend/app/controllers"
	"github.com/tapin-app/tapin-backend/pkg/middleware"
)

func RegisterAuthRoutes(app *fiber.App) {
	auth := app.Group("/auth")
	auth.Post("/signup", controllers.UserSignUp)
	auth.Post("/verify-otp", controllers.UserVerifyOTP)
	auth.Post("/signin", controllers.UserSignIn)
	auth.Post("/google", controllers.UserSignInWithGoogle)
	auth.Post("/refresh", controllers.RefreshToken)
	auth.Post("/logout", middleware.JWTProtected(), controllers.UserLogout)
}
