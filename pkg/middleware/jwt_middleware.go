package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tapin-app/tapin-backend/pkg/utils"
)

// UserIDKey is the Locals key holding the authenticated user's uuid.UUID.
const UserIDKey = "user_id"

func JWTProtected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromHeader(c.Get("Authorization"))
		switch {
		case errors.Is(err, utils.ErrMissingBearer):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Authorization bearer token",
			})
		case errors.Is(err, utils.ErrSecretNotSet):
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "JWT secret not set",
			})
		case err != nil:
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// CurrentUserID returns the id stored by JWTProtected.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(UserIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
