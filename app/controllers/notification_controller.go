package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tapin-app/tapin-backend/app/queries"
	"github.com/tapin-app/tapin-backend/pkg/database"
)

const notificationPageMax = 100

func GetNotifications(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	unread := c.QueryBool("unread", false)

	nq := queries.NotificationQueries{DB: database.DB}
	out, err := nq.ListNotifications(c.UserContext(), userID, unread, notificationPageMax)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to get notifications")
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

func MarkNotificationRead(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid notification id")
	}

	nq := queries.NotificationQueries{DB: database.DB}
	if err := nq.MarkRead(c.UserContext(), id, userID); err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "notification not found")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to update notification")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Notification marked as read"})
}

func MarkAllNotificationsRead(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}
	nq := queries.NotificationQueries{DB: database.DB}
	n, err := nq.MarkAllRead(c.UserContext(), userID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update notifications")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Notifications marked as read", "updated": n})
}
