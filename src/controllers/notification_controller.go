package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talentnest-connections/src/lib"
	"github.com/theleywin/talentnest-connections/src/middleware"
	"github.com/theleywin/talentnest-connections/src/services"
)

type NotificationController struct {
	notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{notifications: notifications}
}

// GetUserNotifications returns all notifications for the authenticated user, populating related user data
func (nc *NotificationController) GetUserNotifications(c *fiber.Ctx) error {
	notifications, err := nc.notifications.List(c.UserContext(), middleware.CurrentUser(c).Id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(notifications)
}

// MarkNotificationAsRead marks a notification as read for the authenticated user
func (nc *NotificationController) MarkNotificationAsRead(c *fiber.Ctx) error {
	notificationID, err := lib.ParseObjectID(c.Params("id"), "Invalid notification ID format")
	if err != nil {
		return err
	}

	notification, err := nc.notifications.MarkRead(c.UserContext(), notificationID, middleware.CurrentUser(c).Id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(notification)
}

// DeleteNotification deletes a notification for the authenticated user
func (nc *NotificationController) DeleteNotification(c *fiber.Ctx) error {
	notificationID, err := lib.ParseObjectID(c.Params("id"), "Invalid notification ID format")
	if err != nil {
		return err
	}

	if err := nc.notifications.Delete(c.UserContext(), notificationID, middleware.CurrentUser(c).Id); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(lib.MessageResponse("Notification deleted successfully"))
}
