package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talentnest-connections/src/controllers"
)

// NotificationRoutes sets up notification-related routes for listing, marking as read, and deleting notifications
func NotificationRoutes(router fiber.Router, nc *controllers.NotificationController) {
	notification := router.Group("/notifications")

	notification.Get("/", nc.GetUserNotifications)
	notification.Put("/:id/read", nc.MarkNotificationAsRead)
	notification.Delete("/:id", nc.DeleteNotification)
}
