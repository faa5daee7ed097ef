package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talentnest-connections/src/controllers"
)

// ConnectionRoutes sets up connection-related routes for sending, accepting, rejecting requests, listing requests, getting connections, removing connections, and checking connection status
func ConnectionRoutes(router fiber.Router, cc *controllers.ConnectionController) {
	connection := router.Group("/connections")

	connection.Post("/request/:userId", cc.SendConnectionRequest)
	connection.Put("/accept/:requestId", cc.AcceptConnectionRequest)
	connection.Put("/reject/:requestId", cc.RejectConnectionRequest)
	connection.Get("/requests", cc.GetConnectionRequests)
	connection.Get("/", cc.GetUserConnections)
	connection.Delete("/:userId", cc.RemoveConnection)
	connection.Get("/status/:userId", cc.GetConnectionStatus)
}
