package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talentnest-connections/src/controllers"
)

func UserRoutes(router fiber.Router, uc *controllers.UserController) {
	user := router.Group("/users")

	user.Get("/suggestions", uc.GetSuggestedConnections)
	user.Get("/:username", uc.GetPublicProfile)
}
