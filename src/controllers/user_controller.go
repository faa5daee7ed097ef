package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talentnest-connections/src/middleware"
	"github.com/theleywin/talentnest-connections/src/services"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

// GetSuggestedConnections returns users the authenticated user is not connected with yet
func (uc *UserController) GetSuggestedConnections(c *fiber.Ctx) error {
	limit := int64(c.QueryInt("limit", services.DefaultSuggestionLimit))

	suggestions, err := uc.users.Suggestions(c.UserContext(), middleware.CurrentUser(c), limit)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(suggestions)
}

// GetPublicProfile returns a user's profile by username
func (uc *UserController) GetPublicProfile(c *fiber.Ctx) error {
	user, err := uc.users.Profile(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(user)
}
