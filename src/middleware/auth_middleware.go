package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talentnest-connections/src/lib"
	"github.com/theleywin/talentnest-connections/src/models"
	"github.com/theleywin/talentnest-connections/src/store"
)

const (
	AuthCookie = "jwt-talentnest"
	userLocal  = "user"
)

// ProtectRoute checks for a valid JWT token, loads the user it was issued
// for and attaches it to the request context
func ProtectRoute(users store.UserStore, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Cookies(AuthCookie)
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - No token provided")
		}

		userID, err := lib.VerifyJWT(token, secret)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid token")
		}

		user, err := users.FindUserByID(c.UserContext(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "User not found")
		}
		user.Password = ""

		c.Locals(userLocal, user)
		return c.Next()
	}
}

// CurrentUser returns the user attached by ProtectRoute
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocal).(*models.User)
	return user
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
