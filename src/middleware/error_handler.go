package middleware

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talentnest-connections/src/lib"
	"github.com/theleywin/talentnest-connections/src/lib/apperr"
)

// ErrorHandler turns handler errors into JSON bodies with a message.
// Internal causes are logged and only exposed when development is set.
func ErrorHandler(development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(lib.MessageResponse(fiberErr.Message))
		}

		appErr := apperr.From(err)
		body := lib.MessageResponse(appErr.Message)
		if appErr.Kind == apperr.KindInternal {
			log.Printf("[HTTP] %s %s failed: %v", c.Method(), c.Path(), err)
			if development && appErr.Err != nil {
				body["error"] = appErr.Err.Error()
			}
		}
		return c.Status(appErr.Status()).JSON(body)
	}
}
