package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theleywin/talentnest-connections/src/controllers"
	"github.com/theleywin/talentnest-connections/src/lib"
	"github.com/theleywin/talentnest-connections/src/middleware"
	"github.com/theleywin/talentnest-connections/src/services"
	"github.com/theleywin/talentnest-connections/src/store"
)

type Deps struct {
	Store         store.Store
	Connections   *services.ConnectionService
	Notifications *services.NotificationService
	Users         *services.UserService

	JWTSecret    string
	AllowOrigins string
	Development  bool

	// Gatherer backs /metrics; nil leaves it out
	Gatherer prometheus.Gatherer
	// Ping backs /health; nil always reports ok
	Ping func(ctx context.Context) error
}

// NewApp builds the fiber app with every route registered
func NewApp(deps Deps) *fiber.App {
	if deps.AllowOrigins == "" {
		deps.AllowOrigins = "http://localhost:5173"
	}
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(deps.Development),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     deps.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	app.Get("/health", health(deps.Ping))
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1", middleware.ProtectRoute(deps.Store, deps.JWTSecret))
	ConnectionRoutes(api, controllers.NewConnectionController(deps.Connections))
	NotificationRoutes(api, controllers.NewNotificationController(deps.Notifications))
	UserRoutes(api, controllers.NewUserController(deps.Users))

	return app
}

func health(ping func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(lib.MessageResponse("Database unavailable"))
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	}
}
