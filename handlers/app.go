// handlers/app.go
package handlers

import (
	"strings"

	"three-card-game/middleware"
	"three-card-game/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

type Deps struct {
	Sessions        *services.SessionService
	Stats           *services.StatsService
	GatewayToken    string
	AllowedOrigins  []string
	LeaderboardSize int
	Stream          StreamConfig
	Logger          *zap.Logger
}

// NewApp builds the HTTP API. /healthz is the only route outside gateway auth.
func NewApp(d Deps) *fiber.App {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "three-card-game",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler,
	})
	app.Use(recover.New())

	if len(d.AllowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(d.AllowedOrigins, ","),
			AllowMethods:     "GET,POST,OPTIONS",
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-User-ID",
			AllowCredentials: true,
			MaxAge:           86400,
		}))
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":         "ok",
			"active_matches": d.Sessions.Active(),
		})
	})

	// 🔐❗ Everything below is Gateway-only
	app.Use(middleware.GatewayAuthMiddleware(d.GatewayToken, d.Logger))

	SetupMatchRoutes(app, d.Sessions, d.Stream, d.Logger)
	SetupStatsRoutes(app, d.Stats, d.LeaderboardSize, d.Logger)

	return app
}
