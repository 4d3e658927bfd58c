package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/arena-go-api/internal/config"
	"github.com/noah-isme/arena-go-api/internal/handler"
	"github.com/noah-isme/arena-go-api/internal/middleware"
	"github.com/noah-isme/arena-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SessionHandler   *handler.SessionHandler
	ResultHandler    *handler.ResultHandler
	IntegrityHandler *handler.IntegrityWebhookHandler
	JWTMiddleware    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Contest session lifecycle (contestant-facing)
	if deps.SessionHandler != nil {
		contests := api.Group("/contests", jwtMiddleware)
		deps.SessionHandler.Register(contests)

		// Penalty application is organizer-only.
		if deps.ResultHandler != nil {
			organizer := api.Group("/contests", jwtMiddleware, middleware.RequireRole("organizer", "admin"))
			deps.ResultHandler.Register(organizer)
		}
	}

	// Analyzer webhook; authenticated out-of-band, rate limited instead.
	if deps.IntegrityHandler != nil {
		webhooks := api.Group("/integrity", middleware.RateLimit("integrity-webhook", 60, 0))
		deps.IntegrityHandler.Register(webhooks)
	}
}
