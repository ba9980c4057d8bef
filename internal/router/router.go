package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/edufy-labs/challenge-api/internal/config"
	"github.com/edufy-labs/challenge-api/internal/handler"
	"github.com/edufy-labs/challenge-api/internal/middleware"
	"github.com/edufy-labs/challenge-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ChallengeHandler    *handler.ChallengeHandler
	SubmissionHandler   *handler.SubmissionHandler
	NotificationHandler *handler.NotificationHandler
	ActivityHandler     *handler.ActivityHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ChallengeHandler != nil {
		challenges := app.Group("/api/v2/challenges", jwtMiddleware)
		deps.ChallengeHandler.Register(challenges)
	}

	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v2/submissions",
			jwtMiddleware,
			middleware.RateLimit("submissions", 60, time.Minute),
		)
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.NotificationHandler != nil {
		notifications := app.Group("/api/v2/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	if deps.ActivityHandler != nil {
		activity := app.Group("/api/v2/activity",
			jwtMiddleware,
			middleware.RequireRole("teacher", "school", "admin"),
		)
		deps.ActivityHandler.Register(activity)
	}
}
