// Package main provides the Stepflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/stepflow/stepflow/pkg/engine"
	"github.com/stepflow/stepflow/pkg/persistence"
	"github.com/stepflow/stepflow/pkg/web"
)

type API struct {
	logger    *slog.Logger
	engine    *engine.Engine
	templates persistence.TemplateRepository
	validate  *validator.Validate
}

func NewAPI(logger *slog.Logger, eng *engine.Engine, templates persistence.TemplateRepository) *API {
	return &API{
		logger:    logger,
		engine:    eng,
		templates: templates,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.engine, a.templates, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Stepflow API")
	})

	t := app.Group("/templates")
	t.Get("/", handlers.GetTemplates)
	t.Post("/", handlers.CreateTemplate)
	t.Get("/:id", handlers.GetTemplate)
	t.Delete("/:id", handlers.DeleteTemplate)
	t.Post("/:id/executions", handlers.StartExecution)

	ex := app.Group("/executions")
	ex.Get("/", handlers.GetExecutions)
	ex.Get("/:id", handlers.GetExecution)
	ex.Post("/:id/cancel", handlers.CancelExecution)
	ex.Post("/:id/reviews/:stepId", handlers.ResolveReview)

	app.Get("/reviews", handlers.GetPendingReviews)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
