package routes

import (
	"github.com/gofiber/fiber/v3"
	"github.com/jaytnw/sage-insights/internal/handlers"
	"github.com/jaytnw/sage-insights/internal/session"
)

func Setup(app fiber.Router, gate *session.Gate, insightsHandler *handlers.InsightsHandler, sessionHandler *handlers.SessionHandler) {

	app.Get("/", func(c fiber.Ctx) error {
		return c.Redirect().To("/ai-insights")
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Get(gate.LoginPath(), sessionHandler.LoginPage)
	app.Post(gate.LoginPath(), sessionHandler.Login)
	app.Post("/logout", sessionHandler.Logout)

	insights := app.Group("/ai-insights", gate.RequirePage)
	insights.Get("/", insightsHandler.Page)

	api := app.Group("/api/insights", gate.RequireAPI)
	api.Get("/", insightsHandler.GetSnapshot)
	api.Get("/labs", insightsHandler.GetLabs)
	api.Post("/lab", insightsHandler.SelectLab)

}
