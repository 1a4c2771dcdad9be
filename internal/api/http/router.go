package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/support-deck/chat-service/internal/api/http/handlers"
	"github.com/support-deck/chat-service/internal/realtime"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Tickets *handlers.TicketsHandler
	Metrics *handlers.MetricsHandler
	Hub     *realtime.Hub
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/solved", cfg.Tickets.ListSolved)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/chat", cfg.Tickets.AddMessage)
	tickets.Get("/:id/messages", cfg.Tickets.ListMessages)
	tickets.Patch("/:id/close", cfg.Tickets.CloseTicket)
	tickets.Patch("/:id/flag", cfg.Tickets.FlagTicket)
	tickets.Post("/:id/reanalyze", cfg.Tickets.Reanalyze)
	tickets.Get("/:id/analysis", cfg.Tickets.GetAnalysis)

	metrics := api.Group("/metrics")
	metrics.Get("/summary", cfg.Metrics.Summary)
	metrics.Get("/ops-series", cfg.Metrics.OpsSeries)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(cfg.Hub.Serve))
}
