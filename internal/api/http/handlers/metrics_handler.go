package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/support-deck/chat-service/internal/service"
)

// MetricsHandler serves dashboard aggregates.
type MetricsHandler struct {
	stats *service.StatsService
}

// NewMetricsHandler constructs handler.
func NewMetricsHandler(stats *service.StatsService) *MetricsHandler {
	return &MetricsHandler{stats: stats}
}

// Summary GET /api/metrics/summary.
func (h *MetricsHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.stats.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "summary": summary})
}

// OpsSeries GET /api/metrics/ops-series.
func (h *MetricsHandler) OpsSeries(c *fiber.Ctx) error {
	series, err := h.stats.OpsSeries(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "series": series})
}
