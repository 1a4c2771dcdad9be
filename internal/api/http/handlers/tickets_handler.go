package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/support-deck/chat-service/internal/api/dto"
	"github.com/support-deck/chat-service/internal/service"
	"github.com/support-deck/chat-service/pkg/util"
)

// TicketsHandler manages ticket and chat endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	messages *service.MessageService
	ai       *service.AIService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, messages *service.MessageService, ai *service.AIService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, messages: messages, ai: ai}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return util.NewValidationError("title required", nil)
	}

	ticket, err := h.tickets.Create(c.UserContext(), service.TicketCreateInput{
		RequesterName: req.Name,
		City:          req.City,
		Title:         req.Title,
		Description:   req.Description,
		Severity:      req.Severity,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"ticket":  dto.NewTicketResponse(ticket),
	})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.tickets.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"success": true, "tickets": items})
}

// ListSolved GET /api/tickets/solved.
func (h *TicketsHandler) ListSolved(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return util.NewValidationError("invalid limit", nil)
		}
		limit = parsed
	}
	tickets, err := h.tickets.ListSolved(c.UserContext(), limit)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"success": true, "tickets": items})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "ticket": dto.NewTicketResponse(ticket)})
}

// AddMessage POST /api/tickets/:id/chat.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	msg, err := h.messages.Append(c.UserContext(), service.AppendInput{
		TicketID:   id,
		AuthorType: req.AuthorType,
		AuthorName: req.AuthorName,
		Text:       req.Text,
		TriggerAI:  true,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": msg})
}

// ListMessages GET /api/tickets/:id/messages.
func (h *TicketsHandler) ListMessages(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	history, err := h.messages.History(c.UserContext(), id, 0)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "messages": history})
}

// CloseTicket PATCH /api/tickets/:id/close. A malformed id reads as a
// ticket that does not exist, matching the missing-id response.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return util.NewNotFound("ticket", map[string]any{"id": id})
	}
	result, err := h.tickets.Close(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"ticket":     dto.NewTicketResponse(result.Ticket),
		"reanalyzed": result.Reanalyzed,
	})
}

// FlagTicket PATCH /api/tickets/:id/flag.
func (h *TicketsHandler) FlagTicket(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.FlagTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.SetFlag(c.UserContext(), id, req.Flagged)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "ticket": dto.NewTicketResponse(ticket)})
}

// Reanalyze POST /api/tickets/:id/reanalyze.
func (h *TicketsHandler) Reanalyze(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	analysis, err := h.ai.Reanalyze(c.UserContext(), id)
	if err != nil {
		if err == service.ErrAINotConfigured {
			return util.NewConflict("ai provider not configured", nil)
		}
		return err
	}
	return c.JSON(fiber.Map{"success": true, "analysis": analysis})
}

// GetAnalysis GET /api/tickets/:id/analysis.
func (h *TicketsHandler) GetAnalysis(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "analysis": dto.NewAnalysisResponse(ticket)})
}

func ticketID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", util.NewValidationError("invalid ticket id", map[string]any{"id": id})
	}
	return id, nil
}
