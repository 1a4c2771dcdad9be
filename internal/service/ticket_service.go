package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/support-deck/chat-service/internal/config"
	"github.com/support-deck/chat-service/internal/domain"
	"github.com/support-deck/chat-service/internal/events"
	"github.com/support-deck/chat-service/internal/repository"
	"github.com/support-deck/chat-service/internal/state"
	"github.com/support-deck/chat-service/pkg/util"
)

// welcomeText opens every new ticket thread before the customer's issue
// message lands.
const welcomeText = "Chatbot will triage your issue and a specialist will join shortly."

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	RequesterName string
	City          string
	Title         string
	Description   string
	Severity      string
}

// CloseResult reports the close outcome including the optional reanalysis.
type CloseResult struct {
	Ticket     *domain.Ticket
	Reanalyzed bool
	Analysis   *AnalysisResult
}

// TicketService coordinates the ticket lifecycle: creation with the opening
// message pair, idempotent close with post-close reanalysis, and flag
// toggling.
type TicketService struct {
	tickets  repository.TicketRepository
	msgs     *MessageService
	aiSvc    *AIService
	stats    *StatsService
	dispatch events.Dispatcher
	state    state.Service
	logger   *zap.Logger
	cfg      config.StatsConfig
}

// TicketDependencies bundles collaborators for TicketService.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	MessageService *MessageService
	AIService      *AIService
	StatsService   *StatsService
	Dispatcher     events.Dispatcher
	State          state.Service
	Logger         *zap.Logger
	Config         config.StatsConfig
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:  deps.TicketRepo,
		msgs:     deps.MessageService,
		aiSvc:    deps.AIService,
		stats:    deps.StatsService,
		dispatch: deps.Dispatcher,
		state:    deps.State,
		logger:   deps.Logger,
		cfg:      deps.Config,
	}
}

// Create opens a ticket, seeds the thread with the welcome bot message and
// the customer's issue message (which triggers the AI auto-reply), then
// announces the ticket and refreshed stats. The returned snapshot is the
// ticket as created, before the seed messages bump its counters.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, util.NewValidationError("title required", nil)
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		City:        orDefault(input.City, "Unknown"),
		Severity:    domain.NormalizeSeverity(input.Severity),
		Status:      domain.TicketStatusOpen,
		CreatedBy:   orDefault(input.RequesterName, "Guest"),
		AISentiment: domain.SentimentNeutral,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	// A fresh ticket starts with a clean quiet window.
	if err := s.state.ClearStaffActivity(ctx, ticket.ID); err != nil {
		s.logger.Warn("clear staff activity failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	if _, err := s.msgs.Append(ctx, AppendInput{
		TicketID:   ticket.ID,
		AuthorType: string(domain.AuthorTypeBot),
		AuthorName: botAuthorName,
		Text:       welcomeText,
	}); err != nil {
		return nil, err
	}

	issueText := fmt.Sprintf("**Issue:** %s\n\n**Details:** %s\n\n**City:** %s",
		ticket.Title, orDefault(ticket.Description, "(no description)"), ticket.City)
	if _, err := s.msgs.Append(ctx, AppendInput{
		TicketID:   ticket.ID,
		AuthorType: string(domain.AuthorTypeUser),
		AuthorName: ticket.CreatedBy,
		Text:       issueText,
		TriggerAI:  true,
	}); err != nil {
		return nil, err
	}

	s.stats.BumpHappiness(ctx, s.cfg.HappinessOnCreate)
	_ = s.dispatch.Publish(ctx, events.Broadcast(events.EventTicketCreated, events.NewTicketSnapshotPayload(ticket)))
	s.stats.Broadcast(ctx)

	return ticket, nil
}

// Close transitions the ticket to fixed. Closing an already-fixed ticket
// succeeds without touching closedAt. Both paths re-announce the closed
// state and refresh stats, then run the post-close reanalysis in-line,
// tolerating provider failure.
func (s *TicketService) Close(ctx context.Context, ticketID string) (*CloseResult, error) {
	ticket, changed, err := s.tickets.Close(ctx, ticketID, time.Now())
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}

	_ = s.dispatch.Publish(ctx, events.Broadcast(events.EventTicketClosed, events.TicketClosedPayload{
		ID:    ticket.ID,
		Title: ticket.Title,
	}))
	if changed {
		_ = s.dispatch.Publish(ctx, events.Broadcast(events.EventTicketMeta, events.NewTicketMetaPayload(ticket)))
		s.stats.BumpHappiness(ctx, s.cfg.HappinessOnResolve)
	}
	s.stats.Broadcast(ctx)

	result := &CloseResult{Ticket: ticket}
	analysis, err := s.aiSvc.Reanalyze(ctx, ticketID)
	if err != nil {
		if err != ErrAINotConfigured {
			s.logger.Error("reanalysis on close failed", zap.String("ticket_id", ticketID), zap.Error(err))
		}
		return result, nil
	}
	result.Reanalyzed = true
	result.Analysis = analysis
	return result, nil
}

// SetFlag toggles the manual follow-up flag independent of status. A
// false-to-true transition additionally alerts the support room.
func (s *TicketService) SetFlag(ctx context.Context, ticketID string, flagged bool) (*domain.Ticket, error) {
	current, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}

	var flaggedAt *time.Time
	if flagged {
		now := time.Now()
		flaggedAt = &now
	}
	ticket, err := s.tickets.SetFlag(ctx, ticketID, flagged, flaggedAt)
	if err != nil {
		return nil, err
	}

	_ = s.dispatch.Publish(ctx, events.Broadcast(events.EventTicketMeta, events.NewTicketMetaPayload(ticket)))
	if flagged && !current.Flagged {
		_ = s.dispatch.Publish(ctx, events.To(events.EventTicketFlagged, events.TicketFlaggedPayload{
			TicketID:  ticket.ID,
			Sentiment: ticket.AISentiment,
			Flagged:   true,
			Keywords:  ticket.AIKeywords,
			FlaggedAt: ticket.FlaggedAt,
		}, events.RoomSupport))
	}
	return ticket, nil
}

// Get fetches a single ticket.
func (s *TicketService) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}
	return ticket, nil
}

// List returns all tickets, newest first.
func (s *TicketService) List(ctx context.Context) ([]domain.Ticket, error) {
	return s.tickets.List(ctx)
}

// ListSolved returns recently closed tickets with their AI summary fields.
// limit is clamped to 1..200, defaulting to 20.
func (s *TicketService) ListSolved(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	return s.tickets.ListSolved(ctx, limit)
}

func orDefault(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
