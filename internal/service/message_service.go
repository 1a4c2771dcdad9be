package service

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/support-deck/chat-service/internal/domain"
	"github.com/support-deck/chat-service/internal/events"
	"github.com/support-deck/chat-service/internal/repository"
	"github.com/support-deck/chat-service/internal/state"
	"github.com/support-deck/chat-service/pkg/util"
)

// ReplyScheduler queues an asynchronous AI reply for a ticket. The caller
// never waits on the result.
type ReplyScheduler interface {
	ScheduleReply(ctx context.Context, ticketID string)
}

// AppendInput describes one chat message append.
type AppendInput struct {
	TicketID   string
	AuthorType string
	AuthorName string
	Text       string
	TriggerAI  bool
}

// MessageService is the single choke-point persisting chat messages. Every
// append updates the owning ticket's denormalized counters in the same
// synchronous step and publishes the fan-out events, so clients and the
// ticket row never observe each other out of sync across requests.
type MessageService struct {
	tickets   repository.TicketRepository
	messages  repository.ChatMessageRepository
	dispatch  events.Dispatcher
	state     state.Service
	scheduler ReplyScheduler
	logger    *zap.Logger
}

// MessageDependencies bundles collaborators for MessageService.
type MessageDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.ChatMessageRepository
	Dispatcher  events.Dispatcher
	State       state.Service
	Scheduler   ReplyScheduler
	Logger      *zap.Logger
}

// NewMessageService constructs the service.
func NewMessageService(deps MessageDependencies) *MessageService {
	return &MessageService{
		tickets:   deps.TicketRepo,
		messages:  deps.MessageRepo,
		dispatch:  deps.Dispatcher,
		state:     deps.State,
		scheduler: deps.Scheduler,
		logger:    deps.Logger,
	}
}

// Append persists a chat message, bumps the ticket's denormalized counters
// atomically, and fans the message out to the ticket room and the support
// room. Staff authors stamp the quiet-window timestamp; user authors with
// TriggerAI set enqueue an AI reply that runs detached from this call.
func (s *MessageService) Append(ctx context.Context, in AppendInput) (events.MessagePayload, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return events.MessagePayload{}, util.NewValidationError("text required", nil)
	}

	if _, err := s.tickets.GetByID(ctx, in.TicketID); err != nil {
		if err == pgx.ErrNoRows {
			return events.MessagePayload{}, util.NewNotFound("ticket", map[string]any{"id": in.TicketID})
		}
		return events.MessagePayload{}, err
	}

	msg := &domain.ChatMessage{
		TicketID:   in.TicketID,
		AuthorType: normalizeAuthorType(in.AuthorType),
		AuthorName: in.AuthorName,
		Text:       text,
	}
	if msg.AuthorName == "" {
		msg.AuthorName = "Guest"
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return events.MessagePayload{}, err
	}

	payload := events.NewMessagePayload(msg)
	_ = s.dispatch.Publish(ctx, events.To(events.EventChatNew, payload,
		events.TicketRoom(in.TicketID), events.RoomSupport))

	updated, err := s.tickets.ApplyMessage(ctx, in.TicketID, domain.Snippet(text), msg.CreatedAt)
	if err != nil {
		return events.MessagePayload{}, err
	}
	_ = s.dispatch.Publish(ctx, events.Broadcast(events.EventTicketMeta, events.NewTicketMetaPayload(updated)))

	if msg.AuthorType == domain.AuthorTypeStaff {
		// The message is already persisted and fanned out; a missed
		// quiet-window stamp only risks a redundant bot reply.
		if err := s.state.TouchStaffActivity(ctx, in.TicketID, msg.CreatedAt); err != nil {
			s.logger.Warn("touch staff activity failed", zap.String("ticket_id", in.TicketID), zap.Error(err))
		}
	}

	if in.TriggerAI && msg.AuthorType == domain.AuthorTypeUser && s.scheduler != nil {
		s.scheduler.ScheduleReply(ctx, in.TicketID)
	}
	return payload, nil
}

// History returns the normalized message history for a ticket, ascending by
// creation time. The realtime hub replays this on every (re)join.
func (s *MessageService) History(ctx context.Context, ticketID string, limit int) ([]events.MessagePayload, error) {
	msgs, err := s.messages.ListByTicket(ctx, ticketID, limit)
	if err != nil {
		return nil, err
	}
	payloads := make([]events.MessagePayload, 0, len(msgs))
	for i := range msgs {
		payloads = append(payloads, events.NewMessagePayload(&msgs[i]))
	}
	return payloads, nil
}

func normalizeAuthorType(raw string) domain.MessageAuthorType {
	switch {
	case domain.IsStaff(raw):
		return domain.AuthorTypeStaff
	case raw == string(domain.AuthorTypeBot):
		return domain.AuthorTypeBot
	default:
		return domain.AuthorTypeUser
	}
}
