package events

import (
	"time"

	"github.com/support-deck/chat-service/internal/domain"
)

// EventType enumerates realtime event identifiers as seen on the wire.
type EventType string

const (
	EventChatNew         EventType = "chat:new"
	EventChatHistory     EventType = "chat:history"
	EventJoined          EventType = "joined"
	EventTicketMeta      EventType = "ticket:meta"
	EventTicketCreated   EventType = "ticket:created"
	EventTicketClosed    EventType = "ticket:closed"
	EventTicketFlagged   EventType = "ticket:flagged"
	EventTicketUpdated   EventType = "ticket:updated"
	EventHappinessUpdate EventType = "happiness:update"
	EventLiveStats       EventType = "live:stats"
)

// Room names a broadcast group scoping event delivery.
type Room string

// RoomSupport is the global staff room; every staff session joins it.
const RoomSupport Room = "support"

// TicketRoom returns the per-ticket room joined by that ticket's participants.
func TicketRoom(ticketID string) Room {
	return Room("ticket:" + ticketID)
}

// Event is a realtime notification emitted by services. An empty Rooms slice
// means broadcast to every connected client.
type Event struct {
	Type    EventType `json:"type"`
	Rooms   []Room    `json:"-"`
	Payload any       `json:"payload"`
}

// Broadcast builds an event delivered to all connected clients.
func Broadcast(eventType EventType, payload any) Event {
	return Event{Type: eventType, Payload: payload}
}

// To builds an event delivered to the given rooms only.
func To(eventType EventType, payload any, rooms ...Room) Event {
	return Event{Type: eventType, Rooms: rooms, Payload: payload}
}

// MessagePayload is the normalized chat message shape sent to clients.
type MessagePayload struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticketId"`
	AuthorType string    `json:"authorType"`
	AuthorName string    `json:"authorName"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewMessagePayload normalizes a persisted message for the wire.
func NewMessagePayload(msg *domain.ChatMessage) MessagePayload {
	return MessagePayload{
		ID:         msg.ID,
		TicketID:   msg.TicketID,
		AuthorType: string(msg.AuthorType),
		AuthorName: msg.AuthorName,
		Text:       msg.Text,
		CreatedAt:  msg.CreatedAt,
		UpdatedAt:  msg.UpdatedAt,
	}
}

// TicketMetaPayload carries the denormalized ticket fields dashboards track.
type TicketMetaPayload struct {
	ID                 string           `json:"id"`
	MessageCount       int              `json:"messageCount"`
	LastMessageSnippet string           `json:"lastMessageSnippet"`
	LastMessageAt      *time.Time       `json:"lastMessageAt"`
	Flagged            bool             `json:"flagged"`
	FlaggedAt          *time.Time       `json:"flaggedAt"`
	AISentiment        domain.Sentiment `json:"aiSentiment"`
	AIKeywords         []string         `json:"aiKeywords"`
	AISummary          string           `json:"aiSummary"`
}

// NewTicketMetaPayload snapshots a ticket's denormalized fields.
func NewTicketMetaPayload(t *domain.Ticket) TicketMetaPayload {
	sentiment := t.AISentiment
	if sentiment == "" {
		sentiment = domain.SentimentNeutral
	}
	keywords := t.AIKeywords
	if keywords == nil {
		keywords = []string{}
	}
	return TicketMetaPayload{
		ID:                 t.ID,
		MessageCount:       t.MessageCount,
		LastMessageSnippet: t.LastMessageSnippet,
		LastMessageAt:      t.LastMessageAt,
		Flagged:            t.Flagged,
		FlaggedAt:          t.FlaggedAt,
		AISentiment:        sentiment,
		AIKeywords:         keywords,
		AISummary:          t.AISummary,
	}
}

// TicketSnapshotPayload is the full ticket shape announced on creation, so
// dashboards can render the new row without a follow-up fetch.
type TicketSnapshotPayload struct {
	ID                 string                `json:"id"`
	Title              string                `json:"title"`
	Description        string                `json:"description"`
	City               string                `json:"city"`
	Severity           domain.TicketSeverity `json:"severity"`
	Status             domain.TicketStatus   `json:"status"`
	CreatedBy          string                `json:"createdBy"`
	MessageCount       int                   `json:"messageCount"`
	LastMessageSnippet string                `json:"lastMessageSnippet"`
	LastMessageAt      *time.Time            `json:"lastMessageAt"`
	Flagged            bool                  `json:"flagged"`
	FlaggedAt          *time.Time            `json:"flaggedAt"`
	AISentiment        domain.Sentiment      `json:"aiSentiment"`
	AIKeywords         []string              `json:"aiKeywords"`
	AISummary          string                `json:"aiSummary"`
	ClosedAt           *time.Time            `json:"closedAt"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

// NewTicketSnapshotPayload snapshots the whole ticket for the wire.
func NewTicketSnapshotPayload(t *domain.Ticket) TicketSnapshotPayload {
	meta := NewTicketMetaPayload(t)
	return TicketSnapshotPayload{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		City:               t.City,
		Severity:           t.Severity,
		Status:             t.Status,
		CreatedBy:          t.CreatedBy,
		MessageCount:       meta.MessageCount,
		LastMessageSnippet: meta.LastMessageSnippet,
		LastMessageAt:      meta.LastMessageAt,
		Flagged:            meta.Flagged,
		FlaggedAt:          meta.FlaggedAt,
		AISentiment:        meta.AISentiment,
		AIKeywords:         meta.AIKeywords,
		AISummary:          meta.AISummary,
		ClosedAt:           t.ClosedAt,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

// TicketClosedPayload announces a ticket reaching its terminal state.
type TicketClosedPayload struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TicketFlaggedPayload alerts the support room to a newly flagged ticket.
type TicketFlaggedPayload struct {
	TicketID  string           `json:"ticketId"`
	Sentiment domain.Sentiment `json:"sentiment"`
	Flagged   bool             `json:"flagged"`
	Keywords  []string         `json:"keywords"`
	FlaggedAt *time.Time       `json:"flaggedAt"`
}

// TicketUpdatedPayload carries AI analysis deltas after an orchestrator run.
type TicketUpdatedPayload struct {
	ID                 string           `json:"id"`
	AISentiment        domain.Sentiment `json:"aiSentiment"`
	AIScore            int              `json:"aiScore"`
	AIKeywords         []string         `json:"aiKeywords"`
	AISummary          string           `json:"aiSummary"`
	LastMessageSnippet string           `json:"lastMessageSnippet"`
	MessageCount       int              `json:"messageCount"`
	Flagged            bool             `json:"flagged"`
}

// HappinessPayload carries the scalar happiness gauge.
type HappinessPayload struct {
	Happiness int `json:"happiness"`
}
