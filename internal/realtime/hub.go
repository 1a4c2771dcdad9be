package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/support-deck/chat-service/internal/events"
)

// HistorySource replays a ticket's persisted conversation on (re)join.
type HistorySource interface {
	History(ctx context.Context, ticketID string, limit int) ([]events.MessagePayload, error)
}

// SnapshotSource supplies the state pushed to a freshly connected client.
type SnapshotSource interface {
	HappinessSnapshot(ctx context.Context) (int, error)
	StatsSnapshot(ctx context.Context) (any, error)
}

// frame is the wire envelope for every realtime event, both directions.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinRequest struct {
	Role     string `json:"role"`
	TicketID string `json:"ticketId"`
}

type joinedPayload struct {
	Room string `json:"room"`
}

// Hub is the room-based fan-out distributing events to connected websocket
// clients. It subscribes to the dispatcher so event delivery stays
// synchronous with the publishing write path, preserving per-ticket order.
type Hub struct {
	logger       *zap.Logger
	history      HistorySource
	snapshots    SnapshotSource
	replayLimit  int

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[events.Room]map[*Client]struct{}
}

// NewHub constructs the hub and wires it into the dispatcher.
func NewHub(dispatcher events.Dispatcher, history HistorySource, snapshots SnapshotSource, replayLimit int, logger *zap.Logger) *Hub {
	h := &Hub{
		logger:      logger,
		history:     history,
		snapshots:   snapshots,
		replayLimit: replayLimit,
		clients:     make(map[*Client]struct{}),
		rooms:       make(map[events.Room]map[*Client]struct{}),
	}
	if dispatcher != nil {
		dispatcher.SubscribeAll(h.handleEvent)
	}
	return h
}

// Register adds a connected client and pushes the initial snapshot
// (happiness gauge plus current live stats).
func (h *Hub) Register(ctx context.Context, c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	if h.snapshots == nil {
		return
	}
	if happiness, err := h.snapshots.HappinessSnapshot(ctx); err == nil {
		c.Send(events.EventHappinessUpdate, events.HappinessPayload{Happiness: happiness})
	}
	if stats, err := h.snapshots.StatsSnapshot(ctx); err == nil {
		c.Send(events.EventLiveStats, stats)
	} else {
		h.logger.Warn("stats snapshot failed", zap.Error(err))
	}
}

// Unregister removes a client from every room and the client set.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Join processes a client join request: staff sessions enter the support
// room, and a valid ticket id subscribes the client to that ticket's room
// followed by a full history replay.
func (h *Hub) Join(ctx context.Context, c *Client, req joinRequest) {
	if req.Role == "staff" {
		h.joinRoom(c, events.RoomSupport)
	}

	if req.TicketID == "" {
		return
	}
	if _, err := uuid.Parse(req.TicketID); err != nil {
		return
	}

	room := events.TicketRoom(req.TicketID)
	h.joinRoom(c, room)
	c.Send(events.EventJoined, joinedPayload{Room: string(room)})

	if h.history == nil {
		return
	}
	history, err := h.history.History(ctx, req.TicketID, h.replayLimit)
	if err != nil {
		h.logger.Warn("history replay failed",
			zap.String("ticket_id", req.TicketID),
			zap.Error(err))
		return
	}
	c.Send(events.EventChatHistory, history)
}

// RoomSize reports current membership, used by tests and stats.
func (h *Hub) RoomSize(room events.Room) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) joinRoom(c *Client, room events.Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

// handleEvent routes a dispatcher event to its target rooms, or to every
// connected client when no room is set. A client in several target rooms
// receives the event once per room, matching the per-room emit semantics
// clients already de-duplicate against.
func (h *Hub) handleEvent(ctx context.Context, event events.Event) error {
	payload, err := marshalFrame(event.Type, event.Payload)
	if err != nil {
		h.logger.Error("marshal event", zap.String("type", string(event.Type)), zap.Error(err))
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(event.Rooms) == 0 {
		for c := range h.clients {
			c.sendRaw(payload)
		}
		return nil
	}
	for _, room := range event.Rooms {
		for c := range h.rooms[room] {
			c.sendRaw(payload)
		}
	}
	return nil
}

func marshalFrame(eventType events.EventType, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(frame{Event: string(eventType), Data: raw})
}
