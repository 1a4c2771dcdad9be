package realtime

import (
	"context"
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"github.com/support-deck/chat-service/internal/events"
)

// sendBuffer bounds per-client outbound queues; a slow consumer drops
// events rather than stalling the fan-out for everyone else.
const sendBuffer = 64

// Client is one websocket session attached to the hub.
type Client struct {
	hub    *Hub
	logger *zap.Logger
	out    chan []byte
	done   chan struct{}
}

func newClient(hub *Hub, logger *zap.Logger) *Client {
	return &Client{
		hub:    hub,
		logger: logger,
		out:    make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// Send marshals and queues a single event for this client.
func (c *Client) Send(eventType events.EventType, payload any) {
	raw, err := marshalFrame(eventType, payload)
	if err != nil {
		c.logger.Error("marshal client event", zap.String("type", string(eventType)), zap.Error(err))
		return
	}
	c.sendRaw(raw)
}

func (c *Client) sendRaw(payload []byte) {
	select {
	case <-c.done:
	case c.out <- payload:
	default:
		c.logger.Warn("client send buffer full, dropping event")
	}
}

func (c *Client) close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

// Serve runs the read/write pumps for an upgraded websocket connection and
// blocks until the peer disconnects. The fiber websocket handler calls this.
func (h *Hub) Serve(conn *websocket.Conn) {
	c := newClient(h, h.logger)
	ctx := context.Background()

	h.Register(ctx, c)
	defer func() {
		h.Unregister(c)
		c.close()
	}()

	go func() {
		for {
			select {
			case <-c.done:
				return
			case payload, ok := <-c.out:
				if !ok {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					c.close()
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			h.logger.Debug("malformed client frame", zap.Error(err))
			continue
		}
		if f.Event != "join" {
			continue
		}
		var req joinRequest
		if err := json.Unmarshal(f.Data, &req); err != nil {
			h.logger.Debug("malformed join payload", zap.Error(err))
			continue
		}
		h.Join(ctx, c, req)
	}
}
