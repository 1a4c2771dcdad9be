package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/support-deck/chat-service/internal/events"
)

type stubHistory struct {
	payloads []events.MessagePayload
	lastID   string
	lastLim  int
}

func (s *stubHistory) History(ctx context.Context, ticketID string, limit int) ([]events.MessagePayload, error) {
	s.lastID = ticketID
	s.lastLim = limit
	return s.payloads, nil
}

type stubSnapshots struct {
	happiness int
	stats     any
}

func (s *stubSnapshots) HappinessSnapshot(ctx context.Context) (int, error) {
	return s.happiness, nil
}

func (s *stubSnapshots) StatsSnapshot(ctx context.Context) (any, error) {
	return s.stats, nil
}

const testTicketID = "6f1e26bc-9175-4a96-b6d6-6ad32a7f7f5a"

func drainFrames(t *testing.T, c *Client) []frame {
	t.Helper()
	var frames []frame
	for {
		select {
		case raw := <-c.out:
			var f frame
			if err := json.Unmarshal(raw, &f); err != nil {
				t.Fatalf("malformed frame %q: %v", raw, err)
			}
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func frameEvents(frames []frame) []string {
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Event)
	}
	return out
}

func newTestHub(history HistorySource, snapshots SnapshotSource) (*Hub, events.Dispatcher) {
	dispatcher := events.NewInMemoryDispatcher()
	hub := NewHub(dispatcher, history, snapshots, 500, zap.NewNop())
	return hub, dispatcher
}

func TestRegisterPushesSnapshot(t *testing.T) {
	hub, _ := newTestHub(&stubHistory{}, &stubSnapshots{happiness: 77, stats: map[string]int{"total": 3}})

	c := newClient(hub, zap.NewNop())
	hub.Register(context.Background(), c)

	got := frameEvents(drainFrames(t, c))
	want := []string{string(events.EventHappinessUpdate), string(events.EventLiveStats)}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("initial frames = %v, want %v", got, want)
	}
}

func TestJoinTicketRoomReplaysHistory(t *testing.T) {
	history := &stubHistory{payloads: []events.MessagePayload{
		{ID: "m1", Text: "first"},
		{ID: "m2", Text: "second"},
	}}
	hub, _ := newTestHub(history, &stubSnapshots{})

	c := newClient(hub, zap.NewNop())
	hub.Register(context.Background(), c)
	drainFrames(t, c)

	hub.Join(context.Background(), c, joinRequest{TicketID: testTicketID})

	if hub.RoomSize(events.TicketRoom(testTicketID)) != 1 {
		t.Error("client not in ticket room")
	}
	if history.lastID != testTicketID || history.lastLim != 500 {
		t.Errorf("history queried with %q/%d", history.lastID, history.lastLim)
	}

	frames := drainFrames(t, c)
	if len(frames) != 2 {
		t.Fatalf("frames = %v, want joined + history", frameEvents(frames))
	}
	if frames[0].Event != string(events.EventJoined) {
		t.Errorf("first frame = %q", frames[0].Event)
	}
	if frames[1].Event != string(events.EventChatHistory) {
		t.Errorf("second frame = %q", frames[1].Event)
	}
	var replay []events.MessagePayload
	if err := json.Unmarshal(frames[1].Data, &replay); err != nil {
		t.Fatalf("history payload: %v", err)
	}
	if len(replay) != 2 || replay[0].Text != "first" || replay[1].Text != "second" {
		t.Errorf("replay = %+v, want full ascending history", replay)
	}
}

func TestJoinRejectsMalformedTicketID(t *testing.T) {
	hub, _ := newTestHub(&stubHistory{}, &stubSnapshots{})

	c := newClient(hub, zap.NewNop())
	hub.Register(context.Background(), c)
	drainFrames(t, c)

	hub.Join(context.Background(), c, joinRequest{TicketID: "not-a-uuid"})

	if hub.RoomSize(events.TicketRoom("not-a-uuid")) != 0 {
		t.Error("malformed ticket id must not create a room")
	}
	if frames := drainFrames(t, c); len(frames) != 0 {
		t.Errorf("unexpected frames %v", frameEvents(frames))
	}
}

func TestStaffJoinsSupportRoom(t *testing.T) {
	hub, dispatcher := newTestHub(&stubHistory{}, &stubSnapshots{})
	ctx := context.Background()

	staff := newClient(hub, zap.NewNop())
	hub.Register(ctx, staff)
	hub.Join(ctx, staff, joinRequest{Role: "staff"})

	customer := newClient(hub, zap.NewNop())
	hub.Register(ctx, customer)
	hub.Join(ctx, customer, joinRequest{TicketID: testTicketID})

	drainFrames(t, staff)
	drainFrames(t, customer)

	if hub.RoomSize(events.RoomSupport) != 1 {
		t.Errorf("support room size = %d, want 1", hub.RoomSize(events.RoomSupport))
	}

	// room-scoped event reaches only support members
	_ = dispatcher.Publish(ctx, events.To(events.EventTicketFlagged, map[string]any{"ticketId": testTicketID}, events.RoomSupport))
	if got := frameEvents(drainFrames(t, staff)); len(got) != 1 || got[0] != string(events.EventTicketFlagged) {
		t.Errorf("staff frames = %v", got)
	}
	if got := drainFrames(t, customer); len(got) != 0 {
		t.Errorf("customer received support-only frames: %v", frameEvents(got))
	}

	// broadcasts reach everyone
	_ = dispatcher.Publish(ctx, events.Broadcast(events.EventLiveStats, map[string]int{"total": 1}))
	if got := drainFrames(t, staff); len(got) != 1 {
		t.Errorf("staff broadcast frames = %d", len(got))
	}
	if got := drainFrames(t, customer); len(got) != 1 {
		t.Errorf("customer broadcast frames = %d", len(got))
	}
}

func TestUnregisterLeavesRooms(t *testing.T) {
	hub, _ := newTestHub(&stubHistory{}, &stubSnapshots{})
	ctx := context.Background()

	c := newClient(hub, zap.NewNop())
	hub.Register(ctx, c)
	hub.Join(ctx, c, joinRequest{Role: "staff", TicketID: testTicketID})

	hub.Unregister(c)

	if hub.RoomSize(events.RoomSupport) != 0 {
		t.Error("support room not emptied")
	}
	if hub.RoomSize(events.TicketRoom(testTicketID)) != 0 {
		t.Error("ticket room not emptied")
	}
}
