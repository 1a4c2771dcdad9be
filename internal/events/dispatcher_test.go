package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherSubscribe(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []EventType
	d.Subscribe(EventChatNew, func(ctx context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})

	_ = d.Publish(context.Background(), Broadcast(EventChatNew, nil))
	_ = d.Publish(context.Background(), Broadcast(EventTicketMeta, nil))

	if len(got) != 1 || got[0] != EventChatNew {
		t.Errorf("handler received %v, want [chat:new]", got)
	}
}

func TestDispatcherSubscribeAll(t *testing.T) {
	d := NewInMemoryDispatcher()

	var count int
	d.SubscribeAll(func(ctx context.Context, e Event) error {
		count++
		return nil
	})

	_ = d.Publish(context.Background(), Broadcast(EventChatNew, nil))
	_ = d.Publish(context.Background(), To(EventTicketFlagged, nil, RoomSupport))

	if count != 2 {
		t.Errorf("catch-all received %d events, want 2", count)
	}
}

func TestDispatcherHandlerErrorDoesNotStopDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()

	d.Subscribe(EventChatNew, func(ctx context.Context, e Event) error {
		return errors.New("boom")
	})
	var delivered bool
	d.Subscribe(EventChatNew, func(ctx context.Context, e Event) error {
		delivered = true
		return nil
	})

	_ = d.Publish(context.Background(), Broadcast(EventChatNew, nil))

	if !delivered {
		t.Error("second handler not invoked after first errored")
	}
}

func TestTicketRoom(t *testing.T) {
	if got := TicketRoom("abc"); got != Room("ticket:abc") {
		t.Errorf("TicketRoom = %q", got)
	}
}
