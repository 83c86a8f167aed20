package chatcore

import (
	"testing"

	"github.com/picoclaw/chatcore/pkg/domain/chat"
)

// TestRouteEventMessageFillsEnvelopeSlots verifies that routing a
// message envelope fills empty thread_id/channel_id/message_id from the
// routed Incoming without overwriting values already set.
func TestRouteEventMessageFillsEnvelopeSlots(t *testing.T) {
	a := &bareAdapter{name: "slack"}
	c := newTestChat("bot", "slack", a)

	env := chat.EventEnvelope{
		ID:          "ev-1",
		AdapterName: "slack",
		EventType:   chat.EventMessage,
		Payload: map[string]interface{}{
			"external_room_id":    "room-1",
			"external_message_id": "msg-1",
			"text":                "hello",
		},
	}

	updated, routed, err := c.RouteEvent("slack", env)
	if err != nil {
		t.Fatalf("RouteEvent: %v", err)
	}
	if updated == nil {
		t.Fatal("expected a non-nil chat")
	}
	if routed.ThreadID == "" {
		t.Fatal("expected thread_id to be filled")
	}
	if routed.ChannelID != chat.ChannelID("slack", "room-1") {
		t.Fatalf("expected channel_id derived from room, got %q", routed.ChannelID)
	}
	if routed.MessageID != "msg-1" {
		t.Fatalf("expected message_id filled from payload, got %q", routed.MessageID)
	}
}

func TestRouteEventPreservesExplicitEnvelopeSlots(t *testing.T) {
	a := &bareAdapter{name: "slack"}
	c := newTestChat("bot", "slack", a)

	env := chat.EventEnvelope{
		AdapterName: "slack",
		EventType:   chat.EventMessage,
		ThreadID:    "explicit-thread",
		Payload: map[string]interface{}{
			"external_room_id": "room-1",
			"text":             "hi",
		},
	}

	_, routed, err := c.RouteEvent("slack", env)
	if err != nil {
		t.Fatalf("RouteEvent: %v", err)
	}
	if routed.ThreadID != "explicit-thread" {
		t.Fatalf("expected explicit thread_id to survive, got %q", routed.ThreadID)
	}
}

func TestRouteEventDispatchesNonMessageClasses(t *testing.T) {
	a := &bareAdapter{name: "slack"}
	c := newTestChat("bot", "slack", a)

	var gotEmoji string
	c.OnEvent(ClassReaction, func(event interface{}) *Chat {
		if r, ok := event.(chat.ReactionEvent); ok {
			gotEmoji = r.Emoji
		}
		return nil
	})

	env := chat.EventEnvelope{
		AdapterName: "slack",
		EventType:   chat.EventReaction,
		Payload:     chat.ReactionEvent{AdapterName: "slack", Emoji: "thumbsup"},
	}
	_, _, err := c.RouteEvent("slack", env)
	if err != nil {
		t.Fatalf("RouteEvent: %v", err)
	}
	if gotEmoji != "thumbsup" {
		t.Fatalf("expected reaction handler to observe emoji, got %q", gotEmoji)
	}
}

func TestRouteEventUnknownTypeErrors(t *testing.T) {
	a := &bareAdapter{name: "slack"}
	c := newTestChat("bot", "slack", a)

	env := chat.EventEnvelope{AdapterName: "slack", EventType: chat.EventType("unheard_of")}
	_, _, err := c.RouteEvent("slack", env)
	if err == nil {
		t.Fatal("expected an error for an unsupported event type")
	}
	if _, ok := err.(*chat.ErrUnsupportedEventType); !ok {
		t.Fatalf("expected *chat.ErrUnsupportedEventType, got %T", err)
	}
}
