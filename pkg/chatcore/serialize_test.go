package chatcore

import (
	"encoding/json"
	"testing"

	"github.com/picoclaw/chatcore/pkg/domain/chat"
)

// TestRoundTripInProcess verifies a ToMap/ReviveChat round trip for the
// in-process shape ToMap produces directly (no JSON round-trip in between).
func TestRoundTripInProcess(t *testing.T) {
	RegisterAdapterType("slack", func() chat.Adapter { return &bareAdapter{name: "slack"} })

	c := NewChat("bot")
	c.RegisterAdapter("slack", &bareAdapter{name: "slack"})
	c.Subscribe("slack:room-1")
	c.Metadata["greeting"] = "hi"
	in, _ := chat.NewIncoming("room-1", func(in *chat.Incoming) { in.ExternalMessageID = "m1" })
	c.ProcessMessage("slack", *in)

	revived := ReviveChat(c.ToMap())

	if revived.ID != c.ID {
		t.Fatalf("expected id to survive, got %q want %q", revived.ID, c.ID)
	}
	if !revived.IsSubscribed("slack:room-1") {
		t.Fatal("expected subscription to survive")
	}
	if revived.DedupeSize() != c.DedupeSize() {
		t.Fatalf("expected dedupe size to survive, got %d want %d", revived.DedupeSize(), c.DedupeSize())
	}
	if revived.Metadata["greeting"] != "hi" {
		t.Fatal("expected metadata to survive")
	}
	if _, err := revived.Adapter("slack"); err != nil {
		t.Fatalf("expected the registered adapter type to be resolved, got %v", err)
	}
}

// TestRoundTripThroughJSON verifies a ToMap/ReviveChat round trip for the
// shape a snapshot store's marshal/unmarshal round-trip actually produces.
func TestRoundTripThroughJSON(t *testing.T) {
	c := NewChat("bot")
	c.RegisterAdapter("console", &bareAdapter{name: "console"})
	c.Subscribe("console:room-1")
	in, _ := chat.NewIncoming("room-1", func(in *chat.Incoming) { in.ExternalMessageID = "m1" })
	c.ProcessMessage("console", *in)

	raw, err := json.Marshal(c.ToMap())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	revived := ReviveChat(m)
	if !revived.IsSubscribed("console:room-1") {
		t.Fatal("expected subscription to survive a JSON round trip")
	}
	if revived.DedupeSize() != 1 {
		t.Fatalf("expected 1 dedupe entry to survive a JSON round trip, got %d", revived.DedupeSize())
	}
	// "console" was never re-registered via RegisterAdapterType, so it must
	// come back as the opaque unresolved placeholder rather than failing to
	// deserialize at all.
	a, err := revived.Adapter("console")
	if err != nil {
		t.Fatalf("expected an unresolved placeholder, not an error, got %v", err)
	}
	if _, terr := a.TransformIncoming(nil, nil); terr == nil {
		t.Fatal("expected the unresolved placeholder to error on first use")
	}
}

// TestReviveHandlersAreEmpty verifies that deserialization restores an
// empty handler table.
func TestReviveHandlersAreEmpty(t *testing.T) {
	c := NewChat("bot")
	c.OnMention(func(thread *Thread, in chat.Incoming) *Chat { return nil })
	c.OnMessage(".*", func(thread *Thread, in chat.Incoming) *Chat { return nil })

	revived := ReviveChat(c.ToMap())
	for class, n := range revived.HandlerCounts() {
		if n != 0 {
			t.Fatalf("expected class %s to have 0 handlers after revival, got %d", class, n)
		}
	}
}

func TestToMapHandlersBlockNeverSerializable(t *testing.T) {
	c := NewChat("bot")
	c.OnMention(func(thread *Thread, in chat.Incoming) *Chat { return nil })

	m := c.ToMap()
	handlers, ok := m["handlers"].(map[string]interface{})
	if !ok {
		t.Fatal("expected a handlers block")
	}
	if handlers["serializable"] != false {
		t.Fatal("expected handlers.serializable to be false")
	}
	counts, ok := handlers["counts"].(map[string]int)
	if !ok {
		t.Fatal("expected handlers.counts to be a class->count map")
	}
	if counts[string(ClassMention)] != 1 {
		t.Fatalf("expected 1 mention handler counted, got %d", counts[string(ClassMention)])
	}
}
