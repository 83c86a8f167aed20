package chatcore

import (
	"testing"

	"github.com/picoclaw/chatcore/pkg/domain/chat"
)

func newTestChat(userName string, adapterName string, a chat.Adapter) *Chat {
	c := NewChat(userName)
	c.RegisterAdapter(adapterName, a)
	c.ThreadFactory = func(adapterName string, in chat.Incoming) *Thread {
		ad, err := c.Adapter(adapterName)
		if err != nil {
			return nil
		}
		return NewThread(adapterName, ad, in.ExternalRoomID, in.ExternalThreadID, false)
	}
	return c
}

// TestProcessMessageNoThreadFactoryErrors verifies that dispatch on a Chat
// without a wired ThreadFactory surfaces ErrNoThreadFactory instead of
// silently skipping routing.
func TestProcessMessageNoThreadFactoryErrors(t *testing.T) {
	c := NewChat("bot")
	in, _ := chat.NewIncoming("room-1", func(in *chat.Incoming) { in.Text = "hi" })

	_, _, err := c.ProcessMessage("slack", *in)
	if err != ErrNoThreadFactory {
		t.Fatalf("expected ErrNoThreadFactory, got %v", err)
	}
}

// TestProcessMessageDedupeIdempotent verifies that replaying the
// same (adapter_name, external_message_id) never re-runs handlers.
func TestProcessMessageDedupeIdempotent(t *testing.T) {
	a := &bareAdapter{name: "slack"}
	c := newTestChat("bot", "slack", a)

	var calls int
	c.OnMessage(".*", func(thread *Thread, in chat.Incoming) *Chat {
		calls++
		return nil
	})

	in, err := chat.NewIncoming("room-1", func(in *chat.Incoming) {
		in.ExternalMessageID = "msg-1"
		in.Text = "hello"
	})
	if err != nil {
		t.Fatalf("NewIncoming: %v", err)
	}

	c.ProcessMessage("slack", *in)
	c.ProcessMessage("slack", *in)
	c.ProcessMessage("slack", *in)

	if calls != 1 {
		t.Fatalf("expected handler to run exactly once, ran %d times", calls)
	}
	if c.DedupeSize() != 1 {
		t.Fatalf("expected dedupe size 1, got %d", c.DedupeSize())
	}
}

// TestProcessMessageDedupeEmptyIDNeverDeduped verifies an empty
// external_message_id skips dedup entirely.
func TestProcessMessageDedupeEmptyIDNeverDeduped(t *testing.T) {
	a := &bareAdapter{name: "slack"}
	c := newTestChat("bot", "slack", a)

	var calls int
	c.OnMessage(".*", func(thread *Thread, in chat.Incoming) *Chat {
		calls++
		return nil
	})

	in, _ := chat.NewIncoming("room-1", func(in *chat.Incoming) { in.Text = "hi" })
	c.ProcessMessage("slack", *in)
	c.ProcessMessage("slack", *in)

	if calls != 2 {
		t.Fatalf("expected 2 calls for undeduped messages, got %d", calls)
	}
	if c.DedupeSize() != 0 {
		t.Fatalf("expected no dedupe entries for empty external_message_id, got %d", c.DedupeSize())
	}
}

// TestDedupeBound verifies invariant: the dedupe set never exceeds its
// configured limit and evicts oldest-first.
func TestDedupeBound(t *testing.T) {
	a := &bareAdapter{name: "slack"}
	c := newTestChat("bot", "slack", a)
	c.Metadata["dedupe_limit"] = 3

	for i := 0; i < 5; i++ {
		in, _ := chat.NewIncoming("room-1", func(in *chat.Incoming) {
			in.ExternalMessageID = string(rune('a' + i))
		})
		c.ProcessMessage("slack", *in)
	}

	if c.DedupeSize() != 3 {
		t.Fatalf("expected bounded dedupe size 3, got %d", c.DedupeSize())
	}

	// The oldest two ("a","b") should have been evicted, so replaying "a"
	// must not be treated as a duplicate.
	replay, _ := chat.NewIncoming("room-1", func(in *chat.Incoming) { in.ExternalMessageID = "a" })
	var calls int
	c.OnMessage(".*", func(thread *Thread, in chat.Incoming) *Chat { calls++; return nil })
	c.ProcessMessage("slack", *replay)
	if calls != 1 {
		t.Fatalf("expected evicted key 'a' to be re-processed, got %d calls", calls)
	}
}

// TestRoutingPriority verifies that subscribed beats mention beats
// message-regex, and exactly one class runs.
func TestRoutingPriority(t *testing.T) {
	a := &bareAdapter{name: "slack"}
	c := newTestChat("bot", "slack", a)

	var subscribed, mention, message bool
	c.OnSubscribed(func(thread *Thread, in chat.Incoming) *Chat { subscribed = true; return nil })
	c.OnMention(func(thread *Thread, in chat.Incoming) *Chat { mention = true; return nil })
	if err := c.OnMessage(".*", func(thread *Thread, in chat.Incoming) *Chat { message = true; return nil }); err != nil {
		t.Fatalf("OnMessage: %v", err)
	}

	threadID := chat.ThreadID("slack", "room-1", "")
	c.Subscribe(threadID)

	in, _ := chat.NewIncoming("room-1", func(in *chat.Incoming) {
		in.Text = "@bot hello"
		in.WasMentioned = true
	})
	c.ProcessMessage("slack", *in)

	if !subscribed {
		t.Fatal("expected subscribed handler to run")
	}
	if mention || message {
		t.Fatal("expected mention/message handlers not to run when thread is subscribed")
	}
}

func TestRoutingMentionOverMessage(t *testing.T) {
	a := &bareAdapter{name: "slack"}
	c := newTestChat("bot", "slack", a)

	var mention, message bool
	c.OnMention(func(thread *Thread, in chat.Incoming) *Chat { mention = true; return nil })
	c.OnMessage(".*", func(thread *Thread, in chat.Incoming) *Chat { message = true; return nil })

	in, _ := chat.NewIncoming("room-1", func(in *chat.Incoming) { in.Text = "@bot hi"; in.WasMentioned = true })
	c.ProcessMessage("slack", *in)

	if !mention || message {
		t.Fatalf("expected only mention handler to run, got mention=%v message=%v", mention, message)
	}
}

// TestMentionRegexEscapesMetacharacters verifies the fix for the source's
// unescaped-mention-name bug: a user name containing regex metacharacters
// still matches literally and doesn't panic or misbehave.
func TestMentionRegexEscapesMetacharacters(t *testing.T) {
	a := &bareAdapter{name: "slack"}
	c := newTestChat("bot.ai", "slack", a)

	var mention bool
	c.OnMention(func(thread *Thread, in chat.Incoming) *Chat { mention = true; return nil })

	in, _ := chat.NewIncoming("room-1", func(in *chat.Incoming) { in.Text = "hey @bot.ai can you help" })
	c.ProcessMessage("slack", *in)

	if !mention {
		t.Fatal("expected literal '.' in user name to be matched, not treated as regex wildcard")
	}

	mention = false
	in2, _ := chat.NewIncoming("room-1", func(in *chat.Incoming) { in.Text = "hey @botXai should not match" })
	c.ProcessMessage("slack", *in2)
	if mention {
		t.Fatal("expected 'botXai' not to match the literal name 'bot.ai'")
	}
}

// TestMessageHandlersRunInRegistrationOrder verifies handlers run in the
// order they were registered.
func TestMessageHandlersRunInRegistrationOrder(t *testing.T) {
	a := &bareAdapter{name: "slack"}
	c := newTestChat("bot", "slack", a)

	var order []int
	c.OnMessage(".*", func(thread *Thread, in chat.Incoming) *Chat { order = append(order, 1); return nil })
	c.OnMessage(".*", func(thread *Thread, in chat.Incoming) *Chat { order = append(order, 2); return nil })
	c.OnMessage(".*", func(thread *Thread, in chat.Incoming) *Chat { order = append(order, 3); return nil })

	in, _ := chat.NewIncoming("room-1", func(in *chat.Incoming) { in.Text = "hi" })
	c.ProcessMessage("slack", *in)

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected handlers in registration order [1 2 3], got %v", order)
	}
}

// TestMessageHandlerReturnReplacesChat verifies a handler returning a
// non-nil Chat becomes the value passed to the next handler.
func TestMessageHandlerReturnReplacesChat(t *testing.T) {
	a := &bareAdapter{name: "slack"}
	c := newTestChat("bot", "slack", a)
	replacement := NewChat("bot")

	var seenSecond *Chat
	c.OnMessage(".*", func(thread *Thread, in chat.Incoming) *Chat { return replacement })
	c.OnMessageWithChat(".*", func(cur *Chat, thread *Thread, in chat.Incoming) *Chat {
		seenSecond = cur
		return nil
	})

	in, _ := chat.NewIncoming("room-1", func(in *chat.Incoming) { in.Text = "hi" })
	updated, _, _ := c.ProcessMessage("slack", *in)

	if seenSecond != replacement {
		t.Fatal("expected second handler to observe the first handler's replacement Chat")
	}
	if updated != replacement {
		t.Fatal("expected ProcessMessage to return the final replacement Chat")
	}
}

func TestOnMessageRejectsInvalidRegex(t *testing.T) {
	c := NewChat("bot")
	if err := c.OnMessage("(unclosed", func(thread *Thread, in chat.Incoming) *Chat { return nil }); err == nil {
		t.Fatal("expected an error for an invalid regex pattern")
	}
}
