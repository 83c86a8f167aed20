package chatcore

import "testing"

func TestSetThreadStateReplaceAndMerge(t *testing.T) {
	c := NewChat("bot")
	c.SetThreadState("t-1", StateReplace, map[string]interface{}{"a": 1, "b": 2})
	c.SetThreadState("t-1", StateMerge, map[string]interface{}{"b": 3, "c": 4})

	state := c.ThreadState("t-1")
	if state["a"] != 1 || state["b"] != 3 || state["c"] != 4 {
		t.Fatalf("unexpected merged state: %+v", state)
	}

	c.SetThreadState("t-1", StateReplace, map[string]interface{}{"only": true})
	state = c.ThreadState("t-1")
	if len(state) != 1 || state["only"] != true {
		t.Fatalf("expected StateReplace to discard prior keys, got %+v", state)
	}
}

func TestSetThreadStateKeyPutsSingleKeyWithoutClobberingOthers(t *testing.T) {
	c := NewChat("bot")
	c.SetThreadState("t-1", StateReplace, map[string]interface{}{"existing": "keep"})

	c.SetThreadStateKey("t-1", "added", "value")

	state := c.ThreadState("t-1")
	if state["existing"] != "keep" {
		t.Fatalf("expected the existing key to survive a key-put, got %+v", state)
	}
	if state["added"] != "value" {
		t.Fatalf("expected the new key to be present, got %+v", state)
	}
}

func TestSetThreadStateKeyCreatesMapWhenAbsent(t *testing.T) {
	c := NewChat("bot")
	c.SetThreadStateKey("t-new", "k", 1)

	state := c.ThreadState("t-new")
	if state["k"] != 1 {
		t.Fatalf("expected the key to be put into a freshly created map, got %+v", state)
	}
}

func TestSetChannelStateKeyPutsSingleKey(t *testing.T) {
	c := NewChat("bot")
	c.SetChannelState("chan-1", StateReplace, map[string]interface{}{"topic": "general"})

	c.SetChannelStateKey("chan-1", "pinned", "msg-1")

	state := c.ChannelState("chan-1")
	if state["topic"] != "general" {
		t.Fatalf("expected the existing key to survive a key-put, got %+v", state)
	}
	if state["pinned"] != "msg-1" {
		t.Fatalf("expected the new key to be present, got %+v", state)
	}
}
