package chat

import "testing"

func TestInferEventType(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]interface{}
		want    EventType
	}{
		{name: "reaction", payload: map[string]interface{}{"emoji": "+1"}, want: EventReaction},
		{name: "action", payload: map[string]interface{}{"action_id": "a1"}, want: EventAction},
		{name: "modal submit", payload: map[string]interface{}{"callback_id": "c1"}, want: EventModalSubmit},
		{name: "slash command", payload: map[string]interface{}{"command": "/help"}, want: EventSlashCommand},
		{name: "default is message", payload: map[string]interface{}{"text": "hi"}, want: EventMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferEventType(tt.payload); got != tt.want {
				t.Fatalf("InferEventType(%+v) = %s, want %s", tt.payload, got, tt.want)
			}
		})
	}
}

// TestWithEnvelopePayloadNeverOverwrites verifies that an already-set slot
// survives a WithEnvelopePayload call untouched.
func TestWithEnvelopePayloadNeverOverwrites(t *testing.T) {
	env := EventEnvelope{ThreadID: "explicit"}
	filled := WithEnvelopePayload(env, "derived", "chan-1", "msg-1")
	if filled.ThreadID != "explicit" {
		t.Fatalf("expected explicit thread_id to survive, got %q", filled.ThreadID)
	}
	if filled.ChannelID != "chan-1" || filled.MessageID != "msg-1" {
		t.Fatalf("expected empty slots to be filled, got channel=%q message=%q", filled.ChannelID, filled.MessageID)
	}
}

func TestEventEnvelopeRoundTripMessage(t *testing.T) {
	in, _ := NewIncoming("room-1", func(in *Incoming) { in.Text = "hi" })
	env := EventEnvelope{
		ID:          "ev-1",
		AdapterName: "slack",
		EventType:   EventMessage,
		ThreadID:    "slack:room-1",
		Payload:     *in,
	}

	revived, err := ReviveEventEnvelope(env.ToMap())
	if err != nil {
		t.Fatalf("ReviveEventEnvelope: %v", err)
	}
	if revived.ID != env.ID || revived.AdapterName != env.AdapterName || revived.EventType != env.EventType {
		t.Fatalf("unexpected round trip: %+v", revived)
	}
	payload, ok := revived.Payload.(Incoming)
	if !ok {
		t.Fatalf("expected revived payload to be an Incoming, got %T", revived.Payload)
	}
	if payload.Text != "hi" {
		t.Fatalf("expected payload text to survive, got %q", payload.Text)
	}
}
