package chat

// EventType enumerates the handler classes / envelope payload variants the
// router dispatches on.
type EventType string

const (
	EventMessage                    EventType = "message"
	EventReaction                   EventType = "reaction"
	EventAction                     EventType = "action"
	EventModalSubmit                EventType = "modal_submit"
	EventModalClose                 EventType = "modal_close"
	EventSlashCommand               EventType = "slash_command"
	EventAssistantThreadStarted     EventType = "assistant_thread_started"
	EventAssistantContextChanged    EventType = "assistant_context_changed"
)

// ReactionEvent is the payload variant for EventReaction.
type ReactionEvent struct {
	AdapterName       string `json:"adapter_name"`
	ExternalRoomID    string `json:"external_room_id"`
	ExternalMessageID string `json:"external_message_id"`
	ExternalUserID    string `json:"external_user_id"`
	Emoji             string `json:"emoji"`
	Removed           bool   `json:"removed"`
}

// ActionEvent is the payload variant for EventAction (button/interactive
// component clicks).
type ActionEvent struct {
	AdapterName    string                 `json:"adapter_name"`
	ExternalRoomID string                 `json:"external_room_id"`
	ExternalUserID string                 `json:"external_user_id"`
	ActionID       string                 `json:"action_id"`
	Value          string                 `json:"value,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// ModalSubmitEvent is the payload variant for EventModalSubmit.
type ModalSubmitEvent struct {
	AdapterName    string                 `json:"adapter_name"`
	ExternalUserID string                 `json:"external_user_id"`
	CallbackID     string                 `json:"callback_id"`
	Values         map[string]interface{} `json:"values,omitempty"`
}

// ModalCloseEvent is the payload variant for EventModalClose.
type ModalCloseEvent struct {
	AdapterName    string `json:"adapter_name"`
	ExternalUserID string `json:"external_user_id"`
	CallbackID     string `json:"callback_id"`
}

// SlashCommandEvent is the payload variant for EventSlashCommand.
type SlashCommandEvent struct {
	AdapterName    string `json:"adapter_name"`
	ExternalRoomID string `json:"external_room_id"`
	ExternalUserID string `json:"external_user_id"`
	Command        string `json:"command"`
	Text           string `json:"text,omitempty"`
}

// AssistantThreadStartedEvent is the payload variant for
// EventAssistantThreadStarted.
type AssistantThreadStartedEvent struct {
	AdapterName string `json:"adapter_name"`
	ThreadID    string `json:"thread_id"`
}

// AssistantContextChangedEvent is the payload variant for
// EventAssistantContextChanged.
type AssistantContextChangedEvent struct {
	AdapterName string                 `json:"adapter_name"`
	ThreadID    string                 `json:"thread_id"`
	Context     map[string]interface{} `json:"context,omitempty"`
}

// EventEnvelope is the tagged-union event carrier the router dispatches on.
// Payload holds exactly one of Incoming/ReactionEvent/ActionEvent/
// ModalSubmitEvent/ModalCloseEvent/SlashCommandEvent/
// AssistantThreadStartedEvent/AssistantContextChangedEvent, selected by
// EventType.
type EventEnvelope struct {
	ID          string      `json:"id"`
	AdapterName string      `json:"adapter_name"`
	EventType   EventType   `json:"event_type"`
	ThreadID    string      `json:"thread_id,omitempty"`
	ChannelID   string      `json:"channel_id,omitempty"`
	MessageID   string      `json:"message_id,omitempty"`
	Payload     interface{} `json:"payload"`
	Raw         map[string]interface{} `json:"raw,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// InferEventType infers an EventType from a raw payload's shape when the
// caller didn't declare one explicitly: emoji -> reaction, action_id ->
// action, callback_id -> modal_submit, command -> slash_command, otherwise
// message.
func InferEventType(payload map[string]interface{}) EventType {
	if _, ok := payload["emoji"]; ok {
		return EventReaction
	}
	if _, ok := payload["action_id"]; ok {
		return EventAction
	}
	if _, ok := payload["callback_id"]; ok {
		return EventModalSubmit
	}
	if _, ok := payload["command"]; ok {
		return EventSlashCommand
	}
	return EventMessage
}

// WithEnvelopePayload fills thread_id/channel_id/message_id on env from the
// payload fields when the envelope's own slots are still empty. It never
// overwrites a non-empty value.
func WithEnvelopePayload(env EventEnvelope, threadID, channelID, messageID string) EventEnvelope {
	if env.ThreadID == "" {
		env.ThreadID = threadID
	}
	if env.ChannelID == "" {
		env.ChannelID = channelID
	}
	if env.MessageID == "" {
		env.MessageID = messageID
	}
	return env
}

// ToMap renders an EventEnvelope as plain data.
func (e EventEnvelope) ToMap() map[string]interface{} {
	out := map[string]interface{}{
		"__type__":     string(TypeEventEnvelope),
		"id":           e.ID,
		"adapter_name": e.AdapterName,
		"event_type":   string(e.EventType),
		"thread_id":    e.ThreadID,
		"channel_id":   e.ChannelID,
		"message_id":   e.MessageID,
	}
	switch p := e.Payload.(type) {
	case Incoming:
		out["payload"] = p.ToMap()
	default:
		b, err := jsonMarshal(p)
		if err == nil {
			var generic map[string]interface{}
			if jsonUnmarshal(b, &generic) == nil {
				out["payload"] = generic
			}
		}
	}
	if e.Metadata != nil {
		out["metadata"] = e.Metadata
	}
	return out
}

// ReviveEventEnvelope reconstructs an EventEnvelope from plain data. A
// message payload is revived as an Incoming; every other payload is left as
// a generic map, and callers needing the typed variant should re-run it
// through the event normalizer (pkg/chatcore) using EventType as the
// selector.
func ReviveEventEnvelope(m map[string]interface{}) (EventEnvelope, error) {
	env := EventEnvelope{}
	if v, ok := m["id"].(string); ok {
		env.ID = v
	}
	if v, ok := m["adapter_name"].(string); ok {
		env.AdapterName = v
	}
	if v, ok := m["event_type"].(string); ok {
		env.EventType = EventType(v)
	}
	if v, ok := m["thread_id"].(string); ok {
		env.ThreadID = v
	}
	if v, ok := m["channel_id"].(string); ok {
		env.ChannelID = v
	}
	if v, ok := m["message_id"].(string); ok {
		env.MessageID = v
	}
	if p, ok := m["payload"].(map[string]interface{}); ok {
		if env.EventType == EventMessage {
			env.Payload = mapToIncomingFull(p)
		} else {
			env.Payload = p
		}
	}
	if meta, ok := m["metadata"].(map[string]interface{}); ok {
		env.Metadata = meta
	}
	return env, nil
}
