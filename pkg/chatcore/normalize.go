package chatcore

import (
	"fmt"
	"regexp"

	"github.com/picoclaw/chatcore/pkg/domain/chat"
)

// EnsureIncoming coerces value into a chat.Incoming: a typed Incoming passes
// through, a map is built via chat.NewIncoming, anything else is
// chat.ErrInvalidInput("incoming", value). Incoming has no adapter_name
// field, so adapterName is not used on any path.
func EnsureIncoming(value interface{}, adapterName string) (chat.Incoming, error) {
	switch v := value.(type) {
	case chat.Incoming:
		return v, nil
	case *chat.Incoming:
		return *v, nil
	case map[string]interface{}:
		in, err := incomingFromMap(v)
		if err != nil {
			return chat.Incoming{}, err
		}
		return in, nil
	default:
		return chat.Incoming{}, &chat.ErrInvalidInput{Kind: "incoming", Value: value}
	}
}

func incomingFromMap(m map[string]interface{}) (chat.Incoming, error) {
	roomID, _ := m["external_room_id"].(string)
	in, err := chat.NewIncoming(roomID, func(in *chat.Incoming) {
		if v, ok := m["external_user_id"].(string); ok {
			in.ExternalUserID = v
		}
		if v, ok := m["external_message_id"].(string); ok {
			in.ExternalMessageID = v
		}
		if v, ok := m["external_reply_to_id"].(string); ok {
			in.ExternalReplyToID = v
		}
		if v, ok := m["external_thread_id"].(string); ok {
			in.ExternalThreadID = v
		}
		if v, ok := m["text"].(string); ok {
			in.Text = v
		}
		if v, ok := m["was_mentioned"].(bool); ok {
			in.WasMentioned = v
		}
		if v, ok := m["timestamp"]; ok {
			in.Timestamp = chat.ParseTimestamp(v)
		}
		if v, ok := m["chat_type"].(string); ok {
			in.ChatType = chat.ChatKind(v)
		}
		if v, ok := m["chat_title"].(string); ok {
			in.ChatTitle = v
		}
		for _, mm := range toMapSlice(m["mentions"]) {
			in.Mentions = append(in.Mentions, chat.MentionFromMap(mm))
		}
		for _, mm := range toMapSlice(m["media"]) {
			in.Media = append(in.Media, chat.MediaFromMap(mm))
		}
		if a, ok := m["author"].(map[string]interface{}); ok {
			author := chat.AuthorFromMap(a)
			in.Author = &author
		}
		if cm, ok := m["channel_meta"].(map[string]interface{}); ok {
			in.ChannelMeta = chat.ChannelMetaFromMap(cm)
		}
		if raw, ok := m["raw"].(map[string]interface{}); ok {
			in.Raw = raw
		}
		if meta, ok := m["metadata"].(map[string]interface{}); ok {
			in.Metadata = meta
		}
	})
	if err != nil {
		return chat.Incoming{}, err
	}
	return *in, nil
}

// EnsureReactionEvent coerces value into a chat.ReactionEvent, defaulting
// AdapterName when absent.
func EnsureReactionEvent(value interface{}, adapterName string) (chat.ReactionEvent, error) {
	switch v := value.(type) {
	case chat.ReactionEvent:
		return v, nil
	case map[string]interface{}:
		ev := chat.ReactionEvent{AdapterName: adapterName}
		if s, ok := v["adapter_name"].(string); ok && s != "" {
			ev.AdapterName = s
		}
		ev.ExternalRoomID, _ = v["external_room_id"].(string)
		ev.ExternalMessageID, _ = v["external_message_id"].(string)
		ev.ExternalUserID, _ = v["external_user_id"].(string)
		ev.Emoji, _ = v["emoji"].(string)
		ev.Removed, _ = v["removed"].(bool)
		return ev, nil
	default:
		return chat.ReactionEvent{}, &chat.ErrInvalidInput{Kind: "reaction", Value: value}
	}
}

// EnsureActionEvent coerces value into a chat.ActionEvent.
func EnsureActionEvent(value interface{}, adapterName string) (chat.ActionEvent, error) {
	switch v := value.(type) {
	case chat.ActionEvent:
		return v, nil
	case map[string]interface{}:
		ev := chat.ActionEvent{AdapterName: adapterName}
		if s, ok := v["adapter_name"].(string); ok && s != "" {
			ev.AdapterName = s
		}
		ev.ExternalRoomID, _ = v["external_room_id"].(string)
		ev.ExternalUserID, _ = v["external_user_id"].(string)
		ev.ActionID, _ = v["action_id"].(string)
		ev.Value, _ = v["value"].(string)
		if meta, ok := v["metadata"].(map[string]interface{}); ok {
			ev.Metadata = meta
		}
		return ev, nil
	default:
		return chat.ActionEvent{}, &chat.ErrInvalidInput{Kind: "action", Value: value}
	}
}

// EnsureModalSubmitEvent coerces value into a chat.ModalSubmitEvent.
func EnsureModalSubmitEvent(value interface{}, adapterName string) (chat.ModalSubmitEvent, error) {
	switch v := value.(type) {
	case chat.ModalSubmitEvent:
		return v, nil
	case map[string]interface{}:
		ev := chat.ModalSubmitEvent{AdapterName: adapterName}
		if s, ok := v["adapter_name"].(string); ok && s != "" {
			ev.AdapterName = s
		}
		ev.ExternalUserID, _ = v["external_user_id"].(string)
		ev.CallbackID, _ = v["callback_id"].(string)
		if values, ok := v["values"].(map[string]interface{}); ok {
			ev.Values = values
		}
		return ev, nil
	default:
		return chat.ModalSubmitEvent{}, &chat.ErrInvalidInput{Kind: "modal_submit", Value: value}
	}
}

// EnsureModalCloseEvent coerces value into a chat.ModalCloseEvent.
func EnsureModalCloseEvent(value interface{}, adapterName string) (chat.ModalCloseEvent, error) {
	switch v := value.(type) {
	case chat.ModalCloseEvent:
		return v, nil
	case map[string]interface{}:
		ev := chat.ModalCloseEvent{AdapterName: adapterName}
		if s, ok := v["adapter_name"].(string); ok && s != "" {
			ev.AdapterName = s
		}
		ev.ExternalUserID, _ = v["external_user_id"].(string)
		ev.CallbackID, _ = v["callback_id"].(string)
		return ev, nil
	default:
		return chat.ModalCloseEvent{}, &chat.ErrInvalidInput{Kind: "modal_close", Value: value}
	}
}

// EnsureSlashCommandEvent coerces value into a chat.SlashCommandEvent.
func EnsureSlashCommandEvent(value interface{}, adapterName string) (chat.SlashCommandEvent, error) {
	switch v := value.(type) {
	case chat.SlashCommandEvent:
		return v, nil
	case map[string]interface{}:
		ev := chat.SlashCommandEvent{AdapterName: adapterName}
		if s, ok := v["adapter_name"].(string); ok && s != "" {
			ev.AdapterName = s
		}
		ev.ExternalRoomID, _ = v["external_room_id"].(string)
		ev.ExternalUserID, _ = v["external_user_id"].(string)
		ev.Command, _ = v["command"].(string)
		ev.Text, _ = v["text"].(string)
		return ev, nil
	default:
		return chat.SlashCommandEvent{}, &chat.ErrInvalidInput{Kind: "slash_command", Value: value}
	}
}

// EnsureAssistantThreadStartedEvent coerces value into a
// chat.AssistantThreadStartedEvent, defaulting ThreadID to "unknown" when
// missing.
func EnsureAssistantThreadStartedEvent(value interface{}, adapterName string) (chat.AssistantThreadStartedEvent, error) {
	switch v := value.(type) {
	case chat.AssistantThreadStartedEvent:
		return v, nil
	case map[string]interface{}:
		ev := chat.AssistantThreadStartedEvent{AdapterName: adapterName, ThreadID: "unknown"}
		if s, ok := v["adapter_name"].(string); ok && s != "" {
			ev.AdapterName = s
		}
		if s, ok := v["thread_id"].(string); ok && s != "" {
			ev.ThreadID = s
		}
		return ev, nil
	default:
		return chat.AssistantThreadStartedEvent{}, &chat.ErrInvalidInput{Kind: "assistant_thread_started", Value: value}
	}
}

// EnsureAssistantContextChangedEvent coerces value into a
// chat.AssistantContextChangedEvent, defaulting ThreadID to "unknown" when
// missing.
func EnsureAssistantContextChangedEvent(value interface{}, adapterName string) (chat.AssistantContextChangedEvent, error) {
	switch v := value.(type) {
	case chat.AssistantContextChangedEvent:
		return v, nil
	case map[string]interface{}:
		ev := chat.AssistantContextChangedEvent{AdapterName: adapterName, ThreadID: "unknown"}
		if s, ok := v["adapter_name"].(string); ok && s != "" {
			ev.AdapterName = s
		}
		if s, ok := v["thread_id"].(string); ok && s != "" {
			ev.ThreadID = s
		}
		if c, ok := v["context"].(map[string]interface{}); ok {
			ev.Context = c
		}
		return ev, nil
	default:
		return chat.AssistantContextChangedEvent{}, &chat.ErrInvalidInput{Kind: "assistant_context_changed", Value: value}
	}
}

// EnsureEventEnvelope coerces value into a chat.EventEnvelope. A typed
// envelope passes through (its AdapterName is set to adapterName only when
// empty); a map is built by inferring event_type from the
// payload shape when absent (chat.InferEventType) and coercing payload via
// the matching Ensure<Kind> function.
func EnsureEventEnvelope(value interface{}, adapterName string) (chat.EventEnvelope, error) {
	switch v := value.(type) {
	case chat.EventEnvelope:
		if v.AdapterName == "" {
			v.AdapterName = adapterName
		}
		return v, nil
	case map[string]interface{}:
		return envelopeFromMap(v, adapterName)
	default:
		return chat.EventEnvelope{}, &chat.ErrInvalidInput{Kind: "event_envelope", Value: value}
	}
}

func envelopeFromMap(m map[string]interface{}, adapterName string) (chat.EventEnvelope, error) {
	eventType, _ := m["event_type"].(string)
	if eventType == "" {
		payload, _ := m["payload"].(map[string]interface{})
		if payload == nil {
			payload = m
		}
		eventType = string(chat.InferEventType(payload))
	}
	payloadRaw := m["payload"]
	if payloadRaw == nil {
		payloadRaw = m
	}

	env := chat.EventEnvelope{
		ID:          chat.NewID(),
		AdapterName: adapterName,
		EventType:   chat.EventType(eventType),
	}
	if s, ok := m["id"].(string); ok && s != "" {
		env.ID = s
	}
	if s, ok := m["adapter_name"].(string); ok && s != "" {
		env.AdapterName = s
	}
	if s, ok := m["thread_id"].(string); ok {
		env.ThreadID = s
	}
	if s, ok := m["channel_id"].(string); ok {
		env.ChannelID = s
	}
	if s, ok := m["message_id"].(string); ok {
		env.MessageID = s
	}
	if meta, ok := m["metadata"].(map[string]interface{}); ok {
		env.Metadata = meta
	}

	var err error
	switch env.EventType {
	case chat.EventMessage:
		env.Payload, err = EnsureIncoming(payloadRaw, env.AdapterName)
	case chat.EventReaction:
		env.Payload, err = EnsureReactionEvent(payloadRaw, env.AdapterName)
	case chat.EventAction:
		env.Payload, err = EnsureActionEvent(payloadRaw, env.AdapterName)
	case chat.EventModalSubmit:
		env.Payload, err = EnsureModalSubmitEvent(payloadRaw, env.AdapterName)
	case chat.EventModalClose:
		env.Payload, err = EnsureModalCloseEvent(payloadRaw, env.AdapterName)
	case chat.EventSlashCommand:
		env.Payload, err = EnsureSlashCommandEvent(payloadRaw, env.AdapterName)
	case chat.EventAssistantThreadStarted:
		env.Payload, err = EnsureAssistantThreadStartedEvent(payloadRaw, env.AdapterName)
	case chat.EventAssistantContextChanged:
		env.Payload, err = EnsureAssistantContextChangedEvent(payloadRaw, env.AdapterName)
	default:
		err = &chat.ErrUnsupportedEventType{EventType: env.EventType}
	}
	if err != nil {
		return chat.EventEnvelope{}, err
	}
	return env, nil
}

// mentionPattern builds the case-insensitive "(^|\s)@<name>\b" mention
// regex source for userName (mentionRegex compiles and caches it), escaping any regex metacharacters in the name first
// so a username like "bot.ai" matches literally rather than as a wildcard.
func mentionPattern(userName string) (string, error) {
	if userName == "" {
		return "", fmt.Errorf("chatcore: mention pattern requires a non-empty user name")
	}
	return fmt.Sprintf(`(?i)(^|\s)@%s\b`, regexp.QuoteMeta(userName)), nil
}
