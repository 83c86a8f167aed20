package chatcore

import (
	"github.com/picoclaw/chatcore/pkg/domain/chat"
)

// classForEventType maps a chat.EventType to the HandlerClass non-message
// events dispatch under. message/reaction/.../assistant_context_changed
// share identical string values by construction, so this is a type
// conversion in spirit; the explicit switch keeps it exhaustive and catches
// an unsupported type at compile-reviewable call sites.
func classForEventType(t chat.EventType) (HandlerClass, bool) {
	switch t {
	case chat.EventReaction:
		return ClassReaction, true
	case chat.EventAction:
		return ClassAction, true
	case chat.EventModalSubmit:
		return ClassModalSubmit, true
	case chat.EventModalClose:
		return ClassModalClose, true
	case chat.EventSlashCommand:
		return ClassSlashCommand, true
	case chat.EventAssistantThreadStarted:
		return ClassAssistantThreadStarted, true
	case chat.EventAssistantContextChanged:
		return ClassAssistantContextChanged, true
	default:
		return "", false
	}
}

// RouteEvent takes (chat, adapterName, envelope), calls the matching
// dispatch entry point, and returns the updated chat plus the envelope with
// its payload/thread_id/channel_id/message_id slots refreshed.
//
// event_type=message normalizes the payload to Incoming, derives thread_id
// when the envelope didn't already carry one, runs ProcessMessage, then
// splices the routed Incoming back into the envelope. Every other known
// event_type dispatches to the matching event-handler list. An unknown
// event_type is chat.ErrUnsupportedEventType.
func (c *Chat) RouteEvent(adapterName string, env chat.EventEnvelope) (*Chat, chat.EventEnvelope, error) {
	if env.EventType == chat.EventMessage {
		in, err := EnsureIncoming(env.Payload, adapterName)
		if err != nil {
			return c, env, err
		}
		threadID := env.ThreadID
		if threadID == "" {
			threadID = chat.ThreadID(adapterName, in.ExternalRoomID, in.ExternalThreadID)
		}
		cur, routed, err := c.ProcessMessage(adapterName, in)
		if err != nil {
			return cur, env, err
		}
		env = chat.WithEnvelopePayload(env, threadID, chat.ChannelID(adapterName, in.ExternalRoomID), in.ExternalMessageID)
		env.Payload = routed
		return cur, env, nil
	}

	class, ok := classForEventType(env.EventType)
	if !ok {
		return c, env, &chat.ErrUnsupportedEventType{EventType: env.EventType}
	}
	cur := c.DispatchEvent(class, env.Payload)
	return cur, env, nil
}
