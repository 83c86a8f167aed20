package chatcore

import (
	"sort"

	"github.com/picoclaw/chatcore/pkg/domain/chat"
)

// TypeChat, TypeThread, and TypeChannel are the "__type__" discriminators
// for the outbound handles that live in this package rather than
// pkg/domain/chat (they carry a chat.Adapter reference, resolved by name
// through the AdapterRegistry exactly as Chat.ToMap/ReviveChat do).
const (
	TypeChat    chat.TypeTag = "chat"
	TypeThread  chat.TypeTag = "thread"
	TypeChannel chat.TypeTag = "channel"
)

// ToMap renders the Chat as plain data: the handlers block
// is encoded as {"serializable": false, "counts": {class: n, ...}}, never
// the closures themselves; subscriptions are a sorted sequence; the dedupe
// window is emitted only as "dedupe_order", in arrival (FIFO) order;
// adapters are serialized by their registered name only.
func (c *Chat) ToMap() map[string]interface{} {
	adapterNames := make([]string, 0, len(c.adapters))
	for name := range c.adapters {
		adapterNames = append(adapterNames, name)
	}
	sort.Strings(adapterNames)

	dedupePairs := make([]map[string]interface{}, 0, len(c.dedupeOrder))
	for _, key := range c.dedupeOrder {
		dedupePairs = append(dedupePairs, map[string]interface{}{
			"adapter_name":        key.AdapterName,
			"external_message_id": key.ExternalMessageID,
		})
	}

	subs := make([]string, 0, len(c.subscriptions))
	for id := range c.subscriptions {
		subs = append(subs, id)
	}
	sort.Strings(subs)

	threadState := map[string]interface{}{}
	for id, attrs := range c.threadState {
		threadState[id] = attrs
	}
	channelState := map[string]interface{}{}
	for id, attrs := range c.channelState {
		channelState[id] = attrs
	}

	return map[string]interface{}{
		"__type__":      string(TypeChat),
		"id":            c.ID,
		"user_name":     c.UserName,
		"adapters":      adapterNames,
		"subscriptions": subs,
		"dedupe_order":  dedupePairs,
		"handlers":      map[string]interface{}{"serializable": false, "counts": c.HandlerCounts()},
		"thread_state":  threadState,
		"channel_state": channelState,
		"metadata":      c.Metadata,
		"initialized":   c.Initialized,
	}
}

// ReviveChat reconstructs a Chat from its plain-data form. Deserialization
// restores an empty handler table (callers must re-register handlers after
// revival); adapter names are resolved through the AdapterRegistry, with an
// unresolved placeholder standing in for any name that wasn't re-registered.
func ReviveChat(m map[string]interface{}) *Chat {
	c := NewChat("")
	if v, ok := m["id"].(string); ok && v != "" {
		c.ID = v
	}
	if v, ok := m["user_name"].(string); ok {
		c.UserName = v
	}
	if v, ok := m["initialized"].(bool); ok {
		c.Initialized = v
	}

	for _, name := range toStringSlice(m["adapters"]) {
		if name == "" {
			continue
		}
		if construct, found := ResolveAdapterType(name); found {
			c.RegisterAdapter(name, construct())
		} else {
			c.RegisterAdapter(name, &unresolvedAdapter{name: name})
		}
	}

	for _, id := range toStringSlice(m["subscriptions"]) {
		c.Subscribe(id)
	}

	// Rebuild dedupe set strictly from dedupe_order, regardless of what a
	// legacy serialized payload's (possibly divergent) dedupe set claimed:
	// the set is always treated as equal to the contents of order.
	for _, entry := range toMapSlice(m["dedupe_order"]) {
		adapterName, _ := entry["adapter_name"].(string)
		msgID, _ := entry["external_message_id"].(string)
		key := dedupeKey{AdapterName: adapterName, ExternalMessageID: msgID}
		c.dedupe[key] = struct{}{}
		c.dedupeOrder = append(c.dedupeOrder, key)
	}

	if threadState, ok := m["thread_state"].(map[string]interface{}); ok {
		for id, v := range threadState {
			if attrs, ok := v.(map[string]interface{}); ok {
				c.threadState[id] = attrs
			}
		}
	}
	if channelState, ok := m["channel_state"].(map[string]interface{}); ok {
		for id, v := range channelState {
			if attrs, ok := v.(map[string]interface{}); ok {
				c.channelState[id] = attrs
			}
		}
	}
	if meta, ok := m["metadata"].(map[string]interface{}); ok {
		c.Metadata = meta
	}

	return c
}

// resolveNamedAdapter looks adapterName up in the AdapterRegistry, the same
// by-name resolution ReviveChat uses for c.adapters, falling back to an
// unresolvedAdapter placeholder for a name nothing re-registered.
func resolveNamedAdapter(adapterName string) chat.Adapter {
	if adapterName == "" {
		return nil
	}
	if construct, found := ResolveAdapterType(adapterName); found {
		return construct()
	}
	return &unresolvedAdapter{name: adapterName}
}

// Revive reconstructs a typed value from its serialized plain-data form,
// extending chat.Revive with the three handle types whose Adapter field
// needs the AdapterRegistry to resolve: chat/thread/channel/sent_message
// tags are handled here, everything else is delegated to chat.Revive.
func Revive(data map[string]interface{}) (interface{}, error) {
	tag, _ := data["__type__"].(string)
	switch chat.TypeTag(tag) {
	case TypeChat:
		return ReviveChat(data), nil
	case TypeThread:
		return ReviveThread(data), nil
	case TypeChannel:
		return ReviveChannelRef(data), nil
	case chat.TypeSentMessage:
		return ReviveSentMessage(data), nil
	default:
		return chat.Revive(data)
	}
}

// toStringSlice accepts either a []string (the shape ToMap produces
// in-process) or a []interface{} of strings (the shape a JSON round-trip
// produces) and normalizes to []string.
func toStringSlice(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// toMapSlice accepts either a []map[string]interface{} (in-process) or a
// []interface{} of map[string]interface{} (post-JSON) and normalizes to
// []map[string]interface{}.
func toMapSlice(v interface{}) []map[string]interface{} {
	switch vv := v.(type) {
	case []map[string]interface{}:
		return vv
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(vv))
		for _, item := range vv {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}
