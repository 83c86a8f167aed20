// Package chat defines the normalized value model and adapter contract shared
// by every platform integration — the only types the routing core in
// pkg/chatcore exchanges with adapter implementations.
package chat

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewID returns an opaque, globally unique identifier for core-owned values
// (Chat.ID, SentMessage.ID fallback, …). Platform-native ids (external
// message/room/thread ids) are never generated this way — they come from
// the adapter.
func NewID() string {
	return uuid.NewString()
}

// ChannelID returns the deterministic channel id "adapter:room".
func ChannelID(adapterName, externalRoomID string) string {
	return fmt.Sprintf("%s:%s", adapterName, externalRoomID)
}

// ThreadID returns the deterministic thread id: "adapter:room" when there is
// no sub-thread, "adapter:room:thread" when externalThreadID is non-empty.
func ThreadID(adapterName, externalRoomID, externalThreadID string) string {
	if externalThreadID == "" {
		return ChannelID(adapterName, externalRoomID)
	}
	return fmt.Sprintf("%s:%s:%s", adapterName, externalRoomID, externalThreadID)
}

// SplitThreadID decomposes a thread/channel id back into its parts.
// Returns ok=false if id isn't in "adapter:room[:thread]" form.
func SplitThreadID(id string) (adapterName, room, thread string, ok bool) {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) < 2 {
		return "", "", "", false
	}
	adapterName = parts[0]
	room = parts[1]
	if len(parts) == 3 {
		thread = parts[2]
	}
	return adapterName, room, thread, true
}
