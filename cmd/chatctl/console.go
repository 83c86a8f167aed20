package main

import (
	"context"
	"fmt"
	"time"

	"github.com/picoclaw/chatcore/pkg/domain/chat"
)

// consoleAdapter is a minimal chat.Adapter that treats stdin/stdout as a
// single room named "local". It exists purely so a *chatcore.Chat can be
// driven end-to-end (registration, dedup, routing, posting) from a
// terminal, the way a real platform integration would drive one from a
// webhook.
type consoleAdapter struct {
	roomID string
	out    func(text string)
}

func newConsoleAdapter(roomID string, out func(text string)) *consoleAdapter {
	return &consoleAdapter{roomID: roomID, out: out}
}

func (a *consoleAdapter) ChannelType() string { return "console" }

func (a *consoleAdapter) TransformIncoming(ctx context.Context, raw map[string]interface{}) (chat.Incoming, error) {
	text, _ := raw["text"].(string)
	in, err := chat.NewIncoming(a.roomID, func(in *chat.Incoming) {
		in.ExternalUserID = "operator"
		in.Text = text
		in.Timestamp = time.Now().UTC()
		in.ChatType = chat.ChatDirect
		in.Raw = raw
	})
	if err != nil {
		return chat.Incoming{}, err
	}
	return *in, nil
}

func (a *consoleAdapter) SendMessage(ctx context.Context, externalRoomID, text string, opts map[string]interface{}) (chat.Response, error) {
	a.out(text)
	return chat.Response{
		ExternalMessageID: chat.NewID(),
		ExternalRoomID:    externalRoomID,
		Status:            chat.StatusSent,
		Text:              text,
		SentAt:            time.Now().UTC(),
	}, nil
}

// StartTyping satisfies chat.TypingStarter, so /caps reports start_typing as
// native for the console adapter; it just prints a marker.
func (a *consoleAdapter) StartTyping(ctx context.Context, externalRoomID string, opts map[string]interface{}) error {
	a.out(fmt.Sprintf("(%s is typing...)", externalRoomID))
	return nil
}
