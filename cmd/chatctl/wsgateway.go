package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/picoclaw/chatcore/pkg/domain/chat"
	"github.com/picoclaw/chatcore/pkg/logger"
)

const wsAdapterName = "ws"

// wsAdapter drives a *chatcore.Chat from a single websocket connection
// instead of a terminal. It is the gateway-style counterpart to
// consoleAdapter: chatctl's core never dials or accepts connections itself
// (see chat.ListenerChildSpecer), so this lives entirely in the command,
// started only when -listen is passed.
type wsAdapter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSAdapter(conn *websocket.Conn) *wsAdapter {
	return &wsAdapter{conn: conn}
}

func (a *wsAdapter) ChannelType() string { return "ws" }

func (a *wsAdapter) TransformIncoming(ctx context.Context, raw map[string]interface{}) (chat.Incoming, error) {
	text, _ := raw["text"].(string)
	in, err := chat.NewIncoming("remote", func(in *chat.Incoming) {
		in.Text = text
		in.ExternalUserID = "remote"
		in.ChatType = chat.ChatDirect
	})
	if err != nil {
		return chat.Incoming{}, err
	}
	return *in, nil
}

func (a *wsAdapter) SendMessage(ctx context.Context, externalRoomID, text string, opts map[string]interface{}) (chat.Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.conn.WriteJSON(map[string]interface{}{"room": externalRoomID, "text": text}); err != nil {
		return chat.Response{}, err
	}
	return chat.Response{
		ExternalMessageID: chat.NewID(),
		ExternalRoomID:    externalRoomID,
		Status:            chat.StatusSent,
		Text:              text,
		SentAt:            time.Now().UTC(),
	}, nil
}

func (a *wsAdapter) StartTyping(ctx context.Context, externalRoomID string, opts map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn.WriteJSON(map[string]interface{}{"room": externalRoomID, "typing": true})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// serveWS accepts connections and drives con.chat through each one, the way
// readline drives it from stdin in run(). Every connection registers its
// own adapter instance under the shared "ws" name, replacing the one a
// previous connection registered; the registration is not removed when the
// connection closes.
func (con *console) serveWS(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WarnCF("chatctl", "websocket upgrade failed", map[string]interface{}{"error": err.Error()})
			return
		}
		con.handleWSConn(conn)
	})
	logger.InfoCF("chatctl", "websocket gateway listening", map[string]interface{}{"addr": addr})
	return http.ListenAndServe(addr, mux)
}

func (con *console) handleWSConn(conn *websocket.Conn) {
	defer conn.Close()

	con.mu.Lock()
	adapter := newWSAdapter(conn)
	con.chat.RegisterAdapter(wsAdapterName, adapter)
	con.mu.Unlock()

	for {
		var msg struct {
			Text string `json:"text"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		con.mu.Lock()
		in, err := adapter.TransformIncoming(context.Background(), map[string]interface{}{"text": msg.Text})
		if err != nil {
			con.mu.Unlock()
			continue
		}
		updated, _, err := con.chat.ProcessMessage(wsAdapterName, in)
		if err != nil {
			logger.WarnCF("chatctl", "process message failed", map[string]interface{}{"error": err.Error()})
			con.mu.Unlock()
			continue
		}
		if updated != nil {
			con.chat = updated
		}
		con.mu.Unlock()
	}
}
