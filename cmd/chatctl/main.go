// Command chatctl is an interactive console for exercising a *chatcore.Chat
// locally: text typed at the prompt is fed through the same
// registration/dedup/routing path a webhook would use, and anything a
// handler posts back is printed. It is a development aid, not a deployment
// target: the core stays free of transport/listener code.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/picoclaw/chatcore/pkg/chatcore"
	"github.com/picoclaw/chatcore/pkg/config"
	"github.com/picoclaw/chatcore/pkg/domain/chat"
	"github.com/picoclaw/chatcore/pkg/infrastructure/snapshot"
	"github.com/picoclaw/chatcore/pkg/logger"
)

const consoleAdapterName = "console"
const consoleRoomID = "local"

// console wraps the single *chatcore.Chat this process drives. It can touch
// the Chat from several goroutines — the readline loop (or, with -listen,
// every websocket connection) and the SIGINT/SIGTERM handler that snapshots
// on the way out — so it owns its own mutex rather than asking the core to
// provide one.
type console struct {
	mu    sync.Mutex
	chat  *chatcore.Chat
	store *snapshot.Store
	rl    *readline.Instance
}

func main() {
	yamlPath := flag.String("config", "", "path to an optional YAML config overlay")
	chatID := flag.String("chat-id", "", "load/save this chat id (defaults to a fresh id)")
	listenAddr := flag.String("listen", "", "if set, serve a websocket gateway on this address instead of the readline prompt")
	flag.Parse()

	cfg, err := config.Load(*yamlPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "chatctl:", err)
		os.Exit(1)
	}
	logger.SetLevel(levelFromString(cfg.LogLevel))

	store, err := snapshot.Open(cfg.SnapshotDBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "chatctl:", err)
		os.Exit(1)
	}
	defer store.Close()

	rl, err := readline.New("chatctl> ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "chatctl:", err)
		os.Exit(1)
	}
	defer rl.Close()

	con := &console{store: store, rl: rl}
	con.chat = con.loadOrCreate(*chatID, cfg.UserName)
	con.chat.Metadata["dedupe_limit"] = cfg.DedupeLimit
	con.registerHandlers()

	go con.handleSignals()

	if *listenAddr != "" {
		if err := con.serveWS(*listenAddr); err != nil {
			fmt.Fprintln(os.Stderr, "chatctl:", err)
			os.Exit(1)
		}
		return
	}
	con.run()
}

func levelFromString(s string) logger.Level {
	switch strings.ToLower(s) {
	case "debug":
		return logger.LevelDebug
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func (con *console) loadOrCreate(chatID, userName string) *chatcore.Chat {
	if chatID != "" {
		if c, err := con.store.Load(chatID); err == nil {
			logger.InfoCF("chatctl", "loaded snapshot", map[string]interface{}{"chat_id": chatID})
			con.rewire(c, userName)
			return c
		}
	}
	c := chatcore.NewChat(userName)
	if chatID != "" {
		c.ID = chatID
	}
	con.rewire(c, userName)
	return c
}

// rewire (re)installs the console adapter and thread factory on c: neither
// survives a ToMap/Revive round-trip.
func (con *console) rewire(c *chatcore.Chat, userName string) {
	c.UserName = userName
	adapter := newConsoleAdapter(consoleRoomID, func(text string) {
		fmt.Fprintln(con.rl.Stdout(), text)
	})
	c.RegisterAdapter(consoleAdapterName, adapter)
	c.ThreadFactory = func(adapterName string, in chat.Incoming) *chatcore.Thread {
		a, err := c.Adapter(adapterName)
		if err != nil {
			return nil
		}
		return chatcore.NewThread(adapterName, a, in.ExternalRoomID, in.ExternalThreadID, in.ChatType == chat.ChatDirect)
	}
}

func (con *console) registerHandlers() {
	con.chat.OnMention(func(thread *chatcore.Thread, in chat.Incoming) *chatcore.Chat {
		_, _ = thread.Post(context.Background(), fmt.Sprintf("you said: %s", in.Text), nil)
		return nil
	})
}

func (con *console) handleSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	con.mu.Lock()
	defer con.mu.Unlock()
	if err := con.store.Save(con.chat); err != nil {
		logger.ErrorCF("chatctl", "snapshot on shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	con.rl.Close()
	os.Exit(0)
}

func (con *console) run() {
	fmt.Fprintf(con.rl.Stdout(), "chatctl: chat %s ready (user_name=%s). /help for commands.\n", con.chat.ID, con.chat.UserName)
	for {
		line, err := con.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "chatctl:", err)
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if con.command(line) {
				return
			}
			continue
		}
		con.deliver(line)
	}
}

func (con *console) deliver(text string) {
	con.mu.Lock()
	defer con.mu.Unlock()

	adapter, err := con.chat.Adapter(consoleAdapterName)
	if err != nil {
		fmt.Fprintln(con.rl.Stdout(), "chatctl:", err)
		return
	}
	in, err := adapter.TransformIncoming(context.Background(), map[string]interface{}{"text": text})
	if err != nil {
		fmt.Fprintln(con.rl.Stdout(), "chatctl:", err)
		return
	}
	updated, _, err := con.chat.ProcessMessage(consoleAdapterName, in)
	if err != nil {
		fmt.Fprintln(con.rl.Stdout(), "chatctl:", err)
		return
	}
	if updated != nil {
		con.chat = updated
	}
}

// command handles a "/"-prefixed console directive; it returns true when
// the session should end.
func (con *console) command(line string) bool {
	con.mu.Lock()
	defer con.mu.Unlock()

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		if err := con.store.Save(con.chat); err != nil {
			fmt.Fprintln(con.rl.Stdout(), "chatctl: save failed:", err)
		}
		return true
	case "/save":
		if err := con.store.Save(con.chat); err != nil {
			fmt.Fprintln(con.rl.Stdout(), "chatctl: save failed:", err)
		} else {
			fmt.Fprintln(con.rl.Stdout(), "chatctl: saved as", con.chat.ID)
		}
	case "/subscribe":
		if len(fields) < 2 {
			fmt.Fprintln(con.rl.Stdout(), "usage: /subscribe <thread_id>")
			return false
		}
		con.chat.Subscribe(fields[1])
	case "/unsubscribe":
		if len(fields) < 2 {
			fmt.Fprintln(con.rl.Stdout(), "usage: /unsubscribe <thread_id>")
			return false
		}
		con.chat.Unsubscribe(fields[1])
	case "/caps":
		adapter, err := con.chat.Adapter(consoleAdapterName)
		if err != nil {
			fmt.Fprintln(con.rl.Stdout(), "chatctl:", err)
			return false
		}
		for name, status := range chat.SynthesizeCapabilities(adapter) {
			fmt.Fprintf(con.rl.Stdout(), "  %-24s %s\n", name, status)
		}
	case "/handlers":
		for class, n := range con.chat.HandlerCounts() {
			fmt.Fprintf(con.rl.Stdout(), "  %-28s %d\n", class, n)
		}
	case "/dedupe":
		fmt.Fprintln(con.rl.Stdout(), "tracked:", con.chat.DedupeSize())
	case "/help":
		fmt.Fprintln(con.rl.Stdout(), "/subscribe <id>  /unsubscribe <id>  /caps  /handlers  /dedupe  /save  /quit")
	default:
		fmt.Fprintln(con.rl.Stdout(), "chatctl: unknown command", fields[0])
	}
	return false
}
