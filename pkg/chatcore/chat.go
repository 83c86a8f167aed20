// Package chatcore implements the routing, dispatch, and outbound-facade
// core of the chat SDK: event normalization, handler dispatch, the webhook
// pipeline, and the Thread/Channel handles that post and page through
// adapters. pkg/domain/chat supplies the normalized value model and adapter
// contract this package orchestrates.
package chatcore

import (
	"regexp"

	"github.com/picoclaw/chatcore/pkg/domain/chat"
)

// DefaultDedupeLimit is the default bound on Chat.dedupeOrder, overridable
// via Metadata["dedupe_limit"].
const DefaultDedupeLimit = 1000

// HandlerClass enumerates the handler registration classes.
type HandlerClass string

const (
	ClassMention                 HandlerClass = "mention"
	ClassMessage                 HandlerClass = "message"
	ClassSubscribed              HandlerClass = "subscribed"
	ClassReaction                HandlerClass = "reaction"
	ClassAction                  HandlerClass = "action"
	ClassModalSubmit              HandlerClass = "modal_submit"
	ClassModalClose               HandlerClass = "modal_close"
	ClassSlashCommand             HandlerClass = "slash_command"
	ClassAssistantThreadStarted   HandlerClass = "assistant_thread_started"
	ClassAssistantContextChanged  HandlerClass = "assistant_context_changed"
)

// MessageHandlerFunc2 is a message/mention/subscribed handler with arity
// (thread, incoming) -> updated Chat or nil to keep the current one.
type MessageHandlerFunc2 func(thread *Thread, incoming chat.Incoming) *Chat

// MessageHandlerFunc3 is a message/mention/subscribed handler with arity
// (chat, thread, incoming) -> updated Chat or nil.
type MessageHandlerFunc3 func(c *Chat, thread *Thread, incoming chat.Incoming) *Chat

// messageHandler is one registered message/mention/subscribed handler;
// Regex is nil for mention/subscribed registrations (those never filter by
// pattern). Exactly one of Fn2/Fn3 is set.
type messageHandler struct {
	Regex *regexp.Regexp
	Fn2   MessageHandlerFunc2
	Fn3   MessageHandlerFunc3
}

// EventHandlerFunc1 is an event handler with arity (event) -> updated Chat
// or nil.
type EventHandlerFunc1 func(event interface{}) *Chat

// EventHandlerFunc2 is an event handler with arity (chat, event) -> updated
// Chat or nil.
type EventHandlerFunc2 func(c *Chat, event interface{}) *Chat

type eventHandler struct {
	Fn1 EventHandlerFunc1
	Fn2 EventHandlerFunc2
}

// ThreadFactory builds the Thread handle message dispatch needs to evaluate
// routing (subscriptions, mentions) and hand to message handlers. Supplied by the outbound layer's
// caller — the core never constructs adapter references on its own.
type ThreadFactory func(adapterName string, in chat.Incoming) *Thread

// Chat is the root, mutable-by-convention state: adapters, handler tables,
// subscriptions, the dedupe window, and per-thread/channel attribute maps.
// Every dispatch method mutates Chat in place and also returns it, so
// callers that prefer a purely functional style can still write
// `c = c.Dispatch(...)`.
type Chat struct {
	ID       string
	UserName string

	adapters map[string]chat.Adapter

	subscriptions map[string]struct{}

	dedupe      map[dedupeKey]struct{}
	dedupeOrder []dedupeKey

	handlers      map[HandlerClass][]messageHandler
	eventHandlers map[HandlerClass][]eventHandler

	threadState  map[string]map[string]interface{}
	channelState map[string]map[string]interface{}

	Metadata map[string]interface{}

	Initialized bool

	// ThreadFactory builds Thread handles for dispatch and outbound posting. Required before any
	// dispatch call; NewChat leaves it nil so callers wire it explicitly
	// after registering adapters (it usually closes over the Chat itself).
	ThreadFactory ThreadFactory
}

type dedupeKey struct {
	AdapterName       string
	ExternalMessageID string
}

// NewChat creates an empty Chat with a generated id.
func NewChat(userName string) *Chat {
	return &Chat{
		ID:            chat.NewID(),
		UserName:      userName,
		adapters:      map[string]chat.Adapter{},
		subscriptions: map[string]struct{}{},
		dedupe:        map[dedupeKey]struct{}{},
		handlers:      map[HandlerClass][]messageHandler{},
		eventHandlers: map[HandlerClass][]eventHandler{},
		threadState:   map[string]map[string]interface{}{},
		channelState:  map[string]map[string]interface{}{},
		Metadata:      map[string]interface{}{},
	}
}

// dedupeLimit resolves Metadata["dedupe_limit"], defaulting to
// DefaultDedupeLimit.
func (c *Chat) dedupeLimit() int {
	if v, ok := c.Metadata["dedupe_limit"]; ok {
		if n, ok := v.(int); ok && n > 0 {
			return n
		}
	}
	return DefaultDedupeLimit
}

// RegisterAdapter adds an adapter under adapterName.
func (c *Chat) RegisterAdapter(adapterName string, a chat.Adapter) {
	c.adapters[adapterName] = a
}

// Adapter resolves an adapter by name.
func (c *Chat) Adapter(adapterName string) (chat.Adapter, error) {
	a, ok := c.adapters[adapterName]
	if !ok {
		return nil, &chat.ErrUnknownAdapter{AdapterName: adapterName}
	}
	return a, nil
}

// Subscribe marks threadID as routed to subscribed handlers instead of
// mention/message handlers.
func (c *Chat) Subscribe(threadID string) {
	c.subscriptions[threadID] = struct{}{}
}

// Unsubscribe reverses Subscribe.
func (c *Chat) Unsubscribe(threadID string) {
	delete(c.subscriptions, threadID)
}

// IsSubscribed reports whether threadID routes to subscribed handlers.
func (c *Chat) IsSubscribed(threadID string) bool {
	_, ok := c.subscriptions[threadID]
	return ok
}

// ---------------------------------------------------------------------------
// Handler registration — append-only, registration order = dispatch order.
// ---------------------------------------------------------------------------

// OnMention registers a mention handler with 2-arity callback.
func (c *Chat) OnMention(fn MessageHandlerFunc2) {
	c.handlers[ClassMention] = append(c.handlers[ClassMention], messageHandler{Fn2: fn})
}

// OnMentionWithChat registers a mention handler with 3-arity callback.
func (c *Chat) OnMentionWithChat(fn MessageHandlerFunc3) {
	c.handlers[ClassMention] = append(c.handlers[ClassMention], messageHandler{Fn3: fn})
}

// OnSubscribed registers a subscribed-thread handler with 2-arity callback.
func (c *Chat) OnSubscribed(fn MessageHandlerFunc2) {
	c.handlers[ClassSubscribed] = append(c.handlers[ClassSubscribed], messageHandler{Fn2: fn})
}

// OnSubscribedWithChat registers a subscribed-thread handler with 3-arity
// callback.
func (c *Chat) OnSubscribedWithChat(fn MessageHandlerFunc3) {
	c.handlers[ClassSubscribed] = append(c.handlers[ClassSubscribed], messageHandler{Fn3: fn})
}

// OnMessage registers a regex-filtered message handler. The pattern is
// compiled once, here, at registration time — never recompiled on dispatch.
// An empty pattern matches every message.
func (c *Chat) OnMessage(pattern string, fn MessageHandlerFunc2) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	c.handlers[ClassMessage] = append(c.handlers[ClassMessage], messageHandler{Regex: re, Fn2: fn})
	return nil
}

// OnMessageWithChat registers a regex-filtered message handler with 3-arity
// callback.
func (c *Chat) OnMessageWithChat(pattern string, fn MessageHandlerFunc3) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	c.handlers[ClassMessage] = append(c.handlers[ClassMessage], messageHandler{Regex: re, Fn3: fn})
	return nil
}

// OnEvent registers a handler for a non-message event class (reaction,
// action, modal_submit, modal_close, slash_command,
// assistant_thread_started, assistant_context_changed).
func (c *Chat) OnEvent(class HandlerClass, fn EventHandlerFunc1) {
	c.eventHandlers[class] = append(c.eventHandlers[class], eventHandler{Fn1: fn})
}

// OnEventWithChat registers a 2-arity event handler.
func (c *Chat) OnEventWithChat(class HandlerClass, fn EventHandlerFunc2) {
	c.eventHandlers[class] = append(c.eventHandlers[class], eventHandler{Fn2: fn})
}

// HandlerCounts reports the number of registered handlers per class, for
// serialization metadata.
func (c *Chat) HandlerCounts() map[string]int {
	counts := map[string]int{}
	for class, hs := range c.handlers {
		counts[string(class)] = len(hs)
	}
	for class, hs := range c.eventHandlers {
		counts[string(class)] = len(hs)
	}
	return counts
}

// ---------------------------------------------------------------------------
// Thread/channel state — pure key->map cache, set_state(chat, handle, mode, value)
// ---------------------------------------------------------------------------

// StateMode selects how SetThreadState/SetChannelState apply value.
// StatePut is exposed separately, through SetThreadStateKey/
// SetChannelStateKey, since a single-key put takes a key + a scalar value
// rather than a whole map.
type StateMode int

const (
	StateReplace StateMode = iota
	StateMerge
	StatePut
)

// SetThreadState mutates thread_state[threadID] per mode: StateReplace
// swaps the whole map, StateMerge shallow-merges value into the existing
// map (creating it if absent). For a single-key put (StatePut), use
// SetThreadStateKey instead.
func (c *Chat) SetThreadState(threadID string, mode StateMode, value map[string]interface{}) {
	c.threadState[threadID] = applyState(c.threadState[threadID], mode, value)
}

// ThreadState returns the current attribute map for threadID (nil if unset).
func (c *Chat) ThreadState(threadID string) map[string]interface{} {
	return c.threadState[threadID]
}

// SetChannelState mutates channel_state[channelID] per mode.
func (c *Chat) SetChannelState(channelID string, mode StateMode, value map[string]interface{}) {
	c.channelState[channelID] = applyState(c.channelState[channelID], mode, value)
}

// ChannelState returns the current attribute map for channelID (nil if unset).
func (c *Chat) ChannelState(channelID string) map[string]interface{} {
	return c.channelState[channelID]
}

// SetThreadStateKey puts a single key into thread_state[threadID] (StatePut
// mode), creating the map if absent and leaving every other key untouched.
func (c *Chat) SetThreadStateKey(threadID, key string, value interface{}) {
	c.threadState[threadID] = putStateKey(c.threadState[threadID], key, value)
}

// SetChannelStateKey puts a single key into channel_state[channelID]
// (StatePut mode), mirroring SetThreadStateKey.
func (c *Chat) SetChannelStateKey(channelID, key string, value interface{}) {
	c.channelState[channelID] = putStateKey(c.channelState[channelID], key, value)
}

func putStateKey(existing map[string]interface{}, key string, value interface{}) map[string]interface{} {
	if existing == nil {
		existing = map[string]interface{}{}
	}
	existing[key] = value
	return existing
}

func applyState(existing map[string]interface{}, mode StateMode, value map[string]interface{}) map[string]interface{} {
	if mode == StateReplace || existing == nil {
		out := map[string]interface{}{}
		for k, v := range value {
			out[k] = v
		}
		return out
	}
	for k, v := range value {
		existing[k] = v
	}
	return existing
}

// Shutdown marks the Chat as no longer initialized. This is advisory
// metadata only — nothing else in the core gates on it.
func (c *Chat) Shutdown() {
	c.Initialized = false
}
