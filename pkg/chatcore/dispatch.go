package chatcore

import (
	"regexp"
	"sync"

	"github.com/picoclaw/chatcore/pkg/domain/chat"
)

var mentionPatternCache sync.Map // userName -> *regexp.Regexp

// mentionRegex returns the compiled, cached mention pattern for userName.
func mentionRegex(userName string) (*regexp.Regexp, error) {
	if cached, ok := mentionPatternCache.Load(userName); ok {
		return cached.(*regexp.Regexp), nil
	}
	pattern, err := mentionPattern(userName)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	mentionPatternCache.Store(userName, re)
	return re, nil
}

// mentioned reports whether in counts as mentioning c.UserName: either the
// adapter already flagged WasMentioned, or the text matches the
// case-insensitive "(^|\s)@<user_name>\b" pattern.
func mentioned(c *Chat, in chat.Incoming) bool {
	if in.WasMentioned {
		return true
	}
	if c.UserName == "" {
		return false
	}
	re, err := mentionRegex(c.UserName)
	if err != nil {
		return false
	}
	return re.MatchString(in.Text)
}

// dedupeSeen reports whether key is already recorded, without mutating
// state.
func (c *Chat) dedupeSeen(key dedupeKey) bool {
	_, ok := c.dedupe[key]
	return ok
}

// dedupeRecord adds key to the dedupe set/order, evicting from the front
// when the bound is exceeded.
func (c *Chat) dedupeRecord(key dedupeKey) {
	c.dedupe[key] = struct{}{}
	c.dedupeOrder = append(c.dedupeOrder, key)
	limit := c.dedupeLimit()
	for len(c.dedupeOrder) > limit {
		evicted := c.dedupeOrder[0]
		c.dedupeOrder = c.dedupeOrder[1:]
		delete(c.dedupe, evicted)
	}
}

// DedupeSize reports the current number of tracked dedupe keys, for tests
// and diagnostics.
func (c *Chat) DedupeSize() int {
	return len(c.dedupeOrder)
}

// ProcessMessage is the dispatcher's entry point for a single normalized Incoming. It
// runs the dedup check, builds the Thread via c.ThreadFactory, resolves the
// mutually-exclusive routing class (subscribed > mention > message-regex),
// and runs the matching handlers in registration order. It returns
// ErrNoThreadFactory, unchanged, when no ThreadFactory has been wired.
func (c *Chat) ProcessMessage(adapterName string, in chat.Incoming) (*Chat, chat.Incoming, error) {
	if in.ExternalMessageID != "" {
		key := dedupeKey{AdapterName: adapterName, ExternalMessageID: in.ExternalMessageID}
		if c.dedupeSeen(key) {
			return c, in, nil
		}
		c.dedupeRecord(key)
	}

	if c.ThreadFactory == nil {
		return c, in, ErrNoThreadFactory
	}
	thread := c.ThreadFactory(adapterName, in)

	cur := c
	switch {
	case thread != nil && cur.IsSubscribed(thread.ID):
		cur = cur.runMessageHandlers(ClassSubscribed, thread, in)
	case mentioned(cur, in):
		cur = cur.runMessageHandlers(ClassMention, thread, in)
	default:
		cur = cur.runMatchingMessageHandlers(thread, in)
	}
	return cur, in, nil
}

// runMessageHandlers runs every registered handler of class in order,
// threading the Chat value returned by each through to the next.
func (c *Chat) runMessageHandlers(class HandlerClass, thread *Thread, in chat.Incoming) *Chat {
	cur := c
	for _, h := range cur.handlers[class] {
		cur = cur.invokeMessageHandler(h, thread, in)
	}
	return cur
}

// runMatchingMessageHandlers runs every registered `message` handler whose
// regex matches in.Text (empty string if unset), in registration order.
func (c *Chat) runMatchingMessageHandlers(thread *Thread, in chat.Incoming) *Chat {
	cur := c
	for _, h := range cur.handlers[ClassMessage] {
		if h.Regex != nil && !h.Regex.MatchString(in.Text) {
			continue
		}
		cur = cur.invokeMessageHandler(h, thread, in)
	}
	return cur
}

// invokeMessageHandler calls exactly one of h.Fn2/h.Fn3 and applies the
// "returns Chat or keep current" convention.
func (c *Chat) invokeMessageHandler(h messageHandler, thread *Thread, in chat.Incoming) *Chat {
	var result *Chat
	if h.Fn2 != nil {
		result = h.Fn2(thread, in)
	} else if h.Fn3 != nil {
		result = h.Fn3(c, thread, in)
	}
	if result != nil {
		return result
	}
	return c
}

// DispatchEvent is the dispatcher's entry point for every event class other than
// message: every handler registered for class runs in order.
func (c *Chat) DispatchEvent(class HandlerClass, event interface{}) *Chat {
	cur := c
	for _, h := range cur.eventHandlers[class] {
		cur = cur.invokeEventHandler(h, event)
	}
	return cur
}

func (c *Chat) invokeEventHandler(h eventHandler, event interface{}) *Chat {
	var result *Chat
	if h.Fn1 != nil {
		result = h.Fn1(event)
	} else if h.Fn2 != nil {
		result = h.Fn2(c, event)
	}
	if result != nil {
		return result
	}
	return c
}
