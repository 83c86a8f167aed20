package chatcore

import (
	"context"
	"errors"
	"strconv"

	"github.com/picoclaw/chatcore/pkg/domain/chat"
)

// Thread is the outbound addressing handle for a room (+ optional
// sub-thread). ChannelID is always "adapter:room"; ID is ChannelID when
// ExternalThreadID is empty, else "adapter:room:thread".
type Thread struct {
	ID               string
	AdapterName      string
	Adapter          chat.Adapter
	ExternalRoomID   string
	ExternalThreadID string
	ChannelID        string
	IsDM             bool
	Metadata         map[string]interface{}
}

// NewThread builds a Thread, deriving ID/ChannelID from adapterName +
// externalRoomID + externalThreadID.
func NewThread(adapterName string, a chat.Adapter, externalRoomID, externalThreadID string, isDM bool) *Thread {
	return &Thread{
		ID:               chat.ThreadID(adapterName, externalRoomID, externalThreadID),
		AdapterName:      adapterName,
		Adapter:          a,
		ExternalRoomID:   externalRoomID,
		ExternalThreadID: externalThreadID,
		ChannelID:        chat.ChannelID(adapterName, externalRoomID),
		IsDM:             isDM,
	}
}

// ChannelRef is the outbound addressing handle for a room as a whole
// (channel-scoped operations), mirroring Thread.
type ChannelRef struct {
	ID          string
	AdapterName string
	Adapter     chat.Adapter
	ExternalID  string
	Metadata    map[string]interface{}
}

// NewChannelRef builds a ChannelRef.
func NewChannelRef(adapterName string, a chat.Adapter, externalID string) *ChannelRef {
	return &ChannelRef{
		ID:          chat.ChannelID(adapterName, externalID),
		AdapterName: adapterName,
		Adapter:     a,
		ExternalID:  externalID,
	}
}

// SentMessage is the outbound handle for follow-ups (edit/delete/react)
// against a previously sent message.
type SentMessage struct {
	Adapter        chat.Adapter
	AdapterName    string
	ExternalRoomID string
	ID             string
	Text           string
	Format         chat.PostFormat
	Attachments    []chat.Media
	Metadata       map[string]interface{}
	Response       chat.Response
	DefaultOpts    map[string]interface{}
}

// threadOpts injects thread_id from t.ExternalThreadID into opts when set,
// never overriding a caller-supplied value.
func threadOpts(t *Thread, opts map[string]interface{}) map[string]interface{} {
	merged := mergeOpts(opts, nil)
	if t.ExternalThreadID != "" {
		if _, ok := merged["thread_id"]; !ok {
			merged["thread_id"] = t.ExternalThreadID
		}
	}
	return merged
}

func mergeOpts(opts, defaults map[string]interface{}) map[string]interface{} {
	merged := map[string]interface{}{}
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range opts {
		merged[k] = v
	}
	return merged
}

// toPostable coerces the input types Thread.Post/ChannelRef.Post accept
// (string, chat.Postable, map[string]interface{}) into a chat.Postable.
func toPostable(input interface{}) (chat.Postable, bool) {
	switch v := input.(type) {
	case string:
		return chat.Postable{Text: v}, true
	case chat.Postable:
		return v, true
	case map[string]interface{}:
		p := chat.Postable{}
		if s, ok := v["text"].(string); ok {
			p.Text = s
		}
		if s, ok := v["markdown"].(string); ok {
			p.Markdown = s
		}
		if r, ok := v["raw"]; ok {
			p.Raw = r
		}
		if a, ok := v["ast"]; ok {
			p.AST = a
		}
		if c, ok := v["card"]; ok {
			p.Card = c
		}
		if meta, ok := v["metadata"].(map[string]interface{}); ok {
			p.Metadata = meta
		}
		return p, true
	default:
		return chat.Postable{}, false
	}
}

// sentMessageFromResponse builds the SentMessage the outbound layer returns
// from a Post call.
func sentMessageFromResponse(a chat.Adapter, adapterName, externalRoomID string, resp chat.Response, payload chat.PostPayload, opts map[string]interface{}) *SentMessage {
	id := resp.ExternalMessageID
	if id == "" {
		id = chat.NewID()
	}
	return &SentMessage{
		Adapter:        a,
		AdapterName:    adapterName,
		ExternalRoomID: externalRoomID,
		ID:             id,
		Text:           payload.Text,
		Format:         payload.Format,
		Attachments:    payload.Attachments,
		Metadata:       payload.Metadata,
		Response:       resp,
		DefaultOpts:    opts,
	}
}

// Post sends input (a string, chat.Postable, map, or a <-chan string
// treated as a stream) to thread, falling back to Stream's concatenation
// rule for the stream case.
func (t *Thread) Post(ctx context.Context, input interface{}, opts map[string]interface{}) (*SentMessage, error) {
	finalOpts := threadOpts(t, opts)

	if chunks, ok := input.(<-chan string); ok {
		resp, err := chat.StreamPost(ctx, t.Adapter, t.ExternalRoomID, chunks, finalOpts)
		if err != nil {
			return nil, err
		}
		payload := chat.PostPayload{Text: resp.Text}
		return sentMessageFromResponse(t.Adapter, t.AdapterName, t.ExternalRoomID, resp, payload, finalOpts), nil
	}

	postable, ok := toPostable(input)
	if !ok {
		return nil, &chat.ErrInvalidInput{Kind: "postable", Value: input}
	}
	payload := postable.ToPayload()
	resp, err := t.Adapter.SendMessage(ctx, t.ExternalRoomID, payload.Text, finalOpts)
	if err != nil {
		return nil, err
	}
	return sentMessageFromResponse(t.Adapter, t.AdapterName, t.ExternalRoomID, resp, payload, finalOpts), nil
}

// Messages fetches one page of thread history.
func (t *Thread) Messages(ctx context.Context, matrix chat.CapabilityMatrix, opts chat.FetchOptions) (chat.MessagePage, error) {
	return chat.FetchMessages(ctx, t.Adapter, matrix, t.ExternalRoomID, t.ExternalThreadID, opts)
}

// AllMessages follows next_cursor until it's nil/empty, deduplicating
// cursors already seen to guard against an adapter cycle, concatenating
// pages in arrival order.
func (t *Thread) AllMessages(ctx context.Context, matrix chat.CapabilityMatrix, opts chat.FetchOptions) ([]chat.Message, error) {
	var all []chat.Message
	seen := map[string]bool{}
	cursor := opts.Cursor

	for {
		pageOpts := opts
		pageOpts.Cursor = cursor
		page, err := t.Messages(ctx, matrix, pageOpts)
		if err != nil {
			return all, err
		}
		all = append(all, page.Messages...)
		if page.NextCursor == nil || *page.NextCursor == "" {
			break
		}
		if seen[*page.NextCursor] {
			break
		}
		seen[*page.NextCursor] = true
		cursor = page.NextCursor
	}
	return all, nil
}

// MessagesStream returns a channel that lazily yields one Message at a
// time, fetching pages on demand; it halts on a nil next_cursor or an
// adapter error (the error terminates the stream without propagating,
// emitting whatever partial data was already fetched). The
// channel is closed when the stream is exhausted.
func (t *Thread) MessagesStream(ctx context.Context, matrix chat.CapabilityMatrix, opts chat.FetchOptions) <-chan chat.Message {
	out := make(chan chat.Message)
	go func() {
		defer close(out)
		seen := map[string]bool{}
		cursor := opts.Cursor
		for {
			pageOpts := opts
			pageOpts.Cursor = cursor
			page, err := t.Messages(ctx, matrix, pageOpts)
			if err != nil {
				return
			}
			for _, msg := range page.Messages {
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
			if page.NextCursor == nil || *page.NextCursor == "" {
				return
			}
			if seen[*page.NextCursor] {
				return
			}
			seen[*page.NextCursor] = true
			cursor = page.NextCursor
		}
	}()
	return out
}

// MentionUser renders an @-mention string the way t.AdapterName's platform
// family expects: Discord-style adapters get "<@id>", everyone else gets
// "@id".
func (t *Thread) MentionUser(user interface{}) string {
	return MentionUser(t.AdapterName, user)
}

// MentionUser is the adapter-family-aware mention renderer shared by Thread
// and ChannelRef. user may be a chat.Author, a string/int id, or a map with
// user_id; anything else yields "@unknown".
func MentionUser(adapterName string, user interface{}) string {
	id := mentionUserID(user)
	if id == "" {
		id = "unknown"
	}
	if adapterName == "discord" {
		return "<@" + id + ">"
	}
	return "@" + id
}

func mentionUserID(user interface{}) string {
	switch v := user.(type) {
	case chat.Author:
		return v.UserID
	case *chat.Author:
		if v == nil {
			return ""
		}
		return v.UserID
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case map[string]interface{}:
		if s, ok := v["user_id"].(string); ok {
			return s
		}
	}
	return ""
}

// Refresh calls Adapter.FetchThread and merges the returned ThreadInfo into
// t: ID, ChannelID and IsDM are replaced, ExternalThreadID is updated only
// when the result carries a non-empty one, and the result's Metadata is
// merged into t.Metadata.
func (t *Thread) Refresh(ctx context.Context, opts map[string]interface{}) error {
	info, err := chat.FetchThread(ctx, t.Adapter, t.ExternalRoomID, t.ExternalThreadID, opts)
	if err != nil {
		return err
	}
	t.ID = info.ID
	t.ChannelID = info.ChannelID
	t.IsDM = info.IsDM
	if info.ExternalThreadID != "" {
		t.ExternalThreadID = info.ExternalThreadID
	}
	if t.Metadata == nil {
		t.Metadata = map[string]interface{}{}
	}
	for k, v := range info.Metadata {
		t.Metadata[k] = v
	}
	return nil
}

// StartTyping wraps the optional start_typing capability for this thread.
func (t *Thread) StartTyping(ctx context.Context, matrix chat.CapabilityMatrix, opts map[string]interface{}) error {
	return chat.StartTyping(ctx, t.Adapter, matrix, t.ExternalRoomID, opts)
}

// PostEphemeral wraps post_ephemeral for this thread.
func (t *Thread) PostEphemeral(ctx context.Context, externalUserID, text string, opts map[string]interface{}) (chat.EphemeralMessage, error) {
	return chat.PostEphemeral(ctx, t.Adapter, t.ExternalRoomID, externalUserID, text, opts)
}

// OpenModal wraps open_modal for this thread's adapter.
func (t *Thread) OpenModal(ctx context.Context, matrix chat.CapabilityMatrix, triggerID string, modal map[string]interface{}, opts map[string]interface{}) (chat.ModalResult, error) {
	return chat.OpenModal(ctx, t.Adapter, matrix, triggerID, modal, opts)
}

// ---------------------------------------------------------------------------
// ChannelRef — channel-scoped mirror of Thread.
// ---------------------------------------------------------------------------

// Post posts input to the channel as a whole: post_channel_message falls
// back to SendMessage when unimplemented.
func (ch *ChannelRef) Post(ctx context.Context, input interface{}, opts map[string]interface{}) (*SentMessage, error) {
	postable, ok := toPostable(input)
	if !ok {
		return nil, &chat.ErrInvalidInput{Kind: "postable", Value: input}
	}
	payload := postable.ToPayload()
	resp, err := chat.PostChannelMessage(ctx, ch.Adapter, ch.ExternalID, payload.Text, opts)
	if err != nil {
		return nil, err
	}
	return sentMessageFromResponse(ch.Adapter, ch.AdapterName, ch.ExternalID, resp, payload, opts), nil
}

// Messages fetches one page of channel-wide history.
func (ch *ChannelRef) Messages(ctx context.Context, matrix chat.CapabilityMatrix, opts chat.FetchOptions) (chat.MessagePage, error) {
	return chat.FetchChannelMessages(ctx, ch.Adapter, matrix, ch.ExternalID, opts)
}

// ListThreads wraps list_threads for this channel.
func (ch *ChannelRef) ListThreads(ctx context.Context, matrix chat.CapabilityMatrix, opts chat.FetchOptions) (chat.ThreadPage, error) {
	return chat.ListThreads(ctx, ch.Adapter, matrix, ch.ExternalID, opts)
}

// ThreadsStream lazily yields ThreadSummary values the way MessagesStream
// yields Messages, by paging ListThreads.
func (ch *ChannelRef) ThreadsStream(ctx context.Context, matrix chat.CapabilityMatrix, opts chat.FetchOptions) <-chan chat.ThreadSummary {
	out := make(chan chat.ThreadSummary)
	go func() {
		defer close(out)
		seen := map[string]bool{}
		cursor := opts.Cursor
		for {
			pageOpts := opts
			pageOpts.Cursor = cursor
			page, err := ch.ListThreads(ctx, matrix, pageOpts)
			if err != nil {
				return
			}
			for _, th := range page.Threads {
				select {
				case out <- th:
				case <-ctx.Done():
					return
				}
			}
			if page.NextCursor == nil || *page.NextCursor == "" {
				return
			}
			if seen[*page.NextCursor] {
				return
			}
			seen[*page.NextCursor] = true
			cursor = page.NextCursor
		}
	}()
	return out
}

// MentionUser mirrors Thread.MentionUser.
func (ch *ChannelRef) MentionUser(user interface{}) string {
	return MentionUser(ch.AdapterName, user)
}

// ---------------------------------------------------------------------------
// SentMessage — edit / delete / react follow-ups.
// ---------------------------------------------------------------------------

// Edit calls Adapter.EditMessage; on success the returned SentMessage
// carries the new external id if provided, new text, and the edited
// response.
func (s *SentMessage) Edit(ctx context.Context, matrix chat.CapabilityMatrix, text string, opts map[string]interface{}) (*SentMessage, error) {
	merged := mergeOpts(opts, s.DefaultOpts)
	resp, err := chat.EditMessage(ctx, s.Adapter, matrix, s.ExternalRoomID, s.ID, text, merged)
	if err != nil {
		return nil, err
	}
	id := s.ID
	if resp.ExternalMessageID != "" {
		id = resp.ExternalMessageID
	}
	next := *s
	next.ID = id
	next.Text = text
	next.Response = resp
	return &next, nil
}

// Delete calls Adapter.DeleteMessage with default_opts merged under opts.
func (s *SentMessage) Delete(ctx context.Context, matrix chat.CapabilityMatrix, opts map[string]interface{}) error {
	merged := mergeOpts(opts, s.DefaultOpts)
	return chat.DeleteMessage(ctx, s.Adapter, matrix, s.ExternalRoomID, s.ID, merged)
}

// AddReaction calls Adapter.AddReaction with default_opts merged under opts.
func (s *SentMessage) AddReaction(ctx context.Context, matrix chat.CapabilityMatrix, emoji string, opts map[string]interface{}) error {
	merged := mergeOpts(opts, s.DefaultOpts)
	return chat.AddReaction(ctx, s.Adapter, matrix, s.ExternalRoomID, s.ID, emoji, merged)
}

// RemoveReaction calls Adapter.RemoveReaction with default_opts merged
// under opts.
func (s *SentMessage) RemoveReaction(ctx context.Context, matrix chat.CapabilityMatrix, emoji string, opts map[string]interface{}) error {
	merged := mergeOpts(opts, s.DefaultOpts)
	return chat.RemoveReaction(ctx, s.Adapter, matrix, s.ExternalRoomID, s.ID, emoji, merged)
}

// ErrNoThreadFactory is returned when a Chat's ThreadFactory hasn't been
// wired before a dispatch call that needs one.
var ErrNoThreadFactory = errors.New("chatcore: chat has no ThreadFactory configured")

// ---------------------------------------------------------------------------
// Serialization — Thread/ChannelRef/SentMessage carry an Adapter reference,
// resolved by registered name exactly as Chat.ToMap/ReviveChat resolve
// c.adapters.
// ---------------------------------------------------------------------------

// ToMap renders a Thread as plain data. Adapter is serialized by name only.
func (t *Thread) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"__type__":           string(TypeThread),
		"id":                 t.ID,
		"adapter_name":       t.AdapterName,
		"external_room_id":   t.ExternalRoomID,
		"external_thread_id": t.ExternalThreadID,
		"channel_id":         t.ChannelID,
		"is_dm":              t.IsDM,
		"metadata":           t.Metadata,
	}
}

// ReviveThread reconstructs a Thread from plain data, resolving Adapter
// through the AdapterRegistry by adapter_name.
func ReviveThread(m map[string]interface{}) *Thread {
	t := &Thread{}
	if v, ok := m["id"].(string); ok {
		t.ID = v
	}
	if v, ok := m["adapter_name"].(string); ok {
		t.AdapterName = v
	}
	t.Adapter = resolveNamedAdapter(t.AdapterName)
	if v, ok := m["external_room_id"].(string); ok {
		t.ExternalRoomID = v
	}
	if v, ok := m["external_thread_id"].(string); ok {
		t.ExternalThreadID = v
	}
	if v, ok := m["channel_id"].(string); ok {
		t.ChannelID = v
	}
	if v, ok := m["is_dm"].(bool); ok {
		t.IsDM = v
	}
	if meta, ok := m["metadata"].(map[string]interface{}); ok {
		t.Metadata = meta
	}
	return t
}

// ToMap renders a ChannelRef as plain data. Adapter is serialized by name only.
func (ch *ChannelRef) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"__type__":     string(TypeChannel),
		"id":           ch.ID,
		"adapter_name": ch.AdapterName,
		"external_id":  ch.ExternalID,
		"metadata":     ch.Metadata,
	}
}

// ReviveChannelRef reconstructs a ChannelRef from plain data, resolving
// Adapter through the AdapterRegistry by adapter_name.
func ReviveChannelRef(m map[string]interface{}) *ChannelRef {
	ch := &ChannelRef{}
	if v, ok := m["id"].(string); ok {
		ch.ID = v
	}
	if v, ok := m["adapter_name"].(string); ok {
		ch.AdapterName = v
	}
	ch.Adapter = resolveNamedAdapter(ch.AdapterName)
	if v, ok := m["external_id"].(string); ok {
		ch.ExternalID = v
	}
	if meta, ok := m["metadata"].(map[string]interface{}); ok {
		ch.Metadata = meta
	}
	return ch
}

// ToMap renders a SentMessage as plain data. Adapter is serialized by name
// only; Response is nested via its own ToMap.
func (s *SentMessage) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"__type__":         string(chat.TypeSentMessage),
		"adapter_name":     s.AdapterName,
		"external_room_id": s.ExternalRoomID,
		"id":               s.ID,
		"text":             s.Text,
		"format":           string(s.Format),
		"attachments":      mediaToMaps(s.Attachments),
		"metadata":         s.Metadata,
		"response":         s.Response.ToMap(),
		"default_opts":     s.DefaultOpts,
	}
}

// ReviveSentMessage reconstructs a SentMessage from plain data, resolving
// Adapter through the AdapterRegistry by adapter_name.
func ReviveSentMessage(m map[string]interface{}) *SentMessage {
	s := &SentMessage{}
	if v, ok := m["adapter_name"].(string); ok {
		s.AdapterName = v
	}
	s.Adapter = resolveNamedAdapter(s.AdapterName)
	if v, ok := m["external_room_id"].(string); ok {
		s.ExternalRoomID = v
	}
	if v, ok := m["id"].(string); ok {
		s.ID = v
	}
	if v, ok := m["text"].(string); ok {
		s.Text = v
	}
	if v, ok := m["format"].(string); ok {
		s.Format = chat.PostFormat(v)
	}
	for _, am := range toMapSlice(m["attachments"]) {
		s.Attachments = append(s.Attachments, chat.MediaFromMap(am))
	}
	if meta, ok := m["metadata"].(map[string]interface{}); ok {
		s.Metadata = meta
	}
	if resp, ok := m["response"].(map[string]interface{}); ok {
		s.Response = chat.NewResponseFromMap(resp)
	}
	if opts, ok := m["default_opts"].(map[string]interface{}); ok {
		s.DefaultOpts = opts
	}
	return s
}

// mediaToMaps mirrors the domain package's unexported mediaSliceToMaps for
// callers outside it that hold a []chat.Media directly (Media's fields are
// exported, so no extra seam is needed in pkg/domain/chat for this).
func mediaToMaps(media []chat.Media) []map[string]interface{} {
	if len(media) == 0 {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(media))
	for _, m := range media {
		out = append(out, map[string]interface{}{
			"kind":      string(m.Kind),
			"url":       m.URL,
			"mime_type": m.MimeType,
			"size":      m.Size,
			"caption":   m.Caption,
		})
	}
	return out
}
