package chat

import "time"

// ---------------------------------------------------------------------------
// Author / Media / Mention / ChannelMeta — shared value objects
// ---------------------------------------------------------------------------

// Author describes who sent an inbound message.
type Author struct {
	UserID   string            `json:"user_id"`
	UserName string            `json:"user_name,omitempty"`
	FullName string            `json:"full_name,omitempty"`
	IsBot    bool              `json:"is_bot"`
	IsMe     bool              `json:"is_me"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewAuthor synthesizes an Author from the loose fields an adapter's raw
// payload carries, following Incoming's "author absent" normalization rule.
func NewAuthor(externalUserID, userName, displayName string) Author {
	return Author{
		UserID:   externalUserID,
		UserName: userName,
		FullName: displayName,
	}
}

// MediaKind classifies an attachment.
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaDocument MediaKind = "document"
	MediaSticker  MediaKind = "sticker"
	MediaOther    MediaKind = "other"
)

// Media is a single attachment on an inbound or outbound message.
type Media struct {
	Kind     MediaKind `json:"kind"`
	URL      string    `json:"url,omitempty"`
	MimeType string    `json:"mime_type,omitempty"`
	Size     int64     `json:"size,omitempty"`
	Caption  string    `json:"caption,omitempty"`
}

// MediaFromMap converts a loosely-typed map (adapter raw payload shape)
// into a typed Media value. Unknown/missing kind defaults to MediaOther.
func MediaFromMap(m map[string]interface{}) Media {
	media := Media{Kind: MediaOther}
	if v, ok := m["kind"].(string); ok && v != "" {
		media.Kind = MediaKind(v)
	}
	if v, ok := m["url"].(string); ok {
		media.URL = v
	}
	if v, ok := m["mime_type"].(string); ok {
		media.MimeType = v
	}
	if v, ok := m["caption"].(string); ok {
		media.Caption = v
	}
	switch v := m["size"].(type) {
	case int64:
		media.Size = v
	case int:
		media.Size = int64(v)
	case float64:
		media.Size = int64(v)
	}
	return media
}

// MentionKind classifies what a Mention refers to.
type MentionKind string

const (
	MentionUser    MentionKind = "user"
	MentionRole    MentionKind = "role"
	MentionChannel MentionKind = "channel"
	MentionEveryone MentionKind = "everyone"
)

// Mention is a single @-reference inside a message's text.
type Mention struct {
	Kind MentionKind `json:"kind"`
	ID   string      `json:"id"`
	Name string      `json:"name,omitempty"`
}

// MentionFromMap converts a loosely-typed map into a typed Mention.
func MentionFromMap(m map[string]interface{}) Mention {
	mention := Mention{Kind: MentionUser}
	if v, ok := m["kind"].(string); ok && v != "" {
		mention.Kind = MentionKind(v)
	}
	if v, ok := m["id"].(string); ok {
		mention.ID = v
	}
	if v, ok := m["name"].(string); ok {
		mention.Name = v
	}
	return mention
}

// ChannelMeta carries platform-reported metadata about the room/channel an
// Incoming arrived on (title, member count, topic, ...). Adapters populate
// only what their platform exposes; zero value is valid ("default empty").
type ChannelMeta struct {
	Title       string            `json:"title,omitempty"`
	Topic       string            `json:"topic,omitempty"`
	MemberCount int               `json:"member_count,omitempty"`
	IsPrivate   bool              `json:"is_private,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// AuthorFromMap converts a loosely-typed map into a typed Author.
func AuthorFromMap(m map[string]interface{}) Author {
	a := Author{}
	if v, ok := m["user_id"].(string); ok {
		a.UserID = v
	}
	if v, ok := m["user_name"].(string); ok {
		a.UserName = v
	}
	if v, ok := m["full_name"].(string); ok {
		a.FullName = v
	}
	if v, ok := m["is_bot"].(bool); ok {
		a.IsBot = v
	}
	if v, ok := m["is_me"].(bool); ok {
		a.IsMe = v
	}
	if meta, ok := m["metadata"].(map[string]interface{}); ok {
		a.Metadata = stringMapFromMap(meta)
	}
	return a
}

// ChannelMetaFromMap converts a loosely-typed map into a typed ChannelMeta.
func ChannelMetaFromMap(m map[string]interface{}) ChannelMeta {
	cm := ChannelMeta{}
	if v, ok := m["title"].(string); ok {
		cm.Title = v
	}
	if v, ok := m["topic"].(string); ok {
		cm.Topic = v
	}
	switch v := m["member_count"].(type) {
	case int:
		cm.MemberCount = v
	case int64:
		cm.MemberCount = int(v)
	case float64:
		cm.MemberCount = int(v)
	}
	if v, ok := m["is_private"].(bool); ok {
		cm.IsPrivate = v
	}
	if meta, ok := m["metadata"].(map[string]interface{}); ok {
		cm.Metadata = stringMapFromMap(meta)
	}
	return cm
}

func stringMapFromMap(m map[string]interface{}) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Incoming — normalized inbound event body
// ---------------------------------------------------------------------------

// ChatKind classifies the room an Incoming arrived on, used to infer
// MessagingTarget.Kind.
type ChatKind string

const (
	ChatDirect ChatKind = "direct"
	ChatThread ChatKind = "thread"
	ChatRoom   ChatKind = "room"
)

// Incoming is the wire-shaped normalized inbound event body every adapter's
// TransformIncoming must produce. It is distinct from Message, which is the
// stored/paginated form.
type Incoming struct {
	ExternalRoomID      string            `json:"external_room_id"`
	ExternalUserID      string            `json:"external_user_id,omitempty"`
	ExternalMessageID   string            `json:"external_message_id,omitempty"`
	ExternalReplyToID   string            `json:"external_reply_to_id,omitempty"`
	ExternalThreadID    string            `json:"external_thread_id,omitempty"`
	Text                string            `json:"text,omitempty"`
	Timestamp           time.Time         `json:"timestamp,omitempty"`
	ChatType            ChatKind          `json:"chat_type,omitempty"`
	ChatTitle           string            `json:"chat_title,omitempty"`
	WasMentioned        bool              `json:"was_mentioned,omitempty"`
	Mentions            []Mention         `json:"mentions,omitempty"`
	Media               []Media           `json:"media,omitempty"`
	Author              *Author           `json:"author,omitempty"`
	ChannelMeta         ChannelMeta       `json:"channel_meta,omitempty"`
	Raw                 map[string]interface{} `json:"raw,omitempty"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
}

// NewIncoming validates and normalizes raw fields into an Incoming value.
// ExternalRoomID is required; author synthesis and empty-ChannelMeta
// defaulting happen here.
func NewIncoming(externalRoomID string, opts func(*Incoming)) (*Incoming, error) {
	if externalRoomID == "" {
		return nil, NewValidationError("Incoming", externalRoomID, "external_room_id", "is required")
	}
	in := &Incoming{ExternalRoomID: externalRoomID}
	if opts != nil {
		opts(in)
	}
	if in.Author == nil && in.ExternalUserID != "" {
		a := NewAuthor(in.ExternalUserID, "", "")
		in.Author = &a
	}
	return in, nil
}

// ---------------------------------------------------------------------------
// Message — stored / paginated normalized form
// ---------------------------------------------------------------------------

// Message is the canonical stored/paginated representation of a chat
// message, distinct from the wire-shaped Incoming.
type Message struct {
	ID          string      `json:"id"`
	ThreadID    string      `json:"thread_id"`
	ChannelID   string      `json:"channel_id"`
	AdapterName string      `json:"adapter_name"`
	Author      *Author     `json:"author,omitempty"`
	Text        string      `json:"text,omitempty"`
	Media       []Media     `json:"media,omitempty"`
	Mentions    []Mention   `json:"mentions,omitempty"`
	IsMention   bool        `json:"is_mention"`
	CreatedAt   time.Time   `json:"created_at"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// FromIncomingOpts supplies the context MessageFromIncoming needs that
// Incoming itself doesn't carry.
type FromIncomingOpts struct {
	AdapterName string
	ThreadID    string // explicit override; derived from incoming when empty
}

// MessageFromIncoming builds a Message from a normalized Incoming: id defaults to
// the external message id (or a new id), thread_id defaults
// to the deterministic "adapter:room[:thread]" form, channel_id is the
// room's channel id, is_mention mirrors was_mentioned.
func MessageFromIncoming(in Incoming, opts FromIncomingOpts) Message {
	id := in.ExternalMessageID
	if id == "" {
		id = NewID()
	}
	threadID := opts.ThreadID
	if threadID == "" {
		threadID = ThreadID(opts.AdapterName, in.ExternalRoomID, in.ExternalThreadID)
	}
	return Message{
		ID:          id,
		ThreadID:    threadID,
		ChannelID:   ChannelID(opts.AdapterName, in.ExternalRoomID),
		AdapterName: opts.AdapterName,
		Author:      in.Author,
		Text:        in.Text,
		Media:       in.Media,
		Mentions:    in.Mentions,
		IsMention:   in.WasMentioned,
		CreatedAt:   in.Timestamp,
		Metadata:    in.Metadata,
	}
}

// LooksLikeIncoming reports whether a loosely-typed map has the shape of an
// Incoming (i.e. carries "external_room_id"), per MessagePage's "any element
// that looks like an Incoming is lifted via MessageFromIncoming" rule.
func LooksLikeIncoming(m map[string]interface{}) bool {
	_, ok := m["external_room_id"]
	return ok
}

// ---------------------------------------------------------------------------
// Response — adapter's normalized send/edit acknowledgement
// ---------------------------------------------------------------------------

// MessageStatus classifies the delivery state a Response reports.
type MessageStatus string

const (
	StatusSent    MessageStatus = "sent"
	StatusQueued  MessageStatus = "queued"
	StatusFailed  MessageStatus = "failed"
	StatusEdited  MessageStatus = "edited"
	StatusDeleted MessageStatus = "deleted"
)

// Response is the adapter's acknowledgement of an outbound send/edit call.
// LegacyMessageID/LegacyChatID/LegacyChannelID/LegacyDate are read-only
// aliases of the canonical fields, kept for callers migrating off an older
// wire shape, but populated only from canonical fields (never the other
// way around).
type Response struct {
	ExternalMessageID string        `json:"external_message_id"`
	ExternalRoomID    string        `json:"external_room_id"`
	Status            MessageStatus `json:"status"`
	Text              string        `json:"text,omitempty"`
	SentAt            time.Time     `json:"sent_at,omitempty"`
	Raw               map[string]interface{} `json:"raw,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`

	// Legacy aliases — read-only, derived, never authoritative.
	LegacyMessageID string    `json:"message_id,omitempty"`
	LegacyChatID    string    `json:"chat_id,omitempty"`
	LegacyChannelID string    `json:"channel_id,omitempty"`
	LegacyDate      time.Time `json:"date,omitempty"`
}

// withLegacyAliases populates the read-only legacy fields from the
// canonical ones. Call after every canonical field is final.
func (r Response) withLegacyAliases() Response {
	r.LegacyMessageID = r.ExternalMessageID
	r.LegacyChatID = r.ExternalRoomID
	r.LegacyChannelID = r.ExternalRoomID
	r.LegacyDate = r.SentAt
	return r
}

// NewResponseFromMap coerces a loosely-typed adapter result (which may use
// legacy field names message_id/chat_id/channel_id, or a canonical shape)
// into a Response, defaulting Status to "sent" and parsing SentAt from an
// integer epoch, an ISO8601 string, or a time.Time.
func NewResponseFromMap(m map[string]interface{}) Response {
	r := Response{Status: StatusSent}

	if v, ok := m["external_message_id"].(string); ok && v != "" {
		r.ExternalMessageID = v
	} else if v, ok := m["message_id"].(string); ok {
		r.ExternalMessageID = v
	}

	if v, ok := m["external_room_id"].(string); ok && v != "" {
		r.ExternalRoomID = v
	} else if v, ok := m["chat_id"].(string); ok && v != "" {
		r.ExternalRoomID = v
	} else if v, ok := m["channel_id"].(string); ok {
		r.ExternalRoomID = v
	}

	if v, ok := m["status"].(string); ok && v != "" {
		r.Status = MessageStatus(v)
	}
	if v, ok := m["text"].(string); ok {
		r.Text = v
	}
	if raw, ok := m["raw"].(map[string]interface{}); ok {
		r.Raw = raw
	}
	if meta, ok := m["metadata"].(map[string]interface{}); ok {
		r.Metadata = meta
	}

	r.SentAt = ParseTimestamp(firstNonNil(m["sent_at"], m["date"], m["timestamp"]))
	return r.withLegacyAliases()
}

func firstNonNil(vs ...interface{}) interface{} {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}

// ParseTimestamp accepts an int/int64/float64 epoch (seconds), an RFC3339
// string, or a time.Time, returning the zero time for anything else.
// A dedicated date-parsing dependency isn't warranted for this single
// three-shape coercion — see DESIGN.md.
func ParseTimestamp(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if t == "" {
			return time.Time{}
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
		return time.Time{}
	case int64:
		return time.Unix(t, 0).UTC()
	case int:
		return time.Unix(int64(t), 0).UTC()
	case float64:
		return time.Unix(int64(t), 0).UTC()
	default:
		return time.Time{}
	}
}

// ---------------------------------------------------------------------------
// PostPayload / Postable — unified outbound body
// ---------------------------------------------------------------------------

// PostFormat tags which of Postable's alternative bodies produced the
// payload text, so adapters can render markdown/ast/card differently.
type PostFormat string

const (
	FormatPlain    PostFormat = ""
	FormatMarkdown PostFormat = "markdown"
	FormatAST      PostFormat = "ast"
	FormatCard     PostFormat = "card"
)

// PostPayload is the flattened outbound body every Thread.Post/ChannelRef
// post path produces before handing off to an adapter. Text is always a
// string, possibly empty — never nil.
type PostPayload struct {
	Text        string                 `json:"text"`
	Format      PostFormat             `json:"format,omitempty"`
	Attachments []Media                `json:"attachments,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Postable is any value a caller may hand to Thread.Post beyond a plain
// string: markdown, raw, AST, or card bodies. Exactly one of the fields
// should be set; ToPayload flattens whichever is present.
type Postable struct {
	Text     string
	Markdown string
	Raw      interface{}
	AST      interface{}
	Card     interface{}

	Attachments []Media
	Metadata    map[string]interface{}
}

// ToPayload flattens a Postable into a PostPayload. Non-string raw/ast/card
// bodies are best-effort JSON-encoded; if that fails, Go's %#v formatting
// stands in for "inspection".
func (p Postable) ToPayload() PostPayload {
	payload := PostPayload{Attachments: p.Attachments, Metadata: p.Metadata}

	switch {
	case p.Text != "":
		payload.Text = p.Text
	case p.Markdown != "":
		payload.Text = p.Markdown
		payload.Format = FormatMarkdown
	case p.Raw != nil:
		payload.Text = projectToString(p.Raw)
	case p.AST != nil:
		payload.Text = projectToString(p.AST)
		payload.Format = FormatAST
	case p.Card != nil:
		payload.Text = projectToString(p.Card)
		payload.Format = FormatCard
	}
	return payload
}

func projectToString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := jsonMarshal(v)
	if err != nil {
		return inspect(v)
	}
	return string(b)
}

// ---------------------------------------------------------------------------
// MessagingTarget — reply/thread addressing for an outbound send
// ---------------------------------------------------------------------------

// TargetKind mirrors ChatKind for the purposes of send-option inference.
type TargetKind string

const (
	TargetDM     TargetKind = "dm"
	TargetThread TargetKind = "thread"
	TargetRoom   TargetKind = "room"
)

// ReplyMode controls how ReplyToID in MessagingTarget is honored.
type ReplyMode string

const (
	ReplyPlatformDefault ReplyMode = "platform_default"
	ReplyInline          ReplyMode = "inline"
	ReplyQuote           ReplyMode = "quote"
)

// MessagingTarget captures where and how an outbound message should land:
// plain room post, threaded reply, or DM, plus optional reply-to linkage.
type MessagingTarget struct {
	Kind        TargetKind
	ThreadID    string
	ReplyToID   string
	ReplyToMode ReplyMode
}

// TargetKindFromChatType infers a TargetKind from a ChatKind:
// direct -> dm, thread -> thread, else -> room.
func TargetKindFromChatType(ct ChatKind) TargetKind {
	switch ct {
	case ChatDirect:
		return TargetDM
	case ChatThread:
		return TargetThread
	default:
		return TargetRoom
	}
}

// ToSendOpts emits the opts map an adapter's SendMessage expects: thread_id
// is included whenever ThreadID is set; reply_to_id and reply_mode are
// included together iff ReplyToID is set and ReplyToMode isn't the platform
// default.
func (t MessagingTarget) ToSendOpts() map[string]interface{} {
	opts := map[string]interface{}{}
	if t.ThreadID != "" {
		opts["thread_id"] = t.ThreadID
	}
	if t.ReplyToID != "" && t.ReplyToMode != ReplyPlatformDefault {
		opts["reply_to_id"] = t.ReplyToID
		opts["reply_mode"] = string(t.ReplyToMode)
	}
	return opts
}

// ---------------------------------------------------------------------------
// ChannelInfo / Thread / ThreadSummary / pages
// ---------------------------------------------------------------------------

// ChannelInfo is the normalized result of FetchMetadata.
type ChannelInfo struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name,omitempty"`
	Topic    string                 `json:"topic,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ThreadInfo is the normalized result of FetchThread — distinct from the
// outbound Thread handle in pkg/chatcore, which additionally carries the
// adapter implementation reference.
type ThreadInfo struct {
	ID               string                 `json:"id"`
	AdapterName      string                 `json:"adapter_name"`
	ExternalRoomID   string                 `json:"external_room_id"`
	ExternalThreadID string                 `json:"external_thread_id,omitempty"`
	ChannelID        string                 `json:"channel_id"`
	IsDM             bool                   `json:"is_dm"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// ThreadSummary is one entry in a ThreadPage (ListThreads).
type ThreadSummary struct {
	ThreadID     string `json:"thread_id"`
	Title        string `json:"title,omitempty"`
	LastMessage  string `json:"last_message,omitempty"`
	UnreadCount  int    `json:"unread_count,omitempty"`
}

// MessagePage is one page of paginated message history.
type MessagePage struct {
	Messages   []Message `json:"messages"`
	NextCursor *string   `json:"next_cursor,omitempty"`
}

// MessagePageFromRaw lifts a loosely-typed page (adapter raw result) into a
// typed MessagePage: any element shaped like an Incoming is promoted via
// MessageFromIncoming, everything else is parsed directly as a Message.
func MessagePageFromRaw(rawMessages []interface{}, nextCursor *string, opts FromIncomingOpts) MessagePage {
	page := MessagePage{NextCursor: nextCursor}
	for _, item := range rawMessages {
		switch v := item.(type) {
		case Message:
			page.Messages = append(page.Messages, v)
		case Incoming:
			page.Messages = append(page.Messages, MessageFromIncoming(v, opts))
		case map[string]interface{}:
			if LooksLikeIncoming(v) {
				page.Messages = append(page.Messages, MessageFromIncoming(mapToIncoming(v), opts))
			} else {
				page.Messages = append(page.Messages, mapToMessage(v))
			}
		}
	}
	return page
}

func mapToIncoming(m map[string]interface{}) Incoming {
	in := Incoming{}
	if v, ok := m["external_room_id"].(string); ok {
		in.ExternalRoomID = v
	}
	if v, ok := m["external_message_id"].(string); ok {
		in.ExternalMessageID = v
	}
	if v, ok := m["text"].(string); ok {
		in.Text = v
	}
	in.Timestamp = ParseTimestamp(m["timestamp"])
	return in
}

func mapToMessage(m map[string]interface{}) Message {
	msg := Message{}
	if v, ok := m["id"].(string); ok {
		msg.ID = v
	}
	if v, ok := m["text"].(string); ok {
		msg.Text = v
	}
	msg.CreatedAt = ParseTimestamp(firstNonNil(m["created_at"], m["timestamp"]))
	return msg
}

// ThreadPage is one page of ListThreads results.
type ThreadPage struct {
	Threads    []ThreadSummary `json:"threads"`
	NextCursor *string         `json:"next_cursor,omitempty"`
}

// ---------------------------------------------------------------------------
// EphemeralMessage / ModalResult
// ---------------------------------------------------------------------------

// EphemeralMessage is the normalized result of PostEphemeral.
type EphemeralMessage struct {
	ExternalMessageID string                 `json:"external_message_id,omitempty"`
	UsedFallback      bool                   `json:"used_fallback"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

// ModalResult is the normalized result of OpenModal.
type ModalResult struct {
	ModalID  string                 `json:"modal_id,omitempty"`
	Opened   bool                   `json:"opened"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ---------------------------------------------------------------------------
// FetchOptions — shared paging/filtering options for history calls
// ---------------------------------------------------------------------------

// FetchOptions parameterizes the history-paging adapter calls
// (FetchMessages/FetchChannelMessages/ListThreads).
type FetchOptions struct {
	Cursor   *string
	Limit    int
	Metadata map[string]interface{}
}
