package chat

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// jsonMarshal is the single seam Postable.ToPayload and the canonical ToMap
// helpers go through for "non-string body -> JSON" projection.
func jsonMarshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func jsonUnmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// inspect is the fallback used when jsonMarshal fails.
func inspect(v interface{}) string {
	return fmt.Sprintf("%#v", v)
}

// TypeTag is the "__type__" discriminator every canonical struct's ToMap
// sets and Revive dispatches on.
type TypeTag string

const (
	TypeMessage          TypeTag = "message"
	TypeIncoming         TypeTag = "incoming"
	TypeResponse         TypeTag = "response"
	TypeSentMessage      TypeTag = "sent_message"
	TypeEventEnvelope    TypeTag = "event_envelope"
	TypeIngressResult    TypeTag = "ingress_result"
	TypeModalResult      TypeTag = "modal_result"
	TypeCapabilityMatrix TypeTag = "capability_matrix"
	TypeWebhookRequest   TypeTag = "webhook_request"
	TypeWebhookResponse  TypeTag = "webhook_response"
	TypePostPayload      TypeTag = "post_payload"
)

// ToMap renders a Message as plain data with its type discriminator.
func (m Message) ToMap() map[string]interface{} {
	out := map[string]interface{}{
		"__type__":     string(TypeMessage),
		"id":           m.ID,
		"thread_id":    m.ThreadID,
		"channel_id":   m.ChannelID,
		"adapter_name": m.AdapterName,
		"text":         m.Text,
		"is_mention":   m.IsMention,
		"created_at":   formatTime(m.CreatedAt),
	}
	if m.Author != nil {
		out["author"] = authorToMap(*m.Author)
	}
	if len(m.Media) > 0 {
		out["media"] = mediaSliceToMaps(m.Media)
	}
	if len(m.Mentions) > 0 {
		out["mentions"] = mentionSliceToMaps(m.Mentions)
	}
	if m.Metadata != nil {
		out["metadata"] = m.Metadata
	}
	return out
}

// ToMap renders an Incoming as plain data with its type discriminator.
func (in Incoming) ToMap() map[string]interface{} {
	out := map[string]interface{}{
		"__type__":              string(TypeIncoming),
		"external_room_id":      in.ExternalRoomID,
		"external_user_id":      in.ExternalUserID,
		"external_message_id":   in.ExternalMessageID,
		"external_reply_to_id":  in.ExternalReplyToID,
		"external_thread_id":    in.ExternalThreadID,
		"text":                  in.Text,
		"timestamp":             formatTime(in.Timestamp),
		"chat_type":             string(in.ChatType),
		"chat_title":            in.ChatTitle,
		"was_mentioned":         in.WasMentioned,
	}
	if in.Author != nil {
		out["author"] = authorToMap(*in.Author)
	}
	if len(in.Mentions) > 0 {
		out["mentions"] = mentionSliceToMaps(in.Mentions)
	}
	if len(in.Media) > 0 {
		out["media"] = mediaSliceToMaps(in.Media)
	}
	out["channel_meta"] = channelMetaToMap(in.ChannelMeta)
	if in.Raw != nil {
		out["raw"] = in.Raw
	}
	if in.Metadata != nil {
		out["metadata"] = in.Metadata
	}
	return out
}

// ToMap renders a Response as plain data. Legacy aliases are included
// verbatim (they're derived, never authoritative, but still serialized).
func (r Response) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"__type__":            string(TypeResponse),
		"external_message_id": r.ExternalMessageID,
		"external_room_id":    r.ExternalRoomID,
		"status":              string(r.Status),
		"text":                r.Text,
		"sent_at":             formatTime(r.SentAt),
		"message_id":          r.LegacyMessageID,
		"chat_id":             r.LegacyChatID,
		"channel_id":          r.LegacyChannelID,
		"date":                formatTime(r.LegacyDate),
	}
}

// ToMap renders a PostPayload as plain data.
func (p PostPayload) ToMap() map[string]interface{} {
	out := map[string]interface{}{
		"__type__": string(TypePostPayload),
		"text":     p.Text,
	}
	if p.Format != FormatPlain {
		out["metadata"] = map[string]interface{}{"format": string(p.Format)}
	}
	if len(p.Attachments) > 0 {
		out["attachments"] = mediaSliceToMaps(p.Attachments)
	}
	return out
}

// ToMap renders a ModalResult as plain data.
func (r ModalResult) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"__type__":  string(TypeModalResult),
		"modal_id":  r.ModalID,
		"opened":    r.Opened,
		"metadata":  r.Metadata,
	}
}

func authorToMap(a Author) map[string]interface{} {
	return map[string]interface{}{
		"user_id":   a.UserID,
		"user_name": a.UserName,
		"full_name": a.FullName,
		"is_bot":    a.IsBot,
		"is_me":     a.IsMe,
	}
}

func mediaSliceToMaps(media []Media) []map[string]interface{} {
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

func mentionSliceToMaps(mentions []Mention) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(mentions))
	for _, m := range mentions {
		out = append(out, map[string]interface{}{
			"kind": string(m.Kind),
			"id":   m.ID,
			"name": m.Name,
		})
	}
	return out
}

func channelMetaToMap(cm ChannelMeta) map[string]interface{} {
	return map[string]interface{}{
		"title":        cm.Title,
		"topic":        cm.Topic,
		"member_count": cm.MemberCount,
		"is_private":   cm.IsPrivate,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Revive reconstructs a typed value from its serialized plain-data form
// using the "__type__" discriminator. Unknown tags pass through as plain
// maps.
func Revive(data map[string]interface{}) (interface{}, error) {
	tag, _ := data["__type__"].(string)
	switch TypeTag(tag) {
	case TypeMessage:
		return reviveMessage(data), nil
	case TypeIncoming:
		return reviveIncoming(data), nil
	case TypeResponse:
		return NewResponseFromMap(data), nil
	case TypePostPayload:
		return revivePostPayload(data), nil
	case TypeModalResult:
		return reviveModalResult(data), nil
	case TypeEventEnvelope:
		return ReviveEventEnvelope(data)
	case TypeIngressResult:
		return reviveIngressResult(data), nil
	case TypeCapabilityMatrix:
		return ReviveCapabilityMatrix(data), nil
	case TypeWebhookRequest:
		return ReviveWebhookRequest(data), nil
	case TypeWebhookResponse:
		return ReviveWebhookResponse(data), nil
	default:
		return data, nil
	}
}

func reviveMessage(m map[string]interface{}) Message {
	msg := Message{}
	if v, ok := m["id"].(string); ok {
		msg.ID = v
	}
	if v, ok := m["thread_id"].(string); ok {
		msg.ThreadID = v
	}
	if v, ok := m["channel_id"].(string); ok {
		msg.ChannelID = v
	}
	if v, ok := m["adapter_name"].(string); ok {
		msg.AdapterName = v
	}
	if v, ok := m["text"].(string); ok {
		msg.Text = v
	}
	if v, ok := m["is_mention"].(bool); ok {
		msg.IsMention = v
	}
	msg.CreatedAt = ParseTimestamp(m["created_at"])
	if am, ok := m["author"].(map[string]interface{}); ok {
		a := mapToAuthor(am)
		msg.Author = &a
	}
	if meta, ok := m["metadata"].(map[string]interface{}); ok {
		msg.Metadata = meta
	}
	return msg
}

func reviveIncoming(m map[string]interface{}) Incoming {
	return mapToIncomingFull(m)
}

func mapToIncomingFull(m map[string]interface{}) Incoming {
	in := Incoming{}
	str := func(k string) string { v, _ := m[k].(string); return v }
	in.ExternalRoomID = str("external_room_id")
	in.ExternalUserID = str("external_user_id")
	in.ExternalMessageID = str("external_message_id")
	in.ExternalReplyToID = str("external_reply_to_id")
	in.ExternalThreadID = str("external_thread_id")
	in.Text = str("text")
	in.ChatType = ChatKind(str("chat_type"))
	in.ChatTitle = str("chat_title")
	if v, ok := m["was_mentioned"].(bool); ok {
		in.WasMentioned = v
	}
	in.Timestamp = ParseTimestamp(m["timestamp"])
	if am, ok := m["author"].(map[string]interface{}); ok {
		a := mapToAuthor(am)
		in.Author = &a
	}
	if raw, ok := m["raw"].(map[string]interface{}); ok {
		in.Raw = raw
	}
	if meta, ok := m["metadata"].(map[string]interface{}); ok {
		in.Metadata = meta
	}
	return in
}

func mapToAuthor(m map[string]interface{}) Author {
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
	return a
}

func revivePostPayload(m map[string]interface{}) PostPayload {
	p := PostPayload{}
	if v, ok := m["text"].(string); ok {
		p.Text = v
	}
	if meta, ok := m["metadata"].(map[string]interface{}); ok {
		if f, ok := meta["format"].(string); ok {
			p.Format = PostFormat(f)
		}
	}
	return p
}

func reviveModalResult(m map[string]interface{}) ModalResult {
	r := ModalResult{}
	if v, ok := m["modal_id"].(string); ok {
		r.ModalID = v
	}
	if v, ok := m["opened"].(bool); ok {
		r.Opened = v
	}
	if meta, ok := m["metadata"].(map[string]interface{}); ok {
		r.Metadata = meta
	}
	return r
}

// SortedStringSet renders a set-like []string as a sorted sequence.
func SortedStringSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
