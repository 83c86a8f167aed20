package chatcore

import (
	"testing"

	"github.com/picoclaw/chatcore/pkg/domain/chat"
)

func TestEnsureIncomingFromMapCoercesNormalizedFields(t *testing.T) {
	raw := map[string]interface{}{
		"external_room_id": "room-1",
		"text":             "hi @bot",
		"was_mentioned":    true,
		"timestamp":        "2024-01-02T03:04:05Z",
		"mentions": []interface{}{
			map[string]interface{}{"kind": "user", "id": "u1", "name": "alice"},
		},
		"media": []interface{}{
			map[string]interface{}{"kind": "image", "url": "http://example.com/a.png"},
		},
		"author": map[string]interface{}{
			"user_id":   "u1",
			"user_name": "alice",
			"is_bot":    false,
		},
		"channel_meta": map[string]interface{}{
			"title":        "general",
			"member_count": float64(12),
		},
	}

	in, err := EnsureIncoming(raw, "slack")
	if err != nil {
		t.Fatalf("EnsureIncoming: %v", err)
	}
	if len(in.Mentions) != 1 || in.Mentions[0].ID != "u1" || in.Mentions[0].Name != "alice" {
		t.Fatalf("expected mentions to survive map coercion, got %+v", in.Mentions)
	}
	if len(in.Media) != 1 || in.Media[0].URL != "http://example.com/a.png" || in.Media[0].Kind != chat.MediaImage {
		t.Fatalf("expected media to survive map coercion, got %+v", in.Media)
	}
	if in.Author == nil || in.Author.UserName != "alice" {
		t.Fatalf("expected author to survive map coercion, got %+v", in.Author)
	}
	if in.ChannelMeta.Title != "general" || in.ChannelMeta.MemberCount != 12 {
		t.Fatalf("expected channel_meta to survive map coercion, got %+v", in.ChannelMeta)
	}
	if in.Timestamp.IsZero() {
		t.Fatal("expected timestamp to survive map coercion")
	}
}

func TestEnsureIncomingFromMapWithoutAuthorSynthesizesOne(t *testing.T) {
	raw := map[string]interface{}{
		"external_room_id": "room-1",
		"external_user_id": "u9",
	}
	in, err := EnsureIncoming(raw, "slack")
	if err != nil {
		t.Fatalf("EnsureIncoming: %v", err)
	}
	if in.Author == nil || in.Author.UserID != "u9" {
		t.Fatalf("expected NewIncoming's author synthesis to still apply, got %+v", in.Author)
	}
}
