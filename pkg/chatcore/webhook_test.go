package chatcore

import (
	"context"
	"errors"
	"testing"

	"github.com/picoclaw/chatcore/pkg/domain/chat"
)

// TestHandleRequestUnknownAdapter verifies scenario S5: a request against a
// name the Chat has no adapter registered for is a formatted 404, never an
// error return.
func TestHandleRequestUnknownAdapter(t *testing.T) {
	c := NewChat("bot")
	_, env, resp := c.HandleRequest(context.Background(), "ghost", map[string]interface{}{}, nil)
	if env != nil {
		t.Fatal("expected no envelope for an unknown adapter")
	}
	if resp.Status != 404 {
		t.Fatalf("expected 404, got %d", resp.Status)
	}
	ingress, ok := resp.Metadata["ingress"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected ingress classification in response metadata, got %+v", resp.Metadata)
	}
	if ingress["reason"] != "unknown_adapter" || ingress["adapter"] != "ghost" {
		t.Fatalf("unexpected ingress classification: %+v", ingress)
	}
}

// TestHandleRequestVerifyFailureUsesCustomFormatter verifies the pipeline
// asks the adapter's own formatter to render a verification failure.
func TestHandleRequestVerifyFailureUsesCustomFormatter(t *testing.T) {
	a := &fakeAdapter{bareAdapter: bareAdapter{name: "slack"}, verifyErr: chat.ErrInvalidSignature}
	c := newTestChat("bot", "slack", a)

	_, env, resp := c.HandleRequest(context.Background(), "slack", map[string]interface{}{}, nil)
	if env != nil {
		t.Fatal("expected no envelope on verify failure")
	}
	if resp.Status != 400 {
		t.Fatalf("expected the adapter's custom formatter (400/custom_error), got %d", resp.Status)
	}
}

// TestHandleRequestVerifyFailureFormatterFallback verifies that when the
// adapter's own formatter itself errors, the pipeline falls back to the
// canonical mapping instead of propagating the formatter's error.
func TestHandleRequestVerifyFailureFormatterFallback(t *testing.T) {
	a := &fakeAdapter{
		bareAdapter: bareAdapter{name: "slack"},
		verifyErr:   chat.ErrInvalidWebhookSecret,
		formatErr:   errors.New("formatter exploded"),
	}
	c := newTestChat("bot", "slack", a)

	_, env, resp := c.HandleRequest(context.Background(), "slack", map[string]interface{}{}, nil)
	if env != nil {
		t.Fatal("expected no envelope on verify failure")
	}
	if resp.Status != 401 {
		t.Fatalf("expected canonical 401 fallback for invalid_webhook_secret, got %d", resp.Status)
	}
}

// TestHandleRequestParseNoop verifies scenario S6: a nil, nil ParseEvent
// result is a formatted success noop, not routed.
func TestHandleRequestParseNoop(t *testing.T) {
	a := &fakeAdapter{bareAdapter: bareAdapter{name: "slack"}}
	c := newTestChat("bot", "slack", a)

	updated, env, resp := c.HandleRequest(context.Background(), "slack", map[string]interface{}{}, nil)
	if env != nil {
		t.Fatal("expected no envelope for a noop parse result")
	}
	if resp.Status != 200 {
		t.Fatalf("expected 200 for a noop, got %d", resp.Status)
	}
	if updated != c {
		t.Fatal("expected the chat to be unchanged on a noop")
	}
}

// TestHandleRequestRoutesMessage verifies the success path: a parsed
// message envelope is routed through ProcessMessage and returned.
func TestHandleRequestRoutesMessage(t *testing.T) {
	a := &fakeAdapter{bareAdapter: bareAdapter{name: "slack"}}
	a.parseFunc = func(ctx context.Context, req chat.WebhookRequest, opts map[string]interface{}) (*chat.EventEnvelope, error) {
		return &chat.EventEnvelope{
			AdapterName: "slack",
			EventType:   chat.EventMessage,
			Payload: map[string]interface{}{
				"external_room_id":    "room-1",
				"external_message_id": "msg-1",
				"text":                "hello",
			},
		}, nil
	}
	c := newTestChat("bot", "slack", a)

	var ran bool
	c.OnMessage(".*", func(thread *Thread, in chat.Incoming) *Chat { ran = true; return nil })

	_, env, resp := c.HandleRequest(context.Background(), "slack", map[string]interface{}{}, nil)
	if env == nil {
		t.Fatal("expected a routed envelope")
	}
	if !ran {
		t.Fatal("expected the message handler to run")
	}
	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
}

// TestHandleRequestParseFailure verifies a ParseEvent error is formatted,
// not propagated.
func TestHandleRequestParseFailure(t *testing.T) {
	a := &fakeAdapter{bareAdapter: bareAdapter{name: "slack"}}
	a.parseFunc = func(ctx context.Context, req chat.WebhookRequest, opts map[string]interface{}) (*chat.EventEnvelope, error) {
		return nil, errors.New("malformed payload")
	}
	c := newTestChat("bot", "slack", a)

	_, env, resp := c.HandleRequest(context.Background(), "slack", map[string]interface{}{}, nil)
	if env != nil {
		t.Fatal("expected no envelope on parse failure")
	}
	if resp.Status != 400 {
		t.Fatalf("expected the custom formatter's 400, got %d", resp.Status)
	}
	ingress, ok := resp.Metadata["ingress"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected ingress classification in response metadata, got %+v", resp.Metadata)
	}
	if ingress["reason"] != "parse_failed" {
		t.Fatalf("unexpected ingress classification: %+v", ingress)
	}
}

// panicAdapter panics inside ParseEvent to exercise HandleRequest's
// recover-into-500 totality guarantee (testable property 9).
type panicAdapter struct {
	bareAdapter
}

func (a *panicAdapter) ParseEvent(ctx context.Context, req chat.WebhookRequest, opts map[string]interface{}) (*chat.EventEnvelope, error) {
	panic("boom")
}

func TestHandleRequestRecoversPanic(t *testing.T) {
	a := &panicAdapter{bareAdapter: bareAdapter{name: "slack"}}
	c := newTestChat("bot", "slack", a)

	updated, env, resp := c.HandleRequest(context.Background(), "slack", map[string]interface{}{}, nil)
	if env != nil {
		t.Fatal("expected no envelope after a recovered panic")
	}
	if resp.Status != 500 {
		t.Fatalf("expected 500 after a recovered panic, got %d", resp.Status)
	}
	if updated != c {
		t.Fatal("expected the chat to still be returned after a recovered panic")
	}
}
