package chatcore

import (
	"context"
	"time"

	"github.com/picoclaw/chatcore/pkg/domain/chat"
)

// bareAdapter implements only the three required chat.Adapter methods, for
// exercising the capability-matrix and wrapper fallback paths.
type bareAdapter struct {
	name string
	sent []string
}

func (a *bareAdapter) ChannelType() string { return a.name }

func (a *bareAdapter) TransformIncoming(ctx context.Context, raw map[string]interface{}) (chat.Incoming, error) {
	roomID, _ := raw["external_room_id"].(string)
	if roomID == "" {
		roomID = "room-1"
	}
	text, _ := raw["text"].(string)
	in, err := chat.NewIncoming(roomID, func(in *chat.Incoming) {
		in.Text = text
	})
	if err != nil {
		return chat.Incoming{}, err
	}
	return *in, nil
}

func (a *bareAdapter) SendMessage(ctx context.Context, externalRoomID, text string, opts map[string]interface{}) (chat.Response, error) {
	a.sent = append(a.sent, text)
	return chat.Response{
		ExternalMessageID: chat.NewID(),
		ExternalRoomID:    externalRoomID,
		Status:            chat.StatusSent,
		Text:              text,
		SentAt:            time.Now().UTC(),
	}, nil
}

// fakeAdapter layers every optional capability this package's tests need on
// top of bareAdapter, with hooks (verifyErr/parseFunc/formatErr) to steer
// each call's outcome per test case.
type fakeAdapter struct {
	bareAdapter

	editCalls int
	editOpts  map[string]interface{}
	verifyErr error
	parseFunc func(ctx context.Context, req chat.WebhookRequest, opts map[string]interface{}) (*chat.EventEnvelope, error)
	formatErr error
}

func (a *fakeAdapter) EditMessage(ctx context.Context, externalRoomID, externalMessageID, text string, opts map[string]interface{}) (chat.Response, error) {
	a.editCalls++
	a.editOpts = opts
	return chat.Response{ExternalMessageID: externalMessageID, ExternalRoomID: externalRoomID, Status: chat.StatusEdited, Text: text}, nil
}

func (a *fakeAdapter) VerifyWebhook(ctx context.Context, req chat.WebhookRequest) error {
	return a.verifyErr
}

func (a *fakeAdapter) ParseEvent(ctx context.Context, req chat.WebhookRequest, opts map[string]interface{}) (*chat.EventEnvelope, error) {
	if a.parseFunc != nil {
		return a.parseFunc(ctx, req, opts)
	}
	return nil, nil
}

func (a *fakeAdapter) FormatWebhookResponse(ctx context.Context, result chat.WebhookPipelineResult, opts map[string]interface{}) (chat.WebhookResponse, error) {
	if a.formatErr != nil {
		return chat.WebhookResponse{}, a.formatErr
	}
	if result.OK {
		return chat.NewWebhookResponse(200, map[string]interface{}{"ok": true, "custom": true}), nil
	}
	return chat.NewWebhookResponse(400, chat.WebhookError("custom_error")), nil
}

func (a *fakeAdapter) FetchMessages(ctx context.Context, externalRoomID, externalThreadID string, opts chat.FetchOptions) (chat.MessagePage, error) {
	page := chat.MessagePage{Messages: []chat.Message{{ID: "m-" + externalThreadID, Text: "hi"}}}
	if opts.Cursor == nil {
		cursor := "page-2"
		page.NextCursor = &cursor
	}
	return page, nil
}

var (
	_ chat.Adapter                 = (*bareAdapter)(nil)
	_ chat.Adapter                 = (*fakeAdapter)(nil)
	_ chat.EditMessager            = (*fakeAdapter)(nil)
	_ chat.WebhookVerifier         = (*fakeAdapter)(nil)
	_ chat.EventParser             = (*fakeAdapter)(nil)
	_ chat.WebhookResponseFormatter = (*fakeAdapter)(nil)
	_ chat.MessagesFetcher         = (*fakeAdapter)(nil)
)
