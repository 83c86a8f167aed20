package chat

import "context"

// status looks up an operation's declared support, defaulting to
// Unsupported for anything the matrix doesn't mention.
func status(matrix CapabilityMatrix, name string) CapabilityStatus {
	if s, ok := matrix[name]; ok {
		return s
	}
	return Unsupported
}

// EditMessage wraps the optional edit_message capability: Unsupported ->
// ErrUnsupported; Native -> call through.
func EditMessage(ctx context.Context, a Adapter, matrix CapabilityMatrix, externalRoomID, externalMessageID, text string, opts map[string]interface{}) (Response, error) {
	if status(matrix, CapEditMessage) == Unsupported {
		return Response{}, ErrUnsupported
	}
	editor, ok := a.(EditMessager)
	if !ok {
		return Response{}, ErrUnsupported
	}
	return editor.EditMessage(ctx, externalRoomID, externalMessageID, text, opts)
}

// DeleteMessage wraps the optional delete_message capability.
func DeleteMessage(ctx context.Context, a Adapter, matrix CapabilityMatrix, externalRoomID, externalMessageID string, opts map[string]interface{}) error {
	if status(matrix, CapDeleteMessage) == Unsupported {
		return ErrUnsupported
	}
	deleter, ok := a.(DeleteMessager)
	if !ok {
		return ErrUnsupported
	}
	return deleter.DeleteMessage(ctx, externalRoomID, externalMessageID, opts)
}

// StartTyping wraps the optional start_typing capability.
func StartTyping(ctx context.Context, a Adapter, matrix CapabilityMatrix, externalRoomID string, opts map[string]interface{}) error {
	if status(matrix, CapStartTyping) == Unsupported {
		return ErrUnsupported
	}
	typer, ok := a.(TypingStarter)
	if !ok {
		return ErrUnsupported
	}
	return typer.StartTyping(ctx, externalRoomID, opts)
}

// FetchMetadata wraps fetch_metadata; unimplemented adapters get a
// synthetic ChannelInfo. An adapter that implements MetadataFetcher but
// declares fetch_metadata Unsupported via CapabilityDeclarer is honored:
// the declaration wins over the type assertion.
func FetchMetadata(ctx context.Context, a Adapter, externalRoomID string, opts map[string]interface{}) (ChannelInfo, error) {
	if status(SynthesizeCapabilities(a), CapFetchMetadata) == Unsupported {
		return ChannelInfo{}, ErrUnsupported
	}
	if fetcher, ok := a.(MetadataFetcher); ok {
		return fetcher.FetchMetadata(ctx, externalRoomID, opts)
	}
	return ChannelInfo{
		ID:       externalRoomID,
		Metadata: map[string]interface{}{"adapter_name": a.ChannelType()},
	}, nil
}

// FetchThread wraps fetch_thread; unimplemented adapters get a synthetic
// ThreadInfo built from the call arguments. A declared-Unsupported override
// wins over ThreadFetcher satisfaction, mirroring FetchMetadata.
func FetchThread(ctx context.Context, a Adapter, externalRoomID, externalThreadID string, opts map[string]interface{}) (ThreadInfo, error) {
	if status(SynthesizeCapabilities(a), CapFetchThread) == Unsupported {
		return ThreadInfo{}, ErrUnsupported
	}
	if fetcher, ok := a.(ThreadFetcher); ok {
		return fetcher.FetchThread(ctx, externalRoomID, externalThreadID, opts)
	}
	adapterName := a.ChannelType()
	return ThreadInfo{
		ID:               ThreadID(adapterName, externalRoomID, externalThreadID),
		AdapterName:      adapterName,
		ExternalRoomID:   externalRoomID,
		ExternalThreadID: externalThreadID,
		ChannelID:        ChannelID(adapterName, externalRoomID),
	}, nil
}

// FetchMessage wraps the optional fetch_message capability.
func FetchMessage(ctx context.Context, a Adapter, matrix CapabilityMatrix, externalRoomID, externalMessageID string, opts map[string]interface{}) (Message, error) {
	if status(matrix, CapFetchMessage) == Unsupported {
		return Message{}, ErrUnsupported
	}
	fetcher, ok := a.(MessageFetcher)
	if !ok {
		return Message{}, ErrUnsupported
	}
	return fetcher.FetchMessage(ctx, externalRoomID, externalMessageID, opts)
}

// AddReaction wraps the optional add_reaction capability.
func AddReaction(ctx context.Context, a Adapter, matrix CapabilityMatrix, externalRoomID, externalMessageID, emoji string, opts map[string]interface{}) error {
	if status(matrix, CapAddReaction) == Unsupported {
		return ErrUnsupported
	}
	adder, ok := a.(ReactionAdder)
	if !ok {
		return ErrUnsupported
	}
	return adder.AddReaction(ctx, externalRoomID, externalMessageID, emoji, opts)
}

// RemoveReaction wraps the optional remove_reaction capability.
func RemoveReaction(ctx context.Context, a Adapter, matrix CapabilityMatrix, externalRoomID, externalMessageID, emoji string, opts map[string]interface{}) error {
	if status(matrix, CapRemoveReaction) == Unsupported {
		return ErrUnsupported
	}
	remover, ok := a.(ReactionRemover)
	if !ok {
		return ErrUnsupported
	}
	return remover.RemoveReaction(ctx, externalRoomID, externalMessageID, emoji, opts)
}

// PostEphemeral wraps post_ephemeral. When unimplemented and opts carries
// fallback_to_dm=true on an adapter that also implements DMOpener, it opens
// a DM, sends there, and reports UsedFallback with the original room id
// recorded in metadata.source_room_id. A declared-Unsupported override
// skips EphemeralPoster entirely, same as the other capability wrappers.
func PostEphemeral(ctx context.Context, a Adapter, externalRoomID, externalUserID, text string, opts map[string]interface{}) (EphemeralMessage, error) {
	if status(SynthesizeCapabilities(a), CapPostEphemeral) == Unsupported {
		return EphemeralMessage{}, ErrUnsupported
	}
	if poster, ok := a.(EphemeralPoster); ok {
		return poster.PostEphemeral(ctx, externalRoomID, externalUserID, text, opts)
	}
	fallbackToDM, _ := opts["fallback_to_dm"].(bool)
	dmOpener, hasDM := a.(DMOpener)
	if fallbackToDM && hasDM {
		thread, err := dmOpener.OpenDM(ctx, externalUserID, opts)
		if err != nil {
			return EphemeralMessage{}, err
		}
		resp, err := a.SendMessage(ctx, thread.ExternalRoomID, text, opts)
		if err != nil {
			return EphemeralMessage{}, err
		}
		return EphemeralMessage{
			ExternalMessageID: resp.ExternalMessageID,
			UsedFallback:      true,
			Metadata:          map[string]interface{}{"source_room_id": externalRoomID},
		}, nil
	}
	return EphemeralMessage{}, ErrUnsupported
}

// PostChannelMessage wraps post_channel_message, falling back to
// SendMessage when unimplemented. A declared-Unsupported override skips
// ChannelMessagePoster entirely, same as the other capability wrappers.
func PostChannelMessage(ctx context.Context, a Adapter, externalID, text string, opts map[string]interface{}) (Response, error) {
	if status(SynthesizeCapabilities(a), CapPostChannelMessage) == Unsupported {
		return Response{}, ErrUnsupported
	}
	if poster, ok := a.(ChannelMessagePoster); ok {
		return poster.PostChannelMessage(ctx, externalID, text, opts)
	}
	return a.SendMessage(ctx, externalID, text, opts)
}

// StreamPost wraps stream, falling back to concatenating all chunks and
// calling SendMessage when unimplemented. A declared-Unsupported override
// skips Streamer entirely, same as the other capability wrappers.
func StreamPost(ctx context.Context, a Adapter, externalRoomID string, chunks <-chan string, opts map[string]interface{}) (Response, error) {
	if status(SynthesizeCapabilities(a), CapStream) == Unsupported {
		return Response{}, ErrUnsupported
	}
	if streamer, ok := a.(Streamer); ok {
		return streamer.Stream(ctx, externalRoomID, chunks, opts)
	}
	var text string
	for chunk := range chunks {
		text += chunk
	}
	return a.SendMessage(ctx, externalRoomID, text, opts)
}

// OpenModal wraps the optional open_modal capability.
func OpenModal(ctx context.Context, a Adapter, matrix CapabilityMatrix, triggerID string, modal map[string]interface{}, opts map[string]interface{}) (ModalResult, error) {
	if status(matrix, CapOpenModal) == Unsupported {
		return ModalResult{}, ErrUnsupported
	}
	opener, ok := a.(ModalOpener)
	if !ok {
		return ModalResult{}, ErrUnsupported
	}
	return opener.OpenModal(ctx, triggerID, modal, opts)
}

// FetchMessages wraps the optional fetch_messages capability.
func FetchMessages(ctx context.Context, a Adapter, matrix CapabilityMatrix, externalRoomID, externalThreadID string, opts FetchOptions) (MessagePage, error) {
	if status(matrix, CapFetchMessages) == Unsupported {
		return MessagePage{}, ErrUnsupported
	}
	fetcher, ok := a.(MessagesFetcher)
	if !ok {
		return MessagePage{}, ErrUnsupported
	}
	return fetcher.FetchMessages(ctx, externalRoomID, externalThreadID, opts)
}

// FetchChannelMessages wraps the optional fetch_channel_messages capability.
func FetchChannelMessages(ctx context.Context, a Adapter, matrix CapabilityMatrix, externalRoomID string, opts FetchOptions) (MessagePage, error) {
	if status(matrix, CapFetchChannelMessages) == Unsupported {
		return MessagePage{}, ErrUnsupported
	}
	fetcher, ok := a.(ChannelMessagesFetcher)
	if !ok {
		return MessagePage{}, ErrUnsupported
	}
	return fetcher.FetchChannelMessages(ctx, externalRoomID, opts)
}

// ListThreads wraps the optional list_threads capability.
func ListThreads(ctx context.Context, a Adapter, matrix CapabilityMatrix, externalRoomID string, opts FetchOptions) (ThreadPage, error) {
	if status(matrix, CapListThreads) == Unsupported {
		return ThreadPage{}, ErrUnsupported
	}
	lister, ok := a.(ThreadLister)
	if !ok {
		return ThreadPage{}, ErrUnsupported
	}
	return lister.ListThreads(ctx, externalRoomID, opts)
}

// OpenDM wraps the optional open_dm capability.
func OpenDM(ctx context.Context, a Adapter, matrix CapabilityMatrix, externalUserID string, opts map[string]interface{}) (ThreadInfo, error) {
	if status(matrix, CapOpenDM) == Unsupported {
		return ThreadInfo{}, ErrUnsupported
	}
	opener, ok := a.(DMOpener)
	if !ok {
		return ThreadInfo{}, ErrUnsupported
	}
	return opener.OpenDM(ctx, externalUserID, opts)
}

// VerifyWebhook wraps verify_webhook; unimplemented means open (Ok).
func VerifyWebhook(ctx context.Context, a Adapter, req WebhookRequest) error {
	verifier, ok := a.(WebhookVerifier)
	if !ok {
		return nil
	}
	return verifier.VerifyWebhook(ctx, req)
}

// ParseEvent wraps parse_event. When unimplemented, the request's payload
// is transformed as an Incoming and wrapped in a :message envelope with
// metadata {path, method}.
func ParseEvent(ctx context.Context, a Adapter, req WebhookRequest, opts map[string]interface{}) (*EventEnvelope, error) {
	if parser, ok := a.(EventParser); ok {
		return parser.ParseEvent(ctx, req, opts)
	}
	in, err := a.TransformIncoming(ctx, req.Payload)
	if err != nil {
		return nil, err
	}
	return &EventEnvelope{
		ID:          NewID(),
		AdapterName: a.ChannelType(),
		EventType:   EventMessage,
		Payload:     in,
		Metadata: map[string]interface{}{
			"path":   req.Path,
			"method": req.Method,
		},
	}, nil
}

// FormatWebhookResponse wraps format_webhook_response. When unimplemented,
// the default mapper applies: Ok -> 200 {"ok":true}; invalid_webhook_secret
// / invalid_signature -> 401; any other error -> 400.
func FormatWebhookResponse(ctx context.Context, a Adapter, result WebhookPipelineResult, opts map[string]interface{}) (WebhookResponse, error) {
	if formatter, ok := a.(WebhookResponseFormatter); ok {
		return formatter.FormatWebhookResponse(ctx, result, opts)
	}
	return DefaultFormatWebhookResponse(result), nil
}

// DefaultFormatWebhookResponse applies the canonical mapping used whenever
// an adapter has no custom formatter, and is also the fallback a caller
// should use when a custom formatter itself fails.
func DefaultFormatWebhookResponse(result WebhookPipelineResult) WebhookResponse {
	if result.OK {
		return NewWebhookResponse(200, WebhookOK)
	}
	if reason, ok := authErrorReason(result.Err); ok {
		return NewWebhookResponse(401, WebhookError(reason))
	}
	return NewWebhookResponse(400, WebhookErrorWithInspected("invalid_webhook_request", result.Err))
}

// authErrorReason reports whether err is one of the two signature/secret
// sentinels the 401 path maps by identity rather than by inspecting the
// error text, plus the canonical reason token to report for it.
func authErrorReason(err error) (string, bool) {
	switch err {
	case ErrInvalidWebhookSecret:
		return "invalid_webhook_secret", true
	case ErrInvalidSignature:
		return "invalid_signature", true
	default:
		return "", false
	}
}
