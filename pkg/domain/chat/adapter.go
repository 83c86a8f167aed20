package chat

import "context"

// Adapter is the polymorphic contract every platform integration must
// satisfy. Only these three operations are required; every other operation
// is modeled as its own single-method interface that a concrete adapter
// composes in by embedding — capability presence is then a type assertion,
// never reflection.
type Adapter interface {
	ChannelType() string
	TransformIncoming(ctx context.Context, raw map[string]interface{}) (Incoming, error)
	SendMessage(ctx context.Context, externalRoomID, text string, opts map[string]interface{}) (Response, error)
}

// Initializer is the optional "initialize" capability.
type Initializer interface {
	Initialize(ctx context.Context, opts map[string]interface{}) error
}

// Shutdowner is the optional "shutdown" capability.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// EditMessager is the optional "edit_message" capability.
type EditMessager interface {
	EditMessage(ctx context.Context, externalRoomID, externalMessageID, text string, opts map[string]interface{}) (Response, error)
}

// DeleteMessager is the optional "delete_message" capability.
type DeleteMessager interface {
	DeleteMessage(ctx context.Context, externalRoomID, externalMessageID string, opts map[string]interface{}) error
}

// TypingStarter is the optional "start_typing" capability.
type TypingStarter interface {
	StartTyping(ctx context.Context, externalRoomID string, opts map[string]interface{}) error
}

// MetadataFetcher is the optional "fetch_metadata" capability.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, externalRoomID string, opts map[string]interface{}) (ChannelInfo, error)
}

// ThreadFetcher is the optional "fetch_thread" capability.
type ThreadFetcher interface {
	FetchThread(ctx context.Context, externalRoomID, externalThreadID string, opts map[string]interface{}) (ThreadInfo, error)
}

// MessageFetcher is the optional "fetch_message" capability.
type MessageFetcher interface {
	FetchMessage(ctx context.Context, externalRoomID, externalMessageID string, opts map[string]interface{}) (Message, error)
}

// ReactionAdder is the optional "add_reaction" capability.
type ReactionAdder interface {
	AddReaction(ctx context.Context, externalRoomID, externalMessageID, emoji string, opts map[string]interface{}) error
}

// ReactionRemover is the optional "remove_reaction" capability.
type ReactionRemover interface {
	RemoveReaction(ctx context.Context, externalRoomID, externalMessageID, emoji string, opts map[string]interface{}) error
}

// EphemeralPoster is the optional "post_ephemeral" capability.
type EphemeralPoster interface {
	PostEphemeral(ctx context.Context, externalRoomID, externalUserID, text string, opts map[string]interface{}) (EphemeralMessage, error)
}

// ChannelMessagePoster is the optional "post_channel_message" capability.
type ChannelMessagePoster interface {
	PostChannelMessage(ctx context.Context, externalID, text string, opts map[string]interface{}) (Response, error)
}

// Streamer is the optional "stream" capability: chunks is consumed until it
// is closed or the context is canceled.
type Streamer interface {
	Stream(ctx context.Context, externalRoomID string, chunks <-chan string, opts map[string]interface{}) (Response, error)
}

// ModalOpener is the optional "open_modal" capability.
type ModalOpener interface {
	OpenModal(ctx context.Context, triggerID string, modal map[string]interface{}, opts map[string]interface{}) (ModalResult, error)
}

// MessagesFetcher is the optional "fetch_messages" capability (thread
// history paging).
type MessagesFetcher interface {
	FetchMessages(ctx context.Context, externalRoomID, externalThreadID string, opts FetchOptions) (MessagePage, error)
}

// ChannelMessagesFetcher is the optional "fetch_channel_messages"
// capability (channel-wide history paging).
type ChannelMessagesFetcher interface {
	FetchChannelMessages(ctx context.Context, externalRoomID string, opts FetchOptions) (MessagePage, error)
}

// ThreadLister is the optional "list_threads" capability.
type ThreadLister interface {
	ListThreads(ctx context.Context, externalRoomID string, opts FetchOptions) (ThreadPage, error)
}

// DMOpener is the optional "open_dm" capability, used by the
// post_ephemeral fallback.
type DMOpener interface {
	OpenDM(ctx context.Context, externalUserID string, opts map[string]interface{}) (ThreadInfo, error)
}

// WebhookHandler is the optional "handle_webhook" capability for adapters
// that want to handle the whole webhook lifecycle themselves.
type WebhookHandler interface {
	HandleWebhook(ctx context.Context, req WebhookRequest, opts map[string]interface{}) (WebhookResponse, error)
}

// WebhookVerifier is the optional "verify_webhook" capability.
type WebhookVerifier interface {
	VerifyWebhook(ctx context.Context, req WebhookRequest) error
}

// EventParser is the optional "parse_event" capability. A nil envelope with
// a nil error signals a noop.
type EventParser interface {
	ParseEvent(ctx context.Context, req WebhookRequest, opts map[string]interface{}) (*EventEnvelope, error)
}

// WebhookResponseFormatter is the optional "format_webhook_response"
// capability: given the pipeline's (ok, value)/(err, reason) result, render
// the transport-facing WebhookResponse.
type WebhookResponseFormatter interface {
	FormatWebhookResponse(ctx context.Context, result WebhookPipelineResult, opts map[string]interface{}) (WebhookResponse, error)
}

// WebhookPipelineResult is what the webhook pipeline hands a
// WebhookResponseFormatter to render: either a successful envelope/noop, or
// an error reason.
type WebhookPipelineResult struct {
	OK       bool
	Envelope *EventEnvelope
	Noop     bool
	Err      error
}

// ListenerChildSpecer is the optional "listener_child_specs" capability:
// adapters that need a long-poll/gateway worker supervised externally
// return an opaque request describing it. The core never starts workers
// itself.
type ListenerChildSpecer interface {
	ListenerChildSpecs() []ListenerChildSpec
}

// ListenerChildSpec is an opaque request for a supervisor to start a
// long-poll/gateway worker on the adapter's behalf.
type ListenerChildSpec struct {
	Name     string
	Metadata map[string]interface{}
}

// CapabilityDeclarer lets an adapter override the synthesized capability
// defaults explicitly.
type CapabilityDeclarer interface {
	Capabilities() CapabilityMatrix
}

func implementsInitializer(a Adapter) bool             { _, ok := a.(Initializer); return ok }
func implementsShutdowner(a Adapter) bool              { _, ok := a.(Shutdowner); return ok }
func implementsEditMessager(a Adapter) bool            { _, ok := a.(EditMessager); return ok }
func implementsDeleteMessager(a Adapter) bool          { _, ok := a.(DeleteMessager); return ok }
func implementsTypingStarter(a Adapter) bool           { _, ok := a.(TypingStarter); return ok }
func implementsMetadataFetcher(a Adapter) bool         { _, ok := a.(MetadataFetcher); return ok }
func implementsThreadFetcher(a Adapter) bool           { _, ok := a.(ThreadFetcher); return ok }
func implementsMessageFetcher(a Adapter) bool          { _, ok := a.(MessageFetcher); return ok }
func implementsReactionAdder(a Adapter) bool           { _, ok := a.(ReactionAdder); return ok }
func implementsReactionRemover(a Adapter) bool         { _, ok := a.(ReactionRemover); return ok }
func implementsEphemeralPoster(a Adapter) bool         { _, ok := a.(EphemeralPoster); return ok }
func implementsChannelMessagePoster(a Adapter) bool    { _, ok := a.(ChannelMessagePoster); return ok }
func implementsStreamer(a Adapter) bool                { _, ok := a.(Streamer); return ok }
func implementsModalOpener(a Adapter) bool             { _, ok := a.(ModalOpener); return ok }
func implementsMessagesFetcher(a Adapter) bool         { _, ok := a.(MessagesFetcher); return ok }
func implementsChannelMessagesFetcher(a Adapter) bool  { _, ok := a.(ChannelMessagesFetcher); return ok }
func implementsThreadLister(a Adapter) bool            { _, ok := a.(ThreadLister); return ok }
func implementsDMOpener(a Adapter) bool                { _, ok := a.(DMOpener); return ok }
func implementsWebhookHandler(a Adapter) bool          { _, ok := a.(WebhookHandler); return ok }
func implementsWebhookVerifier(a Adapter) bool         { _, ok := a.(WebhookVerifier); return ok }
func implementsEventParser(a Adapter) bool             { _, ok := a.(EventParser); return ok }
func implementsWebhookResponseFormatter(a Adapter) bool { _, ok := a.(WebhookResponseFormatter); return ok }
func implementsListenerChildSpecer(a Adapter) bool     { _, ok := a.(ListenerChildSpecer); return ok }
