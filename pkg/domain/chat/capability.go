package chat

// CapabilityStatus is the per-operation support status an adapter declares.
type CapabilityStatus string

const (
	Native      CapabilityStatus = "native"
	Fallback    CapabilityStatus = "fallback"
	Unsupported CapabilityStatus = "unsupported"
)

// Capability names every optional adapter operation the capability matrix
// is keyed by.
const (
	CapInitialize             = "initialize"
	CapShutdown               = "shutdown"
	CapEditMessage            = "edit_message"
	CapDeleteMessage          = "delete_message"
	CapStartTyping            = "start_typing"
	CapFetchMetadata          = "fetch_metadata"
	CapFetchThread            = "fetch_thread"
	CapFetchMessage           = "fetch_message"
	CapAddReaction            = "add_reaction"
	CapRemoveReaction         = "remove_reaction"
	CapPostEphemeral          = "post_ephemeral"
	CapPostChannelMessage     = "post_channel_message"
	CapStream                 = "stream"
	CapOpenModal              = "open_modal"
	CapFetchMessages          = "fetch_messages"
	CapFetchChannelMessages   = "fetch_channel_messages"
	CapListThreads            = "list_threads"
	CapOpenDM                 = "open_dm"
	CapHandleWebhook          = "handle_webhook"
	CapVerifyWebhook          = "verify_webhook"
	CapParseEvent             = "parse_event"
	CapFormatWebhookResponse  = "format_webhook_response"
	CapListenerChildSpecs     = "listener_child_specs"
)

// AllCapabilityNames lists every optional operation name, in declaration
// order, for iteration when synthesizing a default matrix.
func AllCapabilityNames() []string {
	return []string{
		CapInitialize, CapShutdown, CapEditMessage, CapDeleteMessage,
		CapStartTyping, CapFetchMetadata, CapFetchThread, CapFetchMessage,
		CapAddReaction, CapRemoveReaction, CapPostEphemeral,
		CapPostChannelMessage, CapStream, CapOpenModal, CapFetchMessages,
		CapFetchChannelMessages, CapListThreads, CapOpenDM, CapHandleWebhook,
		CapVerifyWebhook, CapParseEvent, CapFormatWebhookResponse,
		CapListenerChildSpecs,
	}
}

// fallbackDefaultCapabilities is the set of operations whose synthesized
// default (when unimplemented) is Fallback rather than Unsupported.
var fallbackDefaultCapabilities = map[string]bool{
	CapInitialize:            true,
	CapShutdown:              true,
	CapPostEphemeral:         true,
	CapPostChannelMessage:    true,
	CapStream:                true,
	CapHandleWebhook:         true,
	CapVerifyWebhook:         true,
	CapParseEvent:            true,
	CapFormatWebhookResponse: true,
	CapFetchMetadata:         true,
	CapFetchThread:           true,
	CapFetchMessage:          true,
}

// CapabilityMatrix maps operation name -> support status.
type CapabilityMatrix map[string]CapabilityStatus

// implementedCapabilities checks, for each optional operation, whether the
// adapter's concrete type implements the corresponding single-method
// interface — a compile-time capability check, never reflection.
func implementedCapabilities(a Adapter) map[string]bool {
	return map[string]bool{
		CapInitialize:            implementsInitializer(a),
		CapShutdown:              implementsShutdowner(a),
		CapEditMessage:           implementsEditMessager(a),
		CapDeleteMessage:         implementsDeleteMessager(a),
		CapStartTyping:           implementsTypingStarter(a),
		CapFetchMetadata:         implementsMetadataFetcher(a),
		CapFetchThread:           implementsThreadFetcher(a),
		CapFetchMessage:          implementsMessageFetcher(a),
		CapAddReaction:           implementsReactionAdder(a),
		CapRemoveReaction:        implementsReactionRemover(a),
		CapPostEphemeral:         implementsEphemeralPoster(a),
		CapPostChannelMessage:    implementsChannelMessagePoster(a),
		CapStream:                implementsStreamer(a),
		CapOpenModal:             implementsModalOpener(a),
		CapFetchMessages:         implementsMessagesFetcher(a),
		CapFetchChannelMessages:  implementsChannelMessagesFetcher(a),
		CapListThreads:           implementsThreadLister(a),
		CapOpenDM:                implementsDMOpener(a),
		CapHandleWebhook:         implementsWebhookHandler(a),
		CapVerifyWebhook:         implementsWebhookVerifier(a),
		CapParseEvent:            implementsEventParser(a),
		CapFormatWebhookResponse: implementsWebhookResponseFormatter(a),
		CapListenerChildSpecs:    implementsListenerChildSpecer(a),
	}
}

// SynthesizeCapabilities builds the default matrix for an adapter, merging
// any declared overrides (CapabilityDeclarer) over the synthesized defaults.
func SynthesizeCapabilities(a Adapter) CapabilityMatrix {
	matrix := CapabilityMatrix{}
	implemented := implementedCapabilities(a)

	for _, name := range AllCapabilityNames() {
		if implemented[name] {
			matrix[name] = Native
			continue
		}
		if fallbackDefaultCapabilities[name] {
			matrix[name] = Fallback
		} else {
			matrix[name] = Unsupported
		}
	}

	if declarer, ok := a.(CapabilityDeclarer); ok {
		for name, status := range declarer.Capabilities() {
			matrix[name] = status
		}
	}
	return matrix
}

// ValidateCapabilities returns nil (== "Ok") or the list of
// (capability, "missing_callback") offenders: every capability declared
// Native whose underlying operation the adapter does not actually
// implement.
func ValidateCapabilities(a Adapter) []CapabilityOffense {
	declared := SynthesizeCapabilities(a)
	implemented := implementedCapabilities(a)

	var offenses []CapabilityOffense
	for name, status := range declared {
		if status == Native && !implemented[name] {
			offenses = append(offenses, CapabilityOffense{Capability: name, Reason: "missing_callback"})
		}
	}
	return offenses
}

// CapabilityOffense is one entry in ValidateCapabilities' offender list.
type CapabilityOffense struct {
	Capability string
	Reason     string
}

// ToMap renders a CapabilityMatrix as plain data.
func (m CapabilityMatrix) ToMap() map[string]interface{} {
	out := map[string]interface{}{"__type__": string(TypeCapabilityMatrix)}
	caps := map[string]interface{}{}
	for k, v := range m {
		caps[k] = string(v)
	}
	out["capabilities"] = caps
	return out
}

// ReviveCapabilityMatrix reconstructs a CapabilityMatrix from plain data.
func ReviveCapabilityMatrix(m map[string]interface{}) CapabilityMatrix {
	matrix := CapabilityMatrix{}
	caps, _ := m["capabilities"].(map[string]interface{})
	for k, v := range caps {
		if s, ok := v.(string); ok {
			matrix[k] = CapabilityStatus(s)
		}
	}
	return matrix
}
