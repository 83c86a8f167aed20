package chatcore

import (
	"context"

	"github.com/picoclaw/chatcore/pkg/domain/chat"
)

// normalizeWebhookRequest coerces raw (already a chat.WebhookRequest, or a
// loosely-typed map) into a canonical chat.WebhookRequest.
func normalizeWebhookRequest(adapterName string, raw interface{}) chat.WebhookRequest {
	switch v := raw.(type) {
	case chat.WebhookRequest:
		if v.AdapterName == "" {
			v.AdapterName = adapterName
		}
		return v
	case *chat.WebhookRequest:
		req := *v
		if req.AdapterName == "" {
			req.AdapterName = adapterName
		}
		return req
	case map[string]interface{}:
		return chat.NewWebhookRequest(adapterName, v)
	default:
		return chat.NewWebhookRequest(adapterName, map[string]interface{}{})
	}
}

// formatPipelineError renders an error result, falling back to the default
// canonical mapping when the adapter's own formatter itself fails.
func formatPipelineError(ctx context.Context, a chat.Adapter, err error, opts map[string]interface{}) chat.WebhookResponse {
	result := chat.WebhookPipelineResult{OK: false, Err: err}
	resp, ferr := chat.FormatWebhookResponse(ctx, a, result, opts)
	if ferr != nil {
		return chat.DefaultFormatWebhookResponse(result)
	}
	return resp
}

// HandleRequest runs the webhook pipeline: verify → parse → route → format,
// converting every error path (including a recovered panic) into a typed
// WebhookResponse. It never propagates an error to the caller.
func (c *Chat) HandleRequest(ctx context.Context, adapterName string, raw interface{}, opts map[string]interface{}) (outChat *Chat, outEnv *chat.EventEnvelope, outResp chat.WebhookResponse) {
	outChat = c

	defer func() {
		if r := recover(); r != nil {
			outEnv = nil
			outResp = chat.NewWebhookResponse(500, chat.WebhookErrorWithInspected("webhook_exception", r))
		}
	}()

	a, err := c.Adapter(adapterName)
	if err != nil {
		outResp = chat.NewWebhookResponse(404, chat.WebhookErrorWithAdapter("unknown_adapter", adapterName)).
			WithIngressFailure(chat.NewIngressFailure("webhook", adapterName, "unknown_adapter", err))
		return outChat, nil, outResp
	}

	req := normalizeWebhookRequest(adapterName, raw)
	callOpts := mergeOpts(opts, nil)
	callOpts["request"] = req

	if verr := chat.VerifyWebhook(ctx, a, req); verr != nil {
		outResp = formatPipelineError(ctx, a, verr, callOpts).
			WithIngressFailure(chat.NewIngressFailure("webhook", adapterName, "verify_failed", verr))
		return outChat, nil, outResp
	}

	env, perr := chat.ParseEvent(ctx, a, req, callOpts)
	if perr != nil {
		outResp = formatPipelineError(ctx, a, perr, callOpts).
			WithIngressFailure(chat.NewIngressFailure("webhook", adapterName, "parse_failed", perr))
		return outChat, nil, outResp
	}
	if env == nil {
		resp, ferr := chat.FormatWebhookResponse(ctx, a, chat.WebhookPipelineResult{OK: true, Noop: true}, callOpts)
		if ferr != nil {
			outResp = chat.NewWebhookResponse(500, chat.WebhookError("webhook_response_format_error"))
			return outChat, nil, outResp
		}
		outResp = resp
		return outChat, nil, outResp
	}

	updated, routedEnv, rerr := c.RouteEvent(adapterName, *env)
	outChat = updated
	if rerr != nil {
		outResp = formatPipelineError(ctx, a, rerr, callOpts).
			WithIngressFailure(chat.NewIngressFailure("webhook", adapterName, "route_failed", rerr))
		return outChat, nil, outResp
	}

	resp, ferr := chat.FormatWebhookResponse(ctx, a, chat.WebhookPipelineResult{OK: true, Envelope: &routedEnv}, callOpts)
	if ferr != nil {
		outResp = chat.NewWebhookResponse(500, chat.WebhookError("webhook_response_format_error"))
		return outChat, &routedEnv, outResp
	}
	outResp = resp
	return outChat, &routedEnv, outResp
}
