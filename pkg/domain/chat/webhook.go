package chat

import "strings"

// WebhookRequest is the HTTP-shaped envelope the core receives from a
// transport that delivered a raw webhook call. Headers are normalized to
// lowercase keys.
type WebhookRequest struct {
	AdapterName string                 `json:"adapter_name,omitempty"`
	Method      string                 `json:"method"`
	Path        string                 `json:"path,omitempty"`
	Headers     map[string]string      `json:"headers"`
	Payload     map[string]interface{} `json:"payload"`
	Query       map[string]string      `json:"query,omitempty"`
	Raw         []byte                 `json:"raw,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// NewWebhookRequest normalizes a loosely-typed request-like map into a
// canonical WebhookRequest, lower-casing header keys and defaulting Method
// to POST.
func NewWebhookRequest(adapterName string, raw map[string]interface{}) WebhookRequest {
	req := WebhookRequest{AdapterName: adapterName, Method: "POST"}
	if v, ok := raw["method"].(string); ok && v != "" {
		req.Method = v
	}
	if v, ok := raw["path"].(string); ok {
		req.Path = v
	}
	req.Headers = map[string]string{}
	if h, ok := raw["headers"].(map[string]string); ok {
		for k, v := range h {
			req.Headers[strings.ToLower(k)] = v
		}
	} else if h, ok := raw["headers"].(map[string]interface{}); ok {
		for k, v := range h {
			if s, ok := v.(string); ok {
				req.Headers[strings.ToLower(k)] = s
			}
		}
	}
	if p, ok := raw["payload"].(map[string]interface{}); ok {
		req.Payload = p
	} else {
		req.Payload = raw
	}
	if q, ok := raw["query"].(map[string]string); ok {
		req.Query = q
	}
	return req
}

// Header performs a case-insensitive header lookup.
func (r WebhookRequest) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// ToMap renders a WebhookRequest as plain data.
func (r WebhookRequest) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"__type__":     string(TypeWebhookRequest),
		"adapter_name": r.AdapterName,
		"method":       r.Method,
		"path":         r.Path,
		"headers":      r.Headers,
		"payload":      r.Payload,
		"query":        r.Query,
	}
}

// ReviveWebhookRequest reconstructs a WebhookRequest from plain data.
func ReviveWebhookRequest(m map[string]interface{}) WebhookRequest {
	req := NewWebhookRequest("", m)
	if v, ok := m["adapter_name"].(string); ok {
		req.AdapterName = v
	}
	return req
}

// WebhookResponse is the typed response the webhook pipeline always
// produces, regardless of what happened inside it.
type WebhookResponse struct {
	Status   int                    `json:"status"`
	Headers  map[string]string      `json:"headers,omitempty"`
	Body     interface{}            `json:"body"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewWebhookResponse is a small constructor keeping the 200/{"ok":true}
// canonical shape one call away.
func NewWebhookResponse(status int, body interface{}) WebhookResponse {
	return WebhookResponse{Status: status, Body: body}
}

// ToMap renders a WebhookResponse as plain data.
func (r WebhookResponse) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"__type__": string(TypeWebhookResponse),
		"status":   r.Status,
		"headers":  r.Headers,
		"body":     r.Body,
		"metadata": r.Metadata,
	}
}

// ReviveWebhookResponse reconstructs a WebhookResponse from plain data.
func ReviveWebhookResponse(m map[string]interface{}) WebhookResponse {
	r := WebhookResponse{}
	switch v := m["status"].(type) {
	case int:
		r.Status = v
	case float64:
		r.Status = int(v)
	}
	if body, ok := m["body"]; ok {
		r.Body = body
	}
	if h, ok := m["headers"].(map[string]string); ok {
		r.Headers = h
	}
	if meta, ok := m["metadata"].(map[string]interface{}); ok {
		r.Metadata = meta
	}
	return r
}

// WithIngressFailure attaches an ingress-level diagnostic to a
// WebhookResponse's metadata, for a caller that wants the classification
// alongside the response body's error reason.
func (r WebhookResponse) WithIngressFailure(ingress IngressResult) WebhookResponse {
	if r.Metadata == nil {
		r.Metadata = map[string]interface{}{}
	}
	r.Metadata["ingress"] = ingress.ToMap()
	return r
}

// Canonical webhook response bodies.
var (
	WebhookOK       = map[string]interface{}{"ok": true}
	WebhookOKNoop   = map[string]interface{}{"ok": true, "noop": true}
)

// WebhookError builds the canonical {"error": reason} body.
func WebhookError(reason string) map[string]interface{} {
	return map[string]interface{}{"error": reason}
}

// WebhookErrorWithAdapter builds the canonical unknown_adapter body.
func WebhookErrorWithAdapter(reason, adapterName string) map[string]interface{} {
	return map[string]interface{}{"error": reason, "adapter_name": adapterName}
}

// WebhookErrorWithInspected builds a body carrying an inspected error
// reason, used by the 400/500 catch-all mappings.
func WebhookErrorWithInspected(reason string, inspected interface{}) map[string]interface{} {
	return map[string]interface{}{"error": reason, "reason": inspect(inspected)}
}
