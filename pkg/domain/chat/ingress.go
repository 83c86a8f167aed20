package chat

// IngressResult classifies a transport-level ingress failure for
// cross-transport diagnostics: which transport delivered the request, which
// adapter it named, and why the request never made it to an EventEnvelope.
// It carries no error value of its own — callers attach it to whatever
// error-reporting path they already use (a WebhookResponse's metadata, a log
// line) alongside the real error.
type IngressResult struct {
	Transport string
	Adapter   string
	Reason    string
	Detail    string
}

// NewIngressFailure builds an IngressResult for one failed ingress attempt.
// err may be nil when reason alone is diagnostic enough (e.g. unknown_adapter).
func NewIngressFailure(transport, adapter, reason string, err error) IngressResult {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return IngressResult{Transport: transport, Adapter: adapter, Reason: reason, Detail: detail}
}

// ToMap renders an IngressResult as plain data.
func (r IngressResult) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"__type__":  string(TypeIngressResult),
		"transport": r.Transport,
		"adapter":   r.Adapter,
		"reason":    r.Reason,
		"detail":    r.Detail,
	}
}

func reviveIngressResult(m map[string]interface{}) IngressResult {
	transport, _ := m["transport"].(string)
	adapter, _ := m["adapter"].(string)
	reason, _ := m["reason"].(string)
	detail, _ := m["detail"].(string)
	return IngressResult{Transport: transport, Adapter: adapter, Reason: reason, Detail: detail}
}
