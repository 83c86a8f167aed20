package chat

import (
	"errors"
	"testing"
)

func TestIngressResultRoundTrip(t *testing.T) {
	result := NewIngressFailure("webhook", "slack", "verify_failed", errors.New("bad signature"))

	revived, err := Revive(result.ToMap())
	if err != nil {
		t.Fatalf("Revive: %v", err)
	}
	ir, ok := revived.(IngressResult)
	if !ok {
		t.Fatalf("expected IngressResult, got %T", revived)
	}
	if ir.Transport != "webhook" || ir.Adapter != "slack" || ir.Reason != "verify_failed" {
		t.Fatalf("unexpected round trip: %+v", ir)
	}
	if ir.Detail != "bad signature" {
		t.Fatalf("expected error detail to survive, got %q", ir.Detail)
	}
}

func TestIngressResultNilErrorLeavesDetailEmpty(t *testing.T) {
	result := NewIngressFailure("webhook", "slack", "unknown_adapter", nil)
	if result.Detail != "" {
		t.Fatalf("expected empty detail with a nil error, got %q", result.Detail)
	}
}
