package chat

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned by an outbound wrapper when the adapter's
// capability matrix declares the operation Unsupported.
var ErrUnsupported = errors.New("chat: operation unsupported by adapter")

// ErrInvalidWebhookSecret and ErrInvalidSignature are the two webhook
// verification failures the default response formatter maps to 401;
// VerifyWebhook implementations should return one of these verbatim.
var (
	ErrInvalidWebhookSecret = errors.New("invalid_webhook_secret")
	ErrInvalidSignature     = errors.New("invalid_signature")
)

// ErrUnknownAdapter is returned when a Chat is asked to act against an
// adapter name it has no registration for.
type ErrUnknownAdapter struct {
	AdapterName string
}

func (e *ErrUnknownAdapter) Error() string {
	return fmt.Sprintf("chat: unknown adapter %q", e.AdapterName)
}

// ErrInvalidInput is returned by event-normalizer coercions (ensure_<kind>)
// when a raw value cannot be turned into the requested typed kind.
type ErrInvalidInput struct {
	Kind  string
	Value interface{}
}

func (e *ErrInvalidInput) Error() string {
	return fmt.Sprintf("chat: invalid %s: %#v", e.Kind, e.Value)
}

// ErrUnsupportedEventType is returned by the router for an EventEnvelope
// whose EventType isn't one of the known constants.
type ErrUnsupportedEventType struct {
	EventType EventType
}

func (e *ErrUnsupportedEventType) Error() string {
	return fmt.Sprintf("chat: unsupported event type %q", e.EventType)
}

// FieldError is one field-level failure inside a ValidationError.
type FieldError struct {
	Path   string
	Reason string
}

// ValidationError is raised by a schema-validating constructor when a
// required invariant is violated. It carries enough structure for a caller
// (or the webhook pipeline's catch-all) to report exactly what failed.
type ValidationError struct {
	Subject string
	Input   interface{}
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("chat: validation failed for %s: %v", e.Subject, e.Fields)
}

// NewValidationError builds a ValidationError with a single field failure.
func NewValidationError(subject string, input interface{}, path, reason string) *ValidationError {
	return &ValidationError{
		Subject: subject,
		Input:   input,
		Fields:  []FieldError{{Path: path, Reason: reason}},
	}
}
