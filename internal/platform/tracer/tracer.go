// Package tracer is a thin span abstraction over OpenTelemetry.
//
// Vendor calls are the only network hops worth tracing in this service, so the
// names and attribute keys below describe the vendor session lifecycle.
package tracer

import (
	"context"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration records the value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names for vendor operations.
const (
	SpanVendorCreateSession    = "vendor.create_session"
	SpanVendorGetConfiguration = "vendor.get_configuration"
	SpanVendorPutInstructions  = "vendor.put_instructions"
	SpanVendorInstructionsPDF  = "vendor.instructions_pdf"
	SpanVendorGetSession       = "vendor.get_session"
	SpanVendorGetMedia         = "vendor.get_media"
)

const (
	AttrVendorSessionID = "vendor.session_id"
	AttrHTTPStatus      = "http.status_code"
	AttrAttempt         = "retry.attempt"
	AttrRetryable       = "retry.retryable"
)

// EventRetry marks a retried vendor attempt inside a span.
const EventRetry = "vendor.retry"
