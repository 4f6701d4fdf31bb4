// Package requestcontext holds request-scoped values set by middleware and read by services.
//
// It has no net/http dependency so services and workers can import it freely.
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)   // tests, sweeps
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"
)

type (
	clientIPKey      struct{}
	requestIDKey     struct{}
	requestTimeKey   struct{}
	encodedHeaderKey struct{}
)

// ClientIP returns the caller IP resolved by the metadata middleware.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// EncodedAuditHeader returns the opaque device-information header forwarded by the front end.
func EncodedAuditHeader(ctx context.Context) string {
	if h, ok := ctx.Value(encodedHeaderKey{}).(string); ok {
		return h
	}
	return ""
}

func WithEncodedAuditHeader(ctx context.Context, header string) context.Context {
	return context.WithValue(ctx, encodedHeaderKey{}, header)
}

func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the request-scoped time.
// Falls back to time.Now() outside HTTP requests (sweeps, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the time seen by Now for everything downstream of ctx.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
