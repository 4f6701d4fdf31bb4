package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"f2f-cri/internal/platform/tracer"
)

func TestNoopTracer(t *testing.T) {
	ctx := context.Background()
	newCtx, span := tracer.NewNoop().Start(ctx, tracer.SpanVendorCreateSession,
		tracer.String(tracer.AttrVendorSessionID, "b7a1"),
	)
	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.Int(tracer.AttrHTTPStatus, 503))
	span.AddEvent(tracer.EventRetry, tracer.Int(tracer.AttrAttempt, 1))
	span.End(errors.New("vendor unavailable"))
}

func TestOTelTracerWithNoopProvider(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	_, span := tr.Start(context.Background(), tracer.SpanVendorGetSession,
		tracer.String(tracer.AttrVendorSessionID, "b7a1"),
		tracer.Bool(tracer.AttrRetryable, true),
		tracer.Duration("latency", 250*time.Millisecond),
	)
	require.NotNil(t, span)
	span.AddEvent(tracer.EventRetry)
	span.End(nil)
}

func TestDurationIsMilliseconds(t *testing.T) {
	attr := tracer.Duration("latency", 1500*time.Millisecond)
	assert.Equal(t, int64(1500), attr.Value)
}
