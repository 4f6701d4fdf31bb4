package audit

import (
	"context"
	"log/slog"

	"f2f-cri/pkg/requestcontext"
)

// Publisher accepts events for delivery. Satisfied by publisher.Publisher.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Emitter is the single place where journey code hands events to the audit
// pipeline. Emit logs the event, stamps it and publishes it; failures are
// logged and never returned, so audit can never fail or roll back a transition.
type Emitter struct {
	logger    *slog.Logger
	publisher Publisher
}

func NewEmitter(logger *slog.Logger, publisher Publisher) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{logger: logger, publisher: publisher}
}

func (e *Emitter) Emit(ctx context.Context, event Event) {
	if e == nil {
		return
	}
	event.Stamp(requestcontext.Now(ctx))
	event.WithDeviceInformation(requestcontext.EncodedAuditHeader(ctx))

	requestID := requestcontext.RequestID(ctx)
	e.logger.InfoContext(ctx, string(event.EventName),
		"log_type", "audit",
		"session_id", event.User.SessionID,
		"govuk_signin_journey_id", event.User.GovukSigninJourneyID,
		"request_id", requestID,
	)

	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.ErrorContext(ctx, "failed to publish audit event",
			"error", err,
			"event_name", event.EventName,
			"session_id", event.User.SessionID,
			"request_id", requestID,
		)
	}
}
