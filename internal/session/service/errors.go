package service

import (
	"context"
	"errors"
	"fmt"

	"f2f-cri/internal/session/models"
	"f2f-cri/internal/vendor"
	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/platform/sentinel"
)

// errAlreadyAborted stops Execute from writing when abort is repeated.
var errAlreadyAborted = errors.New("session already aborted")

func errInvalidStateFor(session *models.Session) error {
	return fmt.Errorf("session in %s: %w", session.State, sentinel.ErrInvalidState)
}

// stateErrorMapping translates store and validate errors on session-header
// endpoints. First match wins.
type stateErrorMapping struct {
	sentinel  error
	code      dErrors.Code
	msg       string
	logReason string
}

var stateErrorMappings = []stateErrorMapping{
	{sentinel.ErrNotFound, dErrors.CodeUnauthorized, "session not found", "not_found"},
	{sentinel.ErrExpired, dErrors.CodeSessionExpired, "session expired", "expired"},
	{sentinel.ErrInvalidState, dErrors.CodeInvalidState, "session in wrong state", "invalid_state"},
	{sentinel.ErrConflict, dErrors.CodeConflict, "session changed concurrently", "conflict"},
}

// sessionError translates err exactly once and records why op was refused.
// Domain errors pass through untouched.
func (s *Service) sessionError(ctx context.Context, op, sessionID string, err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	for _, m := range stateErrorMappings {
		if errors.Is(err, m.sentinel) {
			s.metrics.IncAuthFailure(op, m.logReason)
			s.logger.WarnContext(ctx, "journey step refused",
				"operation", op,
				"reason", m.logReason,
				"session_id", sessionID,
				"error", err,
			)
			return dErrors.Wrap(err, m.code, m.msg)
		}
	}
	s.logger.ErrorContext(ctx, "session store failure",
		"operation", op,
		"session_id", sessionID,
		"error", err,
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "session store unavailable")
}

// vendorError maps vendor failures: retryable categories become 503, a vendor
// session that is not usable yet is incomplete evidence, the rest are 500.
func (s *Service) vendorError(ctx context.Context, op, sessionID string, err error) error {
	attrs := []any{
		"operation", op,
		"session_id", sessionID,
		"category", string(vendor.CategoryOf(err)),
		"error", err,
	}
	switch {
	case errors.Is(err, vendor.ErrSessionNotCompleted),
		errors.Is(err, vendor.ErrNoDocumentFields),
		errors.Is(err, vendor.ErrMultipleDocuments),
		errors.Is(err, vendor.ErrNoMediaID):
		s.logger.WarnContext(ctx, "vendor session not usable", attrs...)
		return dErrors.Wrap(err, dErrors.CodeIncompleteEvidence, "vendor session incomplete")
	case vendor.IsRetryable(err):
		s.logger.WarnContext(ctx, "vendor unavailable", attrs...)
		return dErrors.Wrap(err, dErrors.CodeVendorUnavailable, "vendor unavailable")
	}
	s.logger.ErrorContext(ctx, "vendor call failed", attrs...)
	return dErrors.Wrap(err, dErrors.CodeVendorFailure, "vendor call failed")
}
