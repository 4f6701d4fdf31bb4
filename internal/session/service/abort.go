package service

import (
	"context"
	"errors"
	"fmt"

	"f2f-cri/internal/session/models"
	"f2f-cri/pkg/platform/audit"
	"f2f-cri/pkg/platform/sentinel"
)

const abortMessage = "Session has been aborted"

// Abort ends the journey on the user's request. Repeating it returns the same
// redirect and writes and emits nothing.
func (s *Service) Abort(ctx context.Context, sessionID string, req *models.AbortRequest) (*models.AbortResult, error) {
	const op = "abort"

	var (
		from     models.State
		redirect string
	)
	session, err := s.sessions.Execute(ctx, sessionID,
		func(current *models.Session) error {
			from = current.State
			if current.State == models.StateAborted {
				redirect = current.AbortRedirect()
				return errAlreadyAborted
			}
			if !current.State.CanTransitionTo(models.StateAborted) {
				return fmt.Errorf("abort in %s: %w", current.State, sentinel.ErrInvalidState)
			}
			return nil
		},
		func(current *models.Session) {
			current.State = models.StateAborted
		},
	)
	if errors.Is(err, errAlreadyAborted) {
		s.logger.InfoContext(ctx, "session already aborted", "session_id", sessionID)
		return &models.AbortResult{Location: redirect, Message: abortMessage}, nil
	}
	if err != nil {
		return nil, s.sessionError(ctx, op, sessionID, err)
	}
	s.transitioned(ctx, session, from)

	var extensions map[string]any
	if req != nil && req.Reason != "" {
		extensions = map[string]any{"reason": req.Reason}
	}
	s.emit(ctx, audit.EventSessionAborted, session, nil, extensions)

	return &models.AbortResult{Location: session.AbortRedirect(), Message: abortMessage}, nil
}
