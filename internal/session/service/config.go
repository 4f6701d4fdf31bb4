package service

import (
	"context"
	"fmt"

	"f2f-cri/internal/session/models"
	"f2f-cri/pkg/platform/sentinel"
	"f2f-cri/pkg/requestcontext"
)

// SessionConfiguration returns what the relying party asked for and the
// documents the front end may offer. Unknown and expired sessions are refused.
func (s *Service) SessionConfiguration(ctx context.Context, sessionID string) (*models.SessionConfigResult, error) {
	const op = "session_configuration"

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, s.sessionError(ctx, op, sessionID, err)
	}
	if session.IsExpired(requestcontext.Now(ctx)) {
		return nil, s.sessionError(ctx, op, sessionID, fmt.Errorf("session configuration: %w", sentinel.ErrExpired))
	}

	var score int
	if session.EvidenceRequested != nil {
		score = session.EvidenceRequested.StrengthScore
	}
	s.logger.InfoContext(ctx, "session configuration served",
		"session_id", session.ID,
		"govuk_signin_journey_id", session.ClientSessionID,
		"strength_score", score,
	)

	return &models.SessionConfigResult{
		EvidenceRequested: session.EvidenceRequested,
		DocumentTypes:     models.SelectableDocuments(),
	}, nil
}
